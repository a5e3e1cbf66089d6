package domain

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByUpdatedAt SortField = "updated_at"
	SortByName      SortField = "name"
	SortByPrice     SortField = "price"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Product struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Tags        []string        `json:"tags"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	Visibility  string          `json:"visibility"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFilters holds every catalog filter. Status, Visibility, Category,
// Brand, Featured and InStock are evaluated by the store; MinPrice, MaxPrice
// and Tags (plus the query search term) are applied after fetching.
type ProductFilters struct {
	Status     string           `json:"status,omitempty"`
	Visibility string           `json:"visibility,omitempty"`
	Category   string           `json:"category,omitempty"`
	Brand      string           `json:"brand,omitempty"`
	Featured   *bool            `json:"featured,omitempty"`
	InStock    bool             `json:"in_stock,omitempty"`
	MinPrice   *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	Tags       []string         `json:"tags,omitempty"`
}

type ProductsQuery struct {
	Limit         int            `json:"limit" validate:"gte=0,lte=100"`
	Cursor        string         `json:"cursor,omitempty"`
	Filters       ProductFilters `json:"filters"`
	SortBy        SortField      `json:"sort_by" validate:"omitempty,oneof=created_at updated_at name price"`
	SortDirection SortDirection  `json:"sort_direction" validate:"omitempty,oneof=asc desc"`
	SearchTerm    string         `json:"search_term,omitempty"`
}

func (q ProductsQuery) Validate() error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	f := q.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return fmt.Errorf("%w: min_price is greater than max_price", ErrInvalidParams)
	}
	return nil
}

// Normalize applies defaults and canonical forms so that equivalent queries
// share one cache key.
func (q ProductsQuery) Normalize() ProductsQuery {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultPageSize
	case q.Limit > MaxPageSize:
		q.Limit = MaxPageSize
	}
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortDirection == "" {
		q.SortDirection = SortDesc
	}
	q.SearchTerm = strings.ToLower(strings.TrimSpace(q.SearchTerm))
	q.Cursor = strings.TrimSpace(q.Cursor)

	if len(q.Filters.Tags) > 0 {
		tags := make([]string, 0, len(q.Filters.Tags))
		for _, t := range q.Filters.Tags {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				tags = append(tags, t)
			}
		}
		slices.Sort(tags)
		q.Filters.Tags = slices.Compact(tags)
		if len(q.Filters.Tags) == 0 {
			q.Filters.Tags = nil
		}
	}
	return q
}

// Key is the cache identity of the normalized query, cursor included.
func (q ProductsQuery) Key() string {
	n := q.Normalize()
	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Sprintf("%+v", n)
	}
	return string(b)
}

// HasClientFilters reports whether any filter must be applied after fetching.
func (q ProductsQuery) HasClientFilters() bool {
	f := q.Filters
	return q.SearchTerm != "" || f.MinPrice != nil || f.MaxPrice != nil || len(f.Tags) > 0
}

type ProductsResult struct {
	Items      []Product `json:"items"`
	HasMore    bool      `json:"has_more"`
	NextCursor string    `json:"next_cursor,omitempty"`
	Total      int       `json:"total"`
}

// SortValue renders p's value for field as text. Times use RFC 3339 in UTC
// with nanoseconds, prices their canonical decimal form.
func (p Product) SortValue(field SortField) string {
	switch field {
	case SortByUpdatedAt:
		return p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	case SortByName:
		return p.Name
	case SortByPrice:
		return p.Price.String()
	default:
		return p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// CompareSortValue orders p against a position value produced by SortValue.
func (p Product) CompareSortValue(field SortField, value string) (int, error) {
	switch field {
	case SortByName:
		return strings.Compare(p.Name, value), nil
	case SortByPrice:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		return p.Price.Cmp(d), nil
	case SortByUpdatedAt, SortByCreatedAt, "":
		ts, err := time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		t := p.CreatedAt
		if field == SortByUpdatedAt {
			t = p.UpdatedAt
		}
		return t.Compare(ts), nil
	}
	return 0, fmt.Errorf("%w: unknown sort field %q", ErrInvalidCursor, field)
}
