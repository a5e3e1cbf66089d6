package catalog

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// Cursor is the decoded form of a page token: the keyset position of the last
// row served plus the ordering and store filters it was produced under.
type Cursor struct {
	Value      string               `json:"v"`
	ID         string               `json:"id"`
	Sort       domain.SortField     `json:"s"`
	Dir        domain.SortDirection `json:"d"`
	FilterHash string               `json:"f,omitempty"`
}

func EncodeCursor(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("%w: empty token", domain.ErrInvalidCursor)
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: decode base64: %v", domain.ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: unmarshal: %v", domain.ErrInvalidCursor, err)
	}
	if c.ID == "" {
		return Cursor{}, fmt.Errorf("%w: missing id", domain.ErrInvalidCursor)
	}
	return c, nil
}

// positionFor checks that token was issued for q's ordering and store
// filters and returns the keyset position it carries. q must be normalized.
func positionFor(token string, q domain.ProductsQuery) (*domain.Position, error) {
	if token == "" {
		return nil, nil
	}
	c, err := DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	if c.Sort != q.SortBy || c.Dir != q.SortDirection {
		return nil, fmt.Errorf("%w: issued for %s %s, query sorts by %s %s",
			domain.ErrInvalidCursor, c.Sort, c.Dir, q.SortBy, q.SortDirection)
	}
	if c.FilterHash != filterHash(q.Filters) {
		return nil, fmt.Errorf("%w: filters changed since cursor was created", domain.ErrInvalidCursor)
	}
	return &domain.Position{Value: c.Value, ID: c.ID}, nil
}

func cursorAfter(p domain.Product, q domain.ProductsQuery) (string, error) {
	return EncodeCursor(Cursor{
		Value:      p.SortValue(q.SortBy),
		ID:         p.ID,
		Sort:       q.SortBy,
		Dir:        q.SortDirection,
		FilterHash: filterHash(q.Filters),
	})
}

// filterHash covers only the filters the store evaluates; client-side
// filters do not move the keyset.
func filterHash(f domain.ProductFilters) string {
	featured := ""
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	s := strings.Join([]string{
		f.Status, f.Visibility, f.Category, f.Brand, featured, strconv.FormatBool(f.InStock),
	}, "\x1f")
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8])
}
