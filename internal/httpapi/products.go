package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/observability"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductsQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, st, err := s.catalog.GetPageWithStats(r.Context(), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if res.HasMore {
		s.catalog.PreloadNextPage(q, res.NextCursor)
	}

	observability.WriteLookupHeaders(w, string(st.Source), st.CacheMs, st.StoreMs)
	s.logger.Debug("Catalog page served",
		zap.String("source", string(st.Source)),
		zap.Int("items", len(res.Items)),
		zap.Bool("has_more", res.HasMore),
	)
	writeJSON(w, res)
}

// parseProductsQuery maps query parameters onto a ProductsQuery. Tags may
// repeat or be comma separated.
func parseProductsQuery(v url.Values) (domain.ProductsQuery, error) {
	q := domain.ProductsQuery{
		Cursor:        v.Get("cursor"),
		SortBy:        domain.SortField(v.Get("sort_by")),
		SortDirection: domain.SortDirection(v.Get("sort_direction")),
		SearchTerm:    v.Get("q"),
		Filters: domain.ProductFilters{
			Status:     v.Get("status"),
			Visibility: v.Get("visibility"),
			Category:   v.Get("category"),
			Brand:      v.Get("brand"),
		},
	}

	if raw := v.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("limit must be an integer")
		}
		q.Limit = n
	}
	if raw := v.Get("featured"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("featured must be a boolean")
		}
		q.Filters.Featured = &b
	}
	if raw := v.Get("in_stock"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("in_stock must be a boolean")
		}
		q.Filters.InStock = b
	}
	for _, name := range []string{"min_price", "max_price"} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return q, fmt.Errorf("%s must be a decimal number", name)
		}
		if name == "min_price" {
			q.Filters.MinPrice = &d
		} else {
			q.Filters.MaxPrice = &d
		}
	}
	for _, raw := range v["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Filters.Tags = append(q.Filters.Tags, t)
			}
		}
	}
	return q, nil
}
