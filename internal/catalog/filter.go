package catalog

import (
	"slices"
	"strings"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// applyClientFilters keeps the products matching the search term, the price
// range and the tag set of q. q must be normalized.
func applyClientFilters(items []domain.Product, q domain.ProductsQuery) []domain.Product {
	if !q.HasClientFilters() {
		return items
	}
	out := make([]domain.Product, 0, len(items))
	for _, p := range items {
		if matchesSearch(p, q.SearchTerm) && inPriceRange(p, q.Filters) && hasAnyTag(p, q.Filters.Tags) {
			out = append(out, p)
		}
	}
	return out
}

func matchesSearch(p domain.Product, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.SKU), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func inPriceRange(p domain.Product, f domain.ProductFilters) bool {
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

// hasAnyTag reports whether p shares at least one tag with want.
func hasAnyTag(p domain.Product, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, t := range p.Tags {
		if slices.Contains(want, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
