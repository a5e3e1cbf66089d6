package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// MemoryRepository is an in-process product store with the same filtering,
// ordering and keyset semantics as the Postgres repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewMemoryRepository(products ...domain.Product) *MemoryRepository {
	r := &MemoryRepository{}
	r.Put(products...)
	return r
}

// Put inserts or replaces products by id.
func (r *MemoryRepository) Put(products ...domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		i := slices.IndexFunc(r.products, func(x domain.Product) bool { return x.ID == p.ID })
		if i >= 0 {
			r.products[i] = p
			continue
		}
		r.products = append(r.products, p)
	}
}

func (r *MemoryRepository) Find(ctx context.Context, q domain.StoreQuery) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	rows := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if matchesStore(p, q) {
			rows = append(rows, p)
		}
	}
	r.mu.RUnlock()

	desc := q.SortDirection == domain.SortDesc
	var sortErr error
	slices.SortFunc(rows, func(a, b domain.Product) int {
		c, err := a.CompareSortValue(q.SortBy, b.SortValue(q.SortBy))
		if err != nil {
			sortErr = err
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if desc {
			return -c
		}
		return c
	})
	if sortErr != nil {
		return nil, sortErr
	}

	if q.After != nil {
		out := rows[:0]
		for _, p := range rows {
			c, err := p.CompareSortValue(q.SortBy, q.After.Value)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				c = cmp.Compare(p.ID, q.After.ID)
			}
			if (desc && c < 0) || (!desc && c > 0) {
				out = append(out, p)
			}
		}
		rows = out
	}

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func matchesStore(p domain.Product, q domain.StoreQuery) bool {
	switch {
	case q.Status != "" && p.Status != q.Status:
		return false
	case q.Visibility != "" && p.Visibility != q.Visibility:
		return false
	case q.Category != "" && p.Category != q.Category:
		return false
	case q.Brand != "" && p.Brand != q.Brand:
		return false
	case q.Featured != nil && p.Featured != *q.Featured:
		return false
	case q.InStock && p.Stock <= 0:
		return false
	}
	return true
}
