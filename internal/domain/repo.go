package domain

import (
	"context"
)

// StoreQuery is the part of a ProductsQuery the document store can evaluate
// itself: equality filters, ordering, a keyset position and a row limit.
type StoreQuery struct {
	Status     string
	Visibility string
	Category   string
	Brand      string
	Featured   *bool
	InStock    bool

	SortBy        SortField
	SortDirection SortDirection
	After         *Position
	Limit         int
}

// Position is the keyset continuation point: the sort column value of the
// last row served (as text) and its id as the tie breaker.
type Position struct {
	Value string
	ID    string
}

//go:generate mockgen -destination=internal/catalog/repo_mock_test.go -package=catalog github.com/TemirB/b2b-storefront/internal/domain ProductRepository

type ProductRepository interface {
	Find(ctx context.Context, q StoreQuery) ([]Product, error)
}

// CartSubscription delivers cart snapshots, newest last. Updates is closed
// after Close.
type CartSubscription interface {
	Updates() <-chan Cart
	Close()
}
