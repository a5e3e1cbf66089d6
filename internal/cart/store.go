package cart

import (
	"context"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

//go:generate mockgen -source internal/cart/store.go -destination=internal/cart/store_mock_test.go -package=cart

// Store is the document store holding carts. Writes never hand back the new
// cart; it arrives through subscriptions.
type Store interface {
	AddItem(ctx context.Context, userID string, item domain.NewCartItem) error
	UpdateItemQuantity(ctx context.Context, userID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	Subscribe(ctx context.Context, userID string) (domain.CartSubscription, error)
}

type Pricer interface {
	CalculatePricesBatch(ctx context.Context, params []domain.PriceParams) ([]domain.PriceBreakdown, error)
}
