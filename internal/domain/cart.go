package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	BasePrice       decimal.Decimal `json:"base_price"`
	CalculatedPrice *PriceBreakdown `json:"calculated_price,omitempty"`
	AddedAt         time.Time       `json:"added_at"`
}

// Cart is a snapshot of a user's cart as held by the store. Revision grows
// with every write so that stale snapshots can be told apart.
type Cart struct {
	UserID    string     `json:"user_id"`
	Revision  int64      `json:"revision"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}

func (c Cart) Item(id string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}

// NewCartItem is the payload of an add-to-cart mutation.
type NewCartItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	BasePrice decimal.Decimal `json:"base_price"`
}

func (n NewCartItem) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if n.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base_price must not be negative", ErrInvalidParams)
	}
	return nil
}

type CartSummary struct {
	UserID      string          `json:"user_id"`
	Revision    int64           `json:"revision"`
	Items       []CartItem      `json:"items"`
	TotalItems  int             `json:"total_items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Savings     decimal.Decimal `json:"savings"`
}

// Identity is what the session provider knows about the caller.
type Identity struct {
	UserID     string
	CustomerID string
}

type CartOp string

const (
	CartOpAdd    CartOp = "add"
	CartOpUpdate CartOp = "update"
	CartOpRemove CartOp = "remove"
	CartOpClear  CartOp = "clear"
)

// CartEvent announces that a user's cart reached Revision. It carries no
// items; receivers reload the cart from the store.
type CartEvent struct {
	UserID   string    `json:"user_id"`
	Revision int64     `json:"revision"`
	Op       CartOp    `json:"op"`
	At       time.Time `json:"at"`
}
