package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/TemirB/b2b-storefront/internal/domain"
)

// Summary prices the held cart for the session's customer. Nothing is cached
// here: every call starts from the current snapshot.
func (s *Session) Summary(ctx context.Context) (domain.CartSummary, error) {
	s.mu.RLock()
	closed := s.closed
	c := s.cart.Clone()
	s.mu.RUnlock()
	if closed {
		return domain.CartSummary{}, domain.ErrNoUser
	}
	c.UserID = s.identity.UserID

	return Summarize(ctx, c, s.identity.CustomerID, s.pricer)
}

// Summarize derives per-item prices and cart totals. An item the pricer
// cannot price is counted at its base price.
func Summarize(ctx context.Context, c domain.Cart, customerID string, pricer Pricer) (domain.CartSummary, error) {
	out := domain.CartSummary{
		UserID:      c.UserID,
		Revision:    c.Revision,
		Items:       make([]domain.CartItem, len(c.Items)),
		Subtotal:    decimal.Zero,
		TotalAmount: decimal.Zero,
		Savings:     decimal.Zero,
	}
	copy(out.Items, c.Items)
	if len(out.Items) == 0 {
		return out, nil
	}

	params := make([]domain.PriceParams, len(out.Items))
	for i, it := range out.Items {
		params[i] = domain.PriceParams{
			ProductID:  it.ProductID,
			CustomerID: customerID,
			Quantity:   it.Quantity,
			BasePrice:  it.BasePrice,
		}
	}
	prices, err := pricer.CalculatePricesBatch(ctx, params)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("price cart: %w", err)
	}

	for i := range out.Items {
		it := &out.Items[i]
		unit := it.BasePrice
		if i < len(prices) {
			p := prices[i]
			it.CalculatedPrice = &p
			unit = p.Price
		}
		qty := decimal.NewFromInt(int64(it.Quantity))

		out.TotalItems += it.Quantity
		out.Subtotal = out.Subtotal.Add(it.BasePrice.Mul(qty))
		out.TotalAmount = out.TotalAmount.Add(unit.Mul(qty))
	}
	out.Savings = out.Subtotal.Sub(out.TotalAmount)
	return out, nil
}
