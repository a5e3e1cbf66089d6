package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

var hundred = decimal.NewFromInt(100)

const anonymousCustomer = "anonymous"

// PriceParams is the input of a single price computation. An empty CustomerID
// means anonymous (base) pricing.
type PriceParams struct {
	ProductID  string          `json:"product_id" validate:"required"`
	CustomerID string          `json:"customer_id,omitempty"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
	BasePrice  decimal.Decimal `json:"base_price"`
}

func (p PriceParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base_price must not be negative", ErrInvalidParams)
	}
	return nil
}

// Key returns the comparable cache identity of the params.
func (p PriceParams) Key() PriceKey {
	return PriceKey{
		ProductID:  p.ProductID,
		CustomerID: p.CustomerID,
		Quantity:   p.Quantity,
		BasePrice:  p.BasePrice.String(),
	}
}

// PriceKey identifies a memoized price. BasePrice holds the canonical decimal
// text so that 100 and 100.00 share one entry.
type PriceKey struct {
	ProductID  string
	CustomerID string
	Quantity   int
	BasePrice  string
}

func (k PriceKey) String() string {
	customer := k.CustomerID
	if customer == "" {
		customer = anonymousCustomer
	}
	return fmt.Sprintf("product:%s|customer:%s|quantity:%d|basePrice:%s",
		k.ProductID, customer, k.Quantity, k.BasePrice)
}

// PriceBreakdown is an immutable pricing result. Price is per unit.
type PriceBreakdown struct {
	Price              decimal.Decimal `json:"price"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	AppliedRule        *string         `json:"applied_rule,omitempty"`
}

// NewPriceBreakdown derives price and percentage from the original price and
// the discount so the breakdown is always internally consistent.
func NewPriceBreakdown(original, discount decimal.Decimal, rule *string) PriceBreakdown {
	pct := decimal.Zero
	if !original.IsZero() {
		pct = discount.Div(original).Mul(hundred)
	}
	return PriceBreakdown{
		Price:              original.Sub(discount),
		OriginalPrice:      original,
		DiscountAmount:     discount,
		DiscountPercentage: pct,
		AppliedRule:        rule,
	}
}

// BasePriceBreakdown is the undiscounted result used when no rule applies or
// the oracle is unavailable.
func BasePriceBreakdown(base decimal.Decimal) PriceBreakdown {
	return NewPriceBreakdown(base, decimal.Zero, nil)
}
