package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fitcore/fitcore/internal/shared"
)

// PricingInput carries the raw pricing parameters for a purchase.
// DiscountPercent and DiscountAmount are mutually exclusive.
type PricingInput struct {
	Price           float64
	DiscountPercent *float64
	DiscountAmount  *float64
	GSTEnabled      bool
	GSTRate         float64
}

// Quote is the computed price breakdown, rounded to 2 decimal places.
type Quote struct {
	Discount float64 `json:"discount"`
	Subtotal float64 `json:"subtotal"`
	GST      float64 `json:"gst"`
	Total    float64 `json:"total"`
}

// ComputeQuote derives discount, subtotal, GST and final amount.
// A discount larger than the base price is rejected rather than
// producing a negative subtotal.
func ComputeQuote(in PricingInput) (Quote, error) {
	if in.Price < 0 {
		return Quote{}, fmt.Errorf("%w: price must not be negative", shared.ErrValidation)
	}
	if in.DiscountPercent != nil && in.DiscountAmount != nil {
		return Quote{}, fmt.Errorf("%w: provide discount_percent or discount_amount, not both", shared.ErrValidation)
	}
	if in.GSTRate < 0 || in.GSTRate >= 1 {
		return Quote{}, fmt.Errorf("%w: gst rate must be within [0,1)", shared.ErrValidation)
	}

	price := decimal.NewFromFloat(in.Price)

	discount := decimal.Zero
	switch {
	case in.DiscountAmount != nil:
		if *in.DiscountAmount < 0 {
			return Quote{}, fmt.Errorf("%w: discount_amount must not be negative", shared.ErrValidation)
		}
		discount = decimal.NewFromFloat(*in.DiscountAmount)
	case in.DiscountPercent != nil:
		if *in.DiscountPercent < 0 || *in.DiscountPercent > 100 {
			return Quote{}, fmt.Errorf("%w: discount_percent must be within [0,100]", shared.ErrValidation)
		}
		discount = price.Mul(decimal.NewFromFloat(*in.DiscountPercent)).Div(decimal.NewFromInt(100))
	}
	discount = discount.Round(2)

	if discount.GreaterThan(price) {
		return Quote{}, fmt.Errorf("%w: discount exceeds price", shared.ErrValidation)
	}

	subtotal := price.Sub(discount).Round(2)

	gst := decimal.Zero
	if in.GSTEnabled {
		gst = subtotal.Mul(decimal.NewFromFloat(in.GSTRate)).Round(2)
	}

	total := subtotal.Add(gst).Round(2)

	return Quote{
		Discount: discount.InexactFloat64(),
		Subtotal: subtotal.InexactFloat64(),
		GST:      gst.InexactFloat64(),
		Total:    total.InexactFloat64(),
	}, nil
}
