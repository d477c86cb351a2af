package billing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fitcore/fitcore/internal/shared"
)

func fptr(v float64) *float64 { return &v }

func TestComputeQuotePercentDiscountWithGST(t *testing.T) {
	quote, err := ComputeQuote(PricingInput{
		Price:           4000,
		DiscountPercent: fptr(10),
		GSTEnabled:      true,
		GSTRate:         0.18,
	})
	require.NoError(t, err)
	require.Equal(t, 400.0, quote.Discount)
	require.Equal(t, 3600.0, quote.Subtotal)
	require.Equal(t, 648.0, quote.GST)
	require.Equal(t, 4248.0, quote.Total)
}

func TestComputeQuoteNoDiscountNoGST(t *testing.T) {
	quote, err := ComputeQuote(PricingInput{Price: 2000, GSTRate: 0.18})
	require.NoError(t, err)
	require.Equal(t, 0.0, quote.Discount)
	require.Equal(t, 2000.0, quote.Subtotal)
	require.Equal(t, 0.0, quote.GST)
	require.Equal(t, 2000.0, quote.Total)
}

func TestComputeQuoteFlatDiscount(t *testing.T) {
	quote, err := ComputeQuote(PricingInput{
		Price:          1500,
		DiscountAmount: fptr(250),
		GSTEnabled:     true,
		GSTRate:        0.18,
	})
	require.NoError(t, err)
	require.Equal(t, 250.0, quote.Discount)
	require.Equal(t, 1250.0, quote.Subtotal)
	require.Equal(t, 225.0, quote.GST)
	require.Equal(t, 1475.0, quote.Total)
}

func TestComputeQuoteRounding(t *testing.T) {
	quote, err := ComputeQuote(PricingInput{
		Price:           100,
		DiscountPercent: fptr(12.5),
		GSTEnabled:      true,
		GSTRate:         0.18,
	})
	require.NoError(t, err)
	require.Equal(t, 12.5, quote.Discount)
	require.Equal(t, 87.5, quote.Subtotal)
	require.Equal(t, 15.75, quote.GST)
	require.Equal(t, 103.25, quote.Total)
}

func TestComputeQuoteFullDiscount(t *testing.T) {
	quote, err := ComputeQuote(PricingInput{
		Price:          500,
		DiscountAmount: fptr(500),
		GSTEnabled:     true,
		GSTRate:        0.18,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, quote.Subtotal)
	require.Equal(t, 0.0, quote.Total)
}

func TestComputeQuoteRejections(t *testing.T) {
	cases := []struct {
		name string
		in   PricingInput
	}{
		{"negative price", PricingInput{Price: -1}},
		{"both discount forms", PricingInput{Price: 100, DiscountPercent: fptr(10), DiscountAmount: fptr(5)}},
		{"percent above 100", PricingInput{Price: 100, DiscountPercent: fptr(101)}},
		{"negative percent", PricingInput{Price: 100, DiscountPercent: fptr(-1)}},
		{"negative amount", PricingInput{Price: 100, DiscountAmount: fptr(-1)}},
		{"discount exceeds price", PricingInput{Price: 100, DiscountAmount: fptr(100.01)}},
		{"gst rate out of range", PricingInput{Price: 100, GSTRate: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeQuote(tc.in)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}
