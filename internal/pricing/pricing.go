package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/adiwicaksana/tanisubur-backend/pkg/errors"
)

// Line is one priced quantity entering a quote.
type Line struct {
	PriceRupiah int64
	Quantity    int
}

// Quote is the rupiah breakdown for one checkout. PPN is computed on the
// clean subtotal and rounded once, so the stored components always satisfy
// PriceWithPPN = CleanPrice + PPNAmount and TotalPrice = PriceWithPPN + ShippingCost.
type Quote struct {
	CleanPrice    int64
	PPNPercentage float64
	PPNAmount     int64
	PriceWithPPN  int64
	ShippingCost  int64
	TotalPrice    int64
}

// Compute builds a quote from the lines, the frozen tax percentage, and the
// shipping fee (zero for pickup transactions).
func Compute(lines []Line, ppnPercentage float64, shippingCost int64) (*Quote, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	if ppnPercentage < 0 || ppnPercentage > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ppn percentage out of range")
	}
	if shippingCost < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	clean := decimal.Zero
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if line.PriceRupiah < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line price cannot be negative")
		}
		clean = clean.Add(decimal.NewFromInt(line.PriceRupiah).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	pct := decimal.NewFromFloat(ppnPercentage).Div(decimal.NewFromInt(100))
	ppn := clean.Mul(pct).Round(0)

	cleanInt := clean.IntPart()
	ppnInt := ppn.IntPart()
	withPPN := cleanInt + ppnInt

	return &Quote{
		CleanPrice:    cleanInt,
		PPNPercentage: ppnPercentage,
		PPNAmount:     ppnInt,
		PriceWithPPN:  withPPN,
		ShippingCost:  shippingCost,
		TotalPrice:    withPPN + shippingCost,
	}, nil
}
