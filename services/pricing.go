package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/service-booking/models"
)

const DefaultNightShiftPercent = 20

var hundred = decimal.NewFromInt(100)

// PricingTerms are the commercial terms frozen onto a booking row.
type PricingTerms struct {
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	ShiftChargePercent decimal.Decimal
	Total              decimal.Decimal
}

type PricingCalculator struct {
	NightPercent decimal.Decimal
}

func NewPricingCalculator(nightPercent float64) PricingCalculator {
	return PricingCalculator{NightPercent: decimal.NewFromFloat(nightPercent)}
}

// NormalizeShiftType folds flexible into day and rejects anything that is
// not day or night afterwards.
func NormalizeShiftType(s string) (models.ShiftType, error) {
	switch models.ShiftType(s) {
	case models.ShiftDay, models.ShiftFlexible:
		return models.ShiftDay, nil
	case models.ShiftNight:
		return models.ShiftNight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidShiftType, s)
}

// ComputeTerms prices one line item:
// total = base*qty + base*qty*pct/100, pct applying to night shifts only.
func (p PricingCalculator) ComputeTerms(basePrice decimal.Decimal, quantity int, shift models.ShiftType) (PricingTerms, error) {
	if quantity < 1 {
		return PricingTerms{}, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	if basePrice.IsNegative() {
		return PricingTerms{}, fmt.Errorf("base price must not be negative")
	}
	normalized, err := NormalizeShiftType(string(shift))
	if err != nil {
		return PricingTerms{}, err
	}

	percent := decimal.Zero
	if normalized == models.ShiftNight {
		percent = p.NightPercent
	}

	subtotal := basePrice.Mul(decimal.NewFromInt(int64(quantity)))
	total := subtotal.Add(subtotal.Mul(percent).Div(hundred))

	return PricingTerms{
		UnitPrice:          basePrice.Round(2),
		Subtotal:           subtotal.Round(2),
		ShiftChargePercent: percent.Round(2),
		Total:              total.Round(2),
	}, nil
}
