package service

import "github.com/shopspring/decimal"

// TaxPolicy computes the tax applied when a purchase order is synthesized.
// The default rate is the Argentine IVA general rate; deployments override
// it through configuration.
type TaxPolicy struct {
	RatePercent float64
}

// DefaultTaxRatePercent is the IVA general rate used when no rate is configured.
const DefaultTaxRatePercent = 21.0

func NewTaxPolicy(ratePercent float64) TaxPolicy {
	if ratePercent <= 0 {
		ratePercent = DefaultTaxRatePercent
	}
	return TaxPolicy{RatePercent: ratePercent}
}

// Apply returns (tax, total) for a subtotal, rounded to cents.
func (p TaxPolicy) Apply(subtotal float64) (tax, total float64) {
	sub := decimal.NewFromFloat(subtotal)
	rate := decimal.NewFromFloat(p.RatePercent).Div(decimal.NewFromInt(100))

	taxD := sub.Mul(rate).Round(2)
	totalD := sub.Add(taxD).Round(2)

	tax, _ = taxD.Float64()
	total, _ = totalD.Float64()
	return tax, total
}

// LineTotal returns quantity × unit price rounded to cents.
func LineTotal(quantity, unitPrice float64) float64 {
	t, _ := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(unitPrice)).
		Round(2).
		Float64()
	return t
}
