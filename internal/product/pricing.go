package product

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FinalPrice applies a percent discount and rounds to two decimals.
func FinalPrice(original, discount decimal.Decimal) decimal.Decimal {
	return original.Mul(hundred.Sub(discount)).Div(hundred).Round(2)
}

// priceScale is the scale of the original_price and discount columns.
const priceScale = 2

// normalizePricing rounds price inputs to the stored scale.
func normalizePricing(p *Product) {
	p.OriginalPrice = p.OriginalPrice.Round(priceScale)
	p.Discount = p.Discount.Round(priceScale)
}

func validatePricing(original, discount decimal.Decimal) error {
	if original.IsNegative() {
		return ErrNegativePrice
	}
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}
