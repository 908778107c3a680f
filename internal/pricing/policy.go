package pricing

import "github.com/utafrali/shopstate/internal/domain"

// Policy bundles everything the cart needs to derive prices.
type Policy struct {
	TaxRate   float64
	Shipping  ShippingPolicy
	Discounts TableSource
}

// DefaultPolicy mirrors the storefront defaults: 8% tax, free shipping from
// $100, otherwise $9.99, and the compiled-in discount codes.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:   0.08,
		Shipping:  ThresholdShipping{FreeAbove: 100, Charge: 9.99},
		Discounts: StaticTable{T: DefaultTable()},
	}
}

// Table returns the discount table in effect, never nil.
func (p Policy) Table() *Table {
	if p.Discounts == nil {
		return &Table{}
	}
	if t := p.Discounts.Table(); t != nil {
		return t
	}
	return &Table{}
}

// ShippingFee returns the fee for a cart. Empty carts ship for free.
func (p Policy) ShippingFee(subtotal float64, itemCount int) float64 {
	if itemCount == 0 || p.Shipping == nil {
		return 0
	}
	return domain.RoundCents(domain.NormalizePrice(p.Shipping.Fee(subtotal, itemCount)))
}

// Tax returns taxRate × max(0, subtotal − discount + shipping), in cents.
func (p Policy) Tax(subtotal, discount, shipping float64) float64 {
	base := subtotal - discount + shipping
	if base < 0 {
		base = 0
	}
	return domain.RoundCents(domain.NormalizePrice(p.TaxRate) * base)
}

// Totals derives every computed value of c.
func (p Policy) Totals(c domain.Cart) domain.Totals {
	count := c.TotalItems()
	subtotal := c.Subtotal()
	discount := domain.ClampAmount(c.Discount.Amount, subtotal)
	shipping := p.ShippingFee(subtotal, count)
	tax := p.Tax(subtotal, discount, shipping)
	total := domain.RoundCents(domain.ToFiniteOrDefault(subtotal+tax+shipping-discount, 0))
	return domain.Totals{
		TotalItems: count,
		Subtotal:   subtotal,
		Discount:   discount,
		Shipping:   shipping,
		Tax:        tax,
		Total:      total,
	}
}
