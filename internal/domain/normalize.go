package domain

import "math"

// UnboundedStock is the effective stock limit for items whose catalog data
// carries no positive stock figure.
const UnboundedStock = math.MaxInt32

// ToFiniteOrDefault returns v, or def when v is NaN or ±Inf.
func ToFiniteOrDefault(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// NormalizeQuantity maps a requested quantity onto the valid domain: anything
// below 1 becomes 1.
func NormalizeQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// QuantityFromFloat converts a loosely typed numeric quantity (as decoded
// from JSON or typed into a form) into a valid quantity. Non-finite values and
// values below 1 become 1; fractions are truncated.
func QuantityFromFloat(v float64) int {
	v = ToFiniteOrDefault(v, 1)
	if v < 1 {
		return 1
	}
	if v >= UnboundedStock {
		return UnboundedStock
	}
	return int(v)
}

// EffectiveStockLimit returns stock when positive, else UnboundedStock.
func EffectiveStockLimit(stock int) int {
	if stock > 0 {
		return stock
	}
	return UnboundedStock
}

// ClampQuantity returns q bounded to [1, EffectiveStockLimit(stock)].
func ClampQuantity(q, stock int) int {
	q = NormalizeQuantity(q)
	if limit := EffectiveStockLimit(stock); q > limit {
		return limit
	}
	return q
}

// AddQuantity returns a+b bounded to [1, EffectiveStockLimit(stock)]. The sum
// saturates at the limit instead of overflowing.
func AddQuantity(a, b, stock int) int {
	a, b = NormalizeQuantity(a), NormalizeQuantity(b)
	limit := EffectiveStockLimit(stock)
	if a >= limit || b > limit-a {
		return limit
	}
	return a + b
}

// NormalizePrice maps negative or non-finite prices to 0.
func NormalizePrice(p float64) float64 {
	p = ToFiniteOrDefault(p, 0)
	if p < 0 {
		return 0
	}
	return p
}

// RoundCents rounds a currency amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(ToFiniteOrDefault(v, 0)*100) / 100
}

// ClampAmount bounds v to [0, max], treating non-finite v as 0.
func ClampAmount(v, max float64) float64 {
	v = ToFiniteOrDefault(v, 0)
	if max < 0 {
		max = 0
	}
	switch {
	case v < 0:
		return 0
	case v > max:
		return max
	default:
		return v
	}
}
