package domain

import (
	"slices"
	"strings"
)

// Item is a catalog item as handed to the cart by a consumer.
type Item struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	UnitPrice         float64  `json:"unitPrice"`
	OriginalUnitPrice *float64 `json:"originalUnitPrice,omitempty"`
	ImageRef          string   `json:"imageRef"`
	Category          string   `json:"category"`
	StockLimit        int      `json:"stockLimit"`
	DeliveryDays      *int     `json:"deliveryDays,omitempty"`
}

// CartLine is one product entry in the cart with its own quantity.
type CartLine struct {
	Item
	Quantity int `json:"quantity"`
}

// EffectiveStockLimit returns the line's usable stock bound.
func (l CartLine) EffectiveStockLimit() int {
	return EffectiveStockLimit(l.StockLimit)
}

// LineTotal returns unit price times quantity.
func (l CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(NormalizeQuantity(l.Quantity))
}

// DiscountState is the discount currently applied to the cart. An empty Code
// means no discount and always comes with a zero Amount.
type DiscountState struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// Active reports whether a discount is applied.
func (d DiscountState) Active() bool {
	return d.Code != ""
}

// NoDiscount is the reset discount state.
var NoDiscount = DiscountState{}

// Cart is the in-memory cart aggregate. DrawerOpen is view state and is never
// persisted.
type Cart struct {
	Lines      []CartLine
	Discount   DiscountState
	DrawerOpen bool
}

// Clone returns a copy whose Lines slice can be modified independently.
func (c Cart) Clone() Cart {
	c.Lines = slices.Clone(c.Lines)
	return c
}

// FindLine returns the index of the line with the given id, or -1.
func (c Cart) FindLine(id string) int {
	return slices.IndexFunc(c.Lines, func(l CartLine) bool { return l.ID == id })
}

// TotalItems returns the sum of line quantities.
func (c Cart) TotalItems() int {
	var count int
	for _, l := range c.Lines {
		count += NormalizeQuantity(l.Quantity)
	}
	return count
}

// Subtotal returns Σ unitPrice × quantity, rounded to cents.
func (c Cart) Subtotal() float64 {
	var total float64
	for _, l := range c.Lines {
		total += l.LineTotal()
	}
	return RoundCents(total)
}

// Totals is the derived pricing view of a cart.
type Totals struct {
	TotalItems int     `json:"totalItems"`
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	Shipping   float64 `json:"shipping"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
}

// CartSnapshot is the persisted shape of a cart.
type CartSnapshot struct {
	Items          []CartLine `json:"items"`
	DiscountCode   *string    `json:"discountCode"`
	DiscountAmount float64    `json:"discountAmount"`
}

// Snapshot returns the persisted view of c; the drawer flag is excluded.
func (c Cart) Snapshot() CartSnapshot {
	snap := CartSnapshot{
		Items:          slices.Clone(c.Lines),
		DiscountAmount: c.Discount.Amount,
	}
	if snap.Items == nil {
		snap.Items = []CartLine{}
	}
	if c.Discount.Active() {
		code := c.Discount.Code
		snap.DiscountCode = &code
	}
	return snap
}

// Restore rebuilds a cart from a persisted snapshot, repairing anything that
// violates the line invariants: lines without an id are dropped, duplicate ids
// are merged, prices and quantities are normalized and clamped to stock. The
// discount is carried over as stored; callers reconcile it against pricing.
func (s CartSnapshot) Restore() Cart {
	var c Cart
	for _, l := range s.Items {
		l.ID = strings.TrimSpace(l.ID)
		if l.ID == "" {
			continue
		}
		l.UnitPrice = NormalizePrice(l.UnitPrice)
		if i := c.FindLine(l.ID); i >= 0 {
			existing := &c.Lines[i]
			if existing.StockLimit <= 0 && l.StockLimit > 0 {
				existing.StockLimit = l.StockLimit
			}
			existing.Quantity = AddQuantity(existing.Quantity, l.Quantity, existing.StockLimit)
			continue
		}
		l.Quantity = ClampQuantity(l.Quantity, l.StockLimit)
		c.Lines = append(c.Lines, l)
	}

	if s.DiscountCode != nil && strings.TrimSpace(*s.DiscountCode) != "" {
		c.Discount = DiscountState{
			Code:   strings.ToUpper(strings.TrimSpace(*s.DiscountCode)),
			Amount: ToFiniteOrDefault(s.DiscountAmount, 0),
		}
	}
	return c
}
