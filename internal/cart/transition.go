package cart

import (
	"strings"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/internal/pricing"
)

// StockPolicy decides when a refreshed stock limit is enforced on a line.
type StockPolicy string

const (
	// StockEager clamps the line as soon as fresh stock arrives.
	StockEager StockPolicy = "eager"
	// StockLazy records fresh stock and clamps on the line's next mutation.
	StockLazy StockPolicy = "lazy"
)

// ParseStockPolicy maps a config value onto a StockPolicy, defaulting to eager.
func ParseStockPolicy(s string) StockPolicy {
	if StockPolicy(strings.ToLower(strings.TrimSpace(s))) == StockLazy {
		return StockLazy
	}
	return StockEager
}

// The Transition functions are pure: they take a cart value and return the
// next cart value plus whether the persisted part (lines or discount)
// changed. The input cart is never modified.

// TransitionAddItem merges item into the cart or inserts it, and opens the
// drawer. Items without an id are ignored.
func TransitionAddItem(c domain.Cart, item domain.Item, quantity int, table *pricing.Table) (domain.Cart, bool) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return c, false
	}
	item.UnitPrice = domain.NormalizePrice(item.UnitPrice)
	quantity = domain.NormalizeQuantity(quantity)

	next := c.Clone()
	next.DrawerOpen = true

	if i := next.FindLine(item.ID); i >= 0 {
		line := &next.Lines[i]
		if line.StockLimit <= 0 && item.StockLimit > 0 {
			line.StockLimit = item.StockLimit
		}
		line.Quantity = domain.AddQuantity(line.Quantity, quantity, line.StockLimit)
	} else {
		next.Lines = append(next.Lines, domain.CartLine{
			Item:     item,
			Quantity: domain.ClampQuantity(quantity, item.StockLimit),
		})
	}
	return reconcileDiscount(next, table), true
}

// TransitionRemoveItem deletes the line with id when present.
func TransitionRemoveItem(c domain.Cart, id string, table *pricing.Table) (domain.Cart, bool) {
	i := c.FindLine(id)
	if i < 0 {
		return c, false
	}
	next := c.Clone()
	next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
	return reconcileDiscount(next, table), true
}

// TransitionUpdateQuantity sets a line's quantity, clamped to [1, stock].
func TransitionUpdateQuantity(c domain.Cart, id string, quantity int, table *pricing.Table) (domain.Cart, bool) {
	i := c.FindLine(id)
	if i < 0 {
		return c, false
	}
	next := c.Clone()
	line := &next.Lines[i]
	line.Quantity = domain.ClampQuantity(quantity, line.StockLimit)
	return reconcileDiscount(next, table), true
}

// TransitionRefreshStock records fresh catalog stock for a line. Under
// StockEager the quantity is clamped immediately.
func TransitionRefreshStock(c domain.Cart, id string, stockLimit int, policy StockPolicy, table *pricing.Table) (domain.Cart, bool) {
	i := c.FindLine(id)
	if i < 0 {
		return c, false
	}
	next := c.Clone()
	line := &next.Lines[i]
	line.StockLimit = stockLimit
	if policy != StockLazy {
		line.Quantity = domain.ClampQuantity(line.Quantity, line.StockLimit)
	}
	return reconcileDiscount(next, table), true
}

// TransitionClear empties the lines and resets the discount. The drawer flag
// is left as is.
func TransitionClear(c domain.Cart) (domain.Cart, bool) {
	changed := len(c.Lines) > 0 || c.Discount.Active()
	c.Lines = nil
	c.Discount = domain.NoDiscount
	return c, changed
}

// TransitionApplyDiscount applies a code from the discount table. Unknown
// codes, and codes worth nothing on the current subtotal, leave the cart
// unchanged and report false.
func TransitionApplyDiscount(c domain.Cart, code string, table *pricing.Table) (domain.Cart, bool) {
	rule, ok := table.Lookup(code)
	if !ok {
		return c, false
	}
	amount := rule.Resolve(c.Subtotal())
	if amount <= 0 {
		return c, false
	}
	c.Discount = domain.DiscountState{Code: pricing.NormalizeCode(code), Amount: amount}
	return c, true
}

// TransitionApplyRewardCoupon applies a loyalty reward worth dollarAmount,
// capped at the subtotal. Blank codes and zero-value rewards are ignored.
func TransitionApplyRewardCoupon(c domain.Cart, code string, dollarAmount float64) (domain.Cart, bool) {
	code = pricing.NormalizeCode(code)
	if code == "" {
		return c, false
	}
	amount := domain.ClampAmount(domain.RoundCents(dollarAmount), c.Subtotal())
	if amount <= 0 {
		return c, false
	}
	c.Discount = domain.DiscountState{Code: code, Amount: amount}
	return c, true
}

// TransitionRemoveDiscount resets the discount.
func TransitionRemoveDiscount(c domain.Cart) (domain.Cart, bool) {
	if !c.Discount.Active() && c.Discount.Amount == 0 {
		return c, false
	}
	c.Discount = domain.NoDiscount
	return c, true
}

// TransitionSetDrawer opens or closes the drawer. Drawer state is never
// persisted, so the change flag is always false.
func TransitionSetDrawer(c domain.Cart, open bool) (domain.Cart, bool) {
	c.DrawerOpen = open
	return c, false
}

// reconcileDiscount keeps the discount valid after the lines change. Codes in
// the discount table are re-derived from the new subtotal; other codes (reward
// coupons) are clamped down. A discount that drops to zero is removed.
func reconcileDiscount(c domain.Cart, table *pricing.Table) domain.Cart {
	if !c.Discount.Active() {
		c.Discount = domain.NoDiscount
		return c
	}
	subtotal := c.Subtotal()
	var amount float64
	if rule, ok := table.Lookup(c.Discount.Code); ok {
		amount = rule.Resolve(subtotal)
	} else {
		amount = domain.ClampAmount(c.Discount.Amount, subtotal)
	}
	if amount <= 0 {
		c.Discount = domain.NoDiscount
		return c
	}
	c.Discount.Amount = amount
	return c
}
