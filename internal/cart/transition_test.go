package cart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/internal/pricing"
)

func item(id string, price float64, stock int) domain.Item {
	return domain.Item{ID: id, Name: "Item " + id, UnitPrice: price, StockLimit: stock}
}

var table = pricing.DefaultTable()

// ============================================================================
// AddItem
// ============================================================================

func TestTransitionAddItem_InsertClampsToStock(t *testing.T) {
	c, changed := TransitionAddItem(domain.Cart{}, item("p1", 10, 2), 5, table)
	require.True(t, changed)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, c.DrawerOpen)
}

func TestTransitionAddItem_MergeIsIdempotentOnLineCount(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 1, table)
	c, _ = TransitionAddItem(c, item("p1", 10, 0), 3, table)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestTransitionAddItem_MergeBackfillsStockLimit(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 5, table)
	c, _ = TransitionAddItem(c, item("p1", 10, 3), 1, table)
	assert.Equal(t, 3, c.Lines[0].StockLimit)
	assert.Equal(t, 3, c.Lines[0].Quantity)
}

func TestTransitionAddItem_MergeKeepsExistingStockLimit(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 4), 1, table)
	c, _ = TransitionAddItem(c, item("p1", 10, 9), 10, table)
	assert.Equal(t, 4, c.Lines[0].StockLimit)
	assert.Equal(t, 4, c.Lines[0].Quantity)
}

func TestTransitionAddItem_MergeSaturatesAtStockLimit(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 5), 1, table)
	c, _ = TransitionAddItem(c, item("p1", 10, 5), math.MaxInt, table)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)

	c, _ = TransitionAddItem(domain.Cart{}, item("p2", 10, 0), 2, table)
	c, _ = TransitionAddItem(c, item("p2", 10, 0), math.MaxInt, table)
	assert.Equal(t, domain.UnboundedStock, c.Lines[0].Quantity)
}

func TestTransitionAddItem_NormalizesInput(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", math.NaN(), 0), 0, table)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 0.0, c.Lines[0].UnitPrice)

	c, _ = TransitionAddItem(domain.Cart{}, item("p2", -4, 0), -2, table)
	assert.Equal(t, 1, c.Lines[0].Quantity)
	assert.Equal(t, 0.0, c.Lines[0].UnitPrice)
}

func TestTransitionAddItem_BlankIDIgnored(t *testing.T) {
	c, changed := TransitionAddItem(domain.Cart{}, item("  ", 10, 0), 1, table)
	assert.False(t, changed)
	assert.Empty(t, c.Lines)
	assert.False(t, c.DrawerOpen)
}

func TestTransitionAddItem_DoesNotMutateInput(t *testing.T) {
	orig, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 1, table)
	_, _ = TransitionAddItem(orig, item("p1", 10, 0), 2, table)
	assert.Equal(t, 1, orig.Lines[0].Quantity)
}

// ============================================================================
// Remove / Update / Clear
// ============================================================================

func TestTransitionRemoveItem(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 1, table)
	c, _ = TransitionAddItem(c, item("p2", 5, 0), 1, table)

	next, changed := TransitionRemoveItem(c, "p1", table)
	require.True(t, changed)
	require.Len(t, next.Lines, 1)
	assert.Equal(t, "p2", next.Lines[0].ID)
	assert.Len(t, c.Lines, 2)

	_, changed = TransitionRemoveItem(next, "missing", table)
	assert.False(t, changed)
}

func TestTransitionUpdateQuantity_Clamps(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 3), 1, table)

	next, changed := TransitionUpdateQuantity(c, "p1", 10, table)
	require.True(t, changed)
	assert.Equal(t, 3, next.Lines[0].Quantity)

	next, _ = TransitionUpdateQuantity(c, "p1", 0, table)
	assert.Equal(t, 1, next.Lines[0].Quantity)

	next, _ = TransitionUpdateQuantity(c, "p1", -7, table)
	assert.Equal(t, 1, next.Lines[0].Quantity)

	_, changed = TransitionUpdateQuantity(c, "missing", 2, table)
	assert.False(t, changed)
}

func TestTransitionClear_KeepsDrawer(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 1, table)
	c, _ = TransitionApplyDiscount(c, "EASY10", table)

	next, changed := TransitionClear(c)
	assert.True(t, changed)
	assert.Empty(t, next.Lines)
	assert.Equal(t, domain.NoDiscount, next.Discount)
	assert.True(t, next.DrawerOpen)

	_, changed = TransitionClear(next)
	assert.False(t, changed)
}

// ============================================================================
// Stock refresh
// ============================================================================

func TestTransitionRefreshStock_Eager(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 5, table)

	next, changed := TransitionRefreshStock(c, "p1", 2, StockEager, table)
	require.True(t, changed)
	assert.Equal(t, 2, next.Lines[0].StockLimit)
	assert.Equal(t, 2, next.Lines[0].Quantity)
}

func TestTransitionRefreshStock_LazyDefersClamp(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 5, table)

	next, _ := TransitionRefreshStock(c, "p1", 2, StockLazy, table)
	assert.Equal(t, 2, next.Lines[0].StockLimit)
	assert.Equal(t, 5, next.Lines[0].Quantity)

	next, _ = TransitionAddItem(next, item("p1", 10, 0), 1, table)
	assert.Equal(t, 2, next.Lines[0].Quantity, "next mutation of the line clamps")
}

func TestTransitionRefreshStock_Missing(t *testing.T) {
	_, changed := TransitionRefreshStock(domain.Cart{}, "p1", 2, StockEager, table)
	assert.False(t, changed)
}

func TestParseStockPolicy(t *testing.T) {
	assert.Equal(t, StockLazy, ParseStockPolicy(" LAZY "))
	assert.Equal(t, StockEager, ParseStockPolicy("eager"))
	assert.Equal(t, StockEager, ParseStockPolicy("whatever"))
}

// ============================================================================
// Discounts
// ============================================================================

func TestTransitionApplyDiscount_CaseInsensitiveAndCapped(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 20, 0), 1, table)

	next, ok := TransitionApplyDiscount(c, "easy10", table)
	require.True(t, ok)
	assert.Equal(t, domain.DiscountState{Code: "EASY10", Amount: 2}, next.Discount)

	next, ok = TransitionApplyDiscount(c, "save50", table)
	require.True(t, ok)
	assert.Equal(t, 20.0, next.Discount.Amount, "flat discount capped at subtotal")
}

func TestTransitionApplyDiscount_UnknownCodeUnchanged(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 20, 0), 1, table)
	c, _ = TransitionApplyDiscount(c, "EASY10", table)

	next, ok := TransitionApplyDiscount(c, "BOGUS", table)
	assert.False(t, ok)
	assert.Equal(t, c.Discount, next.Discount)
}

func TestTransitionApplyDiscount_EmptyCartIsNoop(t *testing.T) {
	next, ok := TransitionApplyDiscount(domain.Cart{}, "EASY10", table)
	assert.False(t, ok)
	assert.Equal(t, domain.NoDiscount, next.Discount)
}

func TestTransitionApplyRewardCoupon(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 30, 0), 1, table)

	next, ok := TransitionApplyRewardCoupon(c, "  reward5 ", 5)
	require.True(t, ok)
	assert.Equal(t, domain.DiscountState{Code: "REWARD5", Amount: 5}, next.Discount)

	next, _ = TransitionApplyRewardCoupon(c, "BIG", 500)
	assert.Equal(t, 30.0, next.Discount.Amount)

	_, ok = TransitionApplyRewardCoupon(c, "NEG", -5)
	assert.False(t, ok)

	_, ok = TransitionApplyRewardCoupon(c, "NAN", math.NaN())
	assert.False(t, ok)

	_, ok = TransitionApplyRewardCoupon(c, "", 5)
	assert.False(t, ok)
}

func TestTransitionRemoveDiscount(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 30, 0), 1, table)
	c, _ = TransitionApplyDiscount(c, "EASY10", table)

	next, changed := TransitionRemoveDiscount(c)
	assert.True(t, changed)
	assert.Equal(t, domain.NoDiscount, next.Discount)

	_, changed = TransitionRemoveDiscount(next)
	assert.False(t, changed)
}

func TestReconcile_PercentageFollowsSubtotal(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 2, table)
	c, _ = TransitionApplyDiscount(c, "EASY10", table)
	require.Equal(t, 2.0, c.Discount.Amount)

	c, _ = TransitionUpdateQuantity(c, "p1", 5, table)
	assert.Equal(t, 5.0, c.Discount.Amount)
}

func TestReconcile_RewardClampsDown(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 3, table)
	c, _ = TransitionApplyRewardCoupon(c, "REWARD", 25)
	require.Equal(t, 25.0, c.Discount.Amount)

	c, _ = TransitionUpdateQuantity(c, "p1", 1, table)
	assert.Equal(t, 10.0, c.Discount.Amount)

	c, _ = TransitionUpdateQuantity(c, "p1", 3, table)
	assert.Equal(t, 10.0, c.Discount.Amount, "reward amounts never grow back")
}

func TestReconcile_RemovingLastLineResetsDiscount(t *testing.T) {
	c, _ := TransitionAddItem(domain.Cart{}, item("p1", 10, 0), 1, table)
	c, _ = TransitionApplyRewardCoupon(c, "REWARD", 5)

	c, _ = TransitionRemoveItem(c, "p1", table)
	assert.Equal(t, domain.NoDiscount, c.Discount)
}
