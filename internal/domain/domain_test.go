package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// ============================================================================
// Normalization Tests
// ============================================================================

func TestToFiniteOrDefault(t *testing.T) {
	assert.Equal(t, 3.5, ToFiniteOrDefault(3.5, 0))
	assert.Equal(t, 1.0, ToFiniteOrDefault(math.NaN(), 1))
	assert.Equal(t, 0.0, ToFiniteOrDefault(math.Inf(1), 0))
	assert.Equal(t, 7.0, ToFiniteOrDefault(math.Inf(-1), 7))
}

func TestNormalizeQuantity(t *testing.T) {
	assert.Equal(t, 1, NormalizeQuantity(0))
	assert.Equal(t, 1, NormalizeQuantity(-4))
	assert.Equal(t, 3, NormalizeQuantity(3))
}

func TestQuantityFromFloat(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"whole", 4, 4},
		{"fraction truncated", 2.9, 2},
		{"zero", 0, 1},
		{"negative", -3, 1},
		{"nan", math.NaN(), 1},
		{"inf", math.Inf(1), 1},
		{"huge", 1e12, UnboundedStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuantityFromFloat(tt.in))
		})
	}
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 2, ClampQuantity(5, 2))
	assert.Equal(t, 1, ClampQuantity(0, 2))
	assert.Equal(t, 500, ClampQuantity(500, 0), "no stock means unbounded")
	assert.Equal(t, UnboundedStock, EffectiveStockLimit(-1))
}

func TestAddQuantity(t *testing.T) {
	assert.Equal(t, 4, AddQuantity(1, 3, 0))
	assert.Equal(t, 5, AddQuantity(3, 4, 5))
	assert.Equal(t, 5, AddQuantity(1, math.MaxInt, 5))
	assert.Equal(t, UnboundedStock, AddQuantity(math.MaxInt, math.MaxInt, 0))
	assert.Equal(t, 2, AddQuantity(0, -7, 0), "non-positive operands count as 1")
}

func TestNormalizePriceAndRounding(t *testing.T) {
	assert.Equal(t, 0.0, NormalizePrice(-5))
	assert.Equal(t, 0.0, NormalizePrice(math.NaN()))
	assert.Equal(t, 12.5, NormalizePrice(12.5))
	assert.Equal(t, 89.97, RoundCents(29.99*3))
	assert.Equal(t, 0.0, RoundCents(math.Inf(1)))
}

func TestClampAmount(t *testing.T) {
	assert.Equal(t, 10.0, ClampAmount(25, 10))
	assert.Equal(t, 0.0, ClampAmount(-1, 10))
	assert.Equal(t, 0.0, ClampAmount(math.NaN(), 10))
	assert.Equal(t, 0.0, ClampAmount(5, -3))
	assert.Equal(t, 4.0, ClampAmount(4, 10))
}

// ============================================================================
// Cart Tests
// ============================================================================

func TestCart_SubtotalAndTotalItems(t *testing.T) {
	c := Cart{Lines: []CartLine{
		{Item: Item{ID: "a", UnitPrice: 29.99}, Quantity: 3},
		{Item: Item{ID: "b", UnitPrice: 10}, Quantity: 1},
	}}
	assert.Equal(t, 4, c.TotalItems())
	assert.Equal(t, 99.97, c.Subtotal())
	assert.Equal(t, 1, c.FindLine("b"))
	assert.Equal(t, -1, c.FindLine("zzz"))
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := Cart{Lines: []CartLine{{Item: Item{ID: "a"}, Quantity: 1}}}
	cp := c.Clone()
	cp.Lines[0].Quantity = 9
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestCartSnapshot_JSONShape(t *testing.T) {
	c := Cart{
		Lines:      []CartLine{{Item: Item{ID: "p1", Name: "Mug", UnitPrice: 10, StockLimit: 2}, Quantity: 2}},
		Discount:   DiscountState{Code: "EASY10", Amount: 2},
		DrawerOpen: true,
	}
	raw, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "EASY10", generic["discountCode"])
	assert.Equal(t, 2.0, generic["discountAmount"])
	assert.NotContains(t, generic, "isDrawerOpen")

	items := generic["items"].([]any)
	line := items[0].(map[string]any)
	assert.Equal(t, "p1", line["id"])
	assert.Equal(t, 2.0, line["quantity"])
	assert.Equal(t, 2.0, line["stockLimit"])
}

func TestCartSnapshot_EmptyHasNullCode(t *testing.T) {
	raw, err := json.Marshal(Cart{}.Snapshot())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"discountCode":null,"discountAmount":0}`, string(raw))
}

func TestCartSnapshot_RestoreRepairsLines(t *testing.T) {
	snap := CartSnapshot{
		Items: []CartLine{
			{Item: Item{ID: "", UnitPrice: 5}, Quantity: 1},
			{Item: Item{ID: "a", UnitPrice: -3}, Quantity: 0},
			{Item: Item{ID: "b", UnitPrice: 4, StockLimit: 3}, Quantity: 10},
			{Item: Item{ID: "a", UnitPrice: 1, StockLimit: 2}, Quantity: 4},
		},
		DiscountCode:   ptr(" easy10 "),
		DiscountAmount: 1,
	}

	c := snap.Restore()
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "a", c.Lines[0].ID)
	assert.Equal(t, 0.0, c.Lines[0].UnitPrice)
	assert.Equal(t, 2, c.Lines[0].StockLimit, "stock backfilled from duplicate")
	assert.Equal(t, 2, c.Lines[0].Quantity, "merged quantity clamped to stock")
	assert.Equal(t, 3, c.Lines[1].Quantity)
	assert.Equal(t, DiscountState{Code: "EASY10", Amount: 1}, c.Discount)
	assert.False(t, c.DrawerOpen)
}

func TestCartSnapshot_RestoreMergeSaturates(t *testing.T) {
	snap := CartSnapshot{
		Items: []CartLine{
			{Item: Item{ID: "a", UnitPrice: 1, StockLimit: 6}, Quantity: 2},
			{Item: Item{ID: "a", UnitPrice: 1, StockLimit: 6}, Quantity: math.MaxInt},
		},
	}

	c := snap.Restore()
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 6, c.Lines[0].Quantity)
}

func TestCartSnapshot_RestoreBlankCodeIsNoDiscount(t *testing.T) {
	c := CartSnapshot{DiscountCode: ptr("  "), DiscountAmount: 5}.Restore()
	assert.Equal(t, NoDiscount, c.Discount)
}

// ============================================================================
// Wishlist Tests
// ============================================================================

func TestWishlistItem_HasPriceDropAlert(t *testing.T) {
	assert.True(t, WishlistItem{PriceDropProbability: ptr(70.0)}.HasPriceDropAlert())
	assert.True(t, WishlistItem{PriceDropProbability: ptr(95.0)}.HasPriceDropAlert())
	assert.False(t, WishlistItem{PriceDropProbability: ptr(69.9)}.HasPriceDropAlert())
	assert.False(t, WishlistItem{}.HasPriceDropAlert())
	assert.False(t, WishlistItem{PriceDropProbability: ptr(math.NaN())}.HasPriceDropAlert())
}

func TestWishlistSnapshot_RestoreDedupes(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := WishlistSnapshot{Items: []WishlistItem{
		{ID: "x", Name: "newest", AddedAt: now},
		{ID: " "},
		{ID: "x", Name: "older"},
		{ID: "y", Price: math.Inf(1)},
	}}
	items := snap.Restore()
	require.Len(t, items, 2)
	assert.Equal(t, "newest", items[0].Name)
	assert.Equal(t, "y", items[1].ID)
	assert.Equal(t, 0.0, items[1].Price)
}
