package wishlist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/pkg/logger"
)

type mapKV struct {
	data map[string]string
	sets int
}

func newMapKV() *mapKV { return &mapKV{data: make(map[string]string)} }

func (m *mapKV) Get(_ context.Context, name string) (string, bool) {
	v, ok := m.data[name]
	return v, ok
}

func (m *mapKV) Set(_ context.Context, name, value string) {
	m.sets++
	m.data[name] = value
}

func (m *mapKV) Remove(_ context.Context, name string) { delete(m.data, name) }

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(kv KV) *Store {
	opts := []Option{WithLogger(logger.Discard()), WithClock(func() time.Time { return fixedNow })}
	if kv != nil {
		opts = append(opts, WithStorage(kv))
	}
	return New(opts...)
}

func product(id string) domain.WishlistItem {
	return domain.WishlistItem{ID: id, Name: "Product " + id, Price: 19.99, InStock: true}
}

// ---------------------------------------------------------------------------
// Add / Remove
// ---------------------------------------------------------------------------

func TestStore_AddItemPrependsAndStamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)

	s.AddItem(ctx, product("a"))
	s.AddItem(ctx, product("b"))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, fixedNow, items[0].AddedAt)
}

func TestStore_AddItemIgnoresDuplicatesAndBlankIDs(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := newTestStore(kv)

	s.AddItem(ctx, product("a"))
	s.AddItem(ctx, product("a"))
	s.AddItem(ctx, product(" "))

	assert.Equal(t, 1, s.TotalItems())
	assert.Equal(t, 1, kv.sets)
}

func TestStore_RemoveItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)
	s.AddItem(ctx, product("a"))
	s.AddItem(ctx, product("b"))

	s.RemoveItem(ctx, "a")
	assert.False(t, s.IsInWishlist("a"))
	assert.True(t, s.IsInWishlist("b"))

	s.RemoveItem(ctx, "missing")
	assert.Equal(t, 1, s.TotalItems())
}

// ---------------------------------------------------------------------------
// Toggle
// ---------------------------------------------------------------------------

func TestStore_ToggleSymmetry(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)

	first := s.ToggleItem(ctx, product("a"))
	second := s.ToggleItem(ctx, product("a"))

	assert.Equal(t, []bool{true, false}, []bool{first, second})
	assert.False(t, s.IsInWishlist("a"))
}

func TestStore_ToggleBlankIDReportsNotAdded(t *testing.T) {
	kv := newMapKV()
	s := newTestStore(kv)
	assert.False(t, s.ToggleItem(context.Background(), product("")))
	assert.False(t, s.ToggleItem(context.Background(), product("   ")))
	assert.Equal(t, 0, s.TotalItems())
	assert.Equal(t, 0, kv.sets)
}

func TestStore_ToggleTrimsIDBeforeMembership(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)

	require.True(t, s.ToggleItem(ctx, product(" a ")))
	assert.True(t, s.IsInWishlist("a"))
	assert.Equal(t, "a", s.Items()[0].ID)

	assert.False(t, s.ToggleItem(ctx, product("a")))
	assert.Equal(t, 0, s.TotalItems())
}

// ---------------------------------------------------------------------------
// Derived lists
// ---------------------------------------------------------------------------

func TestStore_PriceDropAlerts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)

	hot := product("hot")
	hot.PriceDropProbability = ptr(70.0)
	cold := product("cold")
	cold.PriceDropProbability = ptr(40.0)
	s.AddItem(ctx, hot)
	s.AddItem(ctx, cold)
	s.AddItem(ctx, product("none"))

	alerts := s.PriceDropAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "hot", alerts[0].ID)
}

func TestStore_InStockItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)
	out := product("out")
	out.InStock = false
	s.AddItem(ctx, out)
	s.AddItem(ctx, product("in"))

	items := s.InStockItems()
	require.Len(t, items, 1)
	assert.Equal(t, "in", items[0].ID)
	assert.NotNil(t, newTestStore(nil).InStockItems())
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := newTestStore(kv)
	s.AddItem(ctx, product("a"))

	s.Clear(ctx)
	assert.Equal(t, 0, s.TotalItems())
	assert.JSONEq(t, `{"items":[]}`, kv.data[StorageKey])

	s.Clear(ctx)
	assert.Equal(t, 2, kv.sets, "clearing an empty wishlist is a no-op")
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestStore_PersistsSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := newTestStore(kv)
	s.AddItem(ctx, product("a"))

	var snap domain.WishlistSnapshot
	require.NoError(t, json.Unmarshal([]byte(kv.data[StorageKey]), &snap))
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "a", snap.Items[0].ID)
	assert.True(t, snap.Items[0].AddedAt.Equal(fixedNow))
}

func TestStore_HooksFire(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(nil)
	var ops []string
	s.OnChange(func(_ context.Context, c Change) { ops = append(ops, c.Op) })

	s.ToggleItem(ctx, product("a"))
	s.ToggleItem(ctx, product("a"))
	assert.Equal(t, []string{"add_item", "remove_item"}, ops)
}

func TestStore_HydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	writer := newTestStore(kv)
	writer.AddItem(ctx, product("a"))
	writer.AddItem(ctx, product("b"))

	reader := newTestStore(kv)
	reader.Hydrate(ctx)
	assert.Equal(t, writer.Items(), reader.Items())
}

func TestStore_HydrateCorruptSnapshot(t *testing.T) {
	kv := newMapKV()
	kv.data[StorageKey] = `[]`
	s := newTestStore(kv)
	s.Hydrate(context.Background())
	assert.Equal(t, 0, s.TotalItems())
}

func TestStore_ResetDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()
	s := newTestStore(kv)
	s.AddItem(ctx, product("a"))

	s.Reset()
	assert.Equal(t, 0, s.TotalItems())
	assert.Equal(t, 1, kv.sets)
}
