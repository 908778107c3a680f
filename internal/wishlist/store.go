// Package wishlist is the saved-for-later store with toggle semantics.
package wishlist

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/utafrali/shopstate/internal/domain"
)

// StorageKey is the logical name of the persisted wishlist snapshot.
const StorageKey = "shopstate-wishlist-storage"

// KV is the scoped key-value adapter the store persists through.
type KV interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name, value string)
	Remove(ctx context.Context, name string)
}

// Change describes the wishlist right after a mutation.
type Change struct {
	Op       string
	Snapshot domain.WishlistSnapshot
}

// Hook runs after every mutation.
type Hook func(ctx context.Context, change Change)

// Store owns one wishlist, newest item first. It is single-actor.
type Store struct {
	items  []domain.WishlistItem
	kv     KV
	hooks  []Hook
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for AddedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStorage persists every change through kv and lets Hydrate read from it.
func WithStorage(kv KV) Option {
	return func(s *Store) { s.kv = kv }
}

// New creates an empty wishlist.
func New(opts ...Option) *Store {
	s := &Store{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a hook fired after mutations.
func (s *Store) OnChange(h Hook) {
	s.hooks = append(s.hooks, h)
}

func (s *Store) apply(ctx context.Context, op string, next []domain.WishlistItem) {
	s.items = next
	s.logger.DebugContext(ctx, "wishlist updated", slog.String("op", op), slog.Int("items", len(next)))

	change := Change{Op: op, Snapshot: s.Snapshot()}
	if s.kv != nil {
		raw, err := json.Marshal(change.Snapshot)
		if err != nil {
			s.logger.ErrorContext(ctx, "encoding wishlist snapshot", slog.String("error", err.Error()))
		} else {
			s.kv.Set(ctx, StorageKey, string(raw))
		}
	}
	for _, h := range s.hooks {
		h(ctx, change)
	}
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(w domain.WishlistItem) bool { return w.ID == id })
}

// AddItem prepends item stamped with the current time. Items already present
// or without an id are ignored.
func (s *Store) AddItem(ctx context.Context, item domain.WishlistItem) {
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" || s.index(item.ID) >= 0 {
		return
	}
	item.Price = domain.NormalizePrice(item.Price)
	item.AddedAt = s.now()

	next := make([]domain.WishlistItem, 0, len(s.items)+1)
	next = append(next, item)
	next = append(next, s.items...)
	s.apply(ctx, "add_item", next)
}

// RemoveItem deletes the item with id.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	i := s.index(id)
	if i < 0 {
		return
	}
	next := slices.Delete(slices.Clone(s.items), i, i+1)
	s.apply(ctx, "remove_item", next)
}

// ToggleItem removes item when present and adds it otherwise. It returns the
// negation of the membership observed before mutating. A blank id is never a
// member, so it returns false and changes nothing.
func (s *Store) ToggleItem(ctx context.Context, item domain.WishlistItem) bool {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return false
	}
	if s.IsInWishlist(id) {
		s.RemoveItem(ctx, id)
		return false
	}
	item.ID = id
	s.AddItem(ctx, item)
	return true
}

// Clear removes every item.
func (s *Store) Clear(ctx context.Context) {
	if len(s.items) == 0 {
		return
	}
	s.apply(ctx, "clear", nil)
}

// Reset drops in-memory state without persisting.
func (s *Store) Reset() {
	s.items = nil
}

// IsInWishlist reports membership.
func (s *Store) IsInWishlist(id string) bool {
	return s.index(strings.TrimSpace(id)) >= 0
}

// Items returns a copy of the items, newest first.
func (s *Store) Items() []domain.WishlistItem {
	return slices.Clone(s.items)
}

// TotalItems returns the item count.
func (s *Store) TotalItems() int {
	return len(s.items)
}

// PriceDropAlerts returns items whose price-drop probability reaches the
// alert threshold.
func (s *Store) PriceDropAlerts() []domain.WishlistItem {
	return s.filter(domain.WishlistItem.HasPriceDropAlert)
}

// InStockItems returns items currently in stock.
func (s *Store) InStockItems() []domain.WishlistItem {
	return s.filter(func(w domain.WishlistItem) bool { return w.InStock })
}

func (s *Store) filter(keep func(domain.WishlistItem) bool) []domain.WishlistItem {
	out := []domain.WishlistItem{}
	for _, w := range s.items {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

// Snapshot returns the persisted view of the wishlist.
func (s *Store) Snapshot() domain.WishlistSnapshot {
	items := slices.Clone(s.items)
	if items == nil {
		items = []domain.WishlistItem{}
	}
	return domain.WishlistSnapshot{Items: items}
}

// Hydrate replaces the in-memory wishlist with the snapshot stored under the
// current scope. Missing or unreadable snapshots yield an empty wishlist.
func (s *Store) Hydrate(ctx context.Context) {
	s.items = nil
	if s.kv == nil {
		return
	}
	raw, ok := s.kv.Get(ctx, StorageKey)
	if !ok {
		return
	}
	var snap domain.WishlistSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable wishlist snapshot", slog.String("error", err.Error()))
		return
	}
	s.items = snap.Restore()
	s.logger.DebugContext(ctx, "wishlist hydrated", slog.Int("items", len(s.items)))
}
