// Package cart is the cart state store: lines, the applied discount, the
// drawer flag and every derived price.
package cart

import (
	"context"
	"log/slog"
	"slices"

	"github.com/utafrali/shopstate/internal/domain"
	"github.com/utafrali/shopstate/internal/pricing"
)

// Change describes the cart right after a persisted mutation.
type Change struct {
	Op       string
	Snapshot domain.CartSnapshot
	Totals   domain.Totals
}

// Hook runs after every mutation that changed lines or discount.
type Hook func(ctx context.Context, change Change)

// Store owns one cart. It is single-actor: callers serialize access.
type Store struct {
	state  domain.Cart
	policy pricing.Policy
	stock  StockPolicy
	kv     KV
	hooks  []Hook
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithStockPolicy sets how refreshed stock is enforced.
func WithStockPolicy(p StockPolicy) Option {
	return func(s *Store) { s.stock = p }
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

// New creates an empty cart store.
func New(policy pricing.Policy, opts ...Option) *Store {
	s := &Store{
		policy: policy,
		stock:  StockEager,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a hook fired after persisted mutations, in registration
// order. Hooks must not call back into the store.
func (s *Store) OnChange(h Hook) {
	s.hooks = append(s.hooks, h)
}

func (s *Store) apply(ctx context.Context, op string, next domain.Cart, changed bool) {
	s.state = next
	if !changed {
		return
	}
	s.logger.DebugContext(ctx, "cart updated",
		slog.String("op", op),
		slog.Int("lines", len(next.Lines)),
		slog.String("discount_code", next.Discount.Code),
	)
	change := Change{Op: op, Snapshot: next.Snapshot(), Totals: s.policy.Totals(next)}
	if s.kv != nil {
		s.persist(ctx, change.Snapshot)
	}
	for _, h := range s.hooks {
		h(ctx, change)
	}
}

// ---------------------------------------------------------------------------
// Mutators
// ---------------------------------------------------------------------------

// AddItem adds quantity of item, merging with an existing line of the same id.
func (s *Store) AddItem(ctx context.Context, item domain.Item, quantity int) {
	next, changed := TransitionAddItem(s.state, item, quantity, s.policy.Table())
	s.apply(ctx, "add_item", next, changed)
}

// RemoveItem deletes the line with id.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	next, changed := TransitionRemoveItem(s.state, id, s.policy.Table())
	s.apply(ctx, "remove_item", next, changed)
}

// UpdateQuantity sets the quantity of an existing line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	next, changed := TransitionUpdateQuantity(s.state, id, quantity, s.policy.Table())
	s.apply(ctx, "update_quantity", next, changed)
}

// RefreshStock records fresh catalog stock for a line.
func (s *Store) RefreshStock(ctx context.Context, id string, stockLimit int) {
	next, changed := TransitionRefreshStock(s.state, id, stockLimit, s.stock, s.policy.Table())
	s.apply(ctx, "refresh_stock", next, changed)
}

// ClearCart empties the cart and resets the discount.
func (s *Store) ClearCart(ctx context.Context) {
	next, changed := TransitionClear(s.state)
	s.apply(ctx, "clear", next, changed)
}

// OpenDrawer shows the cart drawer.
func (s *Store) OpenDrawer() {
	s.state, _ = TransitionSetDrawer(s.state, true)
}

// CloseDrawer hides the cart drawer.
func (s *Store) CloseDrawer() {
	s.state, _ = TransitionSetDrawer(s.state, false)
}

// ApplyDiscount applies a discount code and reports whether it took effect.
func (s *Store) ApplyDiscount(ctx context.Context, code string) bool {
	next, changed := TransitionApplyDiscount(s.state, code, s.policy.Table())
	s.apply(ctx, "apply_discount", next, changed)
	return changed
}

// ApplyRewardCoupon applies a loyalty reward and reports whether it took effect.
func (s *Store) ApplyRewardCoupon(ctx context.Context, code string, dollarAmount float64) bool {
	next, changed := TransitionApplyRewardCoupon(s.state, code, dollarAmount)
	s.apply(ctx, "apply_reward_coupon", next, changed)
	return changed
}

// RemoveDiscount clears the applied discount.
func (s *Store) RemoveDiscount(ctx context.Context) {
	next, changed := TransitionRemoveDiscount(s.state)
	s.apply(ctx, "remove_discount", next, changed)
}

// Reset drops in-memory state without persisting, ahead of a re-hydrate under
// a new scope.
func (s *Store) Reset() {
	s.state = domain.Cart{}
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// Lines returns a copy of the cart lines.
func (s *Store) Lines() []domain.CartLine {
	return slices.Clone(s.state.Lines)
}

// Discount returns the applied discount.
func (s *Store) Discount() domain.DiscountState {
	return s.state.Discount
}

// IsDrawerOpen reports the drawer flag.
func (s *Store) IsDrawerOpen() bool {
	return s.state.DrawerOpen
}

// State returns a copy of the whole cart.
func (s *Store) State() domain.Cart {
	return s.state.Clone()
}

// Snapshot returns the persisted view of the cart.
func (s *Store) Snapshot() domain.CartSnapshot {
	return s.state.Snapshot()
}

// Totals returns every derived value at once.
func (s *Store) Totals() domain.Totals {
	return s.policy.Totals(s.state)
}

// TotalItems returns the sum of line quantities.
func (s *Store) TotalItems() int { return s.Totals().TotalItems }

// Subtotal returns Σ unitPrice × quantity.
func (s *Store) Subtotal() float64 { return s.Totals().Subtotal }

// Shipping returns the shipping fee.
func (s *Store) Shipping() float64 { return s.Totals().Shipping }

// Tax returns the tax on subtotal − discount + shipping.
func (s *Store) Tax() float64 { return s.Totals().Tax }

// Total returns subtotal + tax + shipping − discount.
func (s *Store) Total() float64 { return s.Totals().Total }
