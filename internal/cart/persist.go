package cart

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/utafrali/shopstate/internal/domain"
)

// StorageKey is the logical name of the persisted cart snapshot.
const StorageKey = "shopstate-cart-storage"

// KV is the scoped key-value adapter the store persists through.
type KV interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name, value string)
	Remove(ctx context.Context, name string)
}

func (s *Store) persist(ctx context.Context, snap domain.CartSnapshot) {
	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.ErrorContext(ctx, "encoding cart snapshot", slog.String("error", err.Error()))
		return
	}
	s.kv.Set(ctx, StorageKey, string(raw))
}

// Hydrate replaces the in-memory cart with the snapshot stored under the
// current scope. A missing or unreadable snapshot yields an empty cart.
// Persisted lines are repaired and the discount reconciled; the drawer starts
// closed. No hooks fire.
func (s *Store) Hydrate(ctx context.Context) {
	s.state = domain.Cart{}
	if s.kv == nil {
		return
	}
	raw, ok := s.kv.Get(ctx, StorageKey)
	if !ok {
		return
	}
	var snap domain.CartSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable cart snapshot", slog.String("error", err.Error()))
		return
	}
	s.state = reconcileDiscount(snap.Restore(), s.policy.Table())
	s.logger.DebugContext(ctx, "cart hydrated",
		slog.Int("lines", len(s.state.Lines)),
		slog.String("discount_code", s.state.Discount.Code),
	)
}
