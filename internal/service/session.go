package service

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/shopstate/internal/cart"
	"github.com/utafrali/shopstate/internal/scope"
	"github.com/utafrali/shopstate/internal/wishlist"
)

// Session is one device's cart, wishlist and identity marker. Callers reach it
// only through ShopService.WithSession, which serializes access.
type Session struct {
	mu       sync.Mutex
	deviceID string
	resolver *scope.Resolver
	cart     *cart.Store
	wishlist *wishlist.Store
	lastSeen time.Time
	hydrated bool
	evicted  bool
}

// DeviceID returns the device this session belongs to.
func (s *Session) DeviceID() string { return s.deviceID }

// Cart returns the device's cart store.
func (s *Session) Cart() *cart.Store { return s.cart }

// Wishlist returns the device's wishlist store.
func (s *Session) Wishlist() *wishlist.Store { return s.wishlist }

// Scope returns the identity the device is currently scoped to.
func (s *Session) Scope(ctx context.Context) string {
	return s.resolver.CurrentScope(ctx)
}

// hydrate loads both stores for the current scope.
func (s *Session) hydrate(ctx context.Context) {
	s.cart.Hydrate(ctx)
	s.wishlist.Hydrate(ctx)
	s.hydrated = true
}

// rescope switches identity, drops in-memory state and reloads it from the
// new scope.
func (s *Session) rescope(ctx context.Context, id string) {
	s.resolver.SetScope(ctx, id)
	s.cart.Reset()
	s.wishlist.Reset()
	s.hydrate(ctx)
}
