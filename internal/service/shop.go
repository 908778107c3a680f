package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/shopstate/internal/cart"
	"github.com/utafrali/shopstate/internal/event"
	"github.com/utafrali/shopstate/internal/pricing"
	"github.com/utafrali/shopstate/internal/scope"
	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/internal/wishlist"
	apperrors "github.com/utafrali/shopstate/pkg/errors"
	"github.com/utafrali/shopstate/pkg/logger"
	"github.com/utafrali/shopstate/pkg/validator"
)

// Options configures a ShopService.
type Options struct {
	Policy         pricing.Policy
	StockPolicy    cart.StockPolicy
	StorageTimeout time.Duration
	IdleTTL        time.Duration
}

// deviceRequest validates device identifiers before they become key prefixes.
type deviceRequest struct {
	DeviceID string `json:"device_id" validate:"required,max=128,excludesall=: "`
}

// userRequest validates identities before they become scope suffixes.
type userRequest struct {
	UserID string `json:"user_id" validate:"required,max=128,excludesall=: "`
}

// ShopService owns one Session per device and serializes access to it.
type ShopService struct {
	backend storage.Backend
	opts    Options
	events  *event.Producer
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewShopService creates a session registry over a shared durable backend.
// events may be nil when change events are disabled.
func NewShopService(backend storage.Backend, opts Options, events *event.Producer, logger *slog.Logger) *ShopService {
	if opts.StorageTimeout <= 0 {
		opts.StorageTimeout = storage.DefaultTimeout
	}
	if opts.StockPolicy == "" {
		opts.StockPolicy = cart.StockEager
	}
	return &ShopService{
		backend:  backend,
		opts:     opts,
		events:   events,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (s *ShopService) newSession(deviceID string) *Session {
	deviceBackend := storage.WithPrefix(s.backend, storage.DevicePrefix(deviceID))
	log := s.logger.With(slog.String("device_id", deviceID))

	resolver := scope.NewResolver(deviceBackend, s.opts.StorageTimeout, log)
	kv := storage.NewAdapter(deviceBackend, resolver,
		storage.WithTimeout(s.opts.StorageTimeout),
		storage.WithLogger(log),
	)

	sess := &Session{
		deviceID: deviceID,
		resolver: resolver,
		cart: cart.New(s.opts.Policy,
			cart.WithStorage(kv),
			cart.WithStockPolicy(s.opts.StockPolicy),
			cart.WithLogger(log),
		),
		wishlist: wishlist.New(
			wishlist.WithStorage(kv),
			wishlist.WithLogger(log),
		),
	}
	if s.events != nil {
		sess.cart.OnChange(s.events.CartHook(deviceID, resolver.CurrentScope))
		sess.wishlist.OnChange(s.events.WishlistHook(deviceID, resolver.CurrentScope))
	}
	return sess
}

// acquire returns the locked session for deviceID, creating it when needed.
func (s *ShopService) acquire(deviceID string) *Session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[deviceID]
		if !ok {
			sess = s.newSession(deviceID)
			s.sessions[deviceID] = sess
			activeDevices.Inc()
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if !sess.evicted {
			return sess
		}
		sess.mu.Unlock()
	}
}

// WithSession runs fn with exclusive access to the device's session. The
// session is created and hydrated on first use.
func (s *ShopService) WithSession(ctx context.Context, deviceID string, fn func(ctx context.Context, sess *Session) error) error {
	if err := validator.Validate(deviceRequest{DeviceID: deviceID}); err != nil {
		return apperrors.InvalidInput("invalid device id")
	}
	ctx = logger.WithDeviceID(ctx, deviceID)

	sess := s.acquire(deviceID)
	defer sess.mu.Unlock()

	sess.lastSeen = s.now()
	if !sess.hydrated {
		sess.hydrate(ctx)
		s.logger.InfoContext(ctx, "device session loaded",
			slog.String("device_id", deviceID),
			slog.String("scope", sess.Scope(ctx)),
		)
	}
	return fn(ctx, sess)
}

// SignIn scopes the device to userID and reloads its cart and wishlist from
// that identity's snapshots. It returns the new scope.
func (s *ShopService) SignIn(ctx context.Context, deviceID, userID string) (string, error) {
	if err := validator.Validate(userRequest{UserID: userID}); err != nil {
		return "", apperrors.InvalidInput("invalid user id")
	}
	var current string
	err := s.WithSession(ctx, deviceID, func(ctx context.Context, sess *Session) error {
		sess.rescope(ctx, userID)
		current = sess.Scope(ctx)
		return nil
	})
	if err != nil {
		return "", err
	}
	identitySwitchesTotal.WithLabelValues("sign_in").Inc()
	s.logger.InfoContext(ctx, "device signed in",
		slog.String("device_id", deviceID),
		slog.String("user_id", userID),
	)
	return current, nil
}

// SignOut returns the device to the anonymous scope and reloads its state.
func (s *ShopService) SignOut(ctx context.Context, deviceID string) error {
	err := s.WithSession(ctx, deviceID, func(ctx context.Context, sess *Session) error {
		sess.rescope(ctx, "")
		return nil
	})
	if err != nil {
		return err
	}
	identitySwitchesTotal.WithLabelValues("sign_out").Inc()
	s.logger.InfoContext(ctx, "device signed out", slog.String("device_id", deviceID))
	return nil
}

// ActiveDevices returns the number of sessions in memory.
func (s *ShopService) ActiveDevices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// EvictIdle drops sessions unused for longer than the idle TTL. Busy sessions
// are skipped. State stays in the backend and is re-hydrated on next use.
func (s *ShopService) EvictIdle() int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted int
	for id, sess := range s.sessions {
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) {
			sess.evicted = true
			delete(s.sessions, id)
			evicted++
		}
		sess.mu.Unlock()
	}
	if evicted > 0 {
		activeDevices.Sub(float64(evicted))
		devicesEvictedTotal.Add(float64(evicted))
		s.logger.Info("evicted idle devices", slog.Int("count", evicted))
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is cancelled.
func (s *ShopService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// Ping checks the shared backend for readiness.
func (s *ShopService) Ping(ctx context.Context) error {
	if err := storage.Ping(ctx, s.backend); err != nil {
		return fmt.Errorf("storage backend: %w", err)
	}
	return nil
}
