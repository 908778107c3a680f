package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/utafrali/shopstate/pkg/logger"
)

// Scoper reports the identity that scopes persisted keys.
type Scoper interface {
	CurrentScope(ctx context.Context) string
}

// ScopeSeparator joins a logical name and its scope.
const ScopeSeparator = "::"

// DefaultTimeout bounds each backend call made by the Adapter.
const DefaultTimeout = 2 * time.Second

// Adapter is the identity-scoped façade over a Backend. Every logical name is
// rewritten to name::scope before reaching the backend, and every backend
// failure is absorbed: Get reports absent, Set and Remove become no-ops.
type Adapter struct {
	backend Backend
	scope   Scoper
	timeout time.Duration
	logger  *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter builds an Adapter over backend scoped by scope.
func NewAdapter(backend Backend, scope Scoper, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		backend: backend,
		scope:   scope,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ScopedKey returns the backend key for name under the current scope.
func (a *Adapter) ScopedKey(ctx context.Context, name string) string {
	return name + ScopeSeparator + a.scope.CurrentScope(ctx)
}

// Get returns the value stored under name, or false when absent or unreadable.
func (a *Adapter) Get(ctx context.Context, name string) (string, bool) {
	key := a.ScopedKey(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	value, err := a.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.absorb(ctx, "get", key, err)
		}
		return "", false
	}
	return value, true
}

// Set stores value under name. Failures are logged and dropped.
func (a *Adapter) Set(ctx context.Context, name, value string) {
	key := a.ScopedKey(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.backend.Set(ctx, key, value); err != nil {
		a.absorb(ctx, "set", key, err)
	}
}

// Remove deletes name. Failures are logged and dropped.
func (a *Adapter) Remove(ctx context.Context, name string) {
	key := a.ScopedKey(ctx, name)
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		a.absorb(ctx, "remove", key, err)
	}
}

func (a *Adapter) absorb(ctx context.Context, op, key string, err error) {
	storageFailuresTotal.WithLabelValues(op).Inc()
	logger.WithContext(ctx, a.logger).WarnContext(ctx, "storage operation failed",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}
