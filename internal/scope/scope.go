// Package scope resolves the identity that namespaces a device's persisted
// cart and wishlist.
package scope

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/utafrali/shopstate/internal/storage"
	"github.com/utafrali/shopstate/pkg/logger"
)

const (
	// MarkerKey holds the signed-in identity of a device.
	MarkerKey = "shopstate-current-user-id"

	// Anonymous is the scope used when nobody is signed in.
	Anonymous = "anon"
)

// Resolver reads and writes the identity marker in a device's backend.
type Resolver struct {
	backend storage.Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewResolver creates a Resolver over backend.
func NewResolver(backend storage.Backend, timeout time.Duration, log *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = storage.DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{backend: backend, timeout: timeout, logger: log}
}

// CurrentScope returns the stored identity, or Anonymous when none is stored
// or the backend cannot be read.
func (r *Resolver) CurrentScope(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id, err := r.backend.Get(ctx, MarkerKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.WithContext(ctx, r.logger).WarnContext(ctx, "reading identity marker failed, using anonymous scope",
				slog.String("error", err.Error()),
			)
		}
		return Anonymous
	}
	if id = strings.TrimSpace(id); id == "" {
		return Anonymous
	}
	return id
}

// SetScope records id as the current identity. An empty id clears the marker.
// Failures are logged and dropped.
func (r *Resolver) SetScope(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id = strings.TrimSpace(id)
	var err error
	if id == "" {
		err = r.backend.Delete(ctx, MarkerKey)
	} else {
		err = r.backend.Set(ctx, MarkerKey, id)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.WithContext(ctx, r.logger).WarnContext(ctx, "writing identity marker failed",
			slog.String("error", err.Error()),
		)
	}
}
