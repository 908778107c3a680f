// Package storage provides the identity-scoped key-value façade the cart and
// wishlist persist through, plus wrappers shared by every durable backend.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by a Backend when a key is absent.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a durable string key-value store. Implementations must be safe
// for concurrent use.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks b when it supports health checks and reports healthy otherwise.
func Ping(ctx context.Context, b Backend) error {
	if p, ok := b.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// prefixed namespaces every key of an underlying backend.
type prefixed struct {
	next   Backend
	prefix string
}

// WithPrefix returns a Backend that stores every key under prefix. Devices
// share one durable backend this way without seeing each other's keys.
func WithPrefix(next Backend, prefix string) Backend {
	return &prefixed{next: next, prefix: prefix}
}

// DevicePrefix is the key namespace of one device.
func DevicePrefix(deviceID string) string {
	return "device:" + strings.TrimSpace(deviceID) + ":"
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.next.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Ping(ctx context.Context) error {
	return Ping(ctx, p.next)
}
