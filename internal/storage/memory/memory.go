// Package memory is an in-process storage backend for tests and single-node
// development.
package memory

import (
	"context"
	"sync"

	"github.com/utafrali/shopstate/internal/storage"
)

// Backend keeps every key in a map.
type Backend struct {
	mu   sync.RWMutex
	data map[string]string
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{data: make(map[string]string)}
}

// Get implements storage.Backend.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set implements storage.Backend.
func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

// Delete implements storage.Backend.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}
