// Package file is a storage backend that keeps every key in one JSON document
// on local disk, rewritten atomically on each change.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/utafrali/shopstate/internal/storage"
)

// Backend is a JSON-file key-value store. The whole document is cached in
// memory after the first read.
type Backend struct {
	path string

	mu     sync.Mutex
	data   map[string]string
	loaded bool
}

// New returns a Backend persisting to path. The file is created on first write.
func New(path string) (*Backend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("file backend: empty path")
	}
	return &Backend{path: path}, nil
}

// Path returns the backing file.
func (b *Backend) Path() string { return b.path }

func (b *Backend) load() error {
	if b.loaded {
		return nil
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			b.data = make(map[string]string)
			b.loaded = true
			return nil
		}
		return fmt.Errorf("reading %s: %w", b.path, err)
	}
	doc := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("decoding %s: %w", b.path, err)
		}
	}
	b.data = doc
	b.loaded = true
	return nil
}

func (b *Backend) save() error {
	data, err := json.Marshal(b.data)
	if err != nil {
		return err
	}
	dir := filepath.Dir(b.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, b.path)
}

// Get implements storage.Backend.
func (b *Backend) Get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return "", err
	}
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
	if err := b.load(); err != nil {
		return err
	}
	prev, had := b.data[key]
	b.data[key] = value
	if err := b.save(); err != nil {
		if had {
			b.data[key] = prev
		} else {
			delete(b.data, key)
		}
		return fmt.Errorf("writing %s: %w", b.path, err)
	}
	return nil
}

// Delete implements storage.Backend.
func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.load(); err != nil {
		return err
	}
	prev, had := b.data[key]
	if !had {
		return nil
	}
	delete(b.data, key)
	if err := b.save(); err != nil {
		b.data[key] = prev
		return fmt.Errorf("writing %s: %w", b.path, err)
	}
	return nil
}

// Ping verifies the document is readable.
func (b *Backend) Ping(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load()
}
