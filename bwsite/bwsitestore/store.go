// Package bwsitestore persists content fingerprints between deployments.
//
// A Store is a small key-value table keyed by the logical name of an asset
// root. It is read once before a deployment and written once after the whole
// deployment succeeded.
package bwsitestore

import (
	"context"
	"sync"
)

// Store reads and writes fingerprints by logical key.
type Store interface {
	// Get returns the stored hash for key. ok is false when nothing is stored.
	Get(ctx context.Context, key string) (hash string, ok bool, err error)
	// Put stores hash under key, replacing any previous value.
	Put(ctx context.Context, key, hash string) error
}

// Memory is an in-process Store, mostly useful in tests.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.data[key]
	return h, ok, nil
}

func (m *Memory) Put(_ context.Context, key, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = hash
	return nil
}

var _ Store = (*Memory)(nil)
