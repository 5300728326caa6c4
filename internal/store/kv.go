package store

import (
	"context"
	"sync"
)

// Collection keys. They match the keys the browser prototype kept in local storage,
// so an exported local-storage dump can be loaded as-is.
const (
	KeySignals      = "imi.signals.v1"
	KeyUserAnalyses = "imi.userAnalyses.v1"
	KeyWatchlists   = "imi.watchlists.v1"
	KeyClusters     = "imi.clusters.v1"
	KeyThemes       = "imi.themes.v1"
)

// KV stores whole JSON documents by key
type KV interface {
	// Get returns (nil, false, nil) for a missing key
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// MemoryKV is a process-local KV used by default and in tests
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory KV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Set implements KV
func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

// Close implements KV
func (m *MemoryKV) Close() error {
	return nil
}
