package source

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemorySource is an in-memory Source implementation for testing.
// Thread-safe for concurrent reads and writes.
type MemorySource struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemorySource creates a new in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		blobs: make(map[string][]byte),
	}
}

// Open opens a dataset for reading.
func (m *MemorySource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Put stores a dataset.
func (m *MemorySource) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Copy to prevent external mutation
	m.blobs[name] = slices.Clone(data)
}

// List returns all dataset names matching the prefix, sorted.
func (m *MemorySource) List(prefix string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
