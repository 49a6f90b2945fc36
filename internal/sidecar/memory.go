package sidecar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemorySink keeps sidecars in memory. It is safe for concurrent use.
type MemorySink struct {
	name  string
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{
		name:  name,
		files: make(map[string][]byte),
	}
}

func (m *MemorySink) Name() string { return m.name }

func (m *MemorySink) Put(_ context.Context, name string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read sidecar: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return nil
}

func (m *MemorySink) Get(_ context.Context, name string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.files[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	return nil
}

// Names returns the stored names, sorted.
func (m *MemorySink) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *MemorySink) ValidateSetup(context.Context) error { return nil }

var _ Sink = (*MemorySink)(nil)
