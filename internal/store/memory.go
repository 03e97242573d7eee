package store

import (
	"sort"
	"sync"
	"time"
)

// Memory is an in-memory store for testing and for sessions without a
// history database.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	order    map[string]int
	seq      int
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:  make(map[string]*Entry),
		order:    make(map[string]int),
		metadata: make(map[string]string),
	}
}

// Record stores a run of source.
func (m *Memory) Record(source, result string, ok bool) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	digest := Digest(source)
	e, found := m.entries[digest]
	if !found {
		e = &Entry{Digest: digest, Source: source}
		m.entries[digest] = e
	}
	e.Result = result
	e.OK = ok
	e.Runs++
	e.Ts = time.Now().UTC().Format(time.DateTime)
	m.seq++
	m.order[digest] = m.seq
	return *e, nil
}

// Recent returns up to limit entries, most recently run first.
func (m *Memory) Recent(limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return m.order[entries[i].Digest] > m.order[entries[j].Digest]
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Lookup retrieves an entry by digest.
func (m *Memory) Lookup(digest string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[digest]; ok {
		c := *e
		return &c, nil
	}
	return nil, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
