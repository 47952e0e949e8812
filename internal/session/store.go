package session

import (
	"context"
	"sync"
	"time"
)

// Store keeps assessments between requests. Implementations must be safe for
// concurrent use.
type Store interface {
	// Load returns the assessment for id, or a fresh EMPTY one when none is
	// stored or it has expired.
	Load(ctx context.Context, id string) (*Assessment, error)

	// Save stores a copy of a, replacing any previous value and extending
	// its lifetime.
	Save(ctx context.Context, a *Assessment) error

	// Delete ends the session.
	Delete(ctx context.Context, id string) error
}

// MemoryStore is the in-process Store used in development and tests. Values
// are copied on the way in and out so callers never share an *Assessment.
// Expired entries are dropped when loaded, and Save sweeps the rest at most
// once per ttl.
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]memoryEntry
	lastSweep time.Time
}

type memoryEntry struct {
	a         Assessment
	expiresAt time.Time
}

// NewMemoryStore returns a MemoryStore whose entries expire ttl after their
// last Save. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return New(id), nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return New(id), nil
	}
	a := e.a
	return &a, nil
}

func (m *MemoryStore) Save(_ context.Context, a *Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var exp time.Time
	if m.ttl > 0 {
		now := m.now()
		exp = now.Add(m.ttl)
		if now.Sub(m.lastSweep) >= m.ttl {
			m.sweep(now)
		}
	}
	m.entries[a.ID] = memoryEntry{a: *a, expiresAt: exp}
	return nil
}

// sweep drops every entry expired at now. m.mu must be held.
func (m *MemoryStore) sweep(now time.Time) {
	for id, e := range m.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.lastSweep = now
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}
