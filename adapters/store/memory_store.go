package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/layer-3/learnchain/core"
	"github.com/layer-3/learnchain/ports"
)

type memoryEntry struct {
	fields    map[string]string
	expiresAt time.Time
}

// MemoryStore is an in-memory implementation of the SessionStore interface
type MemoryStore struct {
	sessions map[string]memoryEntry
	now      func() time.Time
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() ports.SessionStore {
	return newMemoryStore(time.Now)
}

func newMemoryStore(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      now,
	}
}

// Set merges fields into a session and resets its expiry
func (s *MemoryStore) Set(ctx context.Context, sessionID string, fields map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.expired(entry) {
		entry = memoryEntry{fields: make(map[string]string, len(fields))}
	}
	maps.Copy(entry.fields, fields)
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	} else {
		entry.expiresAt = time.Time{}
	}
	s.sessions[sessionID] = entry

	return nil
}

// Get returns one field of a session
func (s *MemoryStore) Get(ctx context.Context, sessionID, field string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.expired(entry) {
		return "", core.ErrSessionNotFound
	}
	value, ok := entry.fields[field]
	if !ok {
		return "", core.ErrSessionNotFound
	}
	return value, nil
}

// GetAll returns a copy of every field of a session
func (s *MemoryStore) GetAll(ctx context.Context, sessionID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[sessionID]
	if !ok || s.expired(entry) {
		return nil, core.ErrSessionNotFound
	}
	return maps.Clone(entry.fields), nil
}

// Clear removes the session
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// expired must be called with the lock held
func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt)
}
