package ports

import (
	"context"
	"time"
)

// SessionStore keeps the persisted fields of each session, keyed by session ID.
type SessionStore interface {
	// Set merges fields into the session and refreshes its expiry.
	Set(ctx context.Context, sessionID string, fields map[string]string, ttl time.Duration) error
	// Get returns a single field; core.ErrSessionNotFound when it is absent.
	Get(ctx context.Context, sessionID, field string) (string, error)
	// GetAll returns every field of the session.
	GetAll(ctx context.Context, sessionID string) (map[string]string, error)
	// Clear drops the whole session.
	Clear(ctx context.Context, sessionID string) error
}
