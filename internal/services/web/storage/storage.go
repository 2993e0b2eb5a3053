package storage

import (
	"context"
	"time"
)

// SessionRecord is one persisted visitor session.
type SessionRecord struct {
	VisitorID string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is no longer usable at now.
func (r SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// SessionStore persists visitor session tokens across process restarts.
type SessionStore interface {
	Close() error
	ListSessions(ctx context.Context, now time.Time) ([]SessionRecord, error)
	PutSession(ctx context.Context, record SessionRecord) error
	DeleteSession(ctx context.Context, visitorID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
