// Package page tracks one browser tab showing pull requests, one session per navigation.
package page

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/festy23/prtracker/internal/prkey"
)

// Session is the state of one navigation. It is created on navigation-in and
// ended on navigation-out; an ended session never reports again.
type Session struct {
	ID        uuid.UUID
	URL       string
	StartedAt time.Time

	Key        prkey.Key
	Processed  bool
	Approved   bool
	LastUpdate time.Time

	ended atomic.Bool
}

// NewSession starts a session for rawURL.
func NewSession(rawURL string, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		URL:       rawURL,
		StartedAt: now,
	}
}

// Alive reports whether the session may still report visits.
func (s *Session) Alive() bool {
	return !s.ended.Load()
}

// End stops the session.
func (s *Session) End() {
	s.ended.Store(true)
}

func (s *Session) throttled(now time.Time, minInterval time.Duration) bool {
	return s.Processed && now.Sub(s.LastUpdate) < minInterval
}
