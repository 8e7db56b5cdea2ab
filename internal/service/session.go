package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// tokenLifetime is how long a platform token is assumed valid.
	tokenLifetime = 2 * time.Hour
	// refreshBuffer renews the token this long before it expires.
	refreshBuffer = 10 * time.Minute
)

// TokenFetcher exchanges credentials for a platform API token.
type TokenFetcher func(ctx context.Context, username, password string) (string, error)

// Session manages platform authentication: it caches the API token and
// refreshes it shortly before expiry. Without credentials the session is
// anonymous and filing operations are unavailable.
type Session struct {
	username string
	password string
	fetch    TokenFetcher
	now      Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewSession creates a session for the given credentials. Empty credentials
// produce an anonymous session.
func NewSession(username, password string, fetch TokenFetcher) *Session {
	return &Session{username: username, password: password, fetch: fetch, now: time.Now}
}

// Anonymous reports whether the session has no credentials.
func (s *Session) Anonymous() bool {
	return s.username == "" || s.password == ""
}

// Token returns a valid API token, refreshing it when it has expired or
// will expire within the refresh buffer.
func (s *Session) Token(ctx context.Context) (string, error) {
	if s.Anonymous() {
		return "", fmt.Errorf("authentication required: no credentials configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(refreshBuffer).Before(s.expiresAt) {
		return s.token, nil
	}

	token, err := s.fetch(ctx, s.username, s.password)
	if err != nil {
		return "", fmt.Errorf("failed to refresh platform token: %w", err)
	}
	s.token = token
	s.expiresAt = s.now().Add(tokenLifetime)
	return s.token, nil
}

// Invalidate discards the cached token so the next call re-authenticates.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}
