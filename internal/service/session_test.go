package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Anonymous(t *testing.T) {
	s := NewSession("", "", nil)
	assert.True(t, s.Anonymous())

	_, err := s.Token(context.Background())
	assert.Error(t, err)
}

func TestSession_TokenCachedUntilRefreshBuffer(t *testing.T) {
	fetches := 0
	s := NewSession("reporter", "hunter2", func(ctx context.Context, u, p string) (string, error) {
		fetches++
		return "tok-1", nil
	})

	current := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	tok, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, fetches)

	// One hour in: token still fresh, no refetch.
	current = current.Add(time.Hour)
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)

	// Inside the 10-minute refresh buffer: refetch.
	current = current.Add(55 * time.Minute)
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestSession_InvalidateForcesRefetch(t *testing.T) {
	fetches := 0
	s := NewSession("reporter", "hunter2", func(ctx context.Context, u, p string) (string, error) {
		fetches++
		return "tok", nil
	})

	_, err := s.Token(context.Background())
	require.NoError(t, err)
	s.Invalidate()
	_, err = s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}
