package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevocationRegistry_RevokeIsIdempotent(t *testing.T) {
	store := &memBlacklist{}
	reg := NewRevocationRegistry(store)
	ctx := context.Background()

	require.NoError(t, reg.Revoke(ctx, "tok"))
	require.NoError(t, reg.Revoke(ctx, "tok"))

	revoked, err := reg.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Len(t, store.rows, 2)

	revoked, err = reg.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationRegistry_PruneBoundary(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := &memBlacklist{}
	reg := NewRevocationRegistry(store)
	reg.now = func() time.Time { return now }
	ctx := context.Background()
	cutoff := 25 * time.Hour

	add := func(token string, age time.Duration) {
		reg.now = func() time.Time { return now.Add(-age) }
		require.NoError(t, reg.Revoke(ctx, token))
	}
	add("old", cutoff+time.Minute)
	add("edge", cutoff)
	add("fresh", time.Hour)
	reg.now = func() time.Time { return now }

	n, err := reg.PruneOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for token, want := range map[string]bool{"old": false, "edge": true, "fresh": true} {
		got, err := reg.IsRevoked(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, want, got, token)
	}
}

func TestRevocationRegistry_Errors(t *testing.T) {
	reg := NewRevocationRegistry(&memBlacklist{err: errStore})
	ctx := context.Background()

	assert.ErrorIs(t, reg.Revoke(ctx, "tok"), errStore)
	_, err := reg.PruneOlderThan(ctx, time.Hour)
	assert.ErrorIs(t, err, errStore)
}
