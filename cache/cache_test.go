package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Names []string `json:"names"`
}

func TestMemoryRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "top", snapshot{Names: []string{"Lan", "Minh"}}, 30*time.Second))

	var got snapshot
	ok, err := m.Get(ctx, "top", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Lan", "Minh"}, got.Names)

	clock = clock.Add(31 * time.Second)
	ok, err = m.Get(ctx, "top", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "a", 1, 0))
	require.NoError(t, m.Delete(ctx, "a", "missing"))

	var v int
	ok, err := m.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "://nope", "vl:")
	assert.Error(t, err)
}
