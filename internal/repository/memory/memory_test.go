package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamingCache(t *testing.T) {
	c := NewNamingCache[string](time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Save("k", "Chips")
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "Chips", got)
	assert.Equal(t, 1, c.Count())
}

func TestRunMarkerRepository(t *testing.T) {
	repo := NewRunMarkerRepository()
	user := uuid.New()
	ctx := context.Background()

	_, ok, err := repo.LastRun(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkRun(ctx, user, at))
	got, ok, err := repo.LastRun(ctx, user)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, at, got)
}
