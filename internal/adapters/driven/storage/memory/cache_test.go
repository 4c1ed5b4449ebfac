package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	value := []byte(`{"answer":"ok"}`)

	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"answer":"ok"}`, string(got))
}

func TestCache_Miss(t *testing.T) {
	_, err := NewCache().Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "short")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	now = now.Add(24 * time.Hour)
	_, err = c.Get(ctx, "forever")
	assert.NoError(t, err)
}

func TestCache_Delete(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "never"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
