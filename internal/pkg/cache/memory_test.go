package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", sample{Name: "a", Total: 3}, time.Minute))

	var got sample
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, sample{Name: "a", Total: 3}, got)
}

func TestMemoryCache_Miss(t *testing.T) {
	c := NewMemoryCache()

	var got sample
	assert.ErrorIs(t, c.Get(context.Background(), "missing", &got), ErrMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", sample{Name: "a"}, time.Minute))
	assert.True(t, c.Has("k"))

	now = now.Add(time.Minute)

	var got sample
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
	assert.False(t, c.Has("k"))
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	keys := []string{
		CommissionUnpaidKey("a1"),
		CommissionSummaryKey("a1"),
		PerformanceKey("monthly", "2024-01", "sales_agent"),
		PerformanceKey("yearly", "2024"),
		"other",
	}
	for _, key := range keys {
		require.NoError(t, c.Set(ctx, key, 1, 0))
	}
	require.NoError(t, c.Bump(ctx, ScopePerformance))

	require.NoError(t, c.DeletePrefix(ctx, PrefixPerformance))
	assert.False(t, c.Has("performance:monthly:2024-01:sales_agent"))
	assert.False(t, c.Has("performance:yearly:2024"))
	assert.True(t, c.Has("other"))
	assert.True(t, c.Has(CommissionSummaryKey("a1")))

	gen, err := c.Generation(ctx, ScopePerformance)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}

func TestMemoryCache_Bump(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	gen, err := c.Generation(ctx, AgentScope("a1"))
	require.NoError(t, err)
	assert.Zero(t, gen)

	require.NoError(t, c.Bump(ctx, AgentScope("a1"), ScopePerformance))
	require.NoError(t, c.Bump(ctx, AgentScope("a1")))

	gen, err = c.Generation(ctx, AgentScope("a1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), gen)

	gen, err = c.Generation(ctx, AgentScope("a2"))
	require.NoError(t, err)
	assert.Zero(t, gen)
}

func TestVersionedKey(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	before, err := VersionedKey(ctx, c, CommissionUnpaidKey("a1"), ScopeTiers, AgentScope("a1"))
	require.NoError(t, err)
	assert.Equal(t, "commission:unpaid:a1:g0:g0", before)

	require.NoError(t, c.Set(ctx, before, sample{Name: "stale"}, time.Minute))
	require.NoError(t, c.Bump(ctx, AgentScope("a1")))

	after, err := VersionedKey(ctx, c, CommissionUnpaidKey("a1"), ScopeTiers, AgentScope("a1"))
	require.NoError(t, err)
	assert.Equal(t, "commission:unpaid:a1:g0:g1", after)

	var got sample
	assert.ErrorIs(t, c.Get(ctx, after, &got), ErrMiss)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "commission:unpaid:a1", CommissionUnpaidKey("a1"))
	assert.Equal(t, "commission:paid:a1", CommissionPaidKey("a1"))
	assert.Equal(t, "commission:summary:a1", CommissionSummaryKey("a1"))
	assert.Equal(t, "performance:yearly:2024", PerformanceKey("yearly", "2024"))
	assert.Equal(t, "performance:", PerformanceKey())
}
