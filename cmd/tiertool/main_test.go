package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kreditkeliling/kupon-backend-go/internal/domain/commission"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/cache"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTable = `
tiers:
  - min: 5000000
    percentage: 5
  - min: 0
    max: 5000000
    percentage: "2.5"
`

type memoryTierRepo struct {
	tiers    []commission.CommissionTier
	replaced bool
}

func (r *memoryTierRepo) List(ctx context.Context) ([]commission.CommissionTier, error) {
	return r.tiers, nil
}
func (r *memoryTierRepo) Create(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	r.tiers = append(r.tiers, t)
	return t, nil
}
func (r *memoryTierRepo) Update(ctx context.Context, t commission.CommissionTier) (commission.CommissionTier, error) {
	return t, nil
}
func (r *memoryTierRepo) Delete(ctx context.Context, id string) error { return nil }
func (r *memoryTierRepo) ReplaceAll(ctx context.Context, tiers []commission.CommissionTier) error {
	r.tiers = tiers
	r.replaced = true
	return nil
}

func TestReadTierFile(t *testing.T) {
	tiers, err := readTierFile(strings.NewReader(validTable))
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	assert.True(t, tiers[0].IsOpenEnded())
	assert.True(t, decimal.RequireFromString("2.5").Equal(tiers[1].Percentage))
	require.NotNil(t, tiers[1].MaxAmount)
	assert.True(t, decimal.NewFromInt(5000000).Equal(*tiers[1].MaxAmount))
}

func TestReadTierFile_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown field": "tiers:\n  - min: 0\n    rate: 5\n",
		"not a number":  "tiers:\n  - min: zero\n    percentage: 5\n",
		"max below min": "tiers:\n  - min: 100\n    max: 50\n    percentage: 5\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := readTierFile(strings.NewReader(body))
			assert.Error(t, err)
		})
	}

	_, err := readTierFile(strings.NewReader("tiers:\n  - min: 0\n    percentage: 150\n"))
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, check(strings.NewReader(validTable), &out))
	assert.Contains(t, out.String(), "ok: 2 tiers")

	out.Reset()
	gap := "tiers:\n  - min: 0\n    max: 100\n    percentage: 1\n  - min: 200\n    percentage: 2\n"
	err := check(strings.NewReader(gap), &out)
	assert.ErrorIs(t, err, errTierIssues)
	assert.Contains(t, out.String(), string(commission.TierIssueGap))
}

func tierGenerations(t *testing.T, c cache.Cache) []int64 {
	t.Helper()

	var gens []int64
	for _, scope := range []string{cache.ScopeTiers, cache.ScopePerformance} {
		gen, err := c.Generation(context.Background(), scope)
		require.NoError(t, err)
		gens = append(gens, gen)
	}
	return gens
}

func TestImportTiers_Strict(t *testing.T) {
	ctx := context.Background()
	repo := &memoryTierRepo{}
	reportCache := cache.NewMemoryCache()
	require.NoError(t, reportCache.Set(ctx, cache.CommissionUnpaidKey("a1")+":g0:g0", 1, time.Minute))
	require.NoError(t, reportCache.Set(ctx, cache.PerformanceKey("yearly", "2024")+":g0", 1, time.Minute))
	var out bytes.Buffer

	overlap := "tiers:\n  - min: 0\n    max: 100\n    percentage: 1\n  - min: 50\n    percentage: 2\n"
	err := importTiers(ctx, repo, reportCache, strings.NewReader(overlap), &out)
	assert.ErrorIs(t, err, errTierIssues)
	assert.False(t, repo.replaced)
	assert.Equal(t, []int64{0, 0}, tierGenerations(t, reportCache))

	require.NoError(t, importTiers(ctx, repo, reportCache, strings.NewReader(validTable), &out))
	assert.True(t, repo.replaced)
	require.Len(t, repo.tiers, 2)
	assert.True(t, repo.tiers[0].MinAmount.IsZero())

	assert.Equal(t, []int64{1, 1}, tierGenerations(t, reportCache))
	assert.False(t, reportCache.Has(cache.CommissionUnpaidKey("a1")+":g0:g0"))
	assert.False(t, reportCache.Has(cache.PerformanceKey("yearly", "2024")+":g0"))
	assert.NotContains(t, out.String(), "warning")
}

func TestImportTiers_WithoutSharedCacheWarns(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, importTiers(context.Background(), &memoryTierRepo{}, nil, strings.NewReader(validTable), &out))
	assert.Contains(t, out.String(), "imported 2 tiers")
	assert.Contains(t, out.String(), "warning: report cache is in process memory")
}

func TestExportTiers_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &memoryTierRepo{}
	require.NoError(t, importTiers(ctx, repo, cache.NewMemoryCache(), strings.NewReader(validTable), &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, exportTiers(ctx, repo, &out))

	tiers, err := readTierFile(&out)
	require.NoError(t, err)
	require.Len(t, tiers, 2)
	assert.Empty(t, commission.InspectTiers(tiers))
}
