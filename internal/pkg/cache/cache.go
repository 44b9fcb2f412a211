package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrMiss = errors.New("cache miss")

const (
	PrefixCommission  = "commission:"
	PrefixPerformance = "performance:"

	// Generation counters live outside the view prefixes so DeletePrefix
	// never resets them.
	prefixGeneration = "generation:"
)

// Scopes group views that are invalidated together.
const (
	ScopeTiers       = "tiers"
	ScopePerformance = "performance"
)

func AgentScope(agentID string) string {
	return "agent:" + agentID
}

// Cache stores JSON-encoded report views. Get returns ErrMiss when the key is
// absent or expired.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
	// Generation returns the current generation of scope, zero if it was
	// never bumped.
	Generation(ctx context.Context, scope string) (int64, error)
	Bump(ctx context.Context, scopes ...string) error
}

// VersionedKey appends the current generation of every scope to key. A view
// loaded before a Bump is written under the old key, which no later read asks
// for; it ages out with its TTL.
func VersionedKey(ctx context.Context, c Cache, key string, scopes ...string) (string, error) {
	for _, scope := range scopes {
		gen, err := c.Generation(ctx, scope)
		if err != nil {
			return "", err
		}
		key += fmt.Sprintf(":g%d", gen)
	}
	return key, nil
}

// InvalidateTiers retires every view a commission amount flows into. The
// prefix sweep only reclaims space; the bump keeps overlapping reads from
// storing a view computed with the old tiers.
func InvalidateTiers(ctx context.Context, c Cache) error {
	if err := c.Bump(ctx, ScopeTiers, ScopePerformance); err != nil {
		return err
	}
	for _, prefix := range []string{PrefixCommission, PrefixPerformance} {
		if err := c.DeletePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

func CommissionUnpaidKey(agentID string) string {
	return PrefixCommission + "unpaid:" + agentID
}

func CommissionPaidKey(agentID string) string {
	return PrefixCommission + "paid:" + agentID
}

func CommissionSummaryKey(agentID string) string {
	return PrefixCommission + "summary:" + agentID
}

func PerformanceKey(parts ...string) string {
	key := PrefixPerformance
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
