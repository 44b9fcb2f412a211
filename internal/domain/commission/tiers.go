package commission

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

type TierIssueKind string

const (
	TierIssueEmpty             TierIssueKind = "empty"
	TierIssueInvalidRange      TierIssueKind = "invalid_range"
	TierIssueGap               TierIssueKind = "gap"
	TierIssueOverlap           TierIssueKind = "overlap"
	TierIssueNoOpenTier        TierIssueKind = "no_open_tier"
	TierIssueMultipleOpenTiers TierIssueKind = "multiple_open_tiers"
)

// TierIssue describes one way a tier table fails to partition [0, ∞).
type TierIssue struct {
	Kind    TierIssueKind `json:"kind"`
	Message string        `json:"message"`
	TierIDs []string      `json:"tier_ids,omitempty"`
}

// SortTiers returns a copy of tiers ordered by MinAmount ascending. Ties keep
// their input order.
func SortTiers(tiers []CommissionTier) []CommissionTier {
	sorted := make([]CommissionTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinAmount.LessThan(sorted[j].MinAmount)
	})
	return sorted
}

// InspectTiers reports gaps, overlaps and open-ended tier problems in a tier
// table. Adjacent tiers may share a boundary value (first match wins there).
// Nothing here is enforced on write; callers decide whether to reject.
func InspectTiers(tiers []CommissionTier) []TierIssue {
	if len(tiers) == 0 {
		return []TierIssue{{
			Kind:    TierIssueEmpty,
			Message: fmt.Sprintf("no tiers configured, every contract falls back to %s%%", DefaultPercentage()),
		}}
	}

	sorted := SortTiers(tiers)
	var issues []TierIssue

	var open []string
	for _, t := range sorted {
		if t.IsOpenEnded() {
			open = append(open, t.ID)
			continue
		}
		if t.MaxAmount.LessThan(t.MinAmount) {
			issues = append(issues, TierIssue{
				Kind:    TierIssueInvalidRange,
				Message: fmt.Sprintf("max_amount %s is below min_amount %s", t.MaxAmount, t.MinAmount),
				TierIDs: []string{t.ID},
			})
		}
	}

	switch {
	case len(open) == 0:
		issues = append(issues, TierIssue{
			Kind:    TierIssueNoOpenTier,
			Message: "no open-ended top tier, amounts above the highest max_amount fall back to the default percentage",
		})
	case len(open) > 1:
		issues = append(issues, TierIssue{
			Kind:    TierIssueMultipleOpenTiers,
			Message: fmt.Sprintf("%d open-ended tiers, only the first reached is used", len(open)),
			TierIDs: open,
		})
	}

	if first := sorted[0]; first.MinAmount.GreaterThan(decimal.Zero) {
		issues = append(issues, TierIssue{
			Kind:    TierIssueGap,
			Message: fmt.Sprintf("amounts below %s are not covered", first.MinAmount),
			TierIDs: []string{first.ID},
		})
	}

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.IsOpenEnded() {
			issues = append(issues, TierIssue{
				Kind:    TierIssueOverlap,
				Message: fmt.Sprintf("open-ended tier starting at %s overlaps tier starting at %s", prev.MinAmount, cur.MinAmount),
				TierIDs: []string{prev.ID, cur.ID},
			})
			continue
		}
		switch {
		case cur.MinAmount.LessThan(*prev.MaxAmount):
			issues = append(issues, TierIssue{
				Kind:    TierIssueOverlap,
				Message: fmt.Sprintf("range %s-%s overlaps range starting at %s", prev.MinAmount, prev.MaxAmount, cur.MinAmount),
				TierIDs: []string{prev.ID, cur.ID},
			})
		case cur.MinAmount.GreaterThan(*prev.MaxAmount):
			issues = append(issues, TierIssue{
				Kind:    TierIssueGap,
				Message: fmt.Sprintf("amounts between %s and %s are not covered", prev.MaxAmount, cur.MinAmount),
				TierIDs: []string{prev.ID, cur.ID},
			})
		}
	}

	return issues
}
