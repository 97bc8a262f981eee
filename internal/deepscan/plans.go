// Package deepscan is the quota-gated client for the remote deep scan
// service. It converts the service's answers into DiagnosisResult records.
package deepscan

import "strings"

// Tier is a subscription tier name.
type Tier string

const (
	TierFree    Tier = "free"
	TierSteward Tier = "steward"
	TierPremium Tier = "premium"
)

// Unlimited marks a tier with no deep scan cap.
const Unlimited = -1

// ParseTier normalizes a tier name. Unknown names are returned as given
// and resolve to free limits in the registry.
func ParseTier(s string) Tier {
	return Tier(strings.ToLower(strings.TrimSpace(s)))
}

// Limits are the deep scan allowances for one tier.
type Limits struct {
	DeepScans int
}

// Allows reports whether a user who has already used n scans may run another.
func (l Limits) Allows(n int) bool {
	return l.DeepScans == Unlimited || n < l.DeepScans
}

// Remaining returns how many scans are left after n, or Unlimited.
func (l Limits) Remaining(n int) int {
	if l.DeepScans == Unlimited {
		return Unlimited
	}
	return max(0, l.DeepScans-n)
}

// PlanRegistry defines the limits for each tier.
type PlanRegistry interface {
	// GetLimits returns the limits for tier. Unknown tiers get the free
	// limits.
	GetLimits(tier Tier) Limits
}

type staticPlanRegistry struct {
	limits map[Tier]Limits
}

var planDefaults = map[Tier]Limits{
	TierFree:    {DeepScans: 1},
	TierSteward: {DeepScans: 5},
	TierPremium: {DeepScans: Unlimited},
}

// NewStaticPlanRegistry returns a registry with the default tier limits.
func NewStaticPlanRegistry() PlanRegistry {
	m := make(map[Tier]Limits, len(planDefaults))
	for k, v := range planDefaults {
		m[k] = v
	}
	return &staticPlanRegistry{limits: m}
}

// NewPlanRegistry returns a registry with explicit per-tier scan counts.
// A negative count means unlimited.
func NewPlanRegistry(free, steward, premium int) PlanRegistry {
	norm := func(n int) Limits {
		if n < 0 {
			return Limits{DeepScans: Unlimited}
		}
		return Limits{DeepScans: n}
	}
	return &staticPlanRegistry{limits: map[Tier]Limits{
		TierFree:    norm(free),
		TierSteward: norm(steward),
		TierPremium: norm(premium),
	}}
}

func (r *staticPlanRegistry) GetLimits(tier Tier) Limits {
	if limits, ok := r.limits[tier]; ok {
		return limits
	}
	return r.limits[TierFree]
}
