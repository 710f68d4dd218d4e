package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var plansByRank = []Plan{PlanTrial, PlanStarter, PlanProfessional, PlanEnterprise}

// Higher plans must offer a strict superset of the operational features of
// lower plans. The tables are hand-written, so the hierarchy is verified
// here rather than guaranteed by construction.
func TestPlanFeatures_MonotonicWithRank(t *testing.T) {
	for i := 1; i < len(plansByRank); i++ {
		lower, higher := plansByRank[i-1], plansByRank[i]
		higherSet := map[Feature]bool{}
		for _, f := range FeaturesFor(higher) {
			higherSet[f] = true
		}
		for _, f := range FeaturesFor(lower) {
			require.Truef(t, higherSet[f],
				"plan %s is missing feature %q offered by lower plan %s", higher, f, lower)
		}
	}
}

func TestPlanRank_Ordering(t *testing.T) {
	for i := 1; i < len(plansByRank); i++ {
		require.Greater(t, PlanRank(plansByRank[i]), PlanRank(plansByRank[i-1]))
	}
	require.Equal(t, -1, PlanRank(Plan("nonsense")))
}

func TestPlanLimits_Table(t *testing.T) {
	cases := []struct {
		plan       Plan
		properties int
		users      int
		apiCalls   int
	}{
		{PlanTrial, 3, 1, 1000},
		{PlanStarter, 3, 1, 1000},
		{PlanProfessional, 15, 5, 10000},
		{PlanEnterprise, Unlimited, Unlimited, Unlimited},
	}

	for _, tc := range cases {
		limits := LimitsFor(tc.plan)
		require.Equal(t, tc.properties, limits.Limit(ResourceProperties), "plan %s properties", tc.plan)
		require.Equal(t, tc.users, limits.Limit(ResourceUsers), "plan %s users", tc.plan)
		require.Equal(t, tc.apiCalls, limits.Limit(ResourceAPICalls), "plan %s api calls", tc.plan)
	}
}

func TestLimitsFor_UnknownPlanGetsTrialCaps(t *testing.T) {
	require.Equal(t, LimitsFor(PlanTrial), LimitsFor(Plan("mystery")))
}
