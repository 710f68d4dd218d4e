package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/clause"
)

func activeTenant(plan Plan) *Tenant {
	return &Tenant{
		Status: TenantActive,
		Subscription: Subscription{
			Plan:        plan,
			Status:      SubscriptionActive,
			TrialEndsAt: time.Now().Add(TrialPeriod),
		},
		Usage: Usage{ResetAt: nextMonthStart(time.Now())},
	}
}

func TestCheckLimit_UnlimitedAlwaysPasses(t *testing.T) {
	tenant := activeTenant(PlanEnterprise)
	tenant.Usage.Properties = 1_000_000
	tenant.Usage.Users = 1_000_000
	tenant.Usage.APICalls = 1_000_000

	now := time.Now()
	require.True(t, tenant.checkLimitAt(ResourceProperties, now))
	require.True(t, tenant.checkLimitAt(ResourceUsers, now))
	require.True(t, tenant.checkLimitAt(ResourceAPICalls, now))
}

func TestCheckLimit_RejectsAtCap(t *testing.T) {
	tenant := activeTenant(PlanTrial)
	tenant.Usage.Properties = 3

	require.False(t, tenant.CheckLimit(ResourceProperties))

	tenant.Usage.Properties = 2
	require.True(t, tenant.CheckLimit(ResourceProperties))
}

func TestCheckLimit_APICallsLapsedPeriodReadsAsZero(t *testing.T) {
	now := time.Now()
	tenant := activeTenant(PlanTrial)
	tenant.Usage.APICalls = 1000 // at cap
	tenant.Usage.ResetAt = now.Add(-time.Hour)

	// The period has rolled over: the stale counter no longer blocks the
	// request even though the persisted value has not been reset yet.
	require.True(t, tenant.checkLimitAt(ResourceAPICalls, now))

	// Inside the period the cap applies.
	tenant.Usage.ResetAt = now.Add(time.Hour)
	require.False(t, tenant.checkLimitAt(ResourceAPICalls, now))
}

func TestRecordAPICall_LazyResetOnFirstWriteAfterRollover(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	tenant := activeTenant(PlanTrial)
	tenant.Usage.APICalls = 940
	tenant.Usage.ResetAt = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	tenant.recordAPICallAt(now)

	require.Equal(t, 1, tenant.Usage.APICalls)
	require.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), tenant.Usage.ResetAt)

	// Subsequent calls inside the new period just increment.
	tenant.recordAPICallAt(now.Add(time.Minute))
	require.Equal(t, 2, tenant.Usage.APICalls)
}

// The persisted increment must branch on the stored reset boundary inside
// one statement; an absolute write from a stale in-memory read would let
// concurrent requests collapse to a single increment.
func TestRecordAPICallColumns(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	tenant := activeTenant(PlanTrial)
	tenant.Usage.ResetAt = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	cols := tenant.RecordAPICallColumns(now)

	calls, ok := cols["usage_api_calls"].(clause.Expr)
	require.True(t, ok)
	require.Contains(t, calls.SQL, "CASE WHEN usage_reset_at <= ?")
	require.Contains(t, calls.SQL, "usage_api_calls + 1")
	require.Equal(t, []interface{}{now}, calls.Vars)

	// Lapsed period: the reset branch carries the next month boundary.
	reset, ok := cols["usage_reset_at"].(clause.Expr)
	require.True(t, ok)
	require.Equal(t, []interface{}{now, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)}, reset.Vars)

	// Inside the period the reset branch keeps the existing boundary.
	tenant.Usage.ResetAt = now.Add(time.Hour)
	reset = tenant.RecordAPICallColumns(now)["usage_reset_at"].(clause.Expr)
	require.Equal(t, []interface{}{now, tenant.Usage.ResetAt}, reset.Vars)
}

func TestIsSubscriptionActive_TrialWindow(t *testing.T) {
	tenant := activeTenant(PlanTrial)
	trialEnd := tenant.Subscription.TrialEndsAt

	require.True(t, tenant.isSubscriptionActiveAt(trialEnd.Add(-time.Minute)))
	require.False(t, tenant.isSubscriptionActiveAt(trialEnd))
	require.False(t, tenant.isSubscriptionActiveAt(trialEnd.Add(time.Minute)))
}

func TestIsSubscriptionActive_PaidPlanIgnoresTrialExpiry(t *testing.T) {
	tenant := activeTenant(PlanProfessional)
	tenant.Subscription.TrialEndsAt = time.Now().Add(-24 * time.Hour)

	require.True(t, tenant.IsSubscriptionActive())
}

func TestIsSubscriptionActive_RequiresActiveStatus(t *testing.T) {
	for _, status := range []SubscriptionStatus{SubscriptionInactive, SubscriptionCancelled, SubscriptionPastDue} {
		tenant := activeTenant(PlanEnterprise)
		tenant.Subscription.Status = status
		require.Falsef(t, tenant.IsSubscriptionActive(), "status %s should not be active", status)
	}
}

func TestHasFeature(t *testing.T) {
	starter := activeTenant(PlanStarter)
	require.True(t, starter.HasFeature(FeatureBasicAnalytics))
	require.False(t, starter.HasFeature(FeatureAIPricing))

	professional := activeTenant(PlanProfessional)
	require.True(t, professional.HasFeature(FeatureAIPricing))
	require.False(t, professional.HasFeature(FeatureWhiteLabel))

	enterprise := activeTenant(PlanEnterprise)
	require.True(t, enterprise.HasFeature(FeatureWhiteLabel))
}
