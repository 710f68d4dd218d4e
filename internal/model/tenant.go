package model

import (
	"time"

	"gorm.io/gorm"
)

// TrialPeriod is how long a new tenant keeps trial access. Set once at
// creation, never extended automatically.
const TrialPeriod = 14 * 24 * time.Hour

// SubscriptionStatus is the billing state of a tenant's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

// TenantStatus is the operational state of the tenant itself, independent
// of billing. A suspended tenant is rejected before any business logic runs.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantSuspended TenantStatus = "suspended"
	TenantCancelled TenantStatus = "cancelled"
)

// Subscription holds the tenant's plan and billing state.
type Subscription struct {
	Plan                 Plan               `json:"plan" gorm:"type:varchar(20);default:'trial'"`
	Status               SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	StripeCustomerID     string             `json:"-" gorm:"type:varchar(100)"`
	StripeSubscriptionID string             `json:"-" gorm:"type:varchar(100)"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	TrialEndsAt          time.Time          `json:"trial_ends_at"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end" gorm:"default:false"`
}

// Usage holds the tenant's current consumption per resource class.
// Properties and users are running counts mutated by the handlers that
// create or remove those records. API calls are a periodic counter that
// rolls over monthly: ResetAt marks the start of the next period.
type Usage struct {
	Properties int       `json:"properties" gorm:"default:0"`
	Users      int       `json:"users" gorm:"default:0"`
	APICalls   int       `json:"api_calls" gorm:"default:0"`
	ResetAt    time.Time `json:"api_calls_reset_at"`
}

// TenantSettings holds per-tenant display preferences.
type TenantSettings struct {
	Currency   string `json:"currency" gorm:"type:varchar(3);default:'USD'"`
	Timezone   string `json:"timezone" gorm:"type:varchar(50);default:'UTC'"`
	DateFormat string `json:"date_format" gorm:"type:varchar(20);default:'MM/DD/YYYY'"`
	Language   string `json:"language" gorm:"type:varchar(5);default:'en'"`
}

// Tenant is the organizational boundary isolating one customer's data and
// limits from another's.
type Tenant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	Slug         string         `json:"slug" gorm:"type:varchar(120);uniqueIndex;not null"`
	Domain       string         `json:"domain,omitempty" gorm:"type:varchar(255)"`
	Status       TenantStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	Subscription Subscription   `json:"subscription" gorm:"embedded;embeddedPrefix:subscription_"`
	Usage        Usage          `json:"usage" gorm:"embedded;embeddedPrefix:usage_"`
	Settings     TenantSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate seeds the trial expiry and the first API-call reset boundary.
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if t.Subscription.Plan == "" {
		t.Subscription.Plan = PlanTrial
	}
	if t.Subscription.Status == "" {
		t.Subscription.Status = SubscriptionActive
	}
	if t.Status == "" {
		t.Status = TenantActive
	}
	if t.Subscription.TrialEndsAt.IsZero() {
		t.Subscription.TrialEndsAt = now.Add(TrialPeriod)
	}
	if t.Usage.ResetAt.IsZero() {
		t.Usage.ResetAt = nextMonthStart(now)
	}
	return nil
}

// IsTrialActive reports whether the tenant is on the trial plan with time
// remaining. Computed, not cached, so it can never go stale.
func (t *Tenant) IsTrialActive() bool {
	return t.isTrialActiveAt(time.Now())
}

func (t *Tenant) isTrialActiveAt(now time.Time) bool {
	return t.Subscription.Plan == PlanTrial && t.Subscription.TrialEndsAt.After(now)
}

// IsSubscriptionActive reports whether the tenant may use paid surfaces:
// the subscription status must be active, and a trial plan must still be
// inside its trial window.
func (t *Tenant) IsSubscriptionActive() bool {
	return t.isSubscriptionActiveAt(time.Now())
}

func (t *Tenant) isSubscriptionActiveAt(now time.Time) bool {
	if t.Subscription.Status != SubscriptionActive {
		return false
	}
	return t.Subscription.Plan != PlanTrial || t.isTrialActiveAt(now)
}

// HasFeature reports whether the tenant's current plan includes the feature.
func (t *Tenant) HasFeature(f Feature) bool {
	for _, have := range FeaturesFor(t.Subscription.Plan) {
		if have == f {
			return true
		}
	}
	return false
}

// Limits returns the resource caps derived from the tenant's current plan.
func (t *Tenant) Limits() PlanLimits {
	return LimitsFor(t.Subscription.Plan)
}

// CheckLimit reports whether one more unit of the resource may be consumed.
// A limit of -1 always passes. For the API-call counter the reset boundary
// is consulted at read time: once the period has lapsed the stale count is
// treated as zero even though the persisted reset happens on the next write.
func (t *Tenant) CheckLimit(r Resource) bool {
	return t.checkLimitAt(r, time.Now())
}

func (t *Tenant) checkLimitAt(r Resource, now time.Time) bool {
	limit := t.Limits().Limit(r)
	if limit == Unlimited {
		return true
	}
	return t.usageAt(r, now) < limit
}

// usageAt returns the effective current usage for a resource, treating a
// lapsed API-call period as zero.
func (t *Tenant) usageAt(r Resource, now time.Time) int {
	switch r {
	case ResourceProperties:
		return t.Usage.Properties
	case ResourceUsers:
		return t.Usage.Users
	case ResourceAPICalls:
		if !now.Before(t.Usage.ResetAt) {
			return 0
		}
		return t.Usage.APICalls
	default:
		return 0
	}
}

// RecordAPICall advances the API-call counter by one, performing the lazy
// period reset on the first write after rollover. The caller persists the
// mutated usage fields.
func (t *Tenant) RecordAPICall() {
	t.recordAPICallAt(time.Now())
}

func (t *Tenant) recordAPICallAt(now time.Time) {
	if !now.Before(t.Usage.ResetAt) {
		t.Usage.APICalls = 1
		t.Usage.ResetAt = nextMonthStart(now)
		return
	}
	t.Usage.APICalls++
}

// RecordAPICallColumns returns the column updates that advance the API-call
// counter in SQL. The increment and the lazy period reset both branch on the
// stored usage_reset_at inside one statement, so concurrent requests cannot
// lose counts to a stale in-memory read.
func (t *Tenant) RecordAPICallColumns(now time.Time) map[string]interface{} {
	next := t.Usage.ResetAt
	if !now.Before(next) {
		next = nextMonthStart(now)
	}
	return map[string]interface{}{
		"usage_api_calls": gorm.Expr("CASE WHEN usage_reset_at <= ? THEN 1 ELSE usage_api_calls + 1 END", now),
		"usage_reset_at":  gorm.Expr("CASE WHEN usage_reset_at <= ? THEN ? ELSE usage_reset_at END", now, next),
	}
}

func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}
