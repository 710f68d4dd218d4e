package model

// Plan is a named subscription tier. Tiers are ranked: every operational
// feature available to a lower tier is also available to the tiers above it.
type Plan string

const (
	PlanTrial        Plan = "trial"
	PlanStarter      Plan = "starter"
	PlanProfessional Plan = "professional"
	PlanEnterprise   Plan = "enterprise"
)

// Feature is a named capability gated by the subscription plan.
type Feature string

const (
	FeatureBasicProperties   Feature = "basic_properties"
	FeatureBasicBookings     Feature = "basic_bookings"
	FeatureBasicAnalytics    Feature = "basic_analytics"
	FeatureAIPricing         Feature = "ai_pricing"
	FeatureTeamCollaboration Feature = "team_collaboration"
	FeatureCustomAI          Feature = "custom_ai"
	FeatureAPIAccess         Feature = "api_access"
	FeatureWhiteLabel        Feature = "white_label"
)

// Resource is a usage-limited resource class.
type Resource string

const (
	ResourceProperties Resource = "properties"
	ResourceUsers      Resource = "users"
	ResourceAPICalls   Resource = "api_calls"
)

// PlanLimits holds the numeric caps for a plan. Unlimited is the sentinel -1,
// never zero: a zero cap means "none allowed".
type PlanLimits struct {
	Properties int
	Users      int
	APICalls   int
}

// Unlimited marks a resource with no cap.
const Unlimited = -1

var planFeatures = map[Plan][]Feature{
	PlanTrial: {
		FeatureBasicProperties,
		FeatureBasicBookings,
	},
	PlanStarter: {
		FeatureBasicProperties,
		FeatureBasicBookings,
		FeatureBasicAnalytics,
	},
	PlanProfessional: {
		FeatureBasicProperties,
		FeatureBasicBookings,
		FeatureBasicAnalytics,
		FeatureAIPricing,
		FeatureTeamCollaboration,
	},
	PlanEnterprise: {
		FeatureBasicProperties,
		FeatureBasicBookings,
		FeatureBasicAnalytics,
		FeatureAIPricing,
		FeatureTeamCollaboration,
		FeatureCustomAI,
		FeatureAPIAccess,
		FeatureWhiteLabel,
	},
}

var planLimits = map[Plan]PlanLimits{
	PlanTrial:        {Properties: 3, Users: 1, APICalls: 1000},
	PlanStarter:      {Properties: 3, Users: 1, APICalls: 1000},
	PlanProfessional: {Properties: 15, Users: 5, APICalls: 10000},
	PlanEnterprise:   {Properties: Unlimited, Users: Unlimited, APICalls: Unlimited},
}

// PlanRank orders plans from trial (0) to enterprise (3). Unknown plans
// rank below trial.
func PlanRank(p Plan) int {
	switch p {
	case PlanTrial:
		return 0
	case PlanStarter:
		return 1
	case PlanProfessional:
		return 2
	case PlanEnterprise:
		return 3
	default:
		return -1
	}
}

// FeaturesFor returns the feature set of a plan. Unknown plans have none.
func FeaturesFor(p Plan) []Feature {
	return planFeatures[p]
}

// LimitsFor returns the resource caps of a plan. Unknown plans get the
// trial caps, matching how unknown plans are treated everywhere else.
func LimitsFor(p Plan) PlanLimits {
	if limits, ok := planLimits[p]; ok {
		return limits
	}
	return planLimits[PlanTrial]
}

// Limit returns the cap for a single resource class.
func (l PlanLimits) Limit(r Resource) int {
	switch r {
	case ResourceProperties:
		return l.Properties
	case ResourceUsers:
		return l.Users
	case ResourceAPICalls:
		return l.APICalls
	default:
		return 0
	}
}
