package domain

import "time"

// CampaignStatus is the lifecycle state of a campaign. The ad engine only
// ever serves ACTIVE campaigns and never writes this field itself.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusActive    CampaignStatus = "active"
	StatusPaused    CampaignStatus = "paused"
	StatusCompleted CampaignStatus = "completed"
)

// CampaignType classifies what a campaign promotes.
type CampaignType string

const (
	TypeProductPromotion CampaignType = "product_promotion"
	TypeRetargeting      CampaignType = "retargeting"
	TypeBrandAwareness   CampaignType = "brand_awareness"
)

// TargetAudience narrows a campaign to a behavioural segment. AudienceAll
// disables audience matching entirely.
type TargetAudience string

const (
	AudienceAll               TargetAudience = "all"
	AudiencePreviousVisitors  TargetAudience = "previous_visitors"
	AudienceCartAbandoners    TargetAudience = "cart_abandoners"
	AudiencePreviousCustomers TargetAudience = "previous_customers"
)

// Campaign represents a merchant's advertising campaign. Monetary amounts
// are in fractional currency units. The engine reads classification and
// targeting fields and increments spend and performance counters through
// the campaign store; it never changes status or targeting.
type Campaign struct {
	ID         string
	MerchantID string
	Name       string

	Type   CampaignType
	Status CampaignStatus

	ProductIDs         []string
	TargetAudience     TargetAudience
	TargetLocations    []string
	TargetInterests    []string
	TargetDemographics []string

	Budget    float64
	Spent     float64
	StartDate time.Time
	EndDate   *time.Time // nil means open-ended

	Impressions      int64
	Clicks           int64
	Conversions      int64
	ClickThroughRate float64
	ConversionRate   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RemainingBudget returns the unspent part of the budget. It can go
// negative: spend deltas are recorded even when they cross the budget line,
// exhaustion is a signal rather than a rejection.
func (c *Campaign) RemainingBudget() float64 {
	return c.Budget - c.Spent
}

// Exhausted reports whether the campaign has spent its full budget.
func (c *Campaign) Exhausted() bool {
	return c.Spent >= c.Budget
}
