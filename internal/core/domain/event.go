package domain

import "time"

// EventType identifies the kind of ad event being announced.
type EventType string

const (
	EventAdImpression    EventType = "ad.impression"
	EventAdClick         EventType = "ad.click"
	EventBudgetExhausted EventType = "campaign.budget.exhausted"
)

// AdEvent is a record of an ad occurrence published to downstream
// analytics and suppression subsystems. Publication is fire-and-forget and
// never transactional with the spend it describes.
type AdEvent struct {
	ID         string
	Type       EventType
	CampaignID string
	MerchantID string
	UserID     string
	SessionID  string
	Timestamp  time.Time

	RelevanceScore float64
	ImpressionCost float64
	CostPerClick   float64
}
