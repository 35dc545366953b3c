package port

import (
	"context"
	"errors"
	"time"

	"bazaar-ads/internal/core/domain"
)

var (
	// ErrUnknownStrategy is returned when a budget allocation request names a
	// strategy the ledger does not implement. No allocation is written.
	ErrUnknownStrategy = errors.New("unknown allocation strategy")
	// ErrNoCampaigns is returned when an allocation request resolves to zero
	// campaigns for the merchant.
	ErrNoCampaigns = errors.New("no valid campaigns for allocation")
)

// AllocationStrategy selects the policy used to split a total budget across
// a merchant's campaigns.
type AllocationStrategy string

const (
	AllocationEqual            AllocationStrategy = "equal"
	AllocationPerformanceBased AllocationStrategy = "performance_based"
	AllocationTimeBased        AllocationStrategy = "time_based"
)

// ParseAllocationStrategy validates a textual strategy name. Unknown values
// yield ErrUnknownStrategy.
func ParseAllocationStrategy(s string) (AllocationStrategy, error) {
	switch AllocationStrategy(s) {
	case AllocationEqual, AllocationPerformanceBased, AllocationTimeBased:
		return AllocationStrategy(s), nil
	default:
		return "", ErrUnknownStrategy
	}
}

// BudgetUpdate reports the outcome of recording ad spend for a campaign.
// Exhaustion is a signal, not a rejection: the spend has been recorded even
// when BudgetExhausted is true.
type BudgetUpdate struct {
	CampaignID      string  `json:"campaign_id"`
	PreviousSpent   float64 `json:"previous_spent"`
	CurrentSpent    float64 `json:"current_spent"`
	RemainingBudget float64 `json:"remaining_budget"`
	BudgetExhausted bool    `json:"budget_exhausted"`
}

// CampaignUtilization is a per-campaign line of a budget utilization report.
type CampaignUtilization struct {
	CampaignID      string  `json:"campaign_id"`
	Name            string  `json:"name"`
	Budget          float64 `json:"budget"`
	Spent           float64 `json:"spent"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// UtilizationReport aggregates budget consumption across all campaigns of a
// merchant. Totals always equal the sum of the per-campaign breakdown.
type UtilizationReport struct {
	TotalBudget         float64               `json:"total_budget"`
	TotalSpent          float64               `json:"total_spent"`
	UtilizationRate     float64               `json:"utilization_rate"`
	CampaignUtilization []CampaignUtilization `json:"campaign_utilization"`
}

// DurationForecast estimates how long a campaign's remaining budget will
// last at its observed spend rate. When no spend rate can be established yet
// the forecast is unbounded: DailySpendRate and EstimatedDaysRemaining are 0
// and EstimatedEndDate is nil.
type DurationForecast struct {
	CampaignID             string     `json:"campaign_id"`
	RemainingBudget        float64    `json:"remaining_budget"`
	DailySpendRate         float64    `json:"daily_spend_rate"`
	EstimatedDaysRemaining float64    `json:"estimated_days_remaining"`
	EstimatedEndDate       *time.Time `json:"estimated_end_date,omitempty"`
}

// PlacementRecommendation suggests an ad budget for one of a merchant's
// products based on the historical performance of campaigns featuring it.
type PlacementRecommendation struct {
	ProductID            string  `json:"product_id"`
	RecommendedBudget    float64 `json:"recommended_budget"`
	EstimatedImpressions int64   `json:"estimated_impressions"`
	EstimatedClicks      int64   `json:"estimated_clicks"`
	EstimatedConversions int64   `json:"estimated_conversions"`
}

// BudgetManager defines the money-moving and forecasting operations of the
// budget ledger. It is the sole writer of spend and impression counters.
type BudgetManager interface {
	// CalculateDailyBudget spreads the campaign's remaining budget over the
	// days left until its end date, or over the configured planning horizon
	// when the campaign is open-ended.
	CalculateDailyBudget(ctx context.Context, campaignID string) (float64, error)
	// RecordAdSpend atomically adds amount to the campaign's spend and
	// impressionCount to its impression counter. Recording happens even when
	// the campaign is already exhausted.
	RecordAdSpend(ctx context.Context, campaignID string, amount float64, impressionCount int64) (BudgetUpdate, error)
	// CalculateCostPerImpression prices a single impression from the daily
	// budget and the assumed daily impression volume.
	CalculateCostPerImpression(ctx context.Context, campaignID string) (float64, error)
	// CalculateCostPerClick prices a single click from the daily budget and
	// the assumed daily click volume.
	CalculateCostPerClick(ctx context.Context, campaignID string) (float64, error)
	// AllocateBudgetAcrossCampaigns splits totalBudget over the merchant's
	// listed campaigns using the given strategy and persists the result.
	// Allocations sum to totalBudget within rounding tolerance.
	AllocateBudgetAcrossCampaigns(ctx context.Context, merchantID string, totalBudget float64, campaignIDs []string, strategy AllocationStrategy) (map[string]float64, error)
	// GetBudgetUtilizationReport sums budget and spend over all of the
	// merchant's campaigns.
	GetBudgetUtilizationReport(ctx context.Context, merchantID string) (*UtilizationReport, error)
	// ForecastRemainingDuration projects when the campaign will run out of
	// budget at its current daily spend rate.
	ForecastRemainingDuration(ctx context.Context, campaignID string) (*DurationForecast, error)
}

// PlacementEngine defines the operations exposed to feed rendering and
// click tracking callers.
type PlacementEngine interface {
	// GetAdsForDiscoveryFeed scores all active campaigns against the context,
	// debits budget for the top-ranked ones and returns those that still have
	// budget. A failure for one campaign never aborts the others.
	GetAdsForDiscoveryFeed(ctx context.Context, pc domain.PlacementContext) ([]domain.PlacementResult, error)
	// RecordAdClick increments the campaign's click counter and debits the
	// cost of the click.
	RecordAdClick(ctx context.Context, campaignID, userID, sessionID string) error
	// GetRecommendedPlacements aggregates per-product performance across the
	// merchant's active campaigns into budget recommendations.
	GetRecommendedPlacements(ctx context.Context, merchantID string) ([]PlacementRecommendation, error)
}
