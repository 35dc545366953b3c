package port

import (
	"context"
	"errors"

	"bazaar-ads/internal/core/domain"
)

// ErrCampaignNotFound is returned when an operation references a campaign id
// that does not exist in the store.
var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignStore defines the persistence layer the ad engine reads campaigns
// from and records spend against. It is an outbound port in hexagonal
// architecture. Implementations must be concurrency-safe; the delta
// operations must be atomic per campaign, so that concurrent impressions and
// clicks for the same campaign never lose an update.
type CampaignStore interface {
	// FindActiveCampaigns returns all campaigns in ACTIVE status. An empty
	// merchantID returns campaigns across all merchants.
	FindActiveCampaigns(ctx context.Context, merchantID string) ([]domain.Campaign, error)
	// FindCampaignsByMerchant returns every campaign owned by the merchant,
	// regardless of status.
	FindCampaignsByMerchant(ctx context.Context, merchantID string) ([]domain.Campaign, error)
	// GetCampaign returns a campaign by id or ErrCampaignNotFound.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// ApplySpendDelta atomically adds amount to the campaign's spent total
	// and impressionDelta to its impression counter, returning the updated
	// values. The addition happens even when it pushes spent past budget.
	ApplySpendDelta(ctx context.Context, id string, amount float64, impressionDelta int64) (spent float64, impressions int64, err error)
	// ApplyClickDelta atomically increments the campaign's click counter and
	// refreshes its stored click-through rate (0 when the campaign has no
	// impressions). It returns the updated counters.
	ApplyClickDelta(ctx context.Context, id string) (clicks, impressions int64, err error)
	// UpdateBudgets applies a budget allocation to the referenced campaigns.
	// Either every entry is written or none is.
	UpdateBudgets(ctx context.Context, allocation map[string]float64) error
}
