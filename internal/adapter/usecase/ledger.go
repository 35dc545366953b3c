package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"bazaar-ads/internal/config/configs"
	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/core/port"
)

// Weights blending historical click-through and conversion rates into a
// single performance score. Shared by performance-based budget allocation
// and placement recommendations.
const (
	ctrWeight = 0.6
	cvrWeight = 0.4
)

// BudgetLedger implements port.BudgetManager. All spend mutations go
// through the store's atomic delta operations, so concurrent impressions
// and clicks for the same campaign never lose an update. The ledger itself
// holds no campaign state.
type BudgetLedger struct {
	store    port.CampaignStore
	notifier port.Notifier
	cfg      configs.Ads
	logger   *slog.Logger

	now func() time.Time
}

// NewBudgetLedger creates a ledger over the given store. Exhaustion
// transitions are announced through the notifier.
func NewBudgetLedger(store port.CampaignStore, notifier port.Notifier, cfg configs.Ads, logger *slog.Logger) *BudgetLedger {
	return &BudgetLedger{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// CalculateDailyBudget spreads the campaign's remaining budget over the days
// left until its end date. Open-ended campaigns are planned over the
// configured horizon instead.
func (l *BudgetLedger) CalculateDailyBudget(ctx context.Context, campaignID string) (float64, error) {
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return l.dailyBudget(c), nil
}

func (l *BudgetLedger) dailyBudget(c *domain.Campaign) float64 {
	remaining := math.Max(0, c.RemainingBudget())
	days := float64(l.cfg.PlanningHorizonDays)
	if c.EndDate != nil {
		days = math.Max(1, l.daysUntil(*c.EndDate))
	}
	return remaining / days
}

// RecordAdSpend adds amount to the campaign's spend and impressionCount to
// its impression counter through a single atomic store operation. Recording
// happens even when the campaign is already over budget; exhaustion is
// reported back, not enforced. On the not-exhausted to exhausted transition
// a campaign.budget.exhausted event is published so the campaign's owner can
// pause it.
func (l *BudgetLedger) RecordAdSpend(ctx context.Context, campaignID string, amount float64, impressionCount int64) (port.BudgetUpdate, error) {
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return port.BudgetUpdate{}, fmt.Errorf("record ad spend: %w", err)
	}

	spent, _, err := l.store.ApplySpendDelta(ctx, campaignID, amount, impressionCount)
	if err != nil {
		return port.BudgetUpdate{}, fmt.Errorf("record ad spend: %w", err)
	}

	upd := port.BudgetUpdate{
		CampaignID:      campaignID,
		PreviousSpent:   spent - amount,
		CurrentSpent:    spent,
		RemainingBudget: c.Budget - spent,
		BudgetExhausted: spent >= c.Budget,
	}

	if upd.BudgetExhausted && upd.PreviousSpent < c.Budget {
		l.logger.Info("campaign budget exhausted",
			slog.String("campaign_id", campaignID),
			slog.Float64("spent", spent),
			slog.Float64("budget", c.Budget))
		l.notifier.Publish(domain.AdEvent{
			ID:         uuid.NewString(),
			Type:       domain.EventBudgetExhausted,
			CampaignID: campaignID,
			MerchantID: c.MerchantID,
			Timestamp:  l.now(),
		})
	}
	return upd, nil
}

// CalculateCostPerImpression prices one impression as the daily budget
// divided by the assumed daily impression volume.
func (l *BudgetLedger) CalculateCostPerImpression(ctx context.Context, campaignID string) (float64, error) {
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return l.dailyBudget(c) / l.cfg.AssumedDailyImpressions, nil
}

// CalculateCostPerClick prices one click as the daily budget divided by the
// assumed daily click volume.
func (l *BudgetLedger) CalculateCostPerClick(ctx context.Context, campaignID string) (float64, error) {
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	return l.dailyBudget(c) / l.cfg.AssumedDailyClicks, nil
}

// AllocateBudgetAcrossCampaigns splits totalBudget over the merchant's
// listed campaigns and persists the result. The strategy is validated
// before anything is written; an unknown strategy leaves every budget
// untouched. Campaign ids that do not exist or belong to another merchant
// are skipped.
func (l *BudgetLedger) AllocateBudgetAcrossCampaigns(ctx context.Context, merchantID string, totalBudget float64, campaignIDs []string, strategy port.AllocationStrategy) (map[string]float64, error) {
	switch strategy {
	case port.AllocationEqual, port.AllocationPerformanceBased, port.AllocationTimeBased:
	default:
		return nil, fmt.Errorf("allocate budget: %w: %q", port.ErrUnknownStrategy, strategy)
	}

	var campaigns []*domain.Campaign
	for _, id := range campaignIDs {
		c, err := l.store.GetCampaign(ctx, id)
		if err != nil {
			if errors.Is(err, port.ErrCampaignNotFound) {
				continue
			}
			return nil, fmt.Errorf("allocate budget: %w", err)
		}
		if c.MerchantID != merchantID {
			continue
		}
		campaigns = append(campaigns, c)
	}
	if len(campaigns) == 0 {
		return nil, port.ErrNoCampaigns
	}

	weights := make([]float64, len(campaigns))
	switch strategy {
	case port.AllocationPerformanceBased:
		for i, c := range campaigns {
			weights[i] = ctrWeight*clickThroughRate(c) + cvrWeight*conversionRate(c)
		}
	case port.AllocationTimeBased:
		for i, c := range campaigns {
			weights[i] = l.remainingDays(c)
		}
	default:
		for i := range campaigns {
			weights[i] = 1
		}
	}

	total := 0.0
	for _, w := range weights {
		total += w
	}
	// Without usable weights every strategy degrades to an equal split.
	if total == 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	allocation := make(map[string]float64, len(campaigns))
	for i, c := range campaigns {
		allocation[c.ID] = totalBudget * weights[i] / total
	}

	if err := l.store.UpdateBudgets(ctx, allocation); err != nil {
		return nil, fmt.Errorf("allocate budget: %w", err)
	}
	return allocation, nil
}

// GetBudgetUtilizationReport sums budget and spend over all of the
// merchant's campaigns. The totals equal the sum of the per-campaign
// breakdown by construction.
func (l *BudgetLedger) GetBudgetUtilizationReport(ctx context.Context, merchantID string) (*port.UtilizationReport, error) {
	campaigns, err := l.store.FindCampaignsByMerchant(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("utilization report: %w", err)
	}

	report := &port.UtilizationReport{
		CampaignUtilization: make([]port.CampaignUtilization, 0, len(campaigns)),
	}
	for _, c := range campaigns {
		rate := 0.0
		if c.Budget > 0 {
			rate = c.Spent / c.Budget
		}
		report.TotalBudget += c.Budget
		report.TotalSpent += c.Spent
		report.CampaignUtilization = append(report.CampaignUtilization, port.CampaignUtilization{
			CampaignID:      c.ID,
			Name:            c.Name,
			Budget:          c.Budget,
			Spent:           c.Spent,
			UtilizationRate: rate,
		})
	}
	if report.TotalBudget > 0 {
		report.UtilizationRate = report.TotalSpent / report.TotalBudget
	}
	return report, nil
}

// ForecastRemainingDuration projects when the campaign runs out of budget
// at its observed daily spend rate. A campaign with no spend yet has no
// established rate; the forecast is then unbounded and EstimatedEndDate is
// nil.
func (l *BudgetLedger) ForecastRemainingDuration(ctx context.Context, campaignID string) (*port.DurationForecast, error) {
	c, err := l.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	forecast := &port.DurationForecast{
		CampaignID:      campaignID,
		RemainingBudget: c.RemainingBudget(),
	}

	daysElapsed := math.Max(1, l.daysSince(c.StartDate))
	forecast.DailySpendRate = c.Spent / daysElapsed
	if forecast.DailySpendRate <= 0 {
		return forecast, nil
	}

	forecast.EstimatedDaysRemaining = forecast.RemainingBudget / forecast.DailySpendRate
	end := l.now().Add(time.Duration(forecast.EstimatedDaysRemaining * 24 * float64(time.Hour)))
	forecast.EstimatedEndDate = &end
	return forecast, nil
}

// remainingDays returns the campaign's remaining duration in days, used as
// the time-based allocation weight. Open-ended campaigns count as the
// planning horizon.
func (l *BudgetLedger) remainingDays(c *domain.Campaign) float64 {
	if c.EndDate == nil {
		return float64(l.cfg.PlanningHorizonDays)
	}
	return math.Max(1, l.daysUntil(*c.EndDate))
}

func (l *BudgetLedger) daysUntil(t time.Time) float64 {
	return math.Ceil(t.Sub(l.now()).Hours() / 24)
}

func (l *BudgetLedger) daysSince(t time.Time) float64 {
	return math.Ceil(l.now().Sub(t).Hours() / 24)
}

func clickThroughRate(c *domain.Campaign) float64 {
	if c.Impressions == 0 {
		return 0
	}
	return float64(c.Clicks) / float64(c.Impressions)
}

func conversionRate(c *domain.Campaign) float64 {
	if c.Clicks == 0 {
		return 0
	}
	return float64(c.Conversions) / float64(c.Clicks)
}
