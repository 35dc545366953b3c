package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bazaar-ads/internal/config/configs"
	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/core/port"
)

// PlacementSelector implements port.PlacementEngine. It orchestrates
// scoring, ranking and budget debiting for discovery feed requests and
// handles click accounting. Everything it publishes to the notifier is
// fire-and-forget; a failed or slow consumer never rolls back spend.
type PlacementSelector struct {
	store    port.CampaignStore
	ledger   port.BudgetManager
	scorer   *RelevanceScorer
	notifier port.Notifier
	cfg      configs.Ads
	logger   *slog.Logger

	now func() time.Time
}

// NewPlacementSelector wires a selector over its collaborators.
func NewPlacementSelector(store port.CampaignStore, ledger port.BudgetManager, scorer *RelevanceScorer, notifier port.Notifier, cfg configs.Ads, logger *slog.Logger) *PlacementSelector {
	return &PlacementSelector{
		store:    store,
		ledger:   ledger,
		scorer:   scorer,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

type scoredCampaign struct {
	campaign domain.Campaign
	score    float64
	cost     float64
	skip     bool
}

// GetAdsForDiscoveryFeed scores every active campaign against the request
// context, debits budget for the top-ranked ones and returns those that
// still have budget. The spend record and the impression event happen for
// every selected campaign; only inclusion in the returned list is gated on
// non-exhaustion. A failure for one campaign is logged and skipped, never
// aborting the rest.
func (s *PlacementSelector) GetAdsForDiscoveryFeed(ctx context.Context, pc domain.PlacementContext) ([]domain.PlacementResult, error) {
	maxAds := pc.MaxAds
	if maxAds <= 0 {
		maxAds = s.cfg.DefaultMaxAds
	}

	campaigns, err := s.store.FindActiveCampaigns(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("discovery feed: %w", err)
	}
	if len(campaigns) == 0 {
		return nil, nil
	}

	// Scoring is pure and shares no state, so campaigns are scored in
	// parallel. The impression cost is fetched alongside; a campaign whose
	// cost cannot be priced is dropped, not fatal.
	scored := make([]scoredCampaign, len(campaigns))
	g, gctx := errgroup.WithContext(ctx)
	for i := range campaigns {
		g.Go(func() error {
			c := campaigns[i]
			cost, err := s.ledger.CalculateCostPerImpression(gctx, c.ID)
			if err != nil {
				s.logger.Warn("pricing impression failed",
					slog.String("campaign_id", c.ID), slog.Any("error", err))
				scored[i] = scoredCampaign{skip: true}
				return nil
			}
			scored[i] = scoredCampaign{
				campaign: c,
				score:    s.scorer.Score(&c, pc),
				cost:     cost,
			}
			return nil
		})
	}
	_ = g.Wait()

	ranked := scored[:0]
	for _, sc := range scored {
		if !sc.skip {
			ranked = append(ranked, sc)
		}
	}
	// Descending by score; equal scores fall back to ascending campaign id
	// so ranking is deterministic.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score == ranked[j].score {
			return ranked[i].campaign.ID < ranked[j].campaign.ID
		}
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > maxAds {
		ranked = ranked[:maxAds]
	}

	results := make([]domain.PlacementResult, 0, len(ranked))
	for _, sc := range ranked {
		c := sc.campaign
		upd, err := s.ledger.RecordAdSpend(ctx, c.ID, sc.cost, 1)
		if err != nil {
			s.logger.Error("recording impression spend failed",
				slog.String("campaign_id", c.ID), slog.Any("error", err))
			continue
		}

		if !upd.BudgetExhausted {
			results = append(results, domain.PlacementResult{
				CampaignID:     c.ID,
				MerchantID:     c.MerchantID,
				ProductIDs:     c.ProductIDs,
				Type:           c.Type,
				RelevanceScore: sc.score,
				IsSponsored:    true,
				ImpressionCost: sc.cost,
			})
		}

		s.notifier.Publish(domain.AdEvent{
			ID:             uuid.NewString(),
			Type:           domain.EventAdImpression,
			CampaignID:     c.ID,
			MerchantID:     c.MerchantID,
			UserID:         pc.UserID,
			SessionID:      pc.SessionID,
			Timestamp:      s.now(),
			RelevanceScore: sc.score,
			ImpressionCost: sc.cost,
		})
	}
	return results, nil
}

// RecordAdClick increments the campaign's click counter, debits the cost of
// the click and announces it. Unknown campaigns are an error to the caller.
func (s *PlacementSelector) RecordAdClick(ctx context.Context, campaignID, userID, sessionID string) error {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("record ad click: %w", err)
	}

	if _, _, err = s.store.ApplyClickDelta(ctx, campaignID); err != nil {
		return fmt.Errorf("record ad click: %w", err)
	}

	costPerClick, err := s.ledger.CalculateCostPerClick(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("record ad click: %w", err)
	}
	if _, err = s.ledger.RecordAdSpend(ctx, campaignID, costPerClick, 0); err != nil {
		return fmt.Errorf("record ad click: %w", err)
	}

	s.notifier.Publish(domain.AdEvent{
		ID:           uuid.NewString(),
		Type:         domain.EventAdClick,
		CampaignID:   campaignID,
		MerchantID:   c.MerchantID,
		UserID:       userID,
		SessionID:    sessionID,
		Timestamp:    s.now(),
		CostPerClick: costPerClick,
	})
	return nil
}

// GetRecommendedPlacements aggregates impressions, clicks and conversions
// per product across the merchant's active campaigns and turns them into
// budget recommendations. Products with no history get the configured
// default rates.
func (s *PlacementSelector) GetRecommendedPlacements(ctx context.Context, merchantID string) ([]port.PlacementRecommendation, error) {
	campaigns, err := s.store.FindActiveCampaigns(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("recommended placements: %w", err)
	}

	type productStats struct {
		impressions int64
		clicks      int64
		conversions int64
	}
	stats := make(map[string]*productStats)
	order := make([]string, 0)
	for _, c := range campaigns {
		for _, productID := range c.ProductIDs {
			ps, ok := stats[productID]
			if !ok {
				ps = &productStats{}
				stats[productID] = ps
				order = append(order, productID)
			}
			ps.impressions += c.Impressions
			ps.clicks += c.Clicks
			ps.conversions += c.Conversions
		}
	}
	sort.Strings(order)

	recs := make([]port.PlacementRecommendation, 0, len(order))
	for _, productID := range order {
		ps := stats[productID]

		avgCTR := s.cfg.DefaultCTR
		if ps.impressions > 0 {
			avgCTR = float64(ps.clicks) / float64(ps.impressions)
		}
		avgCVR := s.cfg.DefaultCVR
		if ps.clicks > 0 {
			avgCVR = float64(ps.conversions) / float64(ps.clicks)
		}

		performanceScore := ctrWeight*avgCTR + cvrWeight*avgCVR
		budget := s.cfg.BaseRecommendedBudget * (1 + performanceScore*s.cfg.PerformanceBudgetBoost)
		impressions := budget / s.cfg.EstimatedImpressionCost
		clicks := impressions * avgCTR
		conversions := clicks * avgCVR

		recs = append(recs, port.PlacementRecommendation{
			ProductID:            productID,
			RecommendedBudget:    math.Round(budget*100) / 100,
			EstimatedImpressions: int64(math.Round(impressions)),
			EstimatedClicks:      int64(math.Round(clicks)),
			EstimatedConversions: int64(math.Round(conversions)),
		})
	}
	return recs, nil
}
