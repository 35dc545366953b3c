package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar-ads/internal/adapter/memory"
	"bazaar-ads/internal/config/configs"
	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/core/port"
)

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func testAdsConfig() configs.Ads {
	return configs.Ads{
		PlanningHorizonDays:     30,
		AssumedDailyImpressions: 1000,
		AssumedDailyClicks:      100,
		DefaultMaxAds:           2,
		DefaultCTR:              0.01,
		DefaultCVR:              0.02,
		BaseRecommendedBudget:   100,
		PerformanceBudgetBoost:  10,
		EstimatedImpressionCost: 0.01,
		EventBufferSize:         16,
	}
}

// eventRecorder is a port.Notifier capturing published events for
// assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.AdEvent
}

func (r *eventRecorder) Publish(e domain.AdEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) byType(t domain.EventType) []domain.AdEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AdEvent
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(store port.CampaignStore, rec *eventRecorder) *BudgetLedger {
	l := NewBudgetLedger(store, rec, testAdsConfig(), testLogger())
	l.now = func() time.Time { return baseTime }
	return l
}

func activeCampaign(id, merchantID string, budget, spent float64) domain.Campaign {
	return domain.Campaign{
		ID:             id,
		MerchantID:     merchantID,
		Name:           "campaign " + id,
		Type:           domain.TypeProductPromotion,
		Status:         domain.StatusActive,
		TargetAudience: domain.AudienceAll,
		Budget:         budget,
		Spent:          spent,
		StartDate:      baseTime.Add(-10 * 24 * time.Hour),
	}
}

func TestRecordAdSpendAccumulates(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("c1", "m1", 1000, 5))
	ledger := newTestLedger(store, &eventRecorder{})

	_, err := ledger.RecordAdSpend(context.Background(), "c1", 10, 1)
	require.NoError(t, err)
	upd, err := ledger.RecordAdSpend(context.Background(), "c1", 7.5, 2)
	require.NoError(t, err)

	assert.InDelta(t, 15.0, upd.PreviousSpent, 1e-9)
	assert.InDelta(t, 22.5, upd.CurrentSpent, 1e-9)

	c, err := store.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 22.5, c.Spent, 1e-9)
	assert.EqualValues(t, 3, c.Impressions)
}

func TestRecordAdSpendExhaustion(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("c1", "m1", 100, 0))
	rec := &eventRecorder{}
	ledger := newTestLedger(store, rec)

	upd, err := ledger.RecordAdSpend(context.Background(), "c1", 30, 1)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, upd.RemainingBudget, 1e-9)
	assert.False(t, upd.BudgetExhausted)
	assert.Empty(t, rec.byType(domain.EventBudgetExhausted))

	// Recording still happens past the budget line; exhaustion is a signal.
	upd, err = ledger.RecordAdSpend(context.Background(), "c1", 80, 1)
	require.NoError(t, err)
	assert.InDelta(t, 110.0, upd.CurrentSpent, 1e-9)
	assert.InDelta(t, -10.0, upd.RemainingBudget, 1e-9)
	assert.True(t, upd.BudgetExhausted)

	exhausted := rec.byType(domain.EventBudgetExhausted)
	require.Len(t, exhausted, 1)
	assert.Equal(t, "c1", exhausted[0].CampaignID)
	assert.Equal(t, "m1", exhausted[0].MerchantID)

	// Further spend on an already exhausted campaign does not re-announce.
	_, err = ledger.RecordAdSpend(context.Background(), "c1", 5, 1)
	require.NoError(t, err)
	assert.Len(t, rec.byType(domain.EventBudgetExhausted), 1)
}

func TestRecordAdSpendUnknownCampaign(t *testing.T) {
	ledger := newTestLedger(memory.NewCampaignStore(), &eventRecorder{})
	_, err := ledger.RecordAdSpend(context.Background(), "missing", 1, 1)
	assert.ErrorIs(t, err, port.ErrCampaignNotFound)
}

func TestCalculateDailyBudget(t *testing.T) {
	store := memory.NewCampaignStore()

	withEnd := activeCampaign("c1", "m1", 400, 100)
	end := baseTime.Add(10 * 24 * time.Hour)
	withEnd.EndDate = &end
	store.Put(withEnd)

	openEnded := activeCampaign("c2", "m1", 600, 0)
	store.Put(openEnded)

	ledger := newTestLedger(store, &eventRecorder{})

	daily, err := ledger.CalculateDailyBudget(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 30.0, daily, 1e-9) // 300 remaining over 10 days

	daily, err = ledger.CalculateDailyBudget(context.Background(), "c2")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, daily, 1e-9) // 600 over the 30 day horizon

	_, err = ledger.CalculateDailyBudget(context.Background(), "nope")
	assert.ErrorIs(t, err, port.ErrCampaignNotFound)
}

func TestCostPerImpressionAndClick(t *testing.T) {
	store := memory.NewCampaignStore()

	fresh := activeCampaign("c1", "m1", 300, 0)
	end := baseTime.Add(10 * 24 * time.Hour)
	fresh.EndDate = &end
	store.Put(fresh)

	openEnded := activeCampaign("c2", "m1", 1000, 250)
	store.Put(openEnded)

	ledger := newTestLedger(store, &eventRecorder{})

	cpi, err := ledger.CalculateCostPerImpression(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 0.03, cpi, 1e-9) // 30/day over 1000 impressions

	cpc, err := ledger.CalculateCostPerClick(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, cpc, 1e-9) // 30/day over 100 clicks

	// Open-ended campaign prices off the planning horizon: 750/30 per day.
	cpc, err = ledger.CalculateCostPerClick(context.Background(), "c2")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cpc, 1e-9)
}

func TestAllocateEqual(t *testing.T) {
	store := memory.NewCampaignStore()
	for _, id := range []string{"a", "b", "c"} {
		store.Put(activeCampaign(id, "m1", 50, 0))
	}
	ledger := newTestLedger(store, &eventRecorder{})

	allocation, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 300, []string{"a", "b", "c"}, port.AllocationEqual)
	require.NoError(t, err)
	require.Len(t, allocation, 3)

	sum := 0.0
	for _, id := range []string{"a", "b", "c"} {
		assert.InDelta(t, 100.0, allocation[id], 1e-9)
		sum += allocation[id]
	}
	assert.InDelta(t, 300.0, sum, 1e-9)

	// Allocation is persisted.
	c, err := store.GetCampaign(context.Background(), "b")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, c.Budget, 1e-9)
}

func TestAllocatePerformanceBased(t *testing.T) {
	store := memory.NewCampaignStore()

	strong := activeCampaign("a", "m1", 50, 0)
	strong.Impressions, strong.Clicks = 1000, 100 // CTR 0.1
	store.Put(strong)

	weak := activeCampaign("b", "m1", 50, 0)
	weak.Impressions, weak.Clicks = 1000, 50 // CTR 0.05
	store.Put(weak)

	ledger := newTestLedger(store, &eventRecorder{})

	allocation, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 300, []string{"a", "b"}, port.AllocationPerformanceBased)
	require.NoError(t, err)

	assert.InDelta(t, 200.0, allocation["a"], 1e-9)
	assert.InDelta(t, 100.0, allocation["b"], 1e-9)
	assert.InDelta(t, 300.0, allocation["a"]+allocation["b"], 1e-9)
}

func TestAllocatePerformanceBasedNoHistoryFallsBackToEqual(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("a", "m1", 50, 0))
	store.Put(activeCampaign("b", "m1", 50, 0))
	ledger := newTestLedger(store, &eventRecorder{})

	allocation, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 100, []string{"a", "b"}, port.AllocationPerformanceBased)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, allocation["a"], 1e-9)
	assert.InDelta(t, 50.0, allocation["b"], 1e-9)
}

func TestAllocateTimeBased(t *testing.T) {
	store := memory.NewCampaignStore()

	short := activeCampaign("a", "m1", 50, 0)
	shortEnd := baseTime.Add(10 * 24 * time.Hour)
	short.EndDate = &shortEnd
	store.Put(short)

	long := activeCampaign("b", "m1", 50, 0)
	longEnd := baseTime.Add(30 * 24 * time.Hour)
	long.EndDate = &longEnd
	store.Put(long)

	ledger := newTestLedger(store, &eventRecorder{})

	allocation, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 400, []string{"a", "b"}, port.AllocationTimeBased)
	require.NoError(t, err)

	// Remaining durations 10 and 30 days: a quarter vs three quarters.
	assert.InDelta(t, 100.0, allocation["a"], 1e-9)
	assert.InDelta(t, 300.0, allocation["b"], 1e-9)
}

func TestAllocateUnknownStrategy(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("a", "m1", 50, 0))
	ledger := newTestLedger(store, &eventRecorder{})

	_, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 100, []string{"a"}, port.AllocationStrategy("round_robin"))
	assert.ErrorIs(t, err, port.ErrUnknownStrategy)

	// Nothing was written.
	c, err := store.GetCampaign(context.Background(), "a")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, c.Budget, 1e-9)
}

func TestAllocateSkipsForeignAndMissingCampaigns(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("mine", "m1", 50, 0))
	store.Put(activeCampaign("theirs", "m2", 50, 0))
	ledger := newTestLedger(store, &eventRecorder{})

	allocation, err := ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 100, []string{"mine", "theirs", "ghost"}, port.AllocationEqual)
	require.NoError(t, err)
	require.Len(t, allocation, 1)
	assert.InDelta(t, 100.0, allocation["mine"], 1e-9)

	_, err = ledger.AllocateBudgetAcrossCampaigns(
		context.Background(), "m1", 100, []string{"theirs", "ghost"}, port.AllocationEqual)
	assert.ErrorIs(t, err, port.ErrNoCampaigns)
}

func TestBudgetUtilizationReport(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("a", "m1", 200, 50))
	store.Put(activeCampaign("b", "m1", 300, 250))
	zero := activeCampaign("c", "m1", 0, 0)
	store.Put(zero)
	store.Put(activeCampaign("other", "m2", 1000, 999))

	ledger := newTestLedger(store, &eventRecorder{})
	report, err := ledger.GetBudgetUtilizationReport(context.Background(), "m1")
	require.NoError(t, err)

	assert.InDelta(t, 500.0, report.TotalBudget, 1e-9)
	assert.InDelta(t, 300.0, report.TotalSpent, 1e-9)
	assert.InDelta(t, 0.6, report.UtilizationRate, 1e-9)
	require.Len(t, report.CampaignUtilization, 3)

	// Totals equal the sum of the breakdown.
	var sumBudget, sumSpent float64
	for _, cu := range report.CampaignUtilization {
		sumBudget += cu.Budget
		sumSpent += cu.Spent
		if cu.CampaignID == "c" {
			assert.Zero(t, cu.UtilizationRate) // zero budget guard
		}
	}
	assert.InDelta(t, report.TotalBudget, sumBudget, 1e-9)
	assert.InDelta(t, report.TotalSpent, sumSpent, 1e-9)
}

func TestBudgetUtilizationReportEmptyMerchant(t *testing.T) {
	ledger := newTestLedger(memory.NewCampaignStore(), &eventRecorder{})
	report, err := ledger.GetBudgetUtilizationReport(context.Background(), "m1")
	require.NoError(t, err)
	assert.Zero(t, report.TotalBudget)
	assert.Zero(t, report.UtilizationRate)
	assert.Empty(t, report.CampaignUtilization)
}

func TestForecastRemainingDuration(t *testing.T) {
	store := memory.NewCampaignStore()
	c := activeCampaign("c1", "m1", 1000, 200)
	c.StartDate = baseTime.Add(-10 * 24 * time.Hour)
	store.Put(c)

	ledger := newTestLedger(store, &eventRecorder{})
	forecast, err := ledger.ForecastRemainingDuration(context.Background(), "c1")
	require.NoError(t, err)

	assert.InDelta(t, 800.0, forecast.RemainingBudget, 1e-9)
	assert.InDelta(t, 20.0, forecast.DailySpendRate, 1e-9)
	assert.InDelta(t, 40.0, forecast.EstimatedDaysRemaining, 1e-9)
	require.NotNil(t, forecast.EstimatedEndDate)
	assert.Equal(t, baseTime.Add(40*24*time.Hour), *forecast.EstimatedEndDate)
}

func TestForecastWithoutSpendIsUnbounded(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("c1", "m1", 1000, 0))

	ledger := newTestLedger(store, &eventRecorder{})
	forecast, err := ledger.ForecastRemainingDuration(context.Background(), "c1")
	require.NoError(t, err)

	assert.Zero(t, forecast.DailySpendRate)
	assert.Zero(t, forecast.EstimatedDaysRemaining)
	assert.Nil(t, forecast.EstimatedEndDate)
}

// TestConcurrentSpend ensures concurrent impressions for the same campaign
// never lose an update.
func TestConcurrentSpend(t *testing.T) {
	store := memory.NewCampaignStore()
	store.Put(activeCampaign("c1", "m1", 1000, 0))
	ledger := newTestLedger(store, &eventRecorder{})

	const workers = 40
	wg := sync.WaitGroup{}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := ledger.RecordAdSpend(context.Background(), "c1", 2.5, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	c, err := store.GetCampaign(context.Background(), "c1")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, c.Spent, 1e-9)
	assert.EqualValues(t, workers, c.Impressions)
}
