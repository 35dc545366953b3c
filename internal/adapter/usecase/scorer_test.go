package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bazaar-ads/internal/core/domain"
)

// neutralJitter pins the jitter factor to exactly 1.0.
func neutralJitter() float64 { return 0.5 }

func TestScoreBaseIsNeutral(t *testing.T) {
	s := NewRelevanceScorerWithJitter(neutralJitter)
	c := activeCampaign("c1", "m1", 100, 0)

	assert.InDelta(t, 1.0, s.Score(&c, domain.PlacementContext{}), 1e-9)
}

func TestScoreAudienceFactors(t *testing.T) {
	tests := []struct {
		name     string
		audience domain.TargetAudience
		ctx      domain.PlacementContext
		want     float64
	}{
		{
			name:     "previous visitor match",
			audience: domain.AudiencePreviousVisitors,
			ctx:      domain.PlacementContext{UserID: "u1", PreviouslyViewedProductIDs: []string{"p1"}},
			want:     1.5,
		},
		{
			name:     "previous visitor miss",
			audience: domain.AudiencePreviousVisitors,
			ctx:      domain.PlacementContext{UserID: "u1", PreviouslyViewedProductIDs: []string{"p9"}},
			want:     0.5,
		},
		{
			name:     "cart abandoner match",
			audience: domain.AudienceCartAbandoners,
			ctx:      domain.PlacementContext{UserID: "u1", CartProductIDs: []string{"p1"}},
			want:     2.0,
		},
		{
			name:     "cart abandoner miss",
			audience: domain.AudienceCartAbandoners,
			ctx:      domain.PlacementContext{UserID: "u1"},
			want:     0.3,
		},
		{
			name:     "previous customer match",
			audience: domain.AudiencePreviousCustomers,
			ctx:      domain.PlacementContext{UserID: "u1", PurchasedProductIDs: []string{"p1"}},
			want:     1.8,
		},
		{
			name:     "previous customer miss",
			audience: domain.AudiencePreviousCustomers,
			ctx:      domain.PlacementContext{UserID: "u1"},
			want:     0.4,
		},
		{
			name:     "anonymous user skips audience matching",
			audience: domain.AudienceCartAbandoners,
			ctx:      domain.PlacementContext{},
			want:     1.0,
		},
		{
			name:     "audience all skips matching",
			audience: domain.AudienceAll,
			ctx:      domain.PlacementContext{UserID: "u1"},
			want:     1.0,
		},
	}

	s := NewRelevanceScorerWithJitter(neutralJitter)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := activeCampaign("c1", "m1", 100, 0)
			c.ProductIDs = []string{"p1", "p2"}
			c.TargetAudience = tt.audience
			assert.InDelta(t, tt.want, s.Score(&c, tt.ctx), 1e-9)
		})
	}
}

func TestScoreLocationFactor(t *testing.T) {
	s := NewRelevanceScorerWithJitter(neutralJitter)
	c := activeCampaign("c1", "m1", 100, 0)
	c.TargetLocations = []string{"london"}

	// Substring match, case insensitive.
	assert.InDelta(t, 1.2, s.Score(&c, domain.PlacementContext{Location: "London, UK"}), 1e-9)
	assert.InDelta(t, 0.7, s.Score(&c, domain.PlacementContext{Location: "Berlin"}), 1e-9)
	// No context location: factor not applied.
	assert.InDelta(t, 1.0, s.Score(&c, domain.PlacementContext{}), 1e-9)
}

func TestScoreInterestFactor(t *testing.T) {
	s := NewRelevanceScorerWithJitter(neutralJitter)
	c := activeCampaign("c1", "m1", 100, 0)
	c.TargetInterests = []string{"coffee", "tea"}

	// One of two targets matched: 1 + 1/2.
	assert.InDelta(t, 1.5, s.Score(&c, domain.PlacementContext{Interests: []string{"coffee brewing"}}), 1e-9)
	// Both matched: 1 + 1.
	assert.InDelta(t, 2.0, s.Score(&c, domain.PlacementContext{Interests: []string{"coffee", "green tea"}}), 1e-9)
	// None matched.
	assert.InDelta(t, 0.6, s.Score(&c, domain.PlacementContext{Interests: []string{"hiking"}}), 1e-9)
}

func TestScoreDemographicFactor(t *testing.T) {
	s := NewRelevanceScorerWithJitter(neutralJitter)
	c := activeCampaign("c1", "m1", 100, 0)
	c.TargetDemographics = []string{"18-35", "urban"}

	// One of two matched: 1 + 0.5*1/2.
	assert.InDelta(t, 1.25, s.Score(&c, domain.PlacementContext{Demographics: []string{"18-35"}}), 1e-9)
	assert.InDelta(t, 0.8, s.Score(&c, domain.PlacementContext{Demographics: []string{"rural"}}), 1e-9)
}

func TestScoreClampsToRange(t *testing.T) {
	s := NewRelevanceScorerWithJitter(func() float64 { return 0 }) // jitter 0.95

	// Every factor at its minimum drops below 0.1 before clamping.
	c := activeCampaign("c1", "m1", 100, 0)
	c.ProductIDs = []string{"p1"}
	c.TargetAudience = domain.AudienceCartAbandoners
	c.TargetLocations = []string{"london"}
	c.TargetInterests = []string{"coffee"}
	c.TargetDemographics = []string{"urban"}

	pc := domain.PlacementContext{
		UserID:       "u1",
		Location:     "Berlin",
		Interests:    []string{"hiking"},
		Demographics: []string{"rural"},
	}
	assert.InDelta(t, minRelevanceScore, s.Score(&c, pc), 1e-9)
}

func TestScoreJitterStaysBounded(t *testing.T) {
	s := NewRelevanceScorer()
	c := activeCampaign("c1", "m1", 100, 0)

	for i := 0; i < 1000; i++ {
		score := s.Score(&c, domain.PlacementContext{})
		assert.GreaterOrEqual(t, score, 0.95)
		assert.Less(t, score, 1.05)
		assert.GreaterOrEqual(t, score, minRelevanceScore)
		assert.LessOrEqual(t, score, maxRelevanceScore)
	}
}
