package usecase

import (
	"math/rand/v2"
	"strings"

	"bazaar-ads/internal/core/domain"
)

// Relevance scores are clamped to this range so that a single factor can
// never push a campaign entirely out of (or unfairly into) contention.
const (
	minRelevanceScore = 0.1
	maxRelevanceScore = 10.0
)

// RelevanceScorer maps a campaign and a placement context to a bounded
// numeric score. Scoring is pure apart from a small jitter factor that
// breaks up otherwise identical scores; the jitter source is injectable so
// tests can pin it.
type RelevanceScorer struct {
	// jitter returns a uniform value in [0, 1). Defaults to the shared
	// math/rand/v2 source, which is safe for concurrent use.
	jitter func() float64
}

// NewRelevanceScorer returns a scorer with randomized jitter.
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{jitter: rand.Float64}
}

// NewRelevanceScorerWithJitter returns a scorer using the given jitter
// source. Pass a constant function for deterministic scoring.
func NewRelevanceScorerWithJitter(jitter func() float64) *RelevanceScorer {
	return &RelevanceScorer{jitter: jitter}
}

// Score computes the multiplicative relevance of a campaign for the given
// context. Each factor applies only when both sides carry the relevant
// signal; a context with no signals scores near the base value of 1.
func (s *RelevanceScorer) Score(c *domain.Campaign, pc domain.PlacementContext) float64 {
	score := 1.0

	// Audience matching needs an identified user; anonymous requests are
	// neither boosted nor penalised.
	if c.TargetAudience != domain.AudienceAll && pc.UserID != "" {
		switch c.TargetAudience {
		case domain.AudiencePreviousVisitors:
			if overlaps(c.ProductIDs, pc.PreviouslyViewedProductIDs) {
				score *= 1.5
			} else {
				score *= 0.5
			}
		case domain.AudienceCartAbandoners:
			if overlaps(c.ProductIDs, pc.CartProductIDs) {
				score *= 2.0
			} else {
				score *= 0.3
			}
		case domain.AudiencePreviousCustomers:
			if overlaps(c.ProductIDs, pc.PurchasedProductIDs) {
				score *= 1.8
			} else {
				score *= 0.4
			}
		}
	}

	if len(c.TargetLocations) > 0 && pc.Location != "" {
		if matchesLocation(c.TargetLocations, pc.Location) {
			score *= 1.2
		} else {
			score *= 0.7
		}
	}

	if len(c.TargetInterests) > 0 && len(pc.Interests) > 0 {
		matched := countMatches(c.TargetInterests, pc.Interests)
		if matched == 0 {
			score *= 0.6
		} else {
			score *= 1 + float64(matched)/float64(len(c.TargetInterests))
		}
	}

	if len(c.TargetDemographics) > 0 && len(pc.Demographics) > 0 {
		matched := countMatches(c.TargetDemographics, pc.Demographics)
		if matched == 0 {
			score *= 0.8
		} else {
			score *= 1 + float64(matched)/float64(len(c.TargetDemographics))*0.5
		}
	}

	// Jitter in [0.95, 1.05) keeps equally targeted campaigns from always
	// ranking in the same order.
	score *= 0.95 + s.jitter()*0.1

	return clamp(score, minRelevanceScore, maxRelevanceScore)
}

// overlaps reports whether the two id lists share at least one element.
func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// matchesLocation reports whether any target location occurs, case
// insensitively, inside the context location. Substring matching lets a
// campaign targeting "london" match "London, UK".
func matchesLocation(targets []string, location string) bool {
	loc := strings.ToLower(location)
	for _, t := range targets {
		if strings.Contains(loc, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// countMatches counts target entries that occur, case insensitively, as a
// substring of at least one context entry.
func countMatches(targets, values []string) int {
	matched := 0
	for _, t := range targets {
		lt := strings.ToLower(t)
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), lt) {
				matched++
				break
			}
		}
	}
	return matched
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
