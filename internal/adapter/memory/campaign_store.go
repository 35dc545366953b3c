// Package memory provides an in-process port.CampaignStore. It backs tests
// and local development, and demonstrates the per-campaign serialization
// point required when the backing store cannot do atomic deltas itself:
// every campaign carries its own mutex, so concurrent spend and click
// deltas for the same campaign are applied one at a time while different
// campaigns proceed in parallel.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bazaar-ads/internal/core/domain"
	"bazaar-ads/internal/core/port"
)

type entry struct {
	mu sync.Mutex
	c  domain.Campaign
}

// CampaignStore is a concurrency-safe in-memory campaign store.
type CampaignStore struct {
	mu      sync.RWMutex // guards the map itself
	entries map[string]*entry
}

// NewCampaignStore returns an empty store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{entries: make(map[string]*entry)}
}

// Put inserts or replaces a campaign. It is how external campaign
// management hands ACTIVE campaigns to the engine in tests and demos.
func (s *CampaignStore) Put(c domain.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[c.ID]; ok {
		e.mu.Lock()
		e.c = c
		e.mu.Unlock()
		return
	}
	s.entries[c.ID] = &entry{c: c}
}

func (s *CampaignStore) get(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[id]
}

// FindActiveCampaigns returns all ACTIVE campaigns, optionally scoped to a
// merchant, ordered by id for determinism.
func (s *CampaignStore) FindActiveCampaigns(ctx context.Context, merchantID string) ([]domain.Campaign, error) {
	return s.find(func(c *domain.Campaign) bool {
		if c.Status != domain.StatusActive {
			return false
		}
		return merchantID == "" || c.MerchantID == merchantID
	})
}

// FindCampaignsByMerchant returns every campaign of the merchant regardless
// of status, ordered by id.
func (s *CampaignStore) FindCampaignsByMerchant(ctx context.Context, merchantID string) ([]domain.Campaign, error) {
	return s.find(func(c *domain.Campaign) bool {
		return c.MerchantID == merchantID
	})
}

func (s *CampaignStore) find(match func(*domain.Campaign) bool) ([]domain.Campaign, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []domain.Campaign
	for _, e := range entries {
		e.mu.Lock()
		if match(&e.c) {
			out = append(out, e.c)
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetCampaign returns a copy of the campaign or ErrCampaignNotFound.
func (s *CampaignStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	e := s.get(id)
	if e == nil {
		return nil, port.ErrCampaignNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.c
	return &c, nil
}

// ApplySpendDelta atomically adds amount to spent and impressionDelta to
// the impression counter, returning the updated values.
func (s *CampaignStore) ApplySpendDelta(ctx context.Context, id string, amount float64, impressionDelta int64) (float64, int64, error) {
	e := s.get(id)
	if e == nil {
		return 0, 0, port.ErrCampaignNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.c.Spent += amount
	e.c.Impressions += impressionDelta
	if e.c.Impressions > 0 {
		e.c.ClickThroughRate = float64(e.c.Clicks) / float64(e.c.Impressions)
	}
	e.c.UpdatedAt = time.Now()
	return e.c.Spent, e.c.Impressions, nil
}

// ApplyClickDelta atomically increments the click counter and refreshes the
// stored click-through rate, guarding the zero-impressions case.
func (s *CampaignStore) ApplyClickDelta(ctx context.Context, id string) (int64, int64, error) {
	e := s.get(id)
	if e == nil {
		return 0, 0, port.ErrCampaignNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.c.Clicks++
	if e.c.Impressions > 0 {
		e.c.ClickThroughRate = float64(e.c.Clicks) / float64(e.c.Impressions)
	} else {
		e.c.ClickThroughRate = 0
	}
	e.c.UpdatedAt = time.Now()
	return e.c.Clicks, e.c.Impressions, nil
}

// UpdateBudgets applies an allocation to all referenced campaigns, or to
// none when any id is unknown. Campaign locks are taken in sorted id order
// so concurrent allocations cannot deadlock.
func (s *CampaignStore) UpdateBudgets(ctx context.Context, allocation map[string]float64) error {
	ids := make([]string, 0, len(allocation))
	for id := range allocation {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]*entry, len(ids))
	s.mu.RLock()
	for i, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			s.mu.RUnlock()
			return port.ErrCampaignNotFound
		}
		entries[i] = e
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
	}
	for i, e := range entries {
		e.c.Budget = allocation[ids[i]]
		e.c.UpdatedAt = time.Now()
	}
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].mu.Unlock()
	}
	return nil
}
