package memory

import (
	"context"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// DisputeStore implements domain.DisputeStore in memory, keeping disputes in
// index order per market.
type DisputeStore struct {
	mu       sync.RWMutex
	disputes map[int64][]domain.Dispute
}

// NewDisputeStore creates an empty DisputeStore.
func NewDisputeStore() *DisputeStore {
	return &DisputeStore{disputes: make(map[int64][]domain.Dispute)}
}

// Append records a new dispute at the end of the market's list.
func (s *DisputeStore) Append(_ context.Context, d domain.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.disputes[d.MarketID] = append(s.disputes[d.MarketID], d)
	return nil
}

// Get returns the dispute at (market, index).
func (s *DisputeStore) Get(_ context.Context, marketID int64, index int) (domain.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := s.disputes[marketID]
	if index < 0 || index >= len(ds) {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return ds[index], nil
}

// Update replaces an existing dispute record.
func (s *DisputeStore) Update(_ context.Context, d domain.Dispute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds := s.disputes[d.MarketID]
	if d.Index < 0 || d.Index >= len(ds) {
		return domain.ErrNotFound
	}
	ds[d.Index] = d
	return nil
}

// ListByMarket returns all disputes for a market in index order.
func (s *DisputeStore) ListByMarket(_ context.Context, marketID int64) ([]domain.Dispute, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := s.disputes[marketID]
	out := make([]domain.Dispute, len(ds))
	copy(out, ds)
	return out, nil
}

// CountByMarket returns the number of disputes recorded against a market.
func (s *DisputeStore) CountByMarket(_ context.Context, marketID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.disputes[marketID]), nil
}

var _ domain.DisputeStore = (*DisputeStore)(nil)
