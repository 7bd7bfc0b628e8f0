// Package memory implements the domain store, treasury, cache, bus, and
// lock ports in process memory. It backs single-node deployments and tests;
// the postgres and redis packages provide the remote equivalents.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// MarketStore implements domain.MarketStore with an in-memory map and a
// monotonic ID counter.
type MarketStore struct {
	mu      sync.RWMutex
	nextID  int64
	markets map[int64]domain.Market
}

// NewMarketStore creates an empty MarketStore.
func NewMarketStore() *MarketStore {
	return &MarketStore{markets: make(map[int64]domain.Market)}
}

// Create stores the market under the next monotonic ID and returns it.
func (s *MarketStore) Create(_ context.Context, m domain.Market) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	m.ID = id
	s.markets[id] = m
	return id, nil
}

// Get returns the market with the given ID.
func (s *MarketStore) Get(_ context.Context, id int64) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markets[id]
	if !ok {
		return domain.Market{}, domain.ErrNotFound
	}
	return m, nil
}

// Update replaces an existing market record.
func (s *MarketStore) Update(_ context.Context, m domain.Market) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markets[m.ID]; !ok {
		return domain.ErrNotFound
	}
	s.markets[m.ID] = m
	return nil
}

// List returns markets matching the filter, newest first.
func (s *MarketStore) List(_ context.Context, filter domain.MarketFilter, opts domain.ListOpts) ([]domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Market
	for _, m := range s.markets {
		switch filter {
		case domain.MarketFilterOpen:
			if m.Resolved {
				continue
			}
		case domain.MarketFilterResolved:
			if !m.Resolved {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// Count returns the number of stored markets.
func (s *MarketStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.markets)), nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
