package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

type positionKey struct {
	marketID int64
	userID   string
}

// PositionStore implements domain.PositionStore in memory.
type PositionStore struct {
	mu        sync.RWMutex
	positions map[positionKey]domain.Position
}

// NewPositionStore creates an empty PositionStore.
func NewPositionStore() *PositionStore {
	return &PositionStore{positions: make(map[positionKey]domain.Position)}
}

// Get returns the position for (market, user).
func (s *PositionStore) Get(_ context.Context, marketID int64, userID string) (domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[positionKey{marketID, userID}]
	if !ok {
		return domain.Position{}, domain.ErrNotFound
	}
	return p, nil
}

// Upsert inserts or replaces a position.
func (s *PositionStore) Upsert(_ context.Context, p domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.positions[positionKey{p.MarketID, p.UserID}] = p
	return nil
}

// ListByMarket returns all positions in a market ordered by user ID.
func (s *PositionStore) ListByMarket(_ context.Context, marketID int64) ([]domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Position
	for k, p := range s.positions {
		if k.marketID == marketID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

var _ domain.PositionStore = (*PositionStore)(nil)
