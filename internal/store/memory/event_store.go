package memory

import (
	"context"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// EventStore implements domain.EventStore as an in-memory append-only log.
type EventStore struct {
	mu     sync.RWMutex
	events []domain.Event
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Append adds an event to the log.
func (s *EventStore) Append(_ context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// ListByMarket returns a market's events in append order.
func (s *EventStore) ListByMarket(_ context.Context, marketID int64, opts domain.ListOpts) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for _, e := range s.events {
		if e.MarketID == marketID {
			out = append(out, e)
		}
	}
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

// ListRecent returns the newest events, most recent first.
func (s *EventStore) ListRecent(_ context.Context, limit int) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

var _ domain.EventStore = (*EventStore)(nil)
