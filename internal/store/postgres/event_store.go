package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL with JSONB payloads.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append persists an event to the ledger log.
func (s *EventStore) Append(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("postgres: marshal event payload: %w", err)
	}

	const query = `
		INSERT INTO events (id, type, market_id, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.pool.Exec(ctx, query,
		e.ID, string(e.Type), e.MarketID, e.Actor, payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", e.ID, err)
	}
	return nil
}

const eventCols = `id, type, market_id, actor, payload, created_at`

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var typ string
		var payload []byte
		if err := rows.Scan(&e.ID, &typ, &e.MarketID, &e.Actor, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.Type = domain.EventType(typ)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal event payload: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: event rows: %w", err)
	}
	return events, nil
}

// ListByMarket returns a market's events in append order.
func (s *EventStore) ListByMarket(ctx context.Context, marketID int64, opts domain.ListOpts) ([]domain.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events WHERE market_id = $1 ORDER BY seq`
	args := []any{marketID}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events for market %d: %w", marketID, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the newest events, most recent first.
func (s *EventStore) ListRecent(ctx context.Context, limit int) ([]domain.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

var _ domain.EventStore = (*EventStore)(nil)
