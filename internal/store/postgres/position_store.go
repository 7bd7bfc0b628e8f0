package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Get retrieves a user's position in a market.
func (s *PositionStore) Get(ctx context.Context, marketID int64, userID string) (domain.Position, error) {
	const query = `
		SELECT market_id, user_id, option_1_amount, option_2_amount, claimed, updated_at
		FROM positions WHERE market_id = $1 AND user_id = $2`

	var p domain.Position
	err := s.pool.QueryRow(ctx, query, marketID, userID).Scan(
		&p.MarketID, &p.UserID, &p.Option1Amount, &p.Option2Amount, &p.Claimed, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get position %d/%s: %w", marketID, userID, err)
	}
	return p, nil
}

// Upsert inserts or updates a position.
func (s *PositionStore) Upsert(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (market_id, user_id, option_1_amount, option_2_amount, claimed, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (market_id, user_id) DO UPDATE SET
			option_1_amount = EXCLUDED.option_1_amount,
			option_2_amount = EXCLUDED.option_2_amount,
			claimed         = EXCLUDED.claimed,
			updated_at      = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		p.MarketID, p.UserID, p.Option1Amount, p.Option2Amount, p.Claimed, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert position %d/%s: %w", p.MarketID, p.UserID, err)
	}
	return nil
}

// ListByMarket returns all positions in a market ordered by user.
func (s *PositionStore) ListByMarket(ctx context.Context, marketID int64) ([]domain.Position, error) {
	const query = `
		SELECT market_id, user_id, option_1_amount, option_2_amount, claimed, updated_at
		FROM positions WHERE market_id = $1 ORDER BY user_id`

	rows, err := s.pool.Query(ctx, query, marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(
			&p.MarketID, &p.UserID, &p.Option1Amount, &p.Option2Amount, &p.Claimed, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list positions rows: %w", err)
	}
	return positions, nil
}

var _ domain.PositionStore = (*PositionStore)(nil)
