package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// DisputeStore implements domain.DisputeStore using PostgreSQL.
type DisputeStore struct {
	pool *pgxpool.Pool
}

// NewDisputeStore creates a new DisputeStore backed by the given connection pool.
func NewDisputeStore(pool *pgxpool.Pool) *DisputeStore {
	return &DisputeStore{pool: pool}
}

const disputeCols = `market_id, dispute_index, disputer, proposed_winner,
	bond_amount, reason, status, created_at, resolved_at`

func scanDispute(row pgx.Row) (domain.Dispute, error) {
	var d domain.Dispute
	var status string
	err := row.Scan(
		&d.MarketID, &d.Index, &d.Disputer, &d.ProposedWinner,
		&d.BondAmount, &d.Reason, &status, &d.CreatedAt, &d.ResolvedAt,
	)
	if err != nil {
		return domain.Dispute{}, err
	}
	d.Status = domain.DisputeStatus(status)
	return d, nil
}

// Append inserts a new dispute at its assigned index.
func (s *DisputeStore) Append(ctx context.Context, d domain.Dispute) error {
	const query = `
		INSERT INTO disputes (
			market_id, dispute_index, disputer, proposed_winner,
			bond_amount, reason, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		d.MarketID, d.Index, d.Disputer, d.ProposedWinner,
		d.BondAmount, d.Reason, string(d.Status), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append dispute %d/%d: %w", d.MarketID, d.Index, err)
	}
	return nil
}

// Get retrieves a dispute by market and index.
func (s *DisputeStore) Get(ctx context.Context, marketID int64, index int) (domain.Dispute, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+disputeCols+` FROM disputes WHERE market_id = $1 AND dispute_index = $2`,
		marketID, index)
	d, err := scanDispute(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dispute{}, domain.ErrNotFound
		}
		return domain.Dispute{}, fmt.Errorf("postgres: get dispute %d/%d: %w", marketID, index, err)
	}
	return d, nil
}

// Update replaces a dispute's mutable fields.
func (s *DisputeStore) Update(ctx context.Context, d domain.Dispute) error {
	const query = `
		UPDATE disputes SET
			status      = $3,
			resolved_at = $4
		WHERE market_id = $1 AND dispute_index = $2`

	tag, err := s.pool.Exec(ctx, query,
		d.MarketID, d.Index, string(d.Status), d.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update dispute %d/%d: %w", d.MarketID, d.Index, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByMarket returns a market's disputes in index order.
func (s *DisputeStore) ListByMarket(ctx context.Context, marketID int64) ([]domain.Dispute, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+disputeCols+` FROM disputes WHERE market_id = $1 ORDER BY dispute_index`,
		marketID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list disputes for market %d: %w", marketID, err)
	}
	defer rows.Close()

	var disputes []domain.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan dispute: %w", err)
		}
		disputes = append(disputes, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list disputes rows: %w", err)
	}
	return disputes, nil
}

// CountByMarket returns the number of disputes raised against a market.
func (s *DisputeStore) CountByMarket(ctx context.Context, marketID int64) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM disputes WHERE market_id = $1", marketID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count disputes for market %d: %w", marketID, err)
	}
	return count, nil
}

var _ domain.DisputeStore = (*DisputeStore)(nil)
