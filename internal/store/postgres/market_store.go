package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

const marketCols = `id, question, option_1, option_2, creator, end_time,
	total_staked, option_1_stakes, option_2_stakes,
	option_1_injected, option_2_injected,
	resolved, winner, resolution_time,
	disputed, dispute_end_time, adjudicated, slashed_bonds,
	created_at, updated_at`

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var m domain.Market
	err := row.Scan(
		&m.ID, &m.Question, &m.Option1, &m.Option2, &m.Creator, &m.EndTime,
		&m.TotalStaked, &m.Option1Stakes, &m.Option2Stakes,
		&m.Option1Injected, &m.Option2Injected,
		&m.Resolved, &m.Winner, &m.ResolutionTime,
		&m.Disputed, &m.DisputeEndTime, &m.Adjudicated, &m.SlashedBonds,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	return m, nil
}

// Create inserts a market and returns the assigned ID.
func (s *MarketStore) Create(ctx context.Context, m domain.Market) (int64, error) {
	const query = `
		INSERT INTO markets (
			question, option_1, option_2, creator, end_time,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		m.Question, m.Option1, m.Option2, m.Creator, m.EndTime, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create market: %w", err)
	}
	return id, nil
}

// Get retrieves a market by its ID.
func (s *MarketStore) Get(ctx context.Context, id int64) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// Update replaces the full market record.
func (s *MarketStore) Update(ctx context.Context, m domain.Market) error {
	const query = `
		UPDATE markets SET
			question          = $2,
			option_1          = $3,
			option_2          = $4,
			creator           = $5,
			end_time          = $6,
			total_staked      = $7,
			option_1_stakes   = $8,
			option_2_stakes   = $9,
			option_1_injected = $10,
			option_2_injected = $11,
			resolved          = $12,
			winner            = $13,
			resolution_time   = $14,
			disputed          = $15,
			dispute_end_time  = $16,
			adjudicated       = $17,
			slashed_bonds     = $18,
			updated_at        = $19
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		m.ID, m.Question, m.Option1, m.Option2, m.Creator, m.EndTime,
		m.TotalStaked, m.Option1Stakes, m.Option2Stakes,
		m.Option1Injected, m.Option2Injected,
		m.Resolved, m.Winner, m.ResolutionTime,
		m.Disputed, m.DisputeEndTime, m.Adjudicated, m.SlashedBonds,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: update market %d: %w", m.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns markets newest first, optionally filtered by lifecycle state.
func (s *MarketStore) List(ctx context.Context, filter domain.MarketFilter, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets`
	args := []any{}
	argIdx := 1

	switch filter {
	case domain.MarketFilterOpen:
		query += " WHERE resolved = FALSE"
	case domain.MarketFilterResolved:
		query += " WHERE resolved = TRUE"
	}

	query += " ORDER BY id DESC"

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
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}

var _ domain.MarketStore = (*MarketStore)(nil)
