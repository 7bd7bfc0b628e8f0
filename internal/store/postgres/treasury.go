package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openforecast/marketd/internal/domain"
)

// Treasury implements domain.Treasury over the balances table. Collect uses a
// conditional update so a concurrent debit can never overdraw an account.
type Treasury struct {
	pool *pgxpool.Pool
}

// NewTreasury creates a new Treasury backed by the given connection pool.
func NewTreasury(pool *pgxpool.Pool) *Treasury {
	return &Treasury{pool: pool}
}

// Deposit funds a participant account.
func (t *Treasury) Deposit(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	const query = `
		INSERT INTO balances (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			balance    = balances.balance + EXCLUDED.balance,
			updated_at = NOW()`

	_, err := t.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("postgres: deposit %.4f to %s: %w", amount, userID, err)
	}
	return nil
}

// Collect debits an attached stake or bond from a participant.
func (t *Treasury) Collect(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	const query = `
		UPDATE balances SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2`

	tag, err := t.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("postgres: collect %.4f from %s: %w", amount, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: collect %.4f from %s: %w", amount, userID, domain.ErrInsufficientFunds)
	}
	return nil
}

// Pay credits winnings or a bond refund to a participant.
func (t *Treasury) Pay(ctx context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	const query = `
		INSERT INTO balances (user_id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			balance    = balances.balance + EXCLUDED.balance,
			updated_at = NOW()`

	_, err := t.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("postgres: pay %.4f to %s: %w", amount, userID, err)
	}
	return nil
}

// Balance returns a participant's current balance. Unknown accounts are zero.
func (t *Treasury) Balance(ctx context.Context, userID string) (float64, error) {
	var balance float64
	err := t.pool.QueryRow(ctx,
		"SELECT COALESCE((SELECT balance FROM balances WHERE user_id = $1), 0)",
		userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("postgres: balance of %s: %w", userID, err)
	}
	return balance, nil
}

var _ domain.Treasury = (*Treasury)(nil)
