package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openforecast/marketd/internal/domain"
)

// Treasury implements domain.Treasury with in-memory account balances.
// Collect refuses to overdraw an account.
type Treasury struct {
	mu       sync.Mutex
	balances map[string]float64
}

// NewTreasury creates a Treasury with no funded accounts.
func NewTreasury() *Treasury {
	return &Treasury{balances: make(map[string]float64)}
}

// Deposit funds a participant account.
func (t *Treasury) Deposit(_ context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[userID] += amount
	return nil
}

// Collect debits an attached stake or bond from a participant.
func (t *Treasury) Collect(_ context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balances[userID] < amount {
		return fmt.Errorf("treasury: collect %.4f from %s: %w", amount, userID, domain.ErrInsufficientFunds)
	}
	t.balances[userID] -= amount
	return nil
}

// Pay credits winnings or a bond refund to a participant.
func (t *Treasury) Pay(_ context.Context, userID string, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[userID] += amount
	return nil
}

// Balance returns a participant's current balance.
func (t *Treasury) Balance(_ context.Context, userID string) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[userID], nil
}

var _ domain.Treasury = (*Treasury)(nil)
