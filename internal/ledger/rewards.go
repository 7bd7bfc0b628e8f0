package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openforecast/marketd/internal/domain"
)

// ClaimRewards pays out the caller's share of the pot once the market is
// finalized. The payout is the caller's winning stake plus their pro-rata
// share of the losing side's user-contributed pool; market-owned injected
// liquidity is never paid out. The claimed flag is committed before the
// transfer, so a re-entrant or repeated claim fails instead of
// double-spending; a failed transfer is reported without resurrecting
// ledger state.
func (l *Ledger) ClaimRewards(ctx context.Context, userID string, marketID int64) (float64, error) {
	unlock, err := l.lockMarket(ctx, marketID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return 0, err
	}
	if !m.Resolved {
		return 0, domain.ErrMarketNotResolved
	}
	if !m.Finalized(l.clock.Now()) {
		return 0, domain.ErrStillInDisputePeriod
	}

	pos, err := l.positions.Get(ctx, marketID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNoWinningPosition
		}
		return 0, fmt.Errorf("ledger: get position: %w", err)
	}
	if pos.Claimed {
		return 0, domain.ErrAlreadyClaimed
	}

	winningStake := pos.AmountOn(m.Winner)
	if winningStake <= 0 {
		return 0, domain.ErrNoWinningPosition
	}

	loser := domain.Option1
	if m.Winner == domain.Option1 {
		loser = domain.Option2
	}
	winningPool := m.NetStakes(m.Winner)
	losingPool := m.NetStakes(loser)

	payout := winningStake + winningStake*losingPool/winningPool

	// Commit the claimed flag before any value moves.
	pos.Claimed = true
	pos.UpdatedAt = l.clock.Now()
	if err := l.positions.Upsert(ctx, pos); err != nil {
		return 0, fmt.Errorf("ledger: mark claimed: %w", err)
	}

	if err := l.treasury.Pay(ctx, userID, payout); err != nil {
		l.logger.ErrorContext(ctx, "payout transfer failed",
			slog.Int64("market_id", marketID),
			slog.String("user_id", userID),
			slog.Float64("payout", payout),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("ledger: pay rewards: %w", err)
	}

	l.logger.InfoContext(ctx, "rewards claimed",
		slog.Int64("market_id", marketID),
		slog.String("user_id", userID),
		slog.Float64("payout", payout),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventRewardsClaimed,
		MarketID: marketID,
		Actor:    userID,
		Payload:  map[string]any{"payout": payout},
	})

	return payout, nil
}
