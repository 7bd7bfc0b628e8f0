package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openforecast/marketd/internal/domain"
)

// ResolveMarket sets the provisional winner of an ended market and opens the
// dispute window. Only admins may resolve.
func (l *Ledger) ResolveMarket(ctx context.Context, caller string, marketID int64, winner int) error {
	if err := l.access.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if !domain.ValidOption(winner) {
		return domain.ErrInvalidOption
	}

	unlock, err := l.lockMarket(ctx, marketID)
	if err != nil {
		return err
	}
	defer unlock()

	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return err
	}
	now := l.clock.Now()
	if !m.Ended(now) {
		return domain.ErrMarketNotEnded
	}
	if m.Resolved {
		return domain.ErrMarketAlreadyResolved
	}

	disputeEnd := now.Add(l.cfg.DisputeWindow)
	m.Resolved = true
	m.Winner = winner
	m.ResolutionTime = &now
	m.DisputeEndTime = &disputeEnd
	m.Disputed = false
	m.UpdatedAt = now

	if err := l.markets.Update(ctx, m); err != nil {
		return fmt.Errorf("ledger: resolve market %d: %w", marketID, err)
	}
	l.invalidateOdds(ctx, marketID)

	l.logger.InfoContext(ctx, "market resolved",
		slog.Int64("market_id", marketID),
		slog.Int("winner", winner),
		slog.String("admin", caller),
		slog.Time("dispute_end", disputeEnd),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventMarketResolved,
		MarketID: marketID,
		Actor:    caller,
		Payload:  map[string]any{"winner": winner},
	})

	return nil
}

// IsInDisputePeriod reports whether the market is resolved and its dispute
// window is still open.
func (l *Ledger) IsInDisputePeriod(ctx context.Context, marketID int64) (bool, error) {
	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return false, err
	}
	return m.InDisputePeriod(l.clock.Now()), nil
}

// CanClaimRewards reports whether winners may claim: the market is resolved
// and undisputed, and either the dispute window has elapsed or a dispute was
// adjudicated.
func (l *Ledger) CanClaimRewards(ctx context.Context, marketID int64) (bool, error) {
	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return false, err
	}
	return m.Finalized(l.clock.Now()), nil
}
