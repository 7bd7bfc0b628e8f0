package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openforecast/marketd/internal/domain"
)

// DisputeMarket posts a bonded challenge against a resolution while the
// dispute window is open. The bond is collected immediately and held until
// adjudication. Multiple open disputes may exist per market.
func (l *Ledger) DisputeMarket(ctx context.Context, disputer string, marketID int64, proposedWinner int, reason string, bond float64) (domain.Dispute, error) {
	unlock, err := l.lockMarket(ctx, marketID)
	if err != nil {
		return domain.Dispute{}, err
	}
	defer unlock()

	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if !m.Resolved {
		return domain.Dispute{}, domain.ErrMarketNotResolved
	}
	now := l.clock.Now()
	if m.DisputeEndTime == nil || !now.Before(*m.DisputeEndTime) {
		return domain.Dispute{}, domain.ErrDisputePeriodEnded
	}
	if !domain.ValidOption(proposedWinner) {
		return domain.Dispute{}, domain.ErrInvalidOption
	}
	if proposedWinner == m.Winner {
		return domain.Dispute{}, domain.ErrSameWinner
	}
	if bond < l.cfg.MinDisputeBond {
		return domain.Dispute{}, domain.ErrInsufficientBond
	}

	index, err := l.disputes.CountByMarket(ctx, marketID)
	if err != nil {
		return domain.Dispute{}, fmt.Errorf("ledger: count disputes: %w", err)
	}

	if err := l.treasury.Collect(ctx, disputer, bond); err != nil {
		return domain.Dispute{}, fmt.Errorf("ledger: collect bond: %w", err)
	}

	mBefore := m
	m.Disputed = true
	m.UpdatedAt = now
	if err := l.markets.Update(ctx, m); err != nil {
		l.refund(ctx, disputer, bond)
		return domain.Dispute{}, fmt.Errorf("ledger: mark market disputed: %w", err)
	}

	d := domain.Dispute{
		MarketID:       marketID,
		Index:          index,
		Disputer:       disputer,
		ProposedWinner: proposedWinner,
		BondAmount:     bond,
		Reason:         reason,
		Status:         domain.DisputeOpen,
		CreatedAt:      now,
	}
	if err := l.disputes.Append(ctx, d); err != nil {
		// Clear the disputed flag so the market does not point at a
		// record that was never written, then return the bond.
		if rbErr := l.markets.Update(ctx, mBefore); rbErr != nil {
			l.logger.ErrorContext(ctx, "market rollback failed",
				slog.Int64("market_id", marketID),
				slog.String("error", rbErr.Error()),
			)
		}
		l.refund(ctx, disputer, bond)
		return domain.Dispute{}, fmt.Errorf("ledger: append dispute: %w", err)
	}

	l.logger.InfoContext(ctx, "market disputed",
		slog.Int64("market_id", marketID),
		slog.Int("dispute_index", index),
		slog.String("disputer", disputer),
		slog.Int("proposed_winner", proposedWinner),
		slog.Float64("bond", bond),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventMarketDisputed,
		MarketID: marketID,
		Actor:    disputer,
		Payload: map[string]any{
			"dispute_index":   index,
			"proposed_winner": proposedWinner,
			"bond":            bond,
			"reason":          reason,
		},
	})

	return d, nil
}

// ResolveDispute adjudicates a single dispute. A valid challenge replaces
// the market winner and refunds the bond in full; an invalid one slashes the
// bond and leaves the winner unchanged. Either way the market's disputed
// flag is cleared and claims open immediately. All state is committed before
// the refund transfer; a failed transfer is reported but never resurrects
// ledger state.
func (l *Ledger) ResolveDispute(ctx context.Context, caller string, marketID int64, index int, valid bool) error {
	if err := l.access.RequireAdmin(ctx, caller); err != nil {
		return err
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
	d, err := l.disputes.Get(ctx, marketID, index)
	if err != nil {
		return err
	}
	if d.Resolved() {
		return domain.ErrDisputeAlreadyResolved
	}

	now := l.clock.Now()
	if valid {
		m.Winner = d.ProposedWinner
		d.Status = domain.DisputeValid
	} else {
		m.SlashedBonds += d.BondAmount
		d.Status = domain.DisputeInvalid
	}
	m.Disputed = false
	m.Adjudicated = true
	m.UpdatedAt = now
	d.ResolvedAt = &now

	if err := l.disputes.Update(ctx, d); err != nil {
		return fmt.Errorf("ledger: update dispute: %w", err)
	}
	if err := l.markets.Update(ctx, m); err != nil {
		return fmt.Errorf("ledger: update market: %w", err)
	}

	if valid {
		if err := l.treasury.Pay(ctx, d.Disputer, d.BondAmount); err != nil {
			l.logger.ErrorContext(ctx, "bond refund transfer failed",
				slog.Int64("market_id", marketID),
				slog.Int("dispute_index", index),
				slog.String("disputer", d.Disputer),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("ledger: refund bond: %w", err)
		}
	}

	l.logger.InfoContext(ctx, "dispute resolved",
		slog.Int64("market_id", marketID),
		slog.Int("dispute_index", index),
		slog.Bool("valid", valid),
		slog.String("admin", caller),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventDisputeResolved,
		MarketID: marketID,
		Actor:    caller,
		Payload:  map[string]any{"dispute_index": index, "valid": valid},
	})

	return nil
}

// GetMarketDisputes returns all disputes recorded against a market in index
// order.
func (l *Ledger) GetMarketDisputes(ctx context.Context, marketID int64) ([]domain.Dispute, error) {
	if _, err := l.markets.Get(ctx, marketID); err != nil {
		return nil, err
	}
	ds, err := l.disputes.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list disputes: %w", err)
	}
	return ds, nil
}
