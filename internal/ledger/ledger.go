// Package ledger implements the market lifecycle state machine: market
// creation and staking, admin resolution, bonded disputes, and reward
// payouts. The ledger exclusively owns all market, position, and dispute
// records; pricing and market-making only read stakes and propose deltas,
// which the ledger applies under a per-market lock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openforecast/marketd/internal/access"
	"github.com/openforecast/marketd/internal/domain"
	"github.com/openforecast/marketd/internal/events"
	"github.com/openforecast/marketd/internal/pricing"
)

// Config holds the ledger policy parameters.
type Config struct {
	// DisputeWindow is how long after resolution the outcome may be
	// challenged.
	DisputeWindow time.Duration
	// MinDisputeBond is the smallest accepted dispute bond.
	MinDisputeBond float64
	// LockTTL bounds how long a per-market lock may be held.
	LockTTL time.Duration
}

// DefaultConfig returns the standard ledger policy.
func DefaultConfig() Config {
	return Config{
		DisputeWindow:  24 * time.Hour,
		MinDisputeBond: 0.1,
		LockTTL:        10 * time.Second,
	}
}

// Ledger is the canonical record of markets, positions, and disputes.
type Ledger struct {
	cfg       Config
	markets   domain.MarketStore
	positions domain.PositionStore
	disputes  domain.DisputeStore
	treasury  domain.Treasury
	engine    *pricing.Engine
	maker     *pricing.Maker
	access    *access.Controller
	locks     domain.LockManager
	odds      domain.OddsCache
	clock     domain.Clock
	rec       *events.Recorder
	logger    *slog.Logger
}

// Deps bundles the ledger's collaborators.
type Deps struct {
	Markets   domain.MarketStore
	Positions domain.PositionStore
	Disputes  domain.DisputeStore
	Treasury  domain.Treasury
	Engine    *pricing.Engine
	Maker     *pricing.Maker
	Access    *access.Controller
	Locks     domain.LockManager
	Odds      domain.OddsCache
	Clock     domain.Clock
	Recorder  *events.Recorder
}

// New creates a Ledger with the given policy and collaborators.
func New(cfg Config, deps Deps, logger *slog.Logger) *Ledger {
	return &Ledger{
		cfg:       cfg,
		markets:   deps.Markets,
		positions: deps.Positions,
		disputes:  deps.Disputes,
		treasury:  deps.Treasury,
		engine:    deps.Engine,
		maker:     deps.Maker,
		access:    deps.Access,
		locks:     deps.Locks,
		odds:      deps.Odds,
		clock:     deps.Clock,
		rec:       deps.Recorder,
		logger:    logger.With(slog.String("component", "ledger")),
	}
}

// lockMarket serializes mutating operations on a single market. Cross-market
// operations proceed in parallel.
func (l *Ledger) lockMarket(ctx context.Context, marketID int64) (func(), error) {
	unlock, err := l.locks.Acquire(ctx, fmt.Sprintf("market:%d", marketID), l.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("ledger: lock market %d: %w", marketID, err)
	}
	return unlock, nil
}

// invalidateOdds drops the cached odds for a market. Cache errors are
// non-fatal; the entry expires on its own.
func (l *Ledger) invalidateOdds(ctx context.Context, marketID int64) {
	if err := l.odds.Invalidate(ctx, marketID); err != nil {
		l.logger.WarnContext(ctx, "odds cache invalidate failed",
			slog.Int64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

// refund compensates a collected stake or bond when a later write fails, so
// funds never stay debited without a matching book record. A failed refund is
// logged for operator reconciliation.
func (l *Ledger) refund(ctx context.Context, userID string, amount float64) {
	if err := l.treasury.Pay(ctx, userID, amount); err != nil {
		l.logger.ErrorContext(ctx, "refund transfer failed",
			slog.String("user_id", userID),
			slog.Float64("amount", amount),
			slog.String("error", err.Error()),
		)
	}
}

// CreateMarket opens a new binary-outcome market that accepts stakes for the
// given duration. Any participant may create a market.
func (l *Ledger) CreateMarket(ctx context.Context, creator, question, option1, option2 string, duration time.Duration) (domain.Market, error) {
	if duration <= 0 {
		return domain.Market{}, domain.ErrInvalidDuration
	}

	now := l.clock.Now()
	m := domain.Market{
		Question:  question,
		Option1:   option1,
		Option2:   option2,
		Creator:   creator,
		EndTime:   now.Add(duration),
		Winner:    domain.WinnerUnset,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := l.markets.Create(ctx, m)
	if err != nil {
		return domain.Market{}, fmt.Errorf("ledger: create market: %w", err)
	}
	m.ID = id

	l.logger.InfoContext(ctx, "market created",
		slog.Int64("market_id", id),
		slog.String("creator", creator),
		slog.Time("end_time", m.EndTime),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventMarketCreated,
		MarketID: id,
		Actor:    creator,
		Payload:  map[string]any{"question": question},
	})

	return m, nil
}

// BuyPosition stakes amount on one option of an open market. The attached
// value is collected from the caller, the market maker may inject
// counter-liquidity, and the position and market stake fields are updated
// atomically under the market lock.
func (l *Ledger) BuyPosition(ctx context.Context, userID string, marketID int64, option int, amount float64) error {
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
	if m.Ended(now) {
		return domain.ErrMarketEnded
	}
	if !domain.ValidOption(option) {
		return domain.ErrInvalidOption
	}
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}

	adj := l.maker.Rebalance(m, option, amount)

	if err := l.treasury.Collect(ctx, userID, amount); err != nil {
		return fmt.Errorf("ledger: collect stake: %w", err)
	}

	pos, err := l.positions.Get(ctx, marketID, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			l.refund(ctx, userID, amount)
			return fmt.Errorf("ledger: get position: %w", err)
		}
		pos = domain.Position{MarketID: marketID, UserID: userID}
	}
	posBefore := pos

	if option == domain.Option1 {
		pos.Option1Amount += amount
		m.Option1Stakes += amount
	} else {
		pos.Option2Amount += amount
		m.Option2Stakes += amount
	}
	m.Option1Stakes += adj.Option1Delta
	m.Option2Stakes += adj.Option2Delta
	m.Option1Injected += adj.Option1Delta
	m.Option2Injected += adj.Option2Delta
	m.TotalStaked += amount + adj.Injected
	m.UpdatedAt = now
	pos.UpdatedAt = now

	if err := l.positions.Upsert(ctx, pos); err != nil {
		l.refund(ctx, userID, amount)
		return fmt.Errorf("ledger: upsert position: %w", err)
	}
	if err := l.markets.Update(ctx, m); err != nil {
		// Roll the position back so the staking invariant survives a
		// half-applied write, then return the collected stake.
		if rbErr := l.positions.Upsert(ctx, posBefore); rbErr != nil {
			l.logger.ErrorContext(ctx, "position rollback failed",
				slog.Int64("market_id", marketID),
				slog.String("user_id", userID),
				slog.String("error", rbErr.Error()),
			)
		}
		l.refund(ctx, userID, amount)
		return fmt.Errorf("ledger: update market: %w", err)
	}

	l.invalidateOdds(ctx, marketID)

	l.logger.InfoContext(ctx, "position taken",
		slog.Int64("market_id", marketID),
		slog.String("user_id", userID),
		slog.Int("option", option),
		slog.Float64("amount", amount),
		slog.Float64("injected", adj.Injected),
	)
	l.rec.Record(ctx, domain.Event{
		Type:     domain.EventPositionTaken,
		MarketID: marketID,
		Actor:    userID,
		Payload:  map[string]any{"option": option, "amount": amount},
	})
	if adj.Injected > 0 {
		l.rec.Record(ctx, domain.Event{
			Type:     domain.EventLiquidityInjected,
			MarketID: marketID,
			Payload: map[string]any{
				"option1_delta": adj.Option1Delta,
				"option2_delta": adj.Option2Delta,
				"injected":      adj.Injected,
			},
		})
	}

	return nil
}

// GetMarket returns a market record.
func (l *Ledger) GetMarket(ctx context.Context, marketID int64) (domain.Market, error) {
	return l.markets.Get(ctx, marketID)
}

// ListMarkets returns markets matching the filter, newest first.
func (l *Ledger) ListMarkets(ctx context.Context, filter domain.MarketFilter, opts domain.ListOpts) ([]domain.Market, error) {
	ms, err := l.markets.List(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("ledger: list markets: %w", err)
	}
	return ms, nil
}

// CountMarkets returns the total number of markets.
func (l *Ledger) CountMarkets(ctx context.Context) (int64, error) {
	n, err := l.markets.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger: count markets: %w", err)
	}
	return n, nil
}

// GetUserPosition returns the caller's position in a market. A market with
// no stake from the user yields an empty position, not an error.
func (l *Ledger) GetUserPosition(ctx context.Context, marketID int64, userID string) (domain.Position, error) {
	if _, err := l.markets.Get(ctx, marketID); err != nil {
		return domain.Position{}, err
	}
	pos, err := l.positions.Get(ctx, marketID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Position{MarketID: marketID, UserID: userID}, nil
		}
		return domain.Position{}, fmt.Errorf("ledger: get position: %w", err)
	}
	return pos, nil
}

// ListMarketPositions returns every position in a market, ordered by user.
func (l *Ledger) ListMarketPositions(ctx context.Context, marketID int64) ([]domain.Position, error) {
	if _, err := l.markets.Get(ctx, marketID); err != nil {
		return nil, err
	}
	ps, err := l.positions.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list positions: %w", err)
	}
	return ps, nil
}

// GetMarketOdds returns the pricing view of a market, serving from the odds
// cache when possible and backfilling it on a miss.
func (l *Ledger) GetMarketOdds(ctx context.Context, marketID int64) (domain.MarketOdds, error) {
	if odds, err := l.odds.Get(ctx, marketID); err == nil {
		return odds, nil
	}

	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return domain.MarketOdds{}, err
	}
	odds := l.engine.Quote(m)

	if err := l.odds.Set(ctx, odds); err != nil {
		l.logger.WarnContext(ctx, "odds cache set failed",
			slog.Int64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
	return odds, nil
}

// PriceImpact returns the advisory impact of a hypothetical stake on an
// option's scoring-rule price. It never blocks the trade.
func (l *Ledger) PriceImpact(ctx context.Context, marketID int64, option int, amount float64) (float64, error) {
	if !domain.ValidOption(option) {
		return 0, domain.ErrInvalidOption
	}
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	m, err := l.markets.Get(ctx, marketID)
	if err != nil {
		return 0, err
	}
	return l.engine.PriceImpact(m, option, amount), nil
}
