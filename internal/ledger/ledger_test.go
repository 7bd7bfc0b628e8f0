package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openforecast/marketd/internal/access"
	"github.com/openforecast/marketd/internal/domain"
	"github.com/openforecast/marketd/internal/events"
	"github.com/openforecast/marketd/internal/pricing"
	"github.com/openforecast/marketd/internal/store/memory"
)

// fakeClock is a manually advanced Clock for deterministic deadline tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// passiveMaker never injects counter-liquidity, keeping stake arithmetic
// exact in lifecycle tests.
func passiveMaker() pricing.MakerConfig {
	return pricing.MakerConfig{
		ImpactThreshold:    math.Inf(1),
		PriceCeiling:       1.01,
		PriceFloor:         -0.01,
		CounterFraction:    0.3,
		CounterCap:         5,
		StakeFloorFraction: 0,
	}
}

type fixture struct {
	ledger    *Ledger
	clock     *fakeClock
	treasury  *memory.Treasury
	markets   *memory.MarketStore
	positions *memory.PositionStore
	access    *access.Controller
}

func newFixture(t *testing.T, makerCfg pricing.MakerConfig) *fixture {
	return newFixtureWith(t, makerCfg, nil)
}

// newFixtureWith lets a test wrap individual store ports, e.g. to make a
// backend write fail on demand.
func newFixtureWith(t *testing.T, makerCfg pricing.MakerConfig, wrap func(*Deps)) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := newFakeClock()

	markets := memory.NewMarketStore()
	positions := memory.NewPositionStore()
	disputes := memory.NewDisputeStore()
	treasury := memory.NewTreasury()

	rec := events.NewRecorder(memory.NewEventStore(), nil, clock, logger)
	accessCtl := access.NewController("owner", memory.NewAdminStore(), rec, logger)

	engine := pricing.NewEngine(pricing.DefaultEngineConfig())
	maker := pricing.NewMaker(engine, makerCfg)

	deps := Deps{
		Markets:   markets,
		Positions: positions,
		Disputes:  disputes,
		Treasury:  treasury,
		Engine:    engine,
		Maker:     maker,
		Access:    accessCtl,
		Locks:     memory.NewLockManager(),
		Odds:      memory.NewOddsCache(30*time.Second, clock),
		Clock:     clock,
		Recorder:  rec,
	}
	if wrap != nil {
		wrap(&deps)
	}
	led := New(DefaultConfig(), deps, logger)

	return &fixture{
		ledger:    led,
		clock:     clock,
		treasury:  treasury,
		markets:   markets,
		positions: positions,
		access:    accessCtl,
	}
}

func (f *fixture) fund(t *testing.T, userID string, amount float64) {
	t.Helper()
	require.NoError(t, f.treasury.Deposit(context.Background(), userID, amount))
}

func (f *fixture) openMarket(t *testing.T) domain.Market {
	t.Helper()
	m, err := f.ledger.CreateMarket(context.Background(),
		"creator", "Will it rain tomorrow?", "Yes", "No", time.Hour)
	require.NoError(t, err)
	return m
}

// --- CreateMarket ---

func TestCreateMarket(t *testing.T) {
	f := newFixture(t, passiveMaker())
	m := f.openMarket(t)

	assert.Equal(t, int64(1), m.ID)
	assert.Equal(t, "creator", m.Creator)
	assert.Equal(t, f.clock.Now().Add(time.Hour), m.EndTime)
	assert.Equal(t, domain.WinnerUnset, m.Winner)
	assert.False(t, m.Resolved)

	n, err := f.ledger.CountMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreateMarket_InvalidDuration(t *testing.T) {
	f := newFixture(t, passiveMaker())
	_, err := f.ledger.CreateMarket(context.Background(), "creator", "q", "a", "b", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.ledger.CreateMarket(context.Background(), "creator", "q", "a", "b", -time.Minute)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)
}

// --- BuyPosition ---

func TestBuyPosition(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 30))

	pos, err := f.ledger.GetUserPosition(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 30.0, pos.Option1Amount)
	assert.Zero(t, pos.Option2Amount)

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.Option1Stakes)
	assert.Equal(t, 30.0, got.TotalStaked)

	bal, err := f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 70.0, bal)
}

func TestBuyPosition_AccumulatesAcrossTrades(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option2, 5))
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))

	pos, err := f.ledger.GetUserPosition(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, 20.0, pos.Option1Amount)
	assert.Equal(t, 5.0, pos.Option2Amount)

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, got.TotalStaked, got.Option1Stakes+got.Option2Stakes)
}

func TestBuyPosition_Validation(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	err := f.ledger.BuyPosition(ctx, "alice", m.ID, 3, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	err = f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = f.ledger.BuyPosition(ctx, "alice", 999, domain.Option1, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBuyPosition_MarketEnded(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	f.clock.Advance(time.Hour)
	err := f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10)
	assert.ErrorIs(t, err, domain.ErrMarketEnded)
}

func TestBuyPosition_InsufficientFunds(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 5)

	err := f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The failed trade must leave no trace on the book.
	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalStaked)
}

func TestBuyPosition_MakerInjectsCounterLiquidity(t *testing.T) {
	f := newFixture(t, pricing.DefaultMakerConfig())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	// First trade into an empty book: 0.3×10 = 3 market-owned units land on
	// the opposite side.
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.Option1Stakes, 1e-9)
	assert.InDelta(t, 3.0, got.Option2Stakes, 1e-9)
	assert.InDelta(t, 13.0, got.TotalStaked, 1e-9)
	assert.InDelta(t, 3.0, got.Option2Injected, 1e-9)
	assert.Zero(t, got.Option1Injected)

	// Net pools see user money only.
	assert.InDelta(t, 10.0, got.NetStakes(domain.Option1), 1e-9)
	assert.Zero(t, got.NetStakes(domain.Option2))

	// Displayed book stays balanced: option stakes always sum to the total.
	assert.InDelta(t, got.TotalStaked, got.Option1Stakes+got.Option2Stakes, 1e-9)

	// Only the user's stake left their balance.
	bal, err := f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 90.0, bal)
}

func TestBuyPosition_MakerSkewsDisplayedOddsNotSettlement(t *testing.T) {
	f := newFixture(t, pricing.DefaultMakerConfig())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 10)
	f.fund(t, "bob", 10)

	// User money splits 3:1, which alone would display as 75/25. Both
	// trades exceed the 5% impact threshold, so the maker counters each:
	// 0.3×3 = 0.9 to option 2, then 0.3×1 = 0.3 to option 1.
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 3))
	require.NoError(t, f.ledger.BuyPosition(ctx, "bob", m.ID, domain.Option2, 1))

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.3, got.Option1Stakes, 1e-9)
	assert.InDelta(t, 1.9, got.Option2Stakes, 1e-9)
	assert.InDelta(t, 5.2, got.TotalStaked, 1e-9)
	assert.InDelta(t, 0.3, got.Option1Injected, 1e-9)
	assert.InDelta(t, 0.9, got.Option2Injected, 1e-9)

	// Displayed odds reflect the injected book: round(100×3.3/5.2) = 63.
	odds, err := f.ledger.GetMarketOdds(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 63, odds.Option1Odds)
	assert.Equal(t, 37, odds.Option2Odds)

	// Settlement ignores the injections: net pools stay 3:1.
	assert.InDelta(t, 3.0, got.NetStakes(domain.Option1), 1e-9)
	assert.InDelta(t, 1.0, got.NetStakes(domain.Option2), 1e-9)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	f.clock.Advance(24 * time.Hour)

	// 3 + 3×1/3 = 4, exactly the 75/25 split of user money.
	payout, err := f.ledger.ClaimRewards(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, payout, 1e-9)
}

// flakyMarketStore fails Update a configured number of times, then delegates.
type flakyMarketStore struct {
	domain.MarketStore
	failUpdates int
}

func (s *flakyMarketStore) Update(ctx context.Context, m domain.Market) error {
	if s.failUpdates > 0 {
		s.failUpdates--
		return errors.New("storage offline")
	}
	return s.MarketStore.Update(ctx, m)
}

// flakyPositionStore fails Upsert a configured number of times, then delegates.
type flakyPositionStore struct {
	domain.PositionStore
	failUpserts int
}

func (s *flakyPositionStore) Upsert(ctx context.Context, p domain.Position) error {
	if s.failUpserts > 0 {
		s.failUpserts--
		return errors.New("storage offline")
	}
	return s.PositionStore.Upsert(ctx, p)
}

func TestBuyPosition_RefundsStakeWhenMarketWriteFails(t *testing.T) {
	var flaky *flakyMarketStore
	f := newFixtureWith(t, passiveMaker(), func(d *Deps) {
		flaky = &flakyMarketStore{MarketStore: d.Markets}
		d.Markets = flaky
	})
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	flaky.failUpdates = 1
	err := f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 30)
	require.Error(t, err)

	// The failed trade leaves no trace on the book and the collected stake
	// comes back in full.
	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalStaked)
	pos, err := f.ledger.GetUserPosition(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Zero(t, pos.Option1Amount)
	bal, err := f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 100.0, bal)

	// Once the store recovers the same trade goes through.
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 30))
	bal, err = f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 70.0, bal)
}

func TestBuyPosition_RefundsStakeWhenPositionWriteFails(t *testing.T) {
	var flaky *flakyPositionStore
	f := newFixtureWith(t, passiveMaker(), func(d *Deps) {
		flaky = &flakyPositionStore{PositionStore: d.Positions}
		d.Positions = flaky
	})
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 100)

	flaky.failUpserts = 1
	err := f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 30)
	require.Error(t, err)

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalStaked)
	bal, err := f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 100.0, bal)
}

// --- ResolveMarket ---

func TestResolveMarket(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
	assert.Equal(t, domain.Option1, got.Winner)
	require.NotNil(t, got.DisputeEndTime)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), *got.DisputeEndTime)

	inDispute, err := f.ledger.IsInDisputePeriod(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, inDispute)
}

func TestResolveMarket_OnlyAdmin(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.clock.Advance(time.Hour)

	err := f.ledger.ResolveMarket(ctx, "mallory", m.ID, domain.Option1)
	assert.ErrorIs(t, err, domain.ErrOnlyAdmin)

	// A delegated admin may resolve.
	require.NoError(t, f.access.AddAdmin(ctx, "owner", "judge"))
	assert.NoError(t, f.ledger.ResolveMarket(ctx, "judge", m.ID, domain.Option1))
}

func TestResolveMarket_Lifecycle(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)

	err := f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1)
	assert.ErrorIs(t, err, domain.ErrMarketNotEnded)

	f.clock.Advance(time.Hour)
	err = f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.WinnerUnset)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	err = f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option2)
	assert.ErrorIs(t, err, domain.ErrMarketAlreadyResolved)
}

// --- ClaimRewards ---

func TestClaimRewards_ProRataPayout(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 50)
	f.fund(t, "bob", 50)
	f.fund(t, "carol", 50)

	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 30))
	require.NoError(t, f.ledger.BuyPosition(ctx, "bob", m.ID, domain.Option2, 10))
	require.NoError(t, f.ledger.BuyPosition(ctx, "carol", m.ID, domain.Option1, 10))

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	f.clock.Advance(24 * time.Hour)

	// Winning pool 40, losing pool 10.
	payout, err := f.ledger.ClaimRewards(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 37.5, payout, 1e-9)

	payout, err = f.ledger.ClaimRewards(ctx, "carol", m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, payout, 1e-9)

	// Payouts conserve the pot: 37.5 + 12.5 == 50 total user stake.
	bal, err := f.treasury.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.InDelta(t, 57.5, bal, 1e-9)
}

func TestClaimRewards_GatedByDisputeWindow(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 50)
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))

	_, err := f.ledger.ClaimRewards(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, domain.ErrMarketNotResolved)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))

	_, err = f.ledger.ClaimRewards(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, domain.ErrStillInDisputePeriod)

	ok, err := f.ledger.CanClaimRewards(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	f.clock.Advance(24 * time.Hour)
	ok, err = f.ledger.CanClaimRewards(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.ledger.ClaimRewards(ctx, "alice", m.ID)
	assert.NoError(t, err)
}

func TestClaimRewards_DoubleClaim(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 50)
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	f.clock.Advance(24 * time.Hour)

	_, err := f.ledger.ClaimRewards(ctx, "alice", m.ID)
	require.NoError(t, err)

	_, err = f.ledger.ClaimRewards(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
}

func TestClaimRewards_NoWinningPosition(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 50)
	f.fund(t, "bob", 50)
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))
	require.NoError(t, f.ledger.BuyPosition(ctx, "bob", m.ID, domain.Option2, 10))

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	f.clock.Advance(24 * time.Hour)

	// bob backed the loser; carol never staked.
	_, err := f.ledger.ClaimRewards(ctx, "bob", m.ID)
	assert.ErrorIs(t, err, domain.ErrNoWinningPosition)

	_, err = f.ledger.ClaimRewards(ctx, "carol", m.ID)
	assert.ErrorIs(t, err, domain.ErrNoWinningPosition)
}

func TestClaimRewards_ExcludesInjectedLiquidity(t *testing.T) {
	f := newFixture(t, pricing.DefaultMakerConfig())
	ctx := context.Background()
	m := f.openMarket(t)
	f.fund(t, "alice", 50)
	f.fund(t, "bob", 50)

	// Both trades trigger a counter-injection of 3 on the opposite side,
	// so the displayed book is 13/13 while the net pools are 10/10.
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 10))
	require.NoError(t, f.ledger.BuyPosition(ctx, "bob", m.ID, domain.Option2, 10))

	got, err := f.ledger.GetMarket(ctx, m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 13.0, got.Option1Stakes, 1e-9)
	assert.InDelta(t, 13.0, got.Option2Stakes, 1e-9)
	assert.InDelta(t, 3.0, got.Option1Injected, 1e-9)
	assert.InDelta(t, 3.0, got.Option2Injected, 1e-9)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m.ID, domain.Option1))
	f.clock.Advance(24 * time.Hour)

	// Payout works on net pools (10 vs 10), not the displayed 13/13 book:
	// alice gets her 10 back plus bob's net 10.
	payout, err := f.ledger.ClaimRewards(ctx, "alice", m.ID)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, payout, 1e-9)
}

// --- Queries ---

func TestGetUserPosition_EmptyWhenUnstaked(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)

	pos, err := f.ledger.GetUserPosition(ctx, m.ID, "nobody")
	require.NoError(t, err)
	assert.Equal(t, m.ID, pos.MarketID)
	assert.Equal(t, "nobody", pos.UserID)
	assert.Zero(t, pos.Option1Amount)

	_, err = f.ledger.GetUserPosition(ctx, 999, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMarkets_Filter(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m1 := f.openMarket(t)
	f.openMarket(t)

	f.clock.Advance(time.Hour)
	require.NoError(t, f.ledger.ResolveMarket(ctx, "owner", m1.ID, domain.Option1))

	open, err := f.ledger.ListMarkets(ctx, domain.MarketFilterOpen, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.False(t, open[0].Resolved)

	resolved, err := f.ledger.ListMarkets(ctx, domain.MarketFilterResolved, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, m1.ID, resolved[0].ID)

	all, err := f.ledger.ListMarkets(ctx, domain.MarketFilterAll, domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetMarketOdds(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)

	odds, err := f.ledger.GetMarketOdds(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, odds.Option1Odds)
	assert.Equal(t, 0.5, odds.Option1Price)

	// Trading invalidates the cached quote.
	f.fund(t, "alice", 100)
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option1, 60))
	require.NoError(t, f.ledger.BuyPosition(ctx, "alice", m.ID, domain.Option2, 40))

	odds, err = f.ledger.GetMarketOdds(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, odds.Option1Odds)
	assert.Equal(t, 40, odds.Option2Odds)
}

func TestPriceImpact_Validation(t *testing.T) {
	f := newFixture(t, passiveMaker())
	ctx := context.Background()
	m := f.openMarket(t)

	_, err := f.ledger.PriceImpact(ctx, m.ID, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidOption)

	_, err = f.ledger.PriceImpact(ctx, m.ID, domain.Option1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	impact, err := f.ledger.PriceImpact(ctx, m.ID, domain.Option1, 10)
	require.NoError(t, err)
	assert.Greater(t, impact, 0.0)
}
