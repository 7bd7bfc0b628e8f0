package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openforecast/marketd/internal/domain"
)

// stoppedClock is a Clock pinned to a settable instant.
type stoppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stoppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stoppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- MarketStore ---

func TestMarketStore_CreateAssignsSequentialIDs(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()

	id1, err := s.Create(ctx, domain.Market{Question: "a"})
	require.NoError(t, err)
	id2, err := s.Create(ctx, domain.Market{Question: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	m, err := s.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "a", m.Question)

	_, err = s.Get(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarketStore_UpdateUnknownMarket(t *testing.T) {
	s := NewMarketStore()
	err := s.Update(context.Background(), domain.Market{ID: 42})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarketStore_ListPagination(t *testing.T) {
	s := NewMarketStore()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Create(ctx, domain.Market{})
		require.NoError(t, err)
	}

	// Newest first.
	page, err := s.List(ctx, domain.MarketFilterAll, domain.ListOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(5), page[0].ID)
	assert.Equal(t, int64(4), page[1].ID)

	page, err = s.List(ctx, domain.MarketFilterAll, domain.ListOpts{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].ID)

	page, err = s.List(ctx, domain.MarketFilterAll, domain.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, page)
}

// --- Treasury ---

func TestTreasury_CollectRequiresFunds(t *testing.T) {
	tr := NewTreasury()
	ctx := context.Background()

	err := tr.Collect(ctx, "alice", 5)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.NoError(t, tr.Deposit(ctx, "alice", 10))
	require.NoError(t, tr.Collect(ctx, "alice", 7))

	bal, err := tr.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3.0, bal)

	err = tr.Collect(ctx, "alice", 4)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestTreasury_PayCredits(t *testing.T) {
	tr := NewTreasury()
	ctx := context.Background()

	require.NoError(t, tr.Pay(ctx, "bob", 12.5))
	bal, err := tr.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 12.5, bal)
}

// --- LockManager ---

func TestLockManager_SerializesHolders(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "market:1", time.Second)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u2, err := lm.Acquire(ctx, "market:1", time.Second)
		assert.NoError(t, err)
		u2()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never completed after unlock")
	}
}

func TestLockManager_IndependentKeys(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	unlock1, err := lm.Acquire(ctx, "market:1", time.Second)
	require.NoError(t, err)
	defer unlock1()

	unlock2, err := lm.Acquire(ctx, "market:2", time.Second)
	require.NoError(t, err)
	unlock2()
}

func TestLockManager_AcquireHonorsContext(t *testing.T) {
	lm := NewLockManager()

	unlock, err := lm.Acquire(context.Background(), "market:1", time.Second)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = lm.Acquire(ctx, "market:1", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockManager_UnlockIsIdempotent(t *testing.T) {
	lm := NewLockManager()
	ctx := context.Background()

	unlock, err := lm.Acquire(ctx, "market:1", time.Second)
	require.NoError(t, err)
	unlock()
	unlock()

	// The lock is free again after the double unlock.
	unlock2, err := lm.Acquire(ctx, "market:1", time.Second)
	require.NoError(t, err)
	unlock2()
}

// --- EventBus ---

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, "ch:markets")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "ch:markets", []byte(`{"type":"market_created"}`)))
	require.NoError(t, bus.Publish(ctx, "ch:disputes", []byte(`{"type":"market_disputed"}`)))

	select {
	case msg := <-sub:
		assert.JSONEq(t, `{"type":"market_created"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	// The dispute-channel message never reaches the markets subscriber.
	select {
	case msg := <-sub:
		t.Fatalf("unexpected message: %s", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestEventBus_WildcardSubscription(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, "ch:*")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "ch:claims", []byte("a")))
	require.NoError(t, bus.Publish(ctx, "other", []byte("b")))

	select {
	case msg := <-sub:
		assert.Equal(t, "a", string(msg))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestEventBus_CancelClosesSubscription(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, "ch:markets")
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-sub:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("subscription channel never closed")
	}
}

// --- OddsCache ---

func TestOddsCache_ExpiresEntries(t *testing.T) {
	clock := &stoppedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewOddsCache(30*time.Second, clock)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, domain.MarketOdds{MarketID: 1, Option1Odds: 60}))

	odds, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60, odds.Option1Odds)

	clock.Advance(31 * time.Second)
	_, err = cache.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOddsCache_Invalidate(t *testing.T) {
	clock := &stoppedClock{now: time.Now()}
	cache := NewOddsCache(time.Minute, clock)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, domain.MarketOdds{MarketID: 1}))
	require.NoError(t, cache.Invalidate(ctx, 1))
	_, err := cache.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- EventStore ---

func TestEventStore_ListByMarket(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()

	for i, typ := range []domain.EventType{
		domain.EventMarketCreated,
		domain.EventPositionTaken,
		domain.EventMarketResolved,
	} {
		require.NoError(t, s.Append(ctx, domain.Event{
			ID:       string(rune('a' + i)),
			Type:     typ,
			MarketID: 1,
		}))
	}
	require.NoError(t, s.Append(ctx, domain.Event{ID: "x", Type: domain.EventMarketCreated, MarketID: 2}))

	evs, err := s.ListByMarket(ctx, 1, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, domain.EventMarketCreated, evs[0].Type)
	assert.Equal(t, domain.EventMarketResolved, evs[2].Type)

	page, err := s.ListByMarket(ctx, 1, domain.ListOpts{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, domain.EventPositionTaken, page[0].Type)
}

func TestEventStore_ListRecent(t *testing.T) {
	s := NewEventStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, domain.Event{ID: "1", Type: domain.EventMarketCreated}))
	require.NoError(t, s.Append(ctx, domain.Event{ID: "2", Type: domain.EventPositionTaken}))

	evs, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "2", evs[0].ID)
	assert.Equal(t, "1", evs[1].ID)
}
