package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// MarketFilter narrows market list queries by lifecycle state.
type MarketFilter string

const (
	MarketFilterAll      MarketFilter = ""
	MarketFilterOpen     MarketFilter = "open"
	MarketFilterResolved MarketFilter = "resolved"
)

// MarketStore persists market records. Create assigns the next monotonic
// market ID; Update replaces the full record.
type MarketStore interface {
	Create(ctx context.Context, m Market) (int64, error)
	Get(ctx context.Context, id int64) (Market, error)
	Update(ctx context.Context, m Market) error
	List(ctx context.Context, filter MarketFilter, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// PositionStore persists per-user positions keyed by (market, user).
type PositionStore interface {
	Get(ctx context.Context, marketID int64, userID string) (Position, error)
	Upsert(ctx context.Context, p Position) error
	ListByMarket(ctx context.Context, marketID int64) ([]Position, error)
}

// DisputeStore persists dispute records keyed by (market, index).
type DisputeStore interface {
	Append(ctx context.Context, d Dispute) error
	Get(ctx context.Context, marketID int64, index int) (Dispute, error)
	Update(ctx context.Context, d Dispute) error
	ListByMarket(ctx context.Context, marketID int64) ([]Dispute, error)
	CountByMarket(ctx context.Context, marketID int64) (int, error)
}

// AdminStore persists the mutable admin identity set. The owner is not
// stored here; ownership is a configuration-level invariant.
type AdminStore interface {
	Add(ctx context.Context, identity string) error
	Remove(ctx context.Context, identity string) error
	IsAdmin(ctx context.Context, identity string) (bool, error)
	List(ctx context.Context) ([]string, error)
}

// EventStore persists an append-only ledger event log for indexers.
type EventStore interface {
	Append(ctx context.Context, e Event) error
	ListByMarket(ctx context.Context, marketID int64, opts ListOpts) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Treasury moves value between participants and the ledger. Collect debits
// the attached stake or bond from a participant; Pay credits winnings or
// refunds back. Funding participant accounts is the wallet collaborator's
// concern, exposed here only for operational tooling.
type Treasury interface {
	Collect(ctx context.Context, userID string, amount float64) error
	Pay(ctx context.Context, userID string, amount float64) error
	Deposit(ctx context.Context, userID string, amount float64) error
	Balance(ctx context.Context, userID string) (float64, error)
}

// MarketOdds is the computed pricing view of a market: settlement-fair ratio
// odds plus the liquidity-sensitive scoring-rule prices and bid/ask spread.
type MarketOdds struct {
	MarketID     int64   `json:"market_id"`
	Option1Odds  int     `json:"option1_odds"`
	Option2Odds  int     `json:"option2_odds"`
	Option1Price float64 `json:"option1_price"`
	Option2Price float64 `json:"option2_price"`
	Spread       float64 `json:"spread"`
	Option1Bid   float64 `json:"option1_bid"`
	Option1Ask   float64 `json:"option1_ask"`
	Option2Bid   float64 `json:"option2_bid"`
	Option2Ask   float64 `json:"option2_ask"`
}

// OddsCache provides fast access to computed market odds.
type OddsCache interface {
	Set(ctx context.Context, odds MarketOdds) error
	Get(ctx context.Context, marketID int64) (MarketOdds, error)
	Invalidate(ctx context.Context, marketID int64) error
}

// EventBus provides pub/sub fan-out of ledger events to live observers.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// LockManager serializes mutating operations per market. Acquire blocks
// until the lock is available or the context is cancelled; the returned
// unlock function is safe to call more than once.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
