package pricing

import (
	"github.com/openforecast/marketd/internal/domain"
)

// MakerConfig holds the liquidity-balancing policy parameters.
type MakerConfig struct {
	// ImpactThreshold triggers counter-liquidity when a trade moves the
	// staked option's price by more than this fraction.
	ImpactThreshold float64
	// PriceCeiling and PriceFloor trigger counter-liquidity when the
	// post-trade price leaves this band.
	PriceCeiling float64
	PriceFloor   float64
	// CounterFraction sizes the injection relative to the trade, capped at
	// CounterCap units.
	CounterFraction float64
	CounterCap      float64
	// StakeFloorFraction is the minimum share of total stake each option
	// must hold after a trade.
	StakeFloorFraction float64
}

// DefaultMakerConfig returns the standard rebalancing policy.
func DefaultMakerConfig() MakerConfig {
	return MakerConfig{
		ImpactThreshold:    0.05,
		PriceCeiling:       0.85,
		PriceFloor:         0.15,
		CounterFraction:    0.3,
		CounterCap:         5.0,
		StakeFloorFraction: 0.05,
	}
}

// Adjustment is the market-owned liquidity a rebalance injects per option.
// The ledger applies it to both the option stakes and the injected totals;
// injected liquidity shifts displayed prices but is never paid out.
type Adjustment struct {
	Option1Delta float64 `json:"option1_delta"`
	Option2Delta float64 `json:"option2_delta"`
	Injected     float64 `json:"injected"`
}

// Maker is the post-trade liquidity-balancing policy. It only proposes stake
// deltas; applying them atomically is the ledger's job.
type Maker struct {
	engine *Engine
	cfg    MakerConfig
}

// NewMaker creates a Maker using the given pricing engine.
func NewMaker(engine *Engine, cfg MakerConfig) *Maker {
	return &Maker{engine: engine, cfg: cfg}
}

// Rebalance evaluates a trade of amount on option against the pre-trade
// market and returns the counter-liquidity to inject. Two rules apply in
// order: a counter-injection to the opposite option when the trade causes
// excessive impact or an extreme price, then a floor top-up so neither
// option's stake falls below the configured share of the total.
func (mm *Maker) Rebalance(pre domain.Market, option int, amount float64) Adjustment {
	var adj Adjustment

	impact := mm.engine.PriceImpact(pre, option, amount)
	post := applyStake(pre, option, amount)
	price := mm.engine.PriceOf(post, option)

	if impact > mm.cfg.ImpactThreshold || price > mm.cfg.PriceCeiling || price < mm.cfg.PriceFloor {
		counter := mm.cfg.CounterFraction * amount
		if counter > mm.cfg.CounterCap {
			counter = mm.cfg.CounterCap
		}
		opposite := domain.Option1
		if option == domain.Option1 {
			opposite = domain.Option2
		}
		adj = addDelta(adj, opposite, counter)
		post = applyStake(post, opposite, counter)
	}

	// Stake floor: top up whichever side fell below its minimum share.
	floor := mm.cfg.StakeFloorFraction * post.TotalStaked
	if shortfall := floor - post.Option1Stakes; shortfall > 0 {
		adj = addDelta(adj, domain.Option1, shortfall)
	}
	if shortfall := floor - post.Option2Stakes; shortfall > 0 {
		adj = addDelta(adj, domain.Option2, shortfall)
	}

	return adj
}

func addDelta(adj Adjustment, option int, amount float64) Adjustment {
	if option == domain.Option1 {
		adj.Option1Delta += amount
	} else {
		adj.Option2Delta += amount
	}
	adj.Injected += amount
	return adj
}
