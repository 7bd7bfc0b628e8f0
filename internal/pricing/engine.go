// Package pricing computes displayed odds and prices from market stake
// totals: settlement-fair ratio odds and a liquidity-sensitive scoring-rule
// price with a bid/ask spread, plus the advisory price-impact signal used by
// the market maker.
package pricing

import (
	"math"

	"github.com/openforecast/marketd/internal/domain"
)

// Engine parameters. The defaults implement the standard policy; they are
// exposed so operators can tune liquidity sensitivity per deployment.
type EngineConfig struct {
	// MinLiquidity is the floor for the scoring-rule liquidity parameter b.
	MinLiquidity float64
	// LiquidityFraction scales b with total staked value.
	LiquidityFraction float64
	// MinSpread and MaxSpread clamp the bid/ask spread.
	MinSpread float64
	MaxSpread float64
	// MinPrice and MaxPrice clamp quoted bid/ask prices.
	MinPrice float64
	MaxPrice float64
}

// DefaultEngineConfig returns the standard pricing parameters.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinLiquidity:      10,
		LiquidityFraction: 0.1,
		MinSpread:         0.01,
		MaxSpread:         0.10,
		MinPrice:          0.01,
		MaxPrice:          0.99,
	}
}

// Engine computes odds and prices from market stake totals. It only reads
// market state; all mutations stay with the ledger.
type Engine struct {
	cfg EngineConfig
}

// NewEngine creates an Engine with the given parameters.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// RatioOdds returns the settlement-fair percentage odds for both options,
// rounded to integers. An empty market quotes 50/50.
func (e *Engine) RatioOdds(m domain.Market) (option1, option2 int) {
	if m.TotalStaked <= 0 {
		return 50, 50
	}
	option1 = int(math.Round(100 * m.Option1Stakes / m.TotalStaked))
	option2 = int(math.Round(100 * m.Option2Stakes / m.TotalStaked))
	return option1, option2
}

// liquidity returns the scoring-rule liquidity parameter b for the market.
func (e *Engine) liquidity(m domain.Market) float64 {
	return math.Max(e.cfg.MinLiquidity, m.TotalStaked*e.cfg.LiquidityFraction)
}

// Prices returns the scoring-rule prices of both options. The price is the
// softmax of per-option stakes scaled by the liquidity parameter, computed
// with the log-sum-exp guard for numerical stability. An empty market prices
// both options at 0.50.
func (e *Engine) Prices(m domain.Market) (option1, option2 float64) {
	if m.TotalStaked <= 0 {
		return 0.5, 0.5
	}
	b := e.liquidity(m)
	maxStake := math.Max(m.Option1Stakes, m.Option2Stakes)
	exp1 := math.Exp((m.Option1Stakes - maxStake) / b)
	exp2 := math.Exp((m.Option2Stakes - maxStake) / b)
	option1 = exp1 / (exp1 + exp2)
	return option1, 1 - option1
}

// Spread returns the bid/ask spread for the market, tightening as liquidity
// accumulates.
func (e *Engine) Spread(m domain.Market) float64 {
	s := 2 / math.Sqrt(m.TotalStaked+1)
	return math.Min(e.cfg.MaxSpread, math.Max(e.cfg.MinSpread, s))
}

// Quote assembles the full pricing view of a market: ratio odds, scoring
// prices, spread, and clamped bid/ask quotes per option.
func (e *Engine) Quote(m domain.Market) domain.MarketOdds {
	o1, o2 := e.RatioOdds(m)
	p1, p2 := e.Prices(m)
	spread := e.Spread(m)
	half := spread / 2

	return domain.MarketOdds{
		MarketID:     m.ID,
		Option1Odds:  o1,
		Option2Odds:  o2,
		Option1Price: p1,
		Option2Price: p2,
		Spread:       spread,
		Option1Bid:   math.Max(e.cfg.MinPrice, p1-half),
		Option1Ask:   math.Min(e.cfg.MaxPrice, p1+half),
		Option2Bid:   math.Max(e.cfg.MinPrice, p2-half),
		Option2Ask:   math.Min(e.cfg.MaxPrice, p2+half),
	}
}

// PriceOf returns the scoring-rule price of a single option.
func (e *Engine) PriceOf(m domain.Market, option int) float64 {
	p1, p2 := e.Prices(m)
	if option == domain.Option1 {
		return p1
	}
	return p2
}

// PriceImpact returns the relative change in an option's scoring-rule price
// caused by a simulated stake of amount on that option. It is an advisory
// signal only; it never blocks a trade.
func (e *Engine) PriceImpact(m domain.Market, option int, amount float64) float64 {
	before := e.PriceOf(m, option)
	after := e.PriceOf(applyStake(m, option, amount), option)
	if before == 0 {
		return 0
	}
	return math.Abs(after-before) / before
}

// applyStake returns a copy of the market with amount added to the given
// option's stake and the total.
func applyStake(m domain.Market, option int, amount float64) domain.Market {
	if option == domain.Option1 {
		m.Option1Stakes += amount
	} else {
		m.Option2Stakes += amount
	}
	m.TotalStaked += amount
	return m
}
