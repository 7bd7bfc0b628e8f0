package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openforecast/marketd/internal/domain"
)

func market(o1, o2 float64) domain.Market {
	return domain.Market{
		ID:            1,
		Option1Stakes: o1,
		Option2Stakes: o2,
		TotalStaked:   o1 + o2,
	}
}

func TestRatioOdds_EmptyMarket(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	o1, o2 := e.RatioOdds(market(0, 0))
	assert.Equal(t, 50, o1)
	assert.Equal(t, 50, o2)
}

func TestRatioOdds_Proportional(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	o1, o2 := e.RatioOdds(market(75, 25))
	assert.Equal(t, 75, o1)
	assert.Equal(t, 25, o2)
}

func TestRatioOdds_Rounds(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// 1/3 → 33.33%, 2/3 → 66.67%
	o1, o2 := e.RatioOdds(market(1, 2))
	assert.Equal(t, 33, o1)
	assert.Equal(t, 67, o2)
}

func TestPrices_EmptyMarket(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	p1, p2 := e.Prices(market(0, 0))
	assert.Equal(t, 0.5, p1)
	assert.Equal(t, 0.5, p2)
}

func TestPrices_BalancedMarket(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	p1, p2 := e.Prices(market(50, 50))
	assert.InDelta(t, 0.5, p1, 1e-12)
	assert.InDelta(t, 0.5, p2, 1e-12)
}

func TestPrices_Softmax(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// total=100 → b=max(10, 10)=10; diff=20 → p1 = 1/(1+e^-2)
	p1, p2 := e.Prices(market(60, 40))
	assert.InDelta(t, 0.880797, p1, 1e-5)
	assert.InDelta(t, 0.119203, p2, 1e-5)
}

func TestPrices_SumToOne(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	for _, m := range []domain.Market{
		market(1, 99),
		market(33, 67),
		market(500, 1),
	} {
		p1, p2 := e.Prices(m)
		assert.InDelta(t, 1.0, p1+p2, 1e-12)
	}
}

func TestPrices_LargeStakesStayFinite(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// Without the log-sum-exp guard e^(1e9/b) would overflow.
	p1, p2 := e.Prices(market(1e9, 1))
	assert.False(t, math.IsNaN(p1))
	assert.False(t, math.IsInf(p1, 0))
	assert.Greater(t, p1, 0.999)
	assert.GreaterOrEqual(t, p2, 0.0)
}

func TestPrices_MoreStakeMeansHigherPrice(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	p1, _ := e.Prices(market(60, 40))
	q1, _ := e.Prices(market(70, 40))
	assert.Greater(t, q1, p1)
}

func TestSpread_ClampedToMax(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// Empty market: 2/sqrt(1) = 2 → clamped to MaxSpread.
	assert.Equal(t, 0.10, e.Spread(market(0, 0)))
}

func TestSpread_ClampedToMin(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// total=50000: 2/sqrt(50001) ≈ 0.0089 → clamped to MinSpread.
	assert.Equal(t, 0.01, e.Spread(market(25000, 25000)))
}

func TestSpread_TightensWithLiquidity(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// total=1599 → 2/sqrt(1600) = 0.05
	assert.InDelta(t, 0.05, e.Spread(market(800, 799)), 1e-9)
	wide := e.Spread(market(200, 199))
	narrow := e.Spread(market(2000, 1999))
	assert.Greater(t, wide, narrow)
}

func TestQuote_ClampsBidAsk(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// Heavily one-sided book: p1 ≈ 0.9933, spread=0.10.
	odds := e.Quote(market(75, 25))

	assert.Equal(t, 75, odds.Option1Odds)
	assert.Equal(t, 25, odds.Option2Odds)
	assert.InDelta(t, 0.993307, odds.Option1Price, 1e-5)

	// Ask clipped at MaxPrice, opposite bid clipped at MinPrice.
	assert.Equal(t, 0.99, odds.Option1Ask)
	assert.Equal(t, 0.01, odds.Option2Bid)
	assert.InDelta(t, 0.943307, odds.Option1Bid, 1e-5)
	assert.InDelta(t, 0.056693, odds.Option2Ask, 1e-5)
}

func TestQuote_CarriesMarketID(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	m := market(10, 10)
	m.ID = 42
	assert.Equal(t, int64(42), e.Quote(m).MarketID)
}

func TestPriceOf_SelectsOption(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	m := market(60, 40)
	p1, p2 := e.Prices(m)
	assert.Equal(t, p1, e.PriceOf(m, domain.Option1))
	assert.Equal(t, p2, e.PriceOf(m, domain.Option2))
}

func TestPriceImpact_EmptyMarket(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// before=0.5; after: b=10, diff=10 → 1/(1+e^-1) ≈ 0.731059
	impact := e.PriceImpact(market(0, 0), domain.Option1, 10)
	assert.InDelta(t, 0.462117, impact, 1e-5)
}

func TestPriceImpact_ShrinksWithLiquidity(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	thin := e.PriceImpact(market(10, 10), domain.Option1, 10)
	deep := e.PriceImpact(market(1000, 1000), domain.Option1, 10)
	assert.Greater(t, thin, deep)
}

func TestPriceImpact_Advisory(t *testing.T) {
	e := NewEngine(DefaultEngineConfig())
	// Zero stake moves nothing.
	assert.Equal(t, 0.0, e.PriceImpact(market(50, 50), domain.Option2, 0))
}
