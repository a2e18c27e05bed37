package execution

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

func testQuote() *types.MarketQuote {
	return &types.MarketQuote{
		MarketSnapshot: types.MarketSnapshot{
			Symbol:       "RELIANCE",
			Bid:          99.95,
			Ask:          100.05,
			LTP:          100.00,
			Volume:       1000,
			Volatility:   2.0,
			AvgTradeSize: 5000,
		},
		Spread: 0.10,
	}
}

func marketOrder(quantity int64) *types.Order {
	return &types.Order{
		OrderID:   "TEST-ORDER",
		Symbol:    "RELIANCE",
		Direction: types.DirectionBuy,
		OrderType: types.OrderTypeMarket,
		Quantity:  quantity,
		Status:    types.StatusWorking,
	}
}

func algoOrder(algo string, quantity int64, params types.AlgoParams) *types.Order {
	encoded, _ := json.Marshal(params)
	order := marketOrder(quantity)
	order.AlgoType = algo
	order.AlgoParams = string(encoded)
	return order
}

func noon() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
}

func TestDirect_MarketBuyPaysSlippage(t *testing.T) {
	d := &Direct{rng: rand.New(rand.NewSource(1))}
	order := marketOrder(10000)
	quote := testQuote()

	fill, ok := d.Propose(order, quote)
	require.True(t, ok, "market orders always fill while working")

	// Slippage for 2x average trade size at 2% vol: 100 * 0.02 * sqrt(2) * 0.01.
	assert.GreaterOrEqual(t, fill.Price, quote.Ask, "buy must pay at least the ask")
	assert.InDelta(t, 100.08, fill.Price, 0.001)

	// Tick fill between 10% and 50% of the average trade size.
	assert.GreaterOrEqual(t, fill.Quantity, int64(500))
	assert.LessOrEqual(t, fill.Quantity, int64(2500))
}

func TestDirect_MarketSellSlippageCutsPrice(t *testing.T) {
	d := &Direct{rng: rand.New(rand.NewSource(1))}
	order := marketOrder(10000)
	order.Direction = types.DirectionSell
	quote := testQuote()

	fill, ok := d.Propose(order, quote)
	require.True(t, ok)
	assert.LessOrEqual(t, fill.Price, quote.Bid)
}

func TestDirect_LimitWaitsForCross(t *testing.T) {
	d := &Direct{rng: rand.New(rand.NewSource(1))}
	quote := testQuote()

	order := marketOrder(1000)
	order.OrderType = types.OrderTypeLimit
	order.LimitPrice = 99.90

	_, ok := d.Propose(order, quote)
	assert.False(t, ok, "buy limit below the ask must not fill")

	order.LimitPrice = 100.10
	fill, ok := d.Propose(order, quote)
	require.True(t, ok)
	assert.Equal(t, quote.Ask, fill.Price)
}

func TestDirect_StopLossTriggers(t *testing.T) {
	d := &Direct{rng: rand.New(rand.NewSource(1))}
	quote := testQuote()

	order := marketOrder(1000)
	order.Direction = types.DirectionSell
	order.OrderType = types.OrderTypeStopLoss
	order.StopPrice = 99.00

	_, ok := d.Propose(order, quote)
	assert.False(t, ok, "stop must not trigger above the stop price")

	order.StopPrice = 100.50
	fill, ok := d.Propose(order, quote)
	require.True(t, ok, "sell stop triggers once LTP trades at or below it")
	assert.Equal(t, quote.Bid, fill.Price)
}

func TestDirect_FullyFilledOrderIsInert(t *testing.T) {
	d := &Direct{rng: rand.New(rand.NewSource(1))}
	order := marketOrder(1000)
	order.FilledQuantity = 1000

	_, ok := d.Propose(order, testQuote())
	assert.False(t, ok)
}

func TestAggressionPrice_Levels(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	quote := testQuote()
	buy := marketOrder(1000)

	// Noise is bounded by 10% of the spread, here ±0.01.
	assert.InDelta(t, quote.Ask, aggressionPrice(buy, quote, "High", rng), 0.011)
	assert.InDelta(t, quote.Bid, aggressionPrice(buy, quote, "Low", rng), 0.011)
	assert.InDelta(t, quote.LTP, aggressionPrice(buy, quote, "Medium", rng), 0.011)

	sell := marketOrder(1000)
	sell.Direction = types.DirectionSell
	assert.InDelta(t, quote.Bid, aggressionPrice(sell, quote, "High", rng), 0.011)
	assert.InDelta(t, quote.Ask, aggressionPrice(sell, quote, "Low", rng), 0.011)
}

func TestWithinTimeWindow(t *testing.T) {
	order := &types.Order{StartTime: "10:00", EndTime: "15:00"}

	assert.False(t, withinTimeWindow(order, time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)))
	assert.True(t, withinTimeWindow(order, noon()))
	assert.False(t, withinTimeWindow(order, time.Date(2026, 8, 28, 15, 30, 0, 0, time.Local)))
}

func TestWithinTimeWindow_MalformedBoundIsUnconstrained(t *testing.T) {
	// A bad start bound drops only the start constraint.
	order := &types.Order{StartTime: "banana", EndTime: "15:00"}
	assert.True(t, withinTimeWindow(order, time.Date(2026, 8, 28, 0, 10, 0, 0, time.Local)))
	assert.False(t, withinTimeWindow(order, time.Date(2026, 8, 28, 16, 0, 0, 0, time.Local)))

	// A bad end bound drops only the end constraint.
	order = &types.Order{StartTime: "10:00", EndTime: "25:99"}
	assert.False(t, withinTimeWindow(order, time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)))
	assert.True(t, withinTimeWindow(order, time.Date(2026, 8, 28, 23, 0, 0, 0, time.Local)))
}

func TestWindowProgress(t *testing.T) {
	order := &types.Order{StartTime: "10:00", EndTime: "14:00"}
	assert.Equal(t, 0.5, windowProgress(order, noon()))
	assert.Equal(t, 0.0, windowProgress(order, time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)))
	assert.Equal(t, 1.0, windowProgress(order, time.Date(2026, 8, 28, 15, 0, 0, 0, time.Local)))

	// Missing bounds fall back to the midpoint.
	assert.Equal(t, 0.5, windowProgress(&types.Order{}, noon()))

	// Inverted windows count as elapsed.
	inverted := &types.Order{StartTime: "14:00", EndTime: "10:00"}
	assert.Equal(t, 1.0, windowProgress(inverted, noon()))
}

func TestScheduleTarget(t *testing.T) {
	assert.Equal(t, 0.75, scheduleTarget(CurveFrontLoaded, 0.5))
	assert.Equal(t, 1.0, scheduleTarget(CurveFrontLoaded, 0.9))
	assert.InDelta(t, 0.125, scheduleTarget(CurveBackLoaded, 0.25), 1e-9)
	assert.Equal(t, 0.3, scheduleTarget(CurveHistorical, 0.3))
}

func TestParticipationRate_SlicesObservedVolume(t *testing.T) {
	p := &ParticipationRate{rng: rand.New(rand.NewSource(1)), now: noon}
	order := algoOrder(types.AlgoPOV, 100000, types.AlgoParams{
		TargetParticipationRate: 10,
		MinOrderSize:            50,
	})
	order.StartTime = "09:30"
	order.EndTime = "15:00"
	quote := testQuote()

	filled := false
	for i := 0; i < 100; i++ {
		fill, ok := p.Propose(order, quote)
		if !ok {
			continue
		}
		filled = true
		// 10% of 1000 observed volume.
		assert.Equal(t, int64(100), fill.Quantity)
		assert.Greater(t, fill.Price, 0.0)
	}
	assert.True(t, filled, "POV should fire on some ticks over 100 draws")
}

func TestParticipationRate_RespectsTimeWindow(t *testing.T) {
	early := func() time.Time { return time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local) }
	p := &ParticipationRate{rng: rand.New(rand.NewSource(1)), now: early}
	order := algoOrder(types.AlgoPOV, 100000, types.AlgoParams{})
	order.StartTime = "10:00"
	order.EndTime = "15:00"

	for i := 0; i < 50; i++ {
		_, ok := p.Propose(order, testQuote())
		require.False(t, ok, "no participation before the window opens")
	}
}

func TestParticipationRate_ClampsToSizeBand(t *testing.T) {
	p := &ParticipationRate{rng: rand.New(rand.NewSource(1)), now: noon}
	order := algoOrder(types.AlgoPOV, 100000, types.AlgoParams{
		TargetParticipationRate: 10,
		MinOrderSize:            500,
		MaxOrderSize:            600,
	})
	quote := testQuote()

	for i := 0; i < 100; i++ {
		fill, ok := p.Propose(order, quote)
		if !ok {
			continue
		}
		// 10% of 1000 is below the floor; the band wins.
		assert.Equal(t, int64(500), fill.Quantity)
	}
}

func TestVolumeCurve_AheadOfScheduleHoldsFire(t *testing.T) {
	v := &VolumeCurve{rng: rand.New(rand.NewSource(1)), now: noon}
	order := algoOrder(types.AlgoVWAP, 10000, types.AlgoParams{
		VolumeCurve: CurveFrontLoaded,
	})
	order.StartTime = "10:00"
	order.EndTime = "14:00"
	// Halfway through a front-loaded window the schedule wants 7500.
	order.FilledQuantity = 8000

	for i := 0; i < 50; i++ {
		_, ok := v.Propose(order, testQuote())
		require.False(t, ok, "an order ahead of schedule must not fill")
	}
}

func TestVolumeCurve_FillsDeficitCappedByParticipation(t *testing.T) {
	v := &VolumeCurve{rng: rand.New(rand.NewSource(1)), now: noon}
	order := algoOrder(types.AlgoVWAP, 10000, types.AlgoParams{
		VolumeCurve:  CurveFrontLoaded,
		MaxVolumePct: 20,
	})
	order.StartTime = "10:00"
	order.EndTime = "14:00"
	quote := testQuote()

	filled := false
	for i := 0; i < 100; i++ {
		fill, ok := v.Propose(order, quote)
		if !ok {
			continue
		}
		filled = true
		// Deficit is 7500 but 20% of the tick's 1000 volume caps the slice.
		assert.Equal(t, int64(200), fill.Quantity)
	}
	assert.True(t, filled, "VWAP should fire on some ticks over 100 draws")
}

func TestIceberg_FillsWithinVisibleSlice(t *testing.T) {
	i := &Iceberg{rng: rand.New(rand.NewSource(1))}
	order := algoOrder(types.AlgoIceberg, 1000, types.AlgoParams{
		DisplayQuantity: 1000,
	})
	quote := testQuote()

	filled := false
	for n := 0; n < 200; n++ {
		fill, ok := i.Propose(order, quote)
		if !ok {
			continue
		}
		filled = true
		assert.GreaterOrEqual(t, fill.Quantity, int64(1))
		assert.LessOrEqual(t, fill.Quantity, int64(333), "fill cannot exceed a third of the visible slice")
	}
	assert.True(t, filled, "iceberg should fire on some ticks over 200 draws")
}

func TestIceberg_VisibleBoundedByRemaining(t *testing.T) {
	i := &Iceberg{rng: rand.New(rand.NewSource(2))}
	order := algoOrder(types.AlgoIceberg, 10000, types.AlgoParams{
		DisplayQuantity: 5000,
	})
	order.FilledQuantity = 9900

	for n := 0; n < 200; n++ {
		fill, ok := i.Propose(order, testQuote())
		if !ok {
			continue
		}
		assert.LessOrEqual(t, fill.Quantity, int64(33), "only the remaining 100 shares are visible")
	}
}

func TestParsedAlgoParams_MalformedJSONYieldsDefaults(t *testing.T) {
	order := marketOrder(1000)
	order.AlgoParams = "{not json"
	assert.Equal(t, types.AlgoParams{}, order.ParsedAlgoParams())

	// A blob that fails mid-decode must not leak the fields parsed before the
	// error; strategies see either the full parameters or none.
	order.AlgoParams = `{"target_participation_rate": 25, "volume_curve": 42}`
	assert.Equal(t, types.AlgoParams{}, order.ParsedAlgoParams())
}

func TestNewRegistry_CoversAllAlgoTypes(t *testing.T) {
	registry := NewRegistry(rand.New(rand.NewSource(1)))
	for _, algo := range []string{types.AlgoNone, types.AlgoPOV, types.AlgoVWAP, types.AlgoIceberg} {
		assert.Contains(t, registry, algo)
	}
}
