// Package execution drives open orders through a simulated fill state
// machine. Each order is dispatched to the strategy matching its algo type;
// a strategy decides, per tick, whether the order fills and at what price and
// size. Zero fill on a tick is normal pacing, not an error.
package execution

import (
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// Fill is one tick's proposed execution for an order.
type Fill struct {
	Price    float64
	Quantity int64
}

// Strategy decides a single tick's fill for one order against the current
// market quote. The second return value is false when the order should not
// fill this tick.
type Strategy interface {
	Propose(order *types.Order, quote *types.MarketQuote) (Fill, bool)
}

// NewRegistry builds the algo-type to strategy lookup used by the engine.
// All stochastic draws go through rng so tests can seed the whole table.
func NewRegistry(rng *rand.Rand) map[string]Strategy {
	return map[string]Strategy{
		types.AlgoNone:    &Direct{rng: rng},
		types.AlgoPOV:     &ParticipationRate{rng: rng, now: time.Now},
		types.AlgoVWAP:    &VolumeCurve{rng: rng, now: time.Now},
		types.AlgoIceberg: &Iceberg{rng: rng},
	}
}

// aggressionPrice prices an algo fill by aggression level: High crosses the
// spread, Low rests on the passive side, anything else takes the last traded
// price. Small uniform noise within ±10% of the spread is added, floored at
// the minimum tick.
func aggressionPrice(order *types.Order, quote *types.MarketQuote, aggression string, rng *rand.Rand) float64 {
	isBuy := order.Direction == types.DirectionBuy
	spread := quote.Ask - quote.Bid

	var price float64
	switch strings.ToLower(aggression) {
	case "high":
		if isBuy {
			price = quote.Ask
		} else {
			price = quote.Bid
		}
	case "low":
		if isBuy {
			price = quote.Bid
		} else {
			price = quote.Ask
		}
	default:
		price = quote.LTP
	}

	noise := (rng.Float64()*2 - 1) * spread * 0.1
	return round2(math.Max(0.05, price+noise))
}

// slippage estimates market impact from order size relative to the average
// trade size: ltp * vol * sqrt(qty/avg) * 1%.
func slippage(quantity int64, quote *types.MarketQuote) float64 {
	avg := quote.AvgTradeSize
	if avg == 0 {
		avg = 5000
	}
	sizeRatio := float64(quantity) / float64(avg)
	vol := quote.Volatility / 100
	return round2(quote.LTP * vol * math.Sqrt(sizeRatio) * 0.01)
}

// tickFillSize draws a realistic single-tick fill between 10% and 50% of the
// average trade size, capped at the remaining quantity.
func tickFillSize(remaining int64, quote *types.MarketQuote, rng *rand.Rand) int64 {
	avg := quote.AvgTradeSize
	if avg == 0 {
		avg = 5000
	}
	lo := max64(1, avg/10)
	hi := max64(2, avg/2)
	if hi < lo {
		hi = lo
	}
	fill := lo + rng.Int63n(hi-lo+1)
	return min64(fill, remaining)
}

// parseClock parses an HH:MM bound into minutes from midnight. A malformed
// string returns false and the bound is treated as unconstrained; each bound
// is interpreted independently.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// withinTimeWindow reports whether now falls inside the order's execution
// window. A missing or malformed bound does not constrain that side.
func withinTimeWindow(order *types.Order, now time.Time) bool {
	nowMinutes := now.Hour()*60 + now.Minute()
	if order.StartTime != "" {
		if start, ok := parseClock(order.StartTime); ok && nowMinutes < start {
			return false
		}
	}
	if order.EndTime != "" {
		if end, ok := parseClock(order.EndTime); ok && nowMinutes > end {
			return false
		}
	}
	return true
}

// windowProgress returns how far now is through the order's time window in
// [0, 1]. Missing or malformed bounds yield the midpoint.
func windowProgress(order *types.Order, now time.Time) float64 {
	start, okStart := parseClock(order.StartTime)
	end, okEnd := parseClock(order.EndTime)
	if !okStart || !okEnd {
		return 0.5
	}
	total := float64(end - start)
	if total <= 0 {
		return 1.0
	}
	nowMinutes := float64(now.Hour()*60+now.Minute()) + float64(now.Second())/60
	progress := (nowMinutes - float64(start)) / total
	return math.Max(0, math.Min(1, progress))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
