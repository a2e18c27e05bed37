package marketdata

import (
	"math"
	"math/rand"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

const (
	// NSE cash session is 6.25 hours; dt is one second as a fraction of it.
	sessionSeconds = 6.25 * 60 * 60

	// PriceFloor is the lowest price any simulated instrument can trade at,
	// and also the minimum absolute bid-ask spread.
	PriceFloor = 0.05

	minTickVolume = 50
)

// NewSnapshot seeds the initial market state for one instrument.
func NewSnapshot(inst types.Instrument, rng *rand.Rand) *types.MarketSnapshot {
	base := inst.BasePrice
	spreadPct := (0.01 + rng.Float64()*0.04) / 100
	spread := round2(base * spreadPct)

	return &types.MarketSnapshot{
		Symbol:       inst.Symbol,
		Bid:          round2(base - spread/2),
		Ask:          round2(base + spread/2),
		LTP:          base,
		Volatility:   inst.Volatility,
		AvgTradeSize: 500 + rng.Int63n(14501), // 500..15000
		Open:         base,
		High:         base,
		Low:          base,
	}
}

// Tick advances one symbol's state by a single simulated second using a
// geometric-Brownian-motion step: dS = S * (mu*dt + sigma*sqrt(dt)*Z).
// It cannot fail; it is pure computation over the snapshot.
func Tick(s *types.MarketSnapshot, rng *rand.Rand) {
	vol := s.Volatility / 100
	dt := 1.0 / sessionSeconds

	mu := -0.0001 + rng.Float64()*0.0002 // small drift
	z := rng.NormFloat64()
	priceChange := s.LTP * (mu*dt + vol*math.Sqrt(dt)*z)

	newLTP := round2(math.Max(PriceFloor, s.LTP+priceChange))

	// Wider spreads for more volatile names.
	spreadBps := math.Max(1, vol*500+(-2+rng.Float64()*4))
	spread := math.Max(PriceFloor, round2(newLTP*spreadBps/10000))

	// Derive the ask from the rounded bid so the spread survives rounding
	// intact; rounding both sides independently can pinch it below the floor.
	s.Bid = round2(newLTP - spread/2)
	s.Ask = round2(s.Bid + spread)
	s.LTP = newLTP

	maxTick := int64(float64(s.AvgTradeSize) * 0.3)
	if maxTick < minTickVolume {
		maxTick = minTickVolume
	}
	tickVolume := minTickVolume + rng.Int63n(maxTick-minTickVolume+1)
	s.Volume = tickVolume
	s.DayVolume += tickVolume

	s.High = math.Max(s.High, newLTP)
	s.Low = math.Min(s.Low, newLTP)
	s.ChangePct = round3((newLTP - s.Open) / s.Open * 100)

	// Volatility itself random-walks, clamped to a sane band.
	s.Volatility = round3(s.Volatility + (-0.02 + rng.Float64()*0.04))
	if s.Volatility < 0.5 {
		s.Volatility = 0.5
	}
	if s.Volatility > 5.0 {
		s.Volatility = 5.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
