package execution

import (
	"math"
	"math/rand"
	"time"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// Volume curve shapes
const (
	CurveFrontLoaded = "Front-loaded"
	CurveBackLoaded  = "Back-loaded"
	CurveHistorical  = "Historical"
)

// VolumeCurve (VWAP) schedules fills along a volume curve over the order's
// time window, filling only the deficit against schedule and capped at a
// maximum participation of this tick's volume. Fires with 50% probability
// per eligible tick.
type VolumeCurve struct {
	rng *rand.Rand
	now func() time.Time
}

func (v *VolumeCurve) Propose(order *types.Order, quote *types.MarketQuote) (Fill, bool) {
	params := order.ParsedAlgoParams()
	maxParticipation := params.MaxVolumePct
	if maxParticipation == 0 {
		maxParticipation = 20
	}
	maxParticipation /= 100
	curve := params.VolumeCurve
	if curve == "" {
		curve = CurveHistorical
	}

	remaining := order.Remaining()
	if remaining <= 0 {
		return Fill{}, false
	}
	now := v.now()
	if !withinTimeWindow(order, now) {
		return Fill{}, false
	}

	progress := windowProgress(order, now)
	targetPct := scheduleTarget(curve, progress)

	expectedFilled := int64(float64(order.Quantity) * targetPct)
	deficit := expectedFilled - order.FilledQuantity
	if deficit <= 0 {
		// Ahead of schedule.
		return Fill{}, false
	}

	maxThisTick := int64(float64(quote.Volume) * maxParticipation)
	quantity := min64(min64(deficit, maxThisTick), remaining)
	quantity = max64(1, quantity)

	if v.rng.Float64() >= 0.5 {
		return Fill{}, false
	}

	price := aggressionPrice(order, quote, defaultAggression(params, "Low"), v.rng)
	return Fill{Price: price, Quantity: quantity}, true
}

// scheduleTarget maps window progress to the cumulative fill fraction the
// order should have reached under the given curve shape.
func scheduleTarget(curve string, progress float64) float64 {
	switch curve {
	case CurveFrontLoaded:
		return math.Min(1.0, progress*1.5)
	case CurveBackLoaded:
		return math.Pow(progress, 1.5)
	default: // Historical / linear
		return progress
	}
}
