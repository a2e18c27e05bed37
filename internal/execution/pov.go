package execution

import (
	"math/rand"
	"time"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// ParticipationRate (POV) slices the order at a target percentage of observed
// market volume, clamped to its configured size band, within the order's time
// window. Each eligible tick fires with 60% probability to model imperfect
// participation.
type ParticipationRate struct {
	rng *rand.Rand
	now func() time.Time
}

func (p *ParticipationRate) Propose(order *types.Order, quote *types.MarketQuote) (Fill, bool) {
	params := order.ParsedAlgoParams()
	targetRate := params.TargetParticipationRate
	if targetRate == 0 {
		targetRate = 10
	}
	targetRate /= 100
	minSize := params.MinOrderSize
	if minSize == 0 {
		minSize = 100
	}
	maxSize := params.MaxOrderSize
	if maxSize == 0 {
		maxSize = 50000
	}

	remaining := order.Remaining()
	if remaining <= 0 {
		return Fill{}, false
	}
	if !withinTimeWindow(order, p.now()) {
		return Fill{}, false
	}

	// Slice off this tick's observed volume.
	targetQty := int64(float64(quote.Volume) * targetRate)
	targetQty = max64(minSize, min64(maxSize, targetQty))
	targetQty = min64(targetQty, remaining)

	if targetQty < minSize && remaining >= minSize {
		targetQty = minSize
	} else if targetQty < 1 {
		return Fill{}, false
	}

	if p.rng.Float64() >= 0.6 {
		return Fill{}, false
	}

	price := aggressionPrice(order, quote, defaultAggression(params, "Medium"), p.rng)
	return Fill{Price: price, Quantity: targetQty}, true
}

func defaultAggression(params types.AlgoParams, fallback string) string {
	if params.AggressionLevel == "" {
		return fallback
	}
	return params.AggressionLevel
}
