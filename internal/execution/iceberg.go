package execution

import (
	"math/rand"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// Iceberg exposes only a display quantity at a time and fills a random slice
// of up to a third of what is visible. Fires with 40% probability per tick;
// no time-window gate.
type Iceberg struct {
	rng *rand.Rand
}

func (i *Iceberg) Propose(order *types.Order, quote *types.MarketQuote) (Fill, bool) {
	params := order.ParsedAlgoParams()
	displayQty := params.DisplayQuantity
	if displayQty == 0 {
		displayQty = 5000
	}

	remaining := order.Remaining()
	if remaining <= 0 {
		return Fill{}, false
	}

	visible := min64(displayQty, remaining)
	quantity := 1 + i.rng.Int63n(max64(1, visible/3))
	quantity = min64(quantity, remaining)

	if i.rng.Float64() >= 0.4 {
		return Fill{}, false
	}

	price := aggressionPrice(order, quote, defaultAggression(params, "Medium"), i.rng)
	return Fill{Price: price, Quantity: quantity}, true
}
