package execution

import (
	"math"
	"math/rand"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// Direct fills non-algo orders. Market orders fill aggressively with
// size-dependent slippage; limit and stop orders fill at the aggressive side
// once the market crosses their trigger.
type Direct struct {
	rng *rand.Rand
}

func (d *Direct) Propose(order *types.Order, quote *types.MarketQuote) (Fill, bool) {
	remaining := order.Remaining()
	if remaining <= 0 {
		return Fill{}, false
	}

	isBuy := order.Direction == types.DirectionBuy
	aggressive := quote.Bid
	if isBuy {
		aggressive = quote.Ask
	}

	switch order.OrderType {
	case types.OrderTypeMarket:
		slip := slippage(remaining, quote)
		price := aggressive
		if isBuy {
			price += slip
		} else {
			price -= slip
		}
		price = round2(math.Max(0.05, price))
		return Fill{Price: price, Quantity: tickFillSize(remaining, quote, d.rng)}, true

	case types.OrderTypeLimit:
		canFill := (isBuy && quote.Ask <= order.LimitPrice) ||
			(!isBuy && quote.Bid >= order.LimitPrice)
		if !canFill {
			return Fill{}, false
		}
		return Fill{Price: aggressive, Quantity: tickFillSize(remaining, quote, d.rng)}, true

	case types.OrderTypeStopLoss:
		triggered := (!isBuy && quote.LTP <= order.StopPrice) ||
			(isBuy && quote.LTP >= order.StopPrice)
		if !triggered {
			return Fill{}, false
		}
		return Fill{Price: aggressive, Quantity: tickFillSize(remaining, quote, d.rng)}, true
	}

	return Fill{}, false
}
