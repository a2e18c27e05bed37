package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/pubsub"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

const tickInterval = time.Second

// MarketReader is the engine's view of the market state store.
type MarketReader interface {
	Quote(symbol string) (types.MarketQuote, bool)
}

// Engine ticks every open parent order through its fill strategy once per
// period, records resulting fills and broadcasts order updates.
type Engine struct {
	db         *Database
	market     MarketReader
	hub        *pubsub.Hub
	strategies map[string]Strategy
	interval   time.Duration
}

func NewEngine(gormDB *gorm.DB, market MarketReader, hub *pubsub.Hub, rng *rand.Rand) *Engine {
	return &Engine{
		db:         NewDatabase(gormDB),
		market:     market,
		hub:        hub,
		strategies: NewRegistry(rng),
		interval:   tickInterval,
	}
}

// Start runs the execution loop until the context is cancelled. The tick in
// flight completes before shutdown so no order is left with torn fill state.
func (e *Engine) Start(ctx context.Context) {
	logger := log.With().Str("component", "execution_engine").Logger()
	logger.Info().Msg("starting execution engine")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down execution engine")
			return
		case <-ticker.C:
			if err := e.processOrders(logger); err != nil {
				logger.Error().Err(err).Msg("failed to process orders")
			}
		}
	}
}

// processOrders runs one tick: every WORKING or PARTIALLY_FILLED parent order
// gets exactly one strategy decision. A failure on one order never stops the
// others.
func (e *Engine) processOrders(logger zerolog.Logger) error {
	orders, err := e.db.GetOpenOrders()
	if err != nil {
		return fmt.Errorf("load open orders: %w", err)
	}

	for i := range orders {
		order := &orders[i]
		if err := e.processOrder(order); err != nil {
			logger.Error().
				Err(err).
				Str("order_id", order.OrderID).
				Str("symbol", order.Symbol).
				Msg("order tick failed, will retry next tick")
		}
	}
	return nil
}

func (e *Engine) processOrder(order *types.Order) error {
	strategy, ok := e.strategies[order.AlgoType]
	if !ok {
		strategy = e.strategies[types.AlgoNone]
	}

	quote, ok := e.market.Quote(order.Symbol)
	if !ok {
		// No market data for the symbol means no fill this tick.
		return nil
	}

	fill, ok := strategy.Propose(order, &quote)
	if !ok || fill.Quantity <= 0 {
		return nil
	}
	return e.recordFill(order, fill)
}

// recordFill applies the fill-recording protocol: clamp to remaining, append
// the execution, recompute the volume-weighted average price, advance status,
// audit, and broadcast. Persistence happens in one transaction; on failure
// the in-memory order is untouched and the order retries next tick.
func (e *Engine) recordFill(order *types.Order, fill Fill) error {
	quantity := min64(fill.Quantity, order.Remaining())
	if quantity <= 0 {
		return nil
	}

	newFilled := order.FilledQuantity + quantity
	oldNotional := order.AvgFillPrice * float64(order.FilledQuantity)
	newAvg := round2((oldNotional + fill.Price*float64(quantity)) / float64(newFilled))

	newStatus := types.StatusPartiallyFilled
	if newFilled >= order.Quantity {
		newStatus = types.StatusFilled
	}

	exec := &types.Execution{
		ExecutionID:  uuid.New().String(),
		OrderID:      order.OrderID,
		FillPrice:    fill.Price,
		FillQuantity: quantity,
		ExecutedAt:   time.Now(),
	}

	details, _ := json.Marshal(map[string]interface{}{
		"execution_id": exec.ExecutionID,
		"fill_price":   fill.Price,
		"fill_qty":     quantity,
		"total_filled": newFilled,
	})

	if err := e.db.RecordFill(exec, order.OrderID, newFilled, newAvg, newStatus, string(details)); err != nil {
		return fmt.Errorf("persist fill: %w", err)
	}

	order.FilledQuantity = newFilled
	order.AvgFillPrice = newAvg
	order.Status = newStatus

	log.Debug().
		Str("order_id", order.OrderID).
		Float64("fill_price", fill.Price).
		Int64("fill_qty", quantity).
		Int64("total_filled", newFilled).
		Str("status", newStatus).
		Msg("fill recorded")

	e.broadcastOrderUpdate(order, fill.Price, quantity)
	return nil
}

func (e *Engine) broadcastOrderUpdate(order *types.Order, lastPrice float64, lastQty int64) {
	event := types.OrderEvent{
		Type: "order_update",
		Data: types.OrderUpdate{
			OrderID:        order.OrderID,
			Status:         order.Status,
			FilledQuantity: order.FilledQuantity,
			AvgFillPrice:   order.AvgFillPrice,
			LastFillPrice:  lastPrice,
			LastFillQty:    lastQty,
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to encode order update")
		return
	}
	e.hub.Publish(payload)
}
