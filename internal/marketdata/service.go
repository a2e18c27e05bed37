package marketdata

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/pubsub"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

const (
	tickInterval     = time.Second
	publishEveryTick = 2
	persistEveryTick = 30
)

// Service drives the price process for all symbols on a fixed period and is
// the single writer of the market state store.
type Service struct {
	store     *Store
	db        *Database
	hub       *pubsub.Hub
	rng       *rand.Rand
	interval  time.Duration
	snapshots map[string]*types.MarketSnapshot
}

// NewService seeds per-symbol state from the instrument universe and
// publishes the initial snapshots into the store.
func NewService(store *Store, db *Database, hub *pubsub.Hub, instruments []types.Instrument, rng *rand.Rand) *Service {
	s := &Service{
		store:     store,
		db:        db,
		hub:       hub,
		rng:       rng,
		interval:  tickInterval,
		snapshots: make(map[string]*types.MarketSnapshot, len(instruments)),
	}
	for _, inst := range instruments {
		snap := NewSnapshot(inst, rng)
		s.snapshots[inst.Symbol] = snap
		store.Put(inst.Symbol, *snap)
	}
	return s
}

// Start runs the simulation loop until the context is cancelled. A tick in
// flight finishes; no new tick starts after cancellation.
func (s *Service) Start(ctx context.Context) {
	logger := log.With().Str("component", "market_data").Logger()
	logger.Info().Int("symbols", len(s.snapshots)).Msg("starting market data service")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	tickCount := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down market data service")
			return
		case <-ticker.C:
			tickCount++
			s.step(tickCount)
		}
	}
}

// step advances every symbol one tick, then publishes every 2nd tick and
// persists every 30th.
func (s *Service) step(tickCount int) {
	for symbol, snap := range s.snapshots {
		Tick(snap, s.rng)
		s.store.Put(symbol, *snap)
	}

	if tickCount%publishEveryTick == 0 {
		s.broadcast()
	}

	if tickCount%persistEveryTick == 0 {
		if err := s.db.SaveSnapshots(s.store.Snapshot()); err != nil {
			// Persistence is best-effort; the in-memory table stays live.
			log.Error().Err(err).Msg("failed to persist market snapshot")
		}
	}
}

func (s *Service) broadcast() {
	payload, err := json.Marshal(s.store.Snapshot())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode market snapshot")
		return
	}
	s.hub.Publish(payload)
}
