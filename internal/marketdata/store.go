package marketdata

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// Session clock (NSE cash market), minutes from midnight.
const (
	marketOpenMinutes  = 9*60 + 15
	marketCloseMinutes = 15*60 + 30
)

// Store holds the latest snapshot per symbol. The market data service is the
// only writer; the execution engine and HTTP handlers read copies. Writes
// replace the whole value per symbol so readers never see a torn snapshot.
type Store struct {
	mu   sync.RWMutex
	data map[string]types.MarketSnapshot
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: make(map[string]types.MarketSnapshot),
		now:  time.Now,
	}
}

// Put replaces the stored snapshot for a symbol.
func (s *Store) Put(symbol string, snap types.MarketSnapshot) {
	s.mu.Lock()
	s.data[symbol] = snap
	s.mu.Unlock()
}

// Quote returns the latest snapshot for a symbol with read-time derived
// fields, or false if the symbol is unknown.
func (s *Store) Quote(symbol string) (types.MarketQuote, bool) {
	s.mu.RLock()
	snap, ok := s.data[symbol]
	s.mu.RUnlock()
	if !ok {
		return types.MarketQuote{}, false
	}
	return s.derive(snap), true
}

// Snapshot returns derived quotes for every symbol, ordered by symbol.
func (s *Store) Snapshot() []types.MarketQuote {
	s.mu.RLock()
	quotes := make([]types.MarketQuote, 0, len(s.data))
	for _, snap := range s.data {
		quotes = append(quotes, s.derive(snap))
	}
	s.mu.RUnlock()

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
	return quotes
}

// Symbols returns the known symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	symbols := make([]string, 0, len(s.data))
	for sym := range s.data {
		symbols = append(symbols, sym)
	}
	s.mu.RUnlock()

	sort.Strings(symbols)
	return symbols
}

func (s *Store) derive(snap types.MarketSnapshot) types.MarketQuote {
	now := s.now()
	spread := round2(snap.Ask - snap.Bid)
	var spreadBps float64
	if snap.LTP > 0 {
		spreadBps = round1(spread / snap.LTP * 10000)
	}
	return types.MarketQuote{
		MarketSnapshot: snap,
		Spread:         spread,
		SpreadBps:      spreadBps,
		TimeToClose:    minutesToClose(now),
		Timestamp:      now,
	}
}

func minutesToClose(now time.Time) int {
	nowMinutes := now.Hour()*60 + now.Minute()
	if nowMinutes >= marketCloseMinutes {
		return 0
	}
	if nowMinutes < marketOpenMinutes {
		return marketCloseMinutes - marketOpenMinutes
	}
	return marketCloseMinutes - nowMinutes
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
