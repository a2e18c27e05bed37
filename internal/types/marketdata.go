package types

import "time"

// MarketSnapshot is the current simulated state of one symbol. It is owned
// and mutated exclusively by the market data service; everything else reads
// copies of it.
type MarketSnapshot struct {
	Symbol       string  `json:"symbol"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	LTP          float64 `json:"ltp"`
	Volume       int64   `json:"volume"` // traded this tick
	DayVolume    int64   `json:"day_volume"`
	Volatility   float64 `json:"volatility"` // annualized %
	AvgTradeSize int64   `json:"avg_trade_size"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	ChangePct    float64 `json:"change_pct"`
}

// MarketQuote is a snapshot enriched with read-time derived fields. Spread and
// time-to-close are never stored; they are computed on every read.
type MarketQuote struct {
	MarketSnapshot
	Spread      float64   `json:"spread"`
	SpreadBps   float64   `json:"spread_bps"`
	TimeToClose int       `json:"time_to_close"` // minutes until session close
	Timestamp   time.Time `json:"timestamp"`
}
