package marketdata

import (
	"time"

	"gorm.io/gorm"
)

// MarketDataPoint is a persisted historical snapshot of one symbol, written
// periodically by the simulation loop.
type MarketDataPoint struct {
	gorm.Model   `json:"-"`
	Symbol       string    `gorm:"index" json:"symbol"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	LTP          float64   `json:"ltp"`
	DayVolume    int64     `json:"day_volume"`
	Volatility   float64   `json:"volatility"`
	AvgTradeSize int64     `json:"avg_trade_size"`
	CreatedAt    time.Time `json:"created_at"`
}
