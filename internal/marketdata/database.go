package marketdata

import (
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// SaveSnapshots appends one historical row per symbol.
func (d *Database) SaveSnapshots(quotes []types.MarketQuote) error {
	points := make([]MarketDataPoint, 0, len(quotes))
	for _, q := range quotes {
		points = append(points, MarketDataPoint{
			Symbol:       q.Symbol,
			Bid:          q.Bid,
			Ask:          q.Ask,
			LTP:          q.LTP,
			DayVolume:    q.DayVolume,
			Volatility:   q.Volatility,
			AvgTradeSize: q.AvgTradeSize,
		})
	}
	if len(points) == 0 {
		return nil
	}
	return d.db.Create(&points).Error
}

// GetHistory returns the persisted snapshots for one symbol, newest first.
func (d *Database) GetHistory(symbol string, limit int) ([]MarketDataPoint, error) {
	var points []MarketDataPoint
	err := d.db.Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&points).Error
	return points, err
}
