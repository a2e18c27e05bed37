package migrations

import (
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// SeedInstruments populates the tradable universe on first boot.
// Existing rows are left untouched so restarts keep prior state.
func SeedInstruments(db *gorm.DB) error {
	instruments := []types.Instrument{
		{Symbol: "RELIANCE", Name: "Reliance Industries Ltd", BasePrice: 2450.00, Volatility: 1.8},
		{Symbol: "TCS", Name: "Tata Consultancy Services Ltd", BasePrice: 3820.00, Volatility: 1.5},
		{Symbol: "INFY", Name: "Infosys Ltd", BasePrice: 1580.00, Volatility: 2.0},
		{Symbol: "HDFCBANK", Name: "HDFC Bank Ltd", BasePrice: 1720.00, Volatility: 1.6},
		{Symbol: "ICICIBANK", Name: "ICICI Bank Ltd", BasePrice: 1150.00, Volatility: 2.2},
		{Symbol: "SBIN", Name: "State Bank of India", BasePrice: 780.00, Volatility: 2.8},
		{Symbol: "BHARTIARTL", Name: "Bharti Airtel Ltd", BasePrice: 1620.00, Volatility: 1.9},
		{Symbol: "ITC", Name: "ITC Ltd", BasePrice: 452.00, Volatility: 1.3},
		{Symbol: "TATAMOTORS", Name: "Tata Motors Ltd", BasePrice: 710.00, Volatility: 3.5},
		{Symbol: "WIPRO", Name: "Wipro Ltd", BasePrice: 485.00, Volatility: 2.1},
	}

	for i := range instruments {
		instruments[i].TickSize = 0.05
		instruments[i].LotSize = 1
		instruments[i].IsActive = true

		var count int64
		if err := db.Model(&types.Instrument{}).
			Where("symbol = ?", instruments[i].Symbol).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&instruments[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
