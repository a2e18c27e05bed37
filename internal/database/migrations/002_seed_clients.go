package migrations

import (
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// SeedClients registers the demo trading clients with their risk limits.
func SeedClients(db *gorm.DB) error {
	clients := []types.Client{
		{
			ClientID:      "CLIENT001",
			Name:          "Quantum Capital Partners",
			PositionLimit: 500000,
			CreditLimit:   100000000,
		},
		{
			ClientID:          "CLIENT002",
			Name:              "Meridian Asset Management",
			PositionLimit:     250000,
			CreditLimit:       50000000,
			RestrictedSymbols: "TATAMOTORS",
		},
		{
			ClientID:      "CLIENT003",
			Name:          "Helix Trading Desk",
			PositionLimit: 100000,
			CreditLimit:   10000000,
		},
	}

	for i := range clients {
		clients[i].IsActive = true

		var count int64
		if err := db.Model(&types.Client{}).
			Where("client_id = ?", clients[i].ClientID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&clients[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
