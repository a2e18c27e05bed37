package migrations

import (
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// SeedAccounts registers the trading accounts for the demo clients. Each
// client gets one default account.
func SeedAccounts(db *gorm.DB) error {
	accounts := []types.Account{
		{AccountID: "ACC001-CASH", ClientID: "CLIENT001", AccountName: "Quantum Cash Equities", AccountType: "CASH", IsDefault: true},
		{AccountID: "ACC001-MARGIN", ClientID: "CLIENT001", AccountName: "Quantum Margin", AccountType: "MARGIN"},
		{AccountID: "ACC002-CASH", ClientID: "CLIENT002", AccountName: "Meridian Primary", AccountType: "CASH", IsDefault: true},
		{AccountID: "ACC002-DERIV", ClientID: "CLIENT002", AccountName: "Meridian Derivatives", AccountType: "DERIVATIVES"},
		{AccountID: "ACC003-PROP", ClientID: "CLIENT003", AccountName: "Helix Prop Trading", AccountType: "MARGIN", IsDefault: true},
	}

	for i := range accounts {
		accounts[i].IsActive = true

		var count int64
		if err := db.Model(&types.Account{}).
			Where("account_id = ?", accounts[i].AccountID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		if err := db.Create(&accounts[i]).Error; err != nil {
			return err
		}
	}

	return nil
}
