package database

import (
	"fmt"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/database/migrations"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/marketdata"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection.
// The database path can be overridden with DATABASE_PATH.
func NewDatabase() (*gorm.DB, error) {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "market.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&types.Order{},
		&types.Execution{},
		&types.OrderHistory{},
		&types.Instrument{},
		&types.Client{},
		&types.Account{},
		&marketdata.MarketDataPoint{},
	)
	if err != nil {
		return nil, err
	}

	// Run seed migrations
	if err := migrations.SeedInstruments(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.SeedClients(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := migrations.SeedAccounts(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
