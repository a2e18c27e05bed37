package execution

import (
	"time"

	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// GetOpenOrders returns all parent-level orders that can still fill, oldest
// first so per-tick processing order is stable.
func (d *Database) GetOpenOrders() ([]types.Order, error) {
	var orders []types.Order
	err := d.db.
		Where("status IN ?", []string{types.StatusWorking, types.StatusPartiallyFilled}).
		Where("parent_order_id = ?", "").
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

// RecordFill persists one fill atomically: the execution row, the order's
// fill state, and the audit entry either all commit or none do.
func (d *Database) RecordFill(exec *types.Execution, orderID string, filled int64, avgPrice float64, status string, auditDetails string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(exec).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&types.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"filled_quantity": filled,
			"avg_fill_price":  avgPrice,
			"status":          status,
			"updated_at":      time.Now(),
		}).Error; err != nil {
		tx.Rollback()
		return err
	}

	history := types.OrderHistory{
		OrderID: orderID,
		Action:  "FILL",
		Details: auditDetails,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
