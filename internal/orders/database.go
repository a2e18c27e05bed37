package orders

import (
	"errors"
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

// CreateOrder persists a new order together with its CREATED audit entry.
func (d *Database) CreateOrder(order *types.Order, auditDetails string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		return err
	}

	history := types.OrderHistory{
		OrderID: order.OrderID,
		Action:  "CREATED",
		Details: auditDetails,
	}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (d *Database) GetOrder(orderID string) (*types.Order, error) {
	var order types.Order
	if err := d.db.Where("order_id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders returns parent-level orders, newest first, with optional
// status/client/symbol filters.
func (d *Database) ListOrders(status, clientID, symbol string) ([]types.Order, error) {
	query := d.db.Where("parent_order_id = ?", "")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var orders []types.Order
	err := query.Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (d *Database) GetExecutions(orderID string) ([]types.Execution, error) {
	var executions []types.Execution
	err := d.db.Where("order_id = ?", orderID).
		Order("executed_at DESC").
		Find(&executions).Error
	return executions, err
}

func (d *Database) GetHistory(orderID string) ([]types.OrderHistory, error) {
	var history []types.OrderHistory
	err := d.db.Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}

func (d *Database) GetChildOrders(orderID string) ([]types.Order, error) {
	var children []types.Order
	err := d.db.Where("parent_order_id = ?", orderID).
		Order("created_at DESC").
		Find(&children).Error
	return children, err
}

// CancelOrder marks the order cancelled, audits the action and cascades the
// cancellation to any still-open child orders.
func (d *Database) CancelOrder(orderID string, auditDetails string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	now := time.Now()
	if err := tx.Model(&types.Order{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{"status": types.StatusCancelled, "updated_at": now}).Error; err != nil {
		tx.Rollback()
		return err
	}

	history := types.OrderHistory{OrderID: orderID, Action: "CANCELLED", Details: auditDetails}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Model(&types.Order{}).
		Where("parent_order_id = ? AND status NOT IN ?", orderID,
			[]string{types.StatusFilled, types.StatusCancelled}).
		Updates(map[string]interface{}{"status": types.StatusCancelled, "updated_at": now}).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// AmendOrder applies field updates and audits them.
func (d *Database) AmendOrder(orderID string, updates map[string]interface{}, auditDetails string) error {
	tx := d.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	updates["updated_at"] = time.Now()
	if err := tx.Model(&types.Order{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error; err != nil {
		tx.Rollback()
		return err
	}

	history := types.OrderHistory{OrderID: orderID, Action: "AMENDED", Details: auditDetails}
	if err := tx.Create(&history).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func (d *Database) GetInstrument(symbol string) (*types.Instrument, error) {
	var inst types.Instrument
	if err := d.db.Where("symbol = ? AND is_active = ?", symbol, true).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}

func (d *Database) GetClient(clientID string) (*types.Client, error) {
	var client types.Client
	if err := d.db.Where("client_id = ? AND is_active = ?", clientID, true).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}
