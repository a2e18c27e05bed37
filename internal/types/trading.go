package types

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Order directions
const (
	DirectionBuy  = "BUY"
	DirectionSell = "SELL"
)

// Order types
const (
	OrderTypeMarket   = "MARKET"
	OrderTypeLimit    = "LIMIT"
	OrderTypeStopLoss = "STOP_LOSS"
)

// Algo types
const (
	AlgoNone    = "NONE"
	AlgoPOV     = "POV"
	AlgoVWAP    = "VWAP"
	AlgoIceberg = "ICEBERG"
)

// Order statuses
const (
	StatusWorking         = "WORKING"
	StatusPartiallyFilled = "PARTIALLY_FILLED"
	StatusFilled          = "FILLED"
	StatusCancelled       = "CANCELLED"
	StatusRejected        = "REJECTED"
)

type Order struct {
	gorm.Model     `json:"-"`
	OrderID        string    `gorm:"uniqueIndex" json:"order_id"`
	ParentOrderID  string    `gorm:"index" json:"parent_order_id,omitempty"`
	ClientID       string    `gorm:"index" json:"client_id"`
	AccountID      string    `json:"account_id,omitempty"`
	Symbol         string    `gorm:"index" json:"symbol"`
	Direction      string    `json:"direction"`  // BUY or SELL
	OrderType      string    `json:"order_type"` // MARKET, LIMIT or STOP_LOSS
	Quantity       int64     `json:"quantity"`
	FilledQuantity int64     `json:"filled_quantity"`
	LimitPrice     float64   `json:"limit_price,omitempty"`
	StopPrice      float64   `json:"stop_price,omitempty"`
	AlgoType       string    `json:"algo_type"`             // NONE, POV, VWAP or ICEBERG
	AlgoParams     string    `json:"algo_params,omitempty"` // JSON-encoded AlgoParams
	StartTime      string    `json:"start_time,omitempty"`  // HH:MM
	EndTime        string    `json:"end_time,omitempty"`    // HH:MM
	TIF            string    `json:"tif"`
	Urgency        int       `json:"urgency"`
	GetDone        bool      `json:"get_done"`
	Capacity       string    `json:"capacity"`
	OrderNotes     string    `json:"order_notes,omitempty"`
	AvgFillPrice   float64   `json:"avg_fill_price"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Remaining returns the unfilled quantity of the order.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// IsOpen reports whether the order can still accrue fills.
func (o *Order) IsOpen() bool {
	return o.Status == StatusWorking || o.Status == StatusPartiallyFilled
}

// AlgoParams holds the strategy parameters attached to an algo order. Only the
// fields relevant to the order's algo type are interpreted; the rest are
// ignored by the matching strategy.
type AlgoParams struct {
	// POV
	TargetParticipationRate float64 `json:"target_participation_rate,omitempty"`
	MinOrderSize            int64   `json:"min_order_size,omitempty"`
	MaxOrderSize            int64   `json:"max_order_size,omitempty"`
	// VWAP
	VolumeCurve  string  `json:"volume_curve,omitempty"` // Historical, Front-loaded, Back-loaded
	MaxVolumePct float64 `json:"max_volume_pct,omitempty"`
	// ICEBERG
	DisplayQuantity int64 `json:"display_quantity,omitempty"`
	// Common
	AggressionLevel string `json:"aggression_level,omitempty"` // Low, Medium, High
}

// ParsedAlgoParams decodes the order's algo parameter blob. Malformed JSON is
// treated as "no parameters set" so a single bad order cannot stop the
// execution loop; strategies fall back to their defaults.
func (o *Order) ParsedAlgoParams() AlgoParams {
	if o.AlgoParams == "" {
		return AlgoParams{}
	}
	var params AlgoParams
	if err := json.Unmarshal([]byte(o.AlgoParams), &params); err != nil {
		// Discard any partially decoded fields; the blob is all or nothing.
		return AlgoParams{}
	}
	return params
}

// Execution is an immutable fill record. Many executions may exist per order.
type Execution struct {
	gorm.Model   `json:"-"`
	ExecutionID  string    `gorm:"uniqueIndex" json:"execution_id"`
	OrderID      string    `gorm:"index" json:"order_id"`
	FillPrice    float64   `json:"fill_price"`
	FillQuantity int64     `json:"fill_quantity"`
	ExecutedAt   time.Time `json:"executed_at"`
}

// OrderHistory is an append-only audit entry for an order lifecycle event.
type OrderHistory struct {
	gorm.Model `json:"-"`
	OrderID    string    `gorm:"index" json:"order_id"`
	Action     string    `json:"action"` // CREATED, FILL, AMENDED, CANCELLED
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

// OrderUpdate is the event payload broadcast after every recorded fill.
type OrderUpdate struct {
	OrderID        string  `json:"order_id"`
	Status         string  `json:"status"`
	FilledQuantity int64   `json:"filled_quantity"`
	AvgFillPrice   float64 `json:"avg_fill_price"`
	LastFillPrice  float64 `json:"last_fill_price"`
	LastFillQty    int64   `json:"last_fill_qty"`
}

// OrderEvent is the tagged envelope published to the order-event hub.
type OrderEvent struct {
	Type string      `json:"type"`
	Data OrderUpdate `json:"data"`
}

type Instrument struct {
	gorm.Model `json:"-"`
	Symbol     string  `gorm:"uniqueIndex" json:"symbol"`
	Name       string  `json:"name"`
	BasePrice  float64 `json:"base_price"`
	Volatility float64 `json:"volatility"` // annualized %
	TickSize   float64 `json:"tick_size"`
	LotSize    int64   `json:"lot_size"`
	IsActive   bool    `json:"is_active"`
}

type Client struct {
	gorm.Model        `json:"-"`
	ClientID          string  `gorm:"uniqueIndex" json:"client_id"`
	Name              string  `json:"name"`
	PositionLimit     int64   `json:"position_limit"`
	CreditLimit       float64 `json:"credit_limit"`
	RestrictedSymbols string  `json:"restricted_symbols"` // comma-separated
	IsActive          bool    `json:"is_active"`
}

// Account is a trading account under a client. Orders may carry an account ID
// to book against a specific account.
type Account struct {
	gorm.Model  `json:"-"`
	AccountID   string `gorm:"uniqueIndex" json:"account_id"`
	ClientID    string `gorm:"index" json:"client_id"`
	AccountName string `json:"account_name"`
	AccountType string `json:"account_type"` // CASH, MARGIN, DERIVATIVES, CUSTODY, PRIME
	IsDefault   bool   `json:"is_default"`
	IsActive    bool   `json:"is_active"`
}
