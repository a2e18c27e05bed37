package orders

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/response"
)

// MarketReader supplies the current quote for price-collar and notional
// validation.
type MarketReader interface {
	Quote(symbol string) (types.MarketQuote, bool)
}

// Service handles order intake and lifecycle operations. Orders are persisted
// with status WORKING; the execution engine advances them from there.
type Service struct {
	db     *Database
	market MarketReader
}

func NewService(gormDB *gorm.DB, market MarketReader) *Service {
	return &Service{
		db:     NewDatabase(gormDB),
		market: market,
	}
}

// CreateOrderRequest is the intake payload for a new order.
type CreateOrderRequest struct {
	ClientID   string            `json:"client_id" binding:"required"`
	AccountID  string            `json:"account_id"`
	Symbol     string            `json:"symbol" binding:"required"`
	Direction  string            `json:"direction" binding:"required"`
	OrderType  string            `json:"order_type" binding:"required"`
	Quantity   int64             `json:"quantity" binding:"required"`
	LimitPrice float64           `json:"limit_price"`
	StopPrice  float64           `json:"stop_price"`
	AlgoType   string            `json:"algo_type"`
	AlgoParams *types.AlgoParams `json:"algo_params"`
	StartTime  string            `json:"start_time"`
	EndTime    string            `json:"end_time"`
	TIF        string            `json:"tif"`
	Urgency    *int              `json:"urgency"`
	GetDone    bool              `json:"get_done"`
	Capacity   string            `json:"capacity"`
	OrderNotes string            `json:"order_notes"`
}

func (r *CreateOrderRequest) normalize() {
	r.Symbol = strings.ToUpper(r.Symbol)
	r.Direction = strings.ToUpper(r.Direction)
	r.OrderType = strings.ToUpper(r.OrderType)
	r.AlgoType = strings.ToUpper(r.AlgoType)
	if r.AlgoType == "" {
		r.AlgoType = types.AlgoNone
	}
	r.TIF = strings.ToUpper(r.TIF)
	if r.TIF == "" {
		r.TIF = "GFD"
	}
	r.Capacity = strings.ToUpper(r.Capacity)
	if r.Capacity == "" {
		r.Capacity = "AGENCY"
	}
}

var (
	validDirections = map[string]bool{types.DirectionBuy: true, types.DirectionSell: true}
	validOrderTypes = map[string]bool{types.OrderTypeMarket: true, types.OrderTypeLimit: true, types.OrderTypeStopLoss: true}
	validAlgoTypes  = map[string]bool{types.AlgoNone: true, types.AlgoPOV: true, types.AlgoVWAP: true, types.AlgoIceberg: true}
	validTIFs       = map[string]bool{"GFD": true, "IOC": true, "FOK": true, "GTC": true, "GTD": true}
	validCapacities = map[string]bool{"AGENCY": true, "PRINCIPAL": true, "RISKLESS_PRINCIPAL": true, "MIXED": true}
)

// Validate runs the business rules for order intake and returns every
// violation found rather than stopping at the first.
func (s *Service) Validate(req *CreateOrderRequest) ([]string, error) {
	var errs []string

	if !validDirections[req.Direction] {
		errs = append(errs, "Direction must be BUY or SELL")
	}
	if !validOrderTypes[req.OrderType] {
		errs = append(errs, "Order type must be MARKET, LIMIT, or STOP_LOSS")
	}
	if !validAlgoTypes[req.AlgoType] {
		errs = append(errs, "Algo type must be NONE, POV, VWAP, or ICEBERG")
	}
	if !validTIFs[req.TIF] {
		errs = append(errs, "TIF must be one of GFD, IOC, FOK, GTC, GTD")
	}
	if !validCapacities[req.Capacity] {
		errs = append(errs, "Capacity must be one of AGENCY, PRINCIPAL, RISKLESS_PRINCIPAL, MIXED")
	}
	if req.Urgency != nil && (*req.Urgency < 0 || *req.Urgency > 100) {
		errs = append(errs, "Urgency must be between 0 and 100")
	}
	if len(errs) > 0 {
		return errs, nil
	}

	inst, err := s.db.GetInstrument(req.Symbol)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return []string{fmt.Sprintf("Symbol '%s' not found or inactive", req.Symbol)}, nil
	}

	client, err := s.db.GetClient(req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return []string{fmt.Sprintf("Client '%s' not found or inactive", req.ClientID)}, nil
	}

	for _, restricted := range strings.Split(client.RestrictedSymbols, ",") {
		if strings.TrimSpace(restricted) == req.Symbol {
			errs = append(errs, fmt.Sprintf("Client '%s' is restricted from trading '%s'", req.ClientID, req.Symbol))
		}
	}

	if req.Quantity <= 0 {
		errs = append(errs, "Quantity must be positive")
	}
	if req.Quantity > client.PositionLimit {
		errs = append(errs, fmt.Sprintf("Order quantity (%d) exceeds client position limit (%d)", req.Quantity, client.PositionLimit))
	}

	quote, hasQuote := s.market.Quote(req.Symbol)

	if req.OrderType == types.OrderTypeLimit {
		if req.LimitPrice == 0 {
			errs = append(errs, "Limit price required for LIMIT orders")
		} else if hasQuote {
			// ±5% collar around the last traded price.
			collarLow := quote.LTP * 0.95
			collarHigh := quote.LTP * 1.05
			if req.LimitPrice < collarLow || req.LimitPrice > collarHigh {
				errs = append(errs, fmt.Sprintf("Limit price %.2f is outside ±5%% collar [%.2f - %.2f] from LTP %.2f",
					req.LimitPrice, collarLow, collarHigh, quote.LTP))
			}
		}
	}
	if req.OrderType == types.OrderTypeStopLoss && req.StopPrice == 0 {
		errs = append(errs, "Stop price required for STOP_LOSS orders")
	}

	if hasQuote {
		notional := float64(req.Quantity) * quote.LTP
		if notional > client.CreditLimit {
			errs = append(errs, fmt.Sprintf("Estimated notional (%.0f) exceeds credit limit (%.0f)", notional, client.CreditLimit))
		}
	}

	if req.StartTime != "" && req.EndTime != "" {
		startM, okStart := parseClockMinutes(req.StartTime)
		endM, okEnd := parseClockMinutes(req.EndTime)
		if !okStart || !okEnd {
			errs = append(errs, "Invalid time format. Use HH:MM")
		} else if startM >= endM {
			errs = append(errs, "Start time must be before end time")
		}
	}

	if req.AlgoType != types.AlgoNone {
		if req.StartTime == "" {
			errs = append(errs, fmt.Sprintf("Start time required for %s algo", req.AlgoType))
		}
		if req.EndTime == "" {
			errs = append(errs, fmt.Sprintf("End time required for %s algo", req.AlgoType))
		}
	}

	if req.AlgoParams != nil {
		switch req.AlgoType {
		case types.AlgoPOV:
			rate := req.AlgoParams.TargetParticipationRate
			if rate != 0 && (rate < 1 || rate > 50) {
				errs = append(errs, "POV target participation rate must be 1-50%")
			}
		case types.AlgoVWAP:
			maxVol := req.AlgoParams.MaxVolumePct
			if maxVol != 0 && (maxVol < 1 || maxVol > 50) {
				errs = append(errs, "VWAP max volume % must be 1-50%")
			}
		case types.AlgoIceberg:
			display := req.AlgoParams.DisplayQuantity
			if display < 0 {
				errs = append(errs, "ICEBERG display quantity must be positive")
			}
			if display > 0 && display >= req.Quantity {
				errs = append(errs, "ICEBERG display quantity must be less than total order size")
			}
		}
	}

	return errs, nil
}

// CreateOrder validates, persists and returns the new order. Validation
// failures come back as a list of messages with a nil error.
func (s *Service) CreateOrder(req *CreateOrderRequest) (*types.Order, []string, error) {
	req.normalize()

	validationErrs, err := s.Validate(req)
	if err != nil {
		return nil, nil, err
	}
	if len(validationErrs) > 0 {
		return nil, validationErrs, nil
	}

	urgency := 50
	if req.Urgency != nil {
		urgency = *req.Urgency
	}

	algoParams := ""
	if req.AlgoParams != nil {
		encoded, err := json.Marshal(req.AlgoParams)
		if err != nil {
			return nil, nil, err
		}
		algoParams = string(encoded)
	}

	order := &types.Order{
		OrderID:    strings.ToUpper(uuid.New().String()[:12]),
		ClientID:   req.ClientID,
		AccountID:  req.AccountID,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		OrderType:  req.OrderType,
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		AlgoType:   req.AlgoType,
		AlgoParams: algoParams,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TIF:        req.TIF,
		Urgency:    urgency,
		GetDone:    req.GetDone,
		Capacity:   req.Capacity,
		OrderNotes: req.OrderNotes,
		Status:     types.StatusWorking,
	}

	details, _ := json.Marshal(req)
	if err := s.db.CreateOrder(order, string(details)); err != nil {
		return nil, nil, err
	}
	return order, nil, nil
}

// CancelOrder cancels an open order; terminal orders cannot be cancelled.
func (s *Service) CancelOrder(orderID, reason string) (*types.Order, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}
	if !order.IsOpen() {
		return order, fmt.Errorf("cannot cancel order in %s status", order.Status)
	}

	details, _ := json.Marshal(map[string]string{"reason": reason})
	if err := s.db.CancelOrder(orderID, string(details)); err != nil {
		return nil, err
	}
	order.Status = types.StatusCancelled
	return order, nil
}

// AmendRequest carries the amendable order fields.
type AmendRequest struct {
	Quantity   *int64   `json:"quantity"`
	LimitPrice *float64 `json:"limit_price"`
	StopPrice  *float64 `json:"stop_price"`
}

// AmendOrder changes quantity or prices on an open order.
func (s *Service) AmendOrder(orderID string, req *AmendRequest) (*types.Order, error) {
	order, err := s.db.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}
	if !order.IsOpen() {
		return nil, fmt.Errorf("cannot amend order in %s status", order.Status)
	}

	updates := make(map[string]interface{})
	details := make(map[string]string)

	if req.Quantity != nil {
		if *req.Quantity <= order.FilledQuantity {
			return nil, fmt.Errorf("new quantity must be greater than filled quantity")
		}
		updates["quantity"] = *req.Quantity
		details["quantity"] = fmt.Sprintf("%d -> %d", order.Quantity, *req.Quantity)
	}
	if req.LimitPrice != nil {
		updates["limit_price"] = *req.LimitPrice
		details["limit_price"] = fmt.Sprintf("%.2f -> %.2f", order.LimitPrice, *req.LimitPrice)
	}
	if req.StopPrice != nil {
		updates["stop_price"] = *req.StopPrice
		details["stop_price"] = fmt.Sprintf("%.2f -> %.2f", order.StopPrice, *req.StopPrice)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no amendments provided")
	}

	encoded, _ := json.Marshal(details)
	if err := s.db.AmendOrder(orderID, updates, string(encoded)); err != nil {
		return nil, err
	}
	return s.db.GetOrder(orderID)
}

func parseClockMinutes(s string) (int, bool) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// GinHandlers contains HTTP handlers for order endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// CreateOrderHandler handles POST requests to create new orders
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, validationErrs, err := h.service.CreateOrder(&req)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if len(validationErrs) > 0 {
			response.ValidationFailed(c, validationErrs)
			return
		}
		response.Success(c, order)
	}
}

// ListOrdersHandler handles GET requests to list orders with filters
func (h *GinHandlers) ListOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := h.service.db.ListOrders(
			strings.ToUpper(c.Query("status")),
			c.Query("client_id"),
			strings.ToUpper(c.Query("symbol")),
		)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, orders)
	}
}

// GetOrderHandler handles GET requests for one order with its executions,
// audit history and child orders
func (h *GinHandlers) GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("order_id")
		order, err := h.service.db.GetOrder(orderID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if order == nil {
			response.NotFound(c, "Order not found")
			return
		}

		executions, err := h.service.db.GetExecutions(orderID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		history, err := h.service.db.GetHistory(orderID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		children, err := h.service.db.GetChildOrders(orderID)
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}

		response.Success(c, gin.H{
			"order":        order,
			"executions":   executions,
			"history":      history,
			"child_orders": children,
		})
	}
}

// CancelOrderHandler handles POST requests to cancel an order
func (h *GinHandlers) CancelOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&req)

		order, err := h.service.CancelOrder(c.Param("order_id"), req.Reason)
		if order == nil && err == nil {
			response.NotFound(c, "Order not found")
			return
		}
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		response.Success(c, gin.H{"message": "Order cancelled", "order_id": order.OrderID})
	}
}

// AmendOrderHandler handles POST requests to amend an open order
func (h *GinHandlers) AmendOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AmendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		order, err := h.service.AmendOrder(c.Param("order_id"), &req)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if order == nil {
			response.NotFound(c, "Order not found")
			return
		}
		response.Success(c, order)
	}
}

// GetExecutionsHandler handles GET requests for an order's fills
func (h *GinHandlers) GetExecutionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		executions, err := h.service.db.GetExecutions(c.Param("order_id"))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, executions)
	}
}
