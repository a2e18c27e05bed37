package orders

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

type fakeMarket struct {
	quotes map[string]types.MarketQuote
}

func (f *fakeMarket) Quote(symbol string) (types.MarketQuote, bool) {
	q, ok := f.quotes[symbol]
	return q, ok
}

func setupOrderTest(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Order{}, &types.Execution{}, &types.OrderHistory{},
		&types.Instrument{}, &types.Client{},
	))

	require.NoError(t, db.Create(&types.Instrument{
		Symbol: "RELIANCE", Name: "Reliance Industries Ltd",
		BasePrice: 2450, Volatility: 1.8, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&types.Instrument{
		Symbol: "TATAMOTORS", Name: "Tata Motors Ltd",
		BasePrice: 710, Volatility: 3.5, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&types.Client{
		ClientID: "CLIENT001", Name: "Quantum Capital Partners",
		PositionLimit: 100000, CreditLimit: 50000000,
		RestrictedSymbols: "TATAMOTORS", IsActive: true,
	}).Error)

	market := &fakeMarket{quotes: map[string]types.MarketQuote{
		"RELIANCE": {MarketSnapshot: types.MarketSnapshot{
			Symbol: "RELIANCE", Bid: 2449.50, Ask: 2450.50, LTP: 2450.00,
		}},
	}}
	return NewService(db, market)
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		ClientID:  "CLIENT001",
		Symbol:    "RELIANCE",
		Direction: "BUY",
		OrderType: "MARKET",
		Quantity:  1000,
		AlgoType:  "NONE",
	}
}

func TestCreateOrder_Valid(t *testing.T) {
	s := setupOrderTest(t)

	order, violations, err := s.CreateOrder(validRequest())
	require.NoError(t, err)
	require.Empty(t, violations)
	require.NotNil(t, order)

	assert.Len(t, order.OrderID, 12)
	assert.Equal(t, types.StatusWorking, order.Status)
	assert.Equal(t, "GFD", order.TIF)
	assert.Equal(t, 50, order.Urgency)

	history, err := s.db.GetHistory(order.OrderID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "CREATED", history[0].Action)
}

func TestCreateOrder_NormalizesCase(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.Symbol = "reliance"
	req.Direction = "buy"
	req.OrderType = "market"

	order, violations, err := s.CreateOrder(req)
	require.NoError(t, err)
	require.Empty(t, violations)
	assert.Equal(t, "RELIANCE", order.Symbol)
	assert.Equal(t, "BUY", order.Direction)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.Direction = "SIDEWAYS"
	req.OrderType = "FANCY"
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	assert.Len(t, violations, 2, "every enum violation should be reported")
}

func TestValidate_UnknownSymbolAndClient(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.Symbol = "GHOST"
	req.normalize()
	violations, err := s.Validate(req)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "GHOST")

	req = validRequest()
	req.ClientID = "NOBODY"
	req.normalize()
	violations, err = s.Validate(req)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "NOBODY")
}

func TestValidate_RestrictedSymbol(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.Symbol = "TATAMOTORS"
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "restricted")
}

func TestValidate_PositionLimit(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.Quantity = 200000
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "position limit")
}

func TestValidate_LimitPriceCollar(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.OrderType = "LIMIT"
	req.LimitPrice = 2000.00 // more than 5% below LTP 2450
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	assert.Contains(t, violations[0], "collar")

	req.LimitPrice = 2400.00 // inside the collar
	violations, err = s.Validate(req)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestValidate_AlgoRequiresTimeWindow(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.AlgoType = "POV"
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	assert.Len(t, violations, 2, "missing start and end times are separate violations")

	req.StartTime = "10:00"
	req.EndTime = "09:00"
	violations, err = s.Validate(req)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "before end time")
}

func TestValidate_AlgoParamRanges(t *testing.T) {
	s := setupOrderTest(t)

	req := validRequest()
	req.AlgoType = "POV"
	req.StartTime = "10:00"
	req.EndTime = "15:00"
	req.AlgoParams = &types.AlgoParams{TargetParticipationRate: 80}
	req.normalize()

	violations, err := s.Validate(req)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "1-50%")

	req.AlgoType = "ICEBERG"
	req.AlgoParams = &types.AlgoParams{DisplayQuantity: 1000}
	violations, err = s.Validate(req)
	require.NoError(t, err)
	require.Len(t, violations, 1, "display quantity must be below the order size")
}

func TestCancelOrder_Lifecycle(t *testing.T) {
	s := setupOrderTest(t)

	order, _, err := s.CreateOrder(validRequest())
	require.NoError(t, err)

	cancelled, err := s.CancelOrder(order.OrderID, "client request")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, cancelled.Status)

	// A terminal order cannot be cancelled again.
	_, err = s.CancelOrder(order.OrderID, "again")
	assert.Error(t, err)

	// Unknown orders come back nil without error.
	missing, err := s.CancelOrder("DOES-NOT-EXIST", "")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAmendOrder(t *testing.T) {
	s := setupOrderTest(t)

	order, _, err := s.CreateOrder(validRequest())
	require.NoError(t, err)

	newQty := int64(2000)
	amended, err := s.AmendOrder(order.OrderID, &AmendRequest{Quantity: &newQty})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), amended.Quantity)

	// Quantity cannot be amended below what has already filled.
	require.NoError(t, s.db.db.Model(&types.Order{}).
		Where("order_id = ?", order.OrderID).
		Update("filled_quantity", 1500).Error)
	badQty := int64(1000)
	_, err = s.AmendOrder(order.OrderID, &AmendRequest{Quantity: &badQty})
	assert.Error(t, err)

	// An empty amendment is rejected.
	_, err = s.AmendOrder(order.OrderID, &AmendRequest{})
	assert.Error(t, err)
}
