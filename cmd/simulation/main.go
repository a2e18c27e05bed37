package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/auth"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
)

const (
	minOrders  = 10
	maxOrders  = 40
	numWorkers = 4
	// How long to let the execution loop work the book before reporting
	watchDuration = 45 * time.Second
)

var (
	symbols    = []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK", "SBIN", "BHARTIARTL", "ITC", "TATAMOTORS", "WIPRO"}
	directions = []string{"BUY", "SELL"}
	algos      = []string{"NONE", "NONE", "POV", "VWAP", "ICEBERG"}
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the trading API
type simulationClient struct {
	baseURL   string
	authToken string
	client    *http.Client
	stats     map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
// It authenticates with the API and prepares performance tracking
func newSimulationClient(baseURL string) (*simulationClient, error) {
	// Create HTTP client with timeout
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	sc := &simulationClient{
		baseURL: baseURL,
		client:  client,
		stats: map[string]*routeStats{
			"auth":   {name: "Authentication"},
			"create": {name: "Create Order"},
			"get":    {name: "Get Order"},
			"market": {name: "Market Snapshot"},
		},
	}

	// Get auth token
	token, err := sc.authenticate()
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate() (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    auth.TestAPIKey,
		"api_secret": auth.TestAPISecret,
	}

	body, err := json.Marshal(credentials)
	if err != nil {
		return "", err
	}

	resp, err := sc.client.Post(
		fmt.Sprintf("%s/api/auth/token", sc.baseURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"jwt_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Data.Token, nil
}

// orderRequest mirrors the create-order API payload
type orderRequest struct {
	ClientID   string            `json:"client_id"`
	Symbol     string            `json:"symbol"`
	Direction  string            `json:"direction"`
	OrderType  string            `json:"order_type"`
	Quantity   int64             `json:"quantity"`
	LimitPrice float64           `json:"limit_price,omitempty"`
	AlgoType   string            `json:"algo_type"`
	AlgoParams *types.AlgoParams `json:"algo_params,omitempty"`
	StartTime  string            `json:"start_time,omitempty"`
	EndTime    string            `json:"end_time,omitempty"`
	TIF        string            `json:"tif"`
}

// executionWindow returns a start/end pair opening now and closing an hour
// later, clamped to midnight. Intake validation requires a window on every
// algo order.
func executionWindow(now time.Time) (string, string) {
	start := now.Format("15:04")
	end := now.Add(time.Hour).Format("15:04")
	if end < start {
		end = "23:59"
	}
	return start, end
}

// createOrder submits a new order to the API
// Returns the order ID on success
func (sc *simulationClient) createOrder(order *orderRequest) (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["create"].addDuration(time.Since(start))
	}()

	body, err := json.Marshal(order)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s/api/orders", sc.baseURL),
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("response", string(respBody)).Msg("Create order response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create order failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			OrderID string `json:"order_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if result.Data.OrderID == "" {
		return "", fmt.Errorf("no order ID in response: %s", string(respBody))
	}

	return result.Data.OrderID, nil
}

// getOrder retrieves the current state of an order
func (sc *simulationClient) getOrder(orderID string) (*types.Order, error) {
	start := time.Now()
	defer func() {
		sc.stats["get"].addDuration(time.Since(start))
	}()

	req, err := http.NewRequest(
		"GET",
		fmt.Sprintf("%s/api/orders/%s", sc.baseURL, orderID),
		nil,
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get order failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Order types.Order `json:"order"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	return &result.Data.Order, nil
}

// getQuote fetches the live market snapshot for a symbol
func (sc *simulationClient) getQuote(symbol string) (*types.MarketQuote, error) {
	start := time.Now()
	defer func() {
		sc.stats["market"].addDuration(time.Since(start))
	}()

	resp, err := sc.client.Get(fmt.Sprintf("%s/api/market-data/%s", sc.baseURL, symbol))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get quote failed with status %d", resp.StatusCode)
	}

	var result struct {
		Success bool              `json:"success"`
		Data    types.MarketQuote `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result.Data, nil
}

// watchOrderStream subscribes to the order-update WebSocket and counts fill
// events per order until done is closed.
func watchOrderStream(wsURL string, fills map[string]int, mu *sync.Mutex, done <-chan struct{}) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to order stream")
		return
	}
	defer conn.Close()

	go func() {
		<-done
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event types.OrderEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			continue
		}
		if event.Type != "order_update" {
			continue
		}

		mu.Lock()
		fills[event.Data.OrderID]++
		mu.Unlock()

		log.Info().
			Str("order_id", event.Data.OrderID).
			Str("status", event.Data.Status).
			Int64("filled", event.Data.FilledQuantity).
			Float64("avg_price", event.Data.AvgFillPrice).
			Float64("last_price", event.Data.LastFillPrice).
			Int64("last_qty", event.Data.LastFillQty).
			Msg("Order update")
	}
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// randomOrder builds a randomized order request priced off the live quote
func randomOrder(sc *simulationClient) *orderRequest {
	symbol := symbols[rand.Intn(len(symbols))]
	algo := algos[rand.Intn(len(algos))]

	order := &orderRequest{
		ClientID:  "CLIENT001",
		Symbol:    symbol,
		Direction: directions[rand.Intn(len(directions))],
		OrderType: "MARKET",
		Quantity:  int64(rand.Intn(20000) + 1000),
		AlgoType:  algo,
		TIF:       "GFD",
	}

	if algo != "NONE" {
		order.StartTime, order.EndTime = executionWindow(time.Now())
	}

	switch algo {
	case "POV":
		order.AlgoParams = &types.AlgoParams{
			TargetParticipationRate: float64(rand.Intn(20) + 5),
			AggressionLevel:         "Medium",
		}
	case "VWAP":
		curves := []string{"Front-loaded", "Back-loaded", "Historical"}
		order.AlgoParams = &types.AlgoParams{
			VolumeCurve:  curves[rand.Intn(len(curves))],
			MaxVolumePct: float64(rand.Intn(20) + 10),
		}
	case "ICEBERG":
		order.AlgoParams = &types.AlgoParams{
			DisplayQuantity: int64(rand.Intn(400) + 100),
			AggressionLevel: "Low",
		}
	}

	// Make some direct orders limit orders pegged near the live price
	if algo == "NONE" && rand.Float64() < 0.4 {
		if quote, err := sc.getQuote(symbol); err == nil && quote.LTP > 0 {
			order.OrderType = "LIMIT"
			if order.Direction == "BUY" {
				order.LimitPrice = math.Round(quote.LTP*1.01*100) / 100
			} else {
				order.LimitPrice = math.Round(quote.LTP*0.99*100) / 100
			}
		}
	}

	return order
}

// createOrdersHTTP generates and submits random orders to the API
// Runs as a worker goroutine, sending created order IDs to ordersChan
func createOrdersHTTP(workerID, numOrders int, simClient *simulationClient, ordersChan chan<- string) {
	for i := 0; i < numOrders; i++ {
		order := randomOrder(simClient)

		orderID, err := simClient.createOrder(order)
		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Str("symbol", order.Symbol).
				Msg("Failed to create order")
			simClient.stats["create"].failures++
			continue
		}

		ordersChan <- orderID
		log.Info().
			Int("worker_id", workerID).
			Str("order_id", orderID).
			Str("symbol", order.Symbol).
			Str("direction", order.Direction).
			Str("algo", order.AlgoType).
			Int64("quantity", order.Quantity).
			Msg("Order created")

		// Random sleep between orders
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// main runs the load simulation against a running server
// It submits a randomized order book and watches the fill stream
func main() {
	baseURL := os.Getenv("SERVER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/api/stream/orders"

	// Initialize simulation client
	simClient, err := newSimulationClient(baseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize simulation client")
	}

	// Start watching the order-update stream before submitting anything
	fillCounts := make(map[string]int)
	var fillMu sync.Mutex
	watchDone := make(chan struct{})
	go watchOrderStream(wsURL, fillCounts, &fillMu, watchDone)

	// Generate random number of orders to submit
	targetOrders := rand.Intn(maxOrders-minOrders) + minOrders
	log.Info().Int("target_orders", targetOrders).Msg("Starting simulation")

	// Channel to collect order IDs
	ordersChan := make(chan string, targetOrders)
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			createOrdersHTTP(workerID, targetOrders/numWorkers, simClient, ordersChan)
		}(i)
	}

	// Wait for all orders to be created
	wg.Wait()
	close(ordersChan)

	// Collect all order IDs
	var orderIDs []string
	for orderID := range ordersChan {
		orderIDs = append(orderIDs, orderID)
	}

	log.Info().Int("orders_created", len(orderIDs)).Msg("All orders created")

	// Let the execution loop work the book
	log.Info().Dur("watch_duration", watchDuration).Msg("Watching fills")
	time.Sleep(watchDuration)
	close(watchDone)

	// Collect final order states
	stats := struct {
		TotalOrders    int
		Filled         int
		PartialFilled  int
		Working        int
		TotalNotional  float64
		TotalFilledQty int64
		Symbols        map[string]int
		Algos          map[string]int
	}{
		TotalOrders: len(orderIDs),
		Symbols:     make(map[string]int),
		Algos:       make(map[string]int),
	}

	for _, orderID := range orderIDs {
		order, err := simClient.getOrder(orderID)
		if err != nil {
			log.Error().Err(err).Str("order_id", orderID).Msg("Failed to fetch order")
			simClient.stats["get"].failures++
			continue
		}

		stats.Symbols[order.Symbol]++
		algo := order.AlgoType
		if algo == "" {
			algo = "NONE"
		}
		stats.Algos[algo]++
		stats.TotalFilledQty += order.FilledQuantity
		stats.TotalNotional += order.AvgFillPrice * float64(order.FilledQuantity)

		switch order.Status {
		case "FILLED":
			stats.Filled++
		case "PARTIALLY_FILLED":
			stats.PartialFilled++
		default:
			stats.Working++
		}
	}

	fillMu.Lock()
	totalFillEvents := 0
	for _, n := range fillCounts {
		totalFillEvents += n
	}
	fillMu.Unlock()

	// Print summary
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("MARKET SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Total Orders:     %d
Filled:           %d
Partially Filled: %d
Still Working:    %d
Fill Events:      %d
Filled Quantity:  %d
Filled Notional:  %.2f

Symbol Distribution
-------------------
`, stats.TotalOrders, stats.Filled, stats.PartialFilled, stats.Working,
		totalFillEvents, stats.TotalFilledQty, stats.TotalNotional)

	// Print symbol distribution with simple ASCII bar chart
	maxSymbolCount := 0
	for _, count := range stats.Symbols {
		if count > maxSymbolCount {
			maxSymbolCount = count
		}
	}

	for symbol, count := range stats.Symbols {
		barLength := int(float64(count) / float64(maxSymbolCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-12s: %s (%d)\n", symbol, bar, count)
	}

	fmt.Println("\nAlgo Distribution")
	fmt.Println("-----------------")
	for algo, count := range stats.Algos {
		barLength := int(float64(count) / float64(stats.TotalOrders) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("%-8s: %s (%d)\n", algo, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	fillRate := 0.0
	if stats.TotalOrders > 0 {
		fillRate = float64(stats.Filled) / float64(stats.TotalOrders) * 100
	}
	log.Info().
		Float64("fill_rate", fillRate).
		Int("total_orders", stats.TotalOrders).
		Int("fill_events", totalFillEvents).
		Float64("filled_notional", stats.TotalNotional).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}
