package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/accounts"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/auth"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/clients"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/database"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/execution"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/instruments"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/marketdata"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/orders"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/pubsub"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const (
	marketHubCapacity = 50
	orderHubCapacity  = 100
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the market simulation server with graceful
// shutdown support. It seeds the market from the instrument universe, starts
// the simulation and execution loops, and wires up all API routes.
func main() {
	// Initialize database
	db, err := database.NewDatabase()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "market-sim-secret-key"
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register test credentials
	authService.RegisterAPICredentials(auth.TestAPIKey, auth.TestAPISecret)

	instrumentService := instruments.NewService(db)
	instrumentHandlers := instruments.NewGinHandlers(instrumentService)

	clientService := clients.NewService(db)
	clientHandlers := clients.NewGinHandlers(clientService)

	accountService := accounts.NewService(db)
	accountHandlers := accounts.NewGinHandlers(accountService)

	universe, err := instrumentService.ListActive()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load instrument universe")
	}
	if len(universe) == 0 {
		zlog.Fatal().Msg("Instrument universe is empty")
	}

	marketHub := pubsub.NewHub(marketHubCapacity)
	orderHub := pubsub.NewHub(orderHubCapacity)

	store := marketdata.NewStore()
	marketDB := marketdata.NewDatabase(db)
	marketService := marketdata.NewService(store, marketDB, marketHub, universe,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	marketHandlers := marketdata.NewGinHandlers(store, marketDB, marketHub)

	engine := execution.NewEngine(db, store, orderHub,
		rand.New(rand.NewSource(time.Now().UnixNano())))
	executionHandlers := execution.NewGinHandlers(orderHub)

	orderService := orders.NewService(db, store)
	orderHandlers := orders.NewGinHandlers(orderService)

	// Start the simulation and execution loops
	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()

	go marketService.Start(loopCtx)
	go engine.Start(loopCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, jwtSecret, authHandlers, orderHandlers, marketHandlers,
		executionHandlers, instrumentHandlers, clientHandlers, accountHandlers)

	// Get port from env otherwise it's 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Stop the background loops before closing listeners
	loopCancel()

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Order routes: Protected by JWT authentication
// - Market data and stream routes: Public read-only endpoints
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	orderHandlers *orders.GinHandlers,
	marketHandlers *marketdata.GinHandlers,
	executionHandlers *execution.GinHandlers,
	instrumentHandlers *instruments.GinHandlers,
	clientHandlers *clients.GinHandlers,
	accountHandlers *accounts.GinHandlers,
) {
	api := router.Group("/api")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Order routes
		orderGroup := api.Group("/orders")
		orderGroup.Use(middleware.JWTAuth(jwtSecret))
		{
			orderGroup.POST("", orderHandlers.CreateOrderHandler())
			orderGroup.GET("", orderHandlers.ListOrdersHandler())
			orderGroup.GET("/:order_id", orderHandlers.GetOrderHandler())
			orderGroup.DELETE("/:order_id", orderHandlers.CancelOrderHandler())
			orderGroup.PUT("/:order_id", orderHandlers.AmendOrderHandler())
			orderGroup.GET("/:order_id/executions", orderHandlers.GetExecutionsHandler())
		}

		// Market data routes
		marketGroup := api.Group("/market-data")
		{
			marketGroup.GET("", marketHandlers.GetSnapshotHandler())
			marketGroup.GET("/:symbol", marketHandlers.GetSymbolHandler())
			marketGroup.GET("/:symbol/history", marketHandlers.GetHistoryHandler())
		}

		// Reference data routes
		api.GET("/instruments", instrumentHandlers.ListHandler())
		api.GET("/instruments/:symbol", instrumentHandlers.GetHandler())
		api.GET("/clients", clientHandlers.ListHandler())
		api.GET("/clients/:client_id", clientHandlers.GetHandler())
		api.GET("/accounts", accountHandlers.ListHandler())
		api.GET("/accounts/:account_id", accountHandlers.GetHandler())

		// WebSocket streams
		streamGroup := api.Group("/stream")
		{
			streamGroup.GET("/market", marketHandlers.StreamHandler())
			streamGroup.GET("/orders", executionHandlers.StreamHandler())
		}

		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}
