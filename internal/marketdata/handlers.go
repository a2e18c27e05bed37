package marketdata

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/pubsub"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GinHandlers contains HTTP handlers for market data endpoints
type GinHandlers struct {
	store *Store
	db    *Database
	hub   *pubsub.Hub
}

func NewGinHandlers(store *Store, db *Database, hub *pubsub.Hub) *GinHandlers {
	return &GinHandlers{store: store, db: db, hub: hub}
}

// GetSnapshotHandler handles GET requests for the full market snapshot
func (h *GinHandlers) GetSnapshotHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, h.store.Snapshot())
	}
}

// GetSymbolHandler handles GET requests for one symbol's quote
func (h *GinHandlers) GetSymbolHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(c.Param("symbol"))
		quote, ok := h.store.Quote(symbol)
		if !ok {
			response.NotFound(c, "Symbol not found")
			return
		}
		response.Success(c, quote)
	}
}

// GetHistoryHandler handles GET requests for persisted snapshots of a symbol
func (h *GinHandlers) GetHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		symbol := strings.ToUpper(c.Param("symbol"))
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if err != nil || limit <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}

		points, err := h.db.GetHistory(symbol, limit)
		if err != nil {
			response.InternalError(c, "Failed to load market data history")
			return
		}
		response.Success(c, points)
	}
}

// StreamHandler upgrades to a WebSocket and relays the market tick stream.
// The connection ends when the client goes away or the subscriber is evicted
// for falling behind.
func (h *GinHandlers) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug().Err(err).Msg("market stream upgrade failed")
			return
		}
		pubsub.ServeWS(conn, h.hub)
	}
}
