package execution

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/pubsub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GinHandlers contains HTTP handlers for the execution event stream
type GinHandlers struct {
	hub *pubsub.Hub
}

func NewGinHandlers(hub *pubsub.Hub) *GinHandlers {
	return &GinHandlers{hub: hub}
}

// StreamHandler upgrades to a WebSocket and relays order update events.
func (h *GinHandlers) StreamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Debug().Err(err).Msg("order stream upgrade failed")
			return
		}
		pubsub.ServeWS(conn, h.hub)
	}
}
