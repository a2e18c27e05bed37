package pubsub

import (
	"github.com/gorilla/websocket"
)

// ServeWS drains a hub subscription into a WebSocket connection until the
// client disconnects or the subscriber is evicted for falling behind.
func ServeWS(conn *websocket.Conn, hub *Hub) {
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)
	defer conn.Close()

	// Reader pump: notice client disconnects promptly instead of waiting for
	// the subscriber queue to saturate.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				hub.Unsubscribe(sub)
				return
			}
		}
	}()

	for payload := range sub.C() {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
