package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"pollbox/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades GET /v1/results/live to a WebSocket connection. Results
// are public, so the feed takes no authentication.
func Handler(hub *Hub, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			if l != nil {
				l.Warnf("websocket upgrade failed: %s", err.Error())
			}
			return
		}

		client := NewClient(conn)
		hub.Register(client)

		// The request context dies when the handler returns; the connection
		// outlives it, so the write loop runs on its own context.
		go client.WriteLoop(context.Background())
		go readLoop(hub, client)
	}
}

// readLoop discards inbound frames; the feed is one-way. Reading is still
// required so pongs are processed and disconnects noticed.
func readLoop(hub *Hub, client *Client) {
	defer hub.Unregister(client)

	client.Conn.SetReadLimit(512)
	_ = client.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
