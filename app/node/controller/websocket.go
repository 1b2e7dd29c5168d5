package controller

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"github.com/suretyx/suretyx/app/node/types"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// HandleWebSocket upgrades the connection and streams the platform's
// events (oracle.request, credit.issued, flight.status) to the client.
//
// Server sends:
// - {"type": "oracle.request", "payload": {...}}
// - {"type": "credit.issued", "payload": {...}}
// - {"type": "flight.status", "payload": {...}}
// - {"type": "ping", "payload": {"timestamp": 1234567890}}
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Debug("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	id, events := c.App.Hub.Register()
	defer c.App.Hub.Unregister(id)

	c.App.Logger.Info("WebSocket client connected",
		zap.Uint64("client", id),
		zap.String("remote_addr", r.RemoteAddr))

	done := make(chan struct{})

	// Read loop: we accept no client messages, but reading is what detects
	// a dropped peer.
	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in WebSocket read loop",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())))
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			c.App.Logger.Info("WebSocket client disconnected", zap.Uint64("client", id))
			return
		case <-r.Context().Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				c.App.Logger.Debug("WebSocket write failed", zap.Uint64("client", id), zap.Error(err))
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(types.EventMessage{
				Type:    "ping",
				Payload: map[string]int64{"timestamp": time.Now().Unix()},
			}); err != nil {
				return
			}
		}
	}
}
