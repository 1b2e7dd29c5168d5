package types

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// EventMessage is what websocket clients receive.
type EventMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub is the registry of connected websocket clients. Broadcast never
// blocks: a client whose buffer is full simply misses the event, the
// durable record is in Redis and ClickHouse.
type Hub struct {
	logger  *zap.Logger
	clients *xsync.Map[uint64, chan EventMessage]
	nextID  atomic.Uint64
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: xsync.NewMap[uint64, chan EventMessage](),
	}
}

// Register adds a client and returns its id plus the receive channel.
func (h *Hub) Register() (uint64, <-chan EventMessage) {
	id := h.nextID.Add(1)
	ch := make(chan EventMessage, 256)
	h.clients.Store(id, ch)
	return id, ch
}

// Unregister removes a client. The channel is deliberately left open:
// Broadcast may hold a range snapshot that still contains it, and a send
// on a closed channel would panic the process. The abandoned channel is
// reclaimed once the handler returns.
func (h *Hub) Unregister(id uint64) {
	h.clients.Delete(id)
}

// Broadcast delivers msg to every connected client that can keep up.
func (h *Hub) Broadcast(msg EventMessage) {
	h.clients.Range(func(id uint64, ch chan EventMessage) bool {
		select {
		case ch <- msg:
		default:
			h.logger.Debug("Dropping event for slow websocket client", zap.Uint64("client", id))
		}
		return true
	})
}

// Size returns the number of connected clients.
func (h *Hub) Size() int {
	return h.clients.Size()
}
