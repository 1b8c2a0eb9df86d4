package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	hubModule      = "Hub"
	clusterChannel = "kt_session_frames"
)

type clusterFrame struct {
	Origin    string          `json:"origin"`
	SessionId string          `json:"session_id"`
	Message   json.RawMessage `json:"message"`
}

// Hub fans interview frames out to every socket open on the same session,
// e.g. two browser tabs. With Redis configured the frames also reach sockets
// held by other instances.
type Hub struct {
	// session id -> open sockets
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

// NewHub accepts a nil rdb for single-instance deployments.
func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionId] = append(h.clients[client.SessionId], client)
			h.mu.Unlock()
			h.logger.Info(hubModule, "Client registered", map[string]interface{}{"session_id": client.SessionId})

		case client := <-h.unregister:
			h.mu.Lock()
			clients := h.clients[client.SessionId]
			for i, c := range clients {
				if c == client {
					h.clients[client.SessionId] = append(clients[:i], clients[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.SessionId]) == 0 {
				delete(h.clients, client.SessionId)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) ClientCount(sessionId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionId])
}

// SendToSession delivers a frame to local sockets of the session and
// publishes it for other instances.
func (h *Hub) SendToSession(sessionId string, frame dto.WsTurnMessage) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error(hubModule, "Failed to encode frame", map[string]interface{}{"error": err})
		return
	}

	h.deliver(sessionId, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterFrame{Origin: h.instance, SessionId: sessionId, Message: data})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn(hubModule, "Failed to publish frame to cluster", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) deliver(sessionId string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionId] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn(hubModule, "Client send buffer full, dropping frame", map[string]interface{}{"session_id": sessionId})
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var frame clusterFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			h.logger.Warn(hubModule, "Dropping malformed cluster frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		if frame.Origin == h.instance {
			continue
		}
		h.deliver(frame.SessionId, frame.Message)
	}
}
