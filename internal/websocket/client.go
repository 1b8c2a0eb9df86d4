package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	FrameMessage = "message"
	FrameTurn    = "turn"
	FrameError   = "error"
)

// TurnFunc runs one chat turn for the socket's session.
type TurnFunc func(ctx context.Context, content string) (*dto.TurnResponse, error)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	SessionId string

	// Buffered channel of outbound frames.
	Send chan []byte

	onMessage TurnFunc
	logger    logger.ILogger
}

// ServeWs registers the socket and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionId string, onMessage TurnFunc, log logger.ILogger) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		SessionId: sessionId,
		Send:      make(chan []byte, 16),
		onMessage: onMessage,
		logger:    log,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

// readPump turns every inbound "message" frame into a chat turn. Turns on
// one socket run one at a time.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn(hubModule, "Unexpected websocket close", map[string]interface{}{
					"session_id": c.SessionId,
					"error":      err.Error(),
				})
			}
			return
		}

		var frame dto.WsTurnMessage
		if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != FrameMessage || strings.TrimSpace(frame.Content) == "" {
			c.reply(dto.WsTurnMessage{Type: FrameError, Error: "expected {\"type\":\"message\",\"content\":\"...\"}"})
			continue
		}

		// a turn can outlive the read deadline while the model answers
		c.Conn.SetReadDeadline(time.Time{})
		turn, err := c.onMessage(context.Background(), frame.Content)
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		if err != nil {
			c.reply(dto.WsTurnMessage{Type: FrameError, Error: err.Error()})
			continue
		}
		c.Hub.SendToSession(c.SessionId, dto.WsTurnMessage{Type: FrameTurn, Turn: turn})
	}
}

// reply goes to this socket only.
func (c *Client) reply(frame dto.WsTurnMessage) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
