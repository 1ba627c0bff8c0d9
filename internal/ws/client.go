package ws

import (
	"encoding/json"
	"time"

	"ludo_arena/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client is one websocket connection bound to an identity. ConnID is the
// address used by the signaling relay.
type Client struct {
	IdentityID  string
	DisplayName string
	Avatar      string
	ConnID      string

	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
	Done chan struct{}
}

func NewClient(identityID, displayName, avatar, connID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		IdentityID:  identityID,
		DisplayName: displayName,
		Avatar:      avatar,
		ConnID:      connID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Hub:         hub,
		Done:        make(chan struct{}),
	}
}

// Run starts the pumps and blocks until the connection drops.
func (c *Client) Run() {
	go c.writePump()

	c.Hub.Register(c)
	c.SendEvent(Event{Type: MsgReady, Payload: ReadyPayload{ConnID: c.ConnID}})

	c.readPump()
	<-c.Done
}

// SendEvent queues an event for delivery. Broadcasts are fire-and-forget: a
// subscriber with a full buffer loses the event rather than stalling the
// room.
func (c *Client) SendEvent(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "type", ev.Type, "error", err)
		return
	}
	select {
	case c.Send <- data:
	default:
		logger.Warn("ws: send buffer full, dropping event",
			"identity", c.IdentityID, "type", ev.Type)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			logger.Debug("ws: read closed", "identity", c.IdentityID, "error", err)
			break
		}
		c.Hub.Route(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws: write failed", "identity", c.IdentityID, "error", err)
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

func (c *Client) disconnect() {
	c.Hub.OnDisconnect(c)
	_ = c.Conn.Close()
}
