package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendQueueSize  = 64
)

// Client is one live websocket connection. The read pump handles control
// messages (room joins); the write pump drains the send queue.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// controlMessage is what clients send to manage their subscriptions.
type controlMessage struct {
	Action  string `json:"action"`
	OrderID uint   `json:"orderId,omitempty"`
	Token   string `json:"token,omitempty"`
	Key     string `json:"key,omitempty"`
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
	}
}

// Start registers the client and runs both pumps.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: client %s read error: %v", c.ID, err)
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendEvent(EventError, "invalid message")
			continue
		}
		c.handleControl(msg)
	}
}

func (c *Client) handleControl(msg controlMessage) {
	switch msg.Action {
	case "subscribeToOrder":
		if msg.OrderID == 0 {
			c.sendEvent(EventError, "orderId is required")
			return
		}
		if !c.hub.access.CanTrackOrder(msg.OrderID, msg.Token) {
			c.sendEvent(EventError, "not allowed to track this order")
			return
		}
		c.hub.join(c, OrderRoom(msg.OrderID))

	case "joinAdminRoom":
		if !c.hub.access.CanJoinAdmin(msg.Key) {
			c.sendEvent(EventError, "admin key rejected")
			return
		}
		c.hub.join(c, AdminRoom)

	default:
		c.sendEvent(EventError, "unknown action")
	}
}

// sendEvent queues a single event for this client only.
func (c *Client) sendEvent(event string, data interface{}) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
