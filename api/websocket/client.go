package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Deadline for a single write to the peer
	writeWait = 10 * time.Second

	// A connection with no pong inside this window is considered dead
	pongWait = 60 * time.Second

	// Ping interval, kept under pongWait so the read deadline refreshes in time
	pingPeriod = (pongWait * 9) / 10

	// Inbound frames larger than this close the connection
	maxMessageSize = 4096

	// Per-client outbound queue depth
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering is left to the gateway fronting the node
		return true
	},
}

// Client is one WebSocket connection together with its subscription set
// and rate-limit counters. A Client is owned by its two pump goroutines;
// the hub reaches it only through the send channel.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	id     string
	userID string // account address, empty until the client identifies itself
	ip     string

	subscriptions map[string]bool
	subMu         sync.RWMutex

	// Sliding one-second message counter
	messageCount int
	lastReset    time.Time
	rateMu       sync.Mutex

	connectedAt   time.Time
	lastMessageAt time.Time
}

// ClientMessage is the inbound frame format.
type ClientMessage struct {
	Action  string          `json:"action"` // subscribe, unsubscribe, ping, auth
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewClient wraps an upgraded connection for the hub.
func NewClient(hub *Hub, conn *websocket.Conn, id, userID, ip string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBufferSize),
		id:            id,
		userID:        userID,
		ip:            ip,
		subscriptions: make(map[string]bool),
		connectedAt:   time.Now(),
		lastReset:     time.Now(),
	}
}

// readPump drains inbound frames until the connection errors. It is the
// only reader, so deadline and limit handling live here.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}

		c.lastMessageAt = time.Now()

		if !c.checkRateLimit() {
			c.sendError("rate_limit_exceeded", "Too many messages, please slow down")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid_message", "Failed to parse message")
			continue
		}

		c.handleMessage(&msg)
	}
}

// writePump is the single writer for the connection. It forwards the
// send channel and keeps the peer alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the send channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)

			// Fold whatever is already queued into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				_, _ = w.Write([]byte{'\n'})
				_, _ = w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches a parsed inbound frame.
func (c *Client) handleMessage(msg *ClientMessage) {
	switch msg.Action {
	case "subscribe":
		c.handleSubscribe(msg.Channel)
	case "unsubscribe":
		c.handleUnsubscribe(msg.Channel)
	case "ping":
		c.handlePing()
	case "auth":
		c.handleAuth(msg.Data)
	default:
		c.sendError("unknown_action", "Unknown action: "+msg.Action)
	}
}

func (c *Client) handleSubscribe(channel string) {
	if channel == "" {
		c.sendError("invalid_channel", "Channel cannot be empty")
		return
	}

	c.subMu.Lock()
	if len(c.subscriptions) >= c.hub.config.MaxSubscriptions {
		c.subMu.Unlock()
		c.sendError("subscription_limit", "Maximum subscription limit reached")
		return
	}
	c.subscriptions[channel] = true
	c.subMu.Unlock()

	if !c.canAccessChannel(channel) {
		c.sendError("unauthorized", "Not authorized to access channel: "+channel)
		return
	}

	c.hub.subscribe <- &SubscriptionRequest{
		Client:  c,
		Channel: channel,
		Action:  "subscribe",
	}
}

func (c *Client) handleUnsubscribe(channel string) {
	c.subMu.Lock()
	delete(c.subscriptions, channel)
	c.subMu.Unlock()

	c.hub.unsubscribe <- &SubscriptionRequest{
		Client:  c,
		Channel: channel,
		Action:  "unsubscribe",
	}
}

// handlePing answers an application-level ping with the server clock.
func (c *Client) handlePing() {
	response := &WSMessage{
		Type: "pong",
		Data: map[string]interface{}{
			"timestamp": time.Now().UnixMilli(),
		},
	}
	data, _ := json.Marshal(response)
	c.send <- data
}

// handleAuth records the address the client claims for private channels.
func (c *Client) handleAuth(data json.RawMessage) {
	var authData struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &authData); err != nil {
		c.sendError("invalid_auth", "Invalid auth data")
		return
	}

	// Address identification is trust-on-connect; signature verification
	// belongs to the node's tx path, not the read-side stream.
	if authData.Address != "" {
		c.userID = authData.Address
	}

	response := &WSMessage{
		Type: "authenticated",
		Data: map[string]interface{}{
			"address": c.userID,
		},
	}
	data, _ = json.Marshal(response)
	c.send <- data
}

// canAccessChannel decides whether a channel is open to this client.
// Pool-level channels are public; per-account channels are restricted
// to the address the client identified as.
func (c *Client) canAccessChannel(channel string) bool {
	publicPrefixes := []string{"ratio:", "stats:", "events:"}
	for _, prefix := range publicPrefixes {
		if len(channel) >= len(prefix) && channel[:len(prefix)] == prefix {
			return true
		}
	}

	privatePrefixes := []string{"receipts:"}
	for _, prefix := range privatePrefixes {
		if len(channel) >= len(prefix) && channel[:len(prefix)] == prefix {
			if c.userID == "" {
				return false
			}
			return channel == prefix+c.userID
		}
	}

	return false
}

// checkRateLimit counts messages over a one-second window.
func (c *Client) checkRateLimit() bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) >= time.Second {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= c.hub.config.MessageRateLimit
}

// sendError queues an error frame for the client.
func (c *Client) sendError(code, message string) {
	response := &WSMessage{
		Type: "error",
		Data: map[string]string{
			"code":    code,
			"message": message,
		},
	}
	data, _ := json.Marshal(response)
	c.send <- data
}

// Send queues a message without blocking; a slow consumer loses it.
func (c *Client) Send(message []byte) {
	select {
	case c.send <- message:
	default:
	}
}

// GetID returns the connection ID.
func (c *Client) GetID() string {
	return c.id
}

// GetUserID returns the identified account address, or "".
func (c *Client) GetUserID() string {
	return c.userID
}

// GetIP returns the remote address recorded at upgrade time.
func (c *Client) GetIP() string {
	return c.ip
}

// IsAuthenticated reports whether the client has identified itself.
func (c *Client) IsAuthenticated() bool {
	return c.userID != ""
}

// GetSubscriptions returns a snapshot of the client's channel set.
func (c *Client) GetSubscriptions() []string {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	subs := make([]string, 0, len(c.subscriptions))
	for sub := range c.subscriptions {
		subs = append(subs, sub)
	}
	return subs
}

// GetConnectionDuration returns the age of the connection.
func (c *Client) GetConnectionDuration() time.Duration {
	return time.Since(c.connectedAt)
}
