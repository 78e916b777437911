package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Subscription management
	subscriptions map[string]map[*Client]bool // topic -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Message buffers per pool
	ratioBuffer map[string]*RatioMessage
	statsBuffer map[string]*StatsMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Update intervals
	RatioInterval time.Duration // Default: 1s
	StatsInterval time.Duration // Default: 5s
	EventsBuffer  int           // Number of vault events to buffer

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		RatioInterval:    time.Second,
		StatsInterval:    5 * time.Second,
		EventsBuffer:     100,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *SubscriptionRequest, 256),
		unsubscribe:   make(chan *SubscriptionRequest, 256),
		ratioBuffer:   make(map[string]*RatioMessage),
		statsBuffer:   make(map[string]*StatsMessage),
		config:        config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	ratioTicker := time.NewTicker(h.config.RatioInterval)
	statsTicker := time.NewTicker(h.config.StatsInterval)

	defer ratioTicker.Stop()
	defer statsTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ratioTicker.C:
			h.broadcastRatios()

		case <-statsTicker.C:
			h.broadcastStats()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		// Remove from all subscriptions
		for topic := range h.subscriptions {
			delete(h.subscriptions[topic], client)
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients in a channel
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channel-specific broadcasts ============

// UpdateRatio updates the assets-per-share buffer for a pool
func (h *Hub) UpdateRatio(poolID string, ratio *RatioMessage) {
	h.mu.Lock()
	h.ratioBuffer[poolID] = ratio
	h.mu.Unlock()
}

// UpdateStats updates the stats buffer for a pool
func (h *Hub) UpdateStats(poolID string, stats *StatsMessage) {
	h.mu.Lock()
	h.statsBuffer[poolID] = stats
	h.mu.Unlock()
}

// broadcastRatios broadcasts all ratio updates
func (h *Hub) broadcastRatios() {
	h.mu.RLock()
	ratios := make(map[string]*RatioMessage)
	for k, v := range h.ratioBuffer {
		ratios[k] = v
	}
	h.mu.RUnlock()

	for poolID, ratio := range ratios {
		channel := "ratio:" + poolID
		msg := &WSMessage{
			Type:    "ratio",
			Channel: channel,
			Data:    ratio,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// broadcastStats broadcasts all stats updates
func (h *Hub) broadcastStats() {
	h.mu.RLock()
	stats := make(map[string]*StatsMessage)
	for k, v := range h.statsBuffer {
		stats[k] = v
	}
	h.mu.RUnlock()

	for poolID, s := range stats {
		channel := "stats:" + poolID
		msg := &WSMessage{
			Type:    "stats",
			Channel: channel,
			Data:    s,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// BroadcastVaultEvent broadcasts a deposit, withdrawal or crystallization event
func (h *Hub) BroadcastVaultEvent(poolID string, event *VaultEventMessage) {
	channel := "events:" + poolID
	msg := &WSMessage{
		Type:    "event",
		Channel: channel,
		Data:    event,
	}
	h.BroadcastToChannel(channel, msg)
}

// BroadcastReceipt broadcasts a settled receipt to a specific account
func (h *Hub) BroadcastReceipt(address string, receipt *ReceiptMessage) {
	channel := "receipts:" + address
	msg := &WSMessage{
		Type:    "receipt",
		Channel: channel,
		Data:    receipt,
	}
	h.BroadcastToChannel(channel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// RatioMessage represents an assets-per-share update
type RatioMessage struct {
	PoolID        string `json:"pool_id"`
	Ratio         string `json:"ratio"`
	TotalAssets   string `json:"total_assets"`
	TotalShares   string `json:"total_shares"`
	HighWaterMark string `json:"high_water_mark"`
	BlockHeight   int64  `json:"block_height"`
	Timestamp     int64  `json:"timestamp"`
}

// StatsMessage represents a pool statistics update
type StatsMessage struct {
	PoolID           string `json:"pool_id"`
	TotalValueLocked string `json:"total_value_locked"`
	TotalDepositors  int64  `json:"total_depositors"`
	TotalFeeShares   string `json:"total_fee_shares"`
	TotalDeposited   string `json:"total_deposited"`
	TotalWithdrawn   string `json:"total_withdrawn"`
	Timestamp        int64  `json:"timestamp"`
}

// VaultEventMessage represents a pool lifecycle or flow event
type VaultEventMessage struct {
	EventID   string `json:"event_id"`
	PoolID    string `json:"pool_id"`
	Kind      string `json:"kind"` // "deposit", "withdraw", "crystallize", "strategy_change", "pause", "unpause"
	Actor     string `json:"actor,omitempty"`
	Assets    string `json:"assets,omitempty"`
	Shares    string `json:"shares,omitempty"`
	FeeShares string `json:"fee_shares,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ReceiptMessage represents a settled deposit or withdrawal receipt
type ReceiptMessage struct {
	ReceiptID  string `json:"receipt_id"`
	PoolID     string `json:"pool_id"`
	Kind       string `json:"kind"` // "deposit" or "withdrawal"
	Address    string `json:"address"`
	Assets     string `json:"assets"`
	Shares     string `json:"shares"`
	RatioAfter string `json:"ratio_after"`
	Timestamp  int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	userID := r.URL.Query().Get("address")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, userID, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
