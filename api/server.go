package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	clog "cosmossdk.io/log"
	"github.com/openalpha/yieldvault/api/middleware"
	"github.com/openalpha/yieldvault/api/types"
	"github.com/openalpha/yieldvault/api/websocket"
	"github.com/openalpha/yieldvault/metrics"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
	hub        *websocket.Hub
	config     *Config
	mockMode   bool

	// Service backing all pool reads and vault transactions
	vaultService types.VaultService

	// Rate limiter
	rateLimiter *middleware.RateLimiter

	// Prometheus collectors
	metrics *metrics.VaultMetrics
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
// NOTE: MockMode defaults to false (keeper mode) for production safety.
// Use --mock flag explicitly for development/testing with mock data.
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MockMode:     false,
	}
}

// NewServer creates a new API server backed by mock data
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	return newServer(config, NewMockService(), true)
}

// NewServerWithService creates a new API server with a custom service
func NewServerWithService(config *Config, svc types.VaultService) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	return newServer(config, svc, config.MockMode)
}

// NewServerWithKeeperService creates an API server backed by an in-memory
// vault keeper with a simulated lending market
func NewServerWithKeeperService(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	config.MockMode = false

	logger := clog.NewNopLogger()
	keeperService, err := NewKeeperService(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create keeper service: %w", err)
	}

	return newServer(config, keeperService, false), nil
}

func newServer(config *Config, svc types.VaultService, mockMode bool) *Server {
	return &Server{
		config:       config,
		hub:          websocket.NewHub(websocket.DefaultHubConfig()),
		mockMode:     mockMode,
		vaultService: svc,
		rateLimiter:  middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		metrics:      metrics.NewVaultMetrics(),
	}
}

// Hub returns the websocket hub
func (s *Server) Hub() *websocket.Hub {
	return s.hub
}

// Metrics returns the Prometheus collectors
func (s *Server) Metrics() *metrics.VaultMetrics {
	return s.metrics
}

// Start starts the API server
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Health check (support both /health and /v1/health for compatibility)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/health", s.handleHealth)

	// Pool endpoints (read-only)
	mux.HandleFunc("/v1/pools", s.handlePools)
	mux.HandleFunc("/v1/pools/", s.handlePoolRoutes)

	// Vault transactions (POST)
	txLimit := middleware.TxRateLimitMiddleware(s.rateLimiter)
	mux.Handle("/v1/deposit", txLimit(http.HandlerFunc(s.handleDeposit)))
	mux.Handle("/v1/withdraw", txLimit(http.HandlerFunc(s.handleWithdraw)))

	// User-specific endpoints
	mux.HandleFunc("/v1/user/", s.handleUserRoutes)

	// WebSocket
	mux.HandleFunc("/ws", s.hub.ServeWS)

	// Prometheus
	mux.Handle("/metrics", s.metrics.Handler())

	// Apply middleware chain: CORS -> Identify -> RateLimit -> Handler
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(identifyMiddleware(mux))
	} else {
		handler = corsMiddleware(
			identifyMiddleware(
				middleware.RateLimitMiddleware(s.rateLimiter)(mux),
			),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.hub.Run()

	// Start pool state broadcaster
	go s.runPoolBroadcaster()

	log.Printf("API server starting on %s (mock mode: %v)", addr, s.mockMode)
	if s.config.DisableRateLimit {
		log.Printf("Rate limiting DISABLED (for testing)")
	} else {
		log.Printf("Rate limiting enabled: %d req/s per IP", 100)
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// runPoolBroadcaster periodically pushes pool state into the websocket buffers
// and refreshes the Prometheus gauges
func (s *Server) runPoolBroadcaster() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pools, err := s.vaultService.ListPools(ctx)
		if err != nil {
			cancel()
			continue
		}

		for _, pool := range pools {
			s.hub.UpdateRatio(pool.PoolID, &websocket.RatioMessage{
				PoolID:        pool.PoolID,
				Ratio:         pool.Ratio,
				TotalAssets:   pool.TotalAssets,
				TotalShares:   pool.TotalShares,
				HighWaterMark: pool.HighWaterMark,
				Timestamp:     types.NowMillis(),
			})

			s.metrics.SetPoolState(pool.PoolID, pool.TotalAssets, pool.TotalShares, pool.Ratio)

			stats, err := s.vaultService.GetPoolStats(ctx, pool.PoolID)
			if err != nil {
				continue
			}
			s.hub.UpdateStats(pool.PoolID, &websocket.StatsMessage{
				PoolID:           stats.PoolID,
				TotalValueLocked: stats.TotalValueLocked,
				TotalDepositors:  stats.TotalDepositors,
				TotalFeeShares:   stats.TotalFeeShares,
				TotalDeposited:   stats.TotalDeposited,
				TotalWithdrawn:   stats.TotalWithdrawn,
				Timestamp:        types.NowMillis(),
			})
		}
		cancel()
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "keeper"
	modeDescription := "Using in-memory vault keeper (standalone mode)"
	if s.mockMode {
		mode = "mock"
		modeDescription = "Using mock data for development/testing"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"timestamp":        time.Now().Unix(),
		"mode":             mode,
		"mode_description": modeDescription,
		"clients":          s.hub.GetClientCount(),
		"warning":          "This API uses in-memory storage. For production, connect to a running node.",
	})
}

// handlePools handles /v1/pools
func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	pools, err := s.vaultService.ListPools(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pools": pools,
	})
}

// handlePoolRoutes handles /v1/pools/{id}/* endpoints
func (s *Server) handlePoolRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Parse path: /v1/pools/{id} or /v1/pools/{id}/{endpoint}
	path := r.URL.Path[len("/v1/pools/"):]

	poolID := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			poolID = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if poolID == "" {
		writeError(w, http.StatusBadRequest, "Pool ID required")
		return
	}

	switch {
	case endpoint == "":
		pool, err := s.vaultService.GetPool(r.Context(), poolID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Pool not found")
			return
		}
		writeJSON(w, http.StatusOK, pool)

	case endpoint == "stats":
		stats, err := s.vaultService.GetPoolStats(r.Context(), poolID)
		if err != nil {
			writeError(w, http.StatusNotFound, "Pool not found")
			return
		}
		writeJSON(w, http.StatusOK, stats)

	case endpoint == "history":
		var history []*types.RatioPoint
		var err error
		q := r.URL.Query()
		if q.Get("from") != "" || q.Get("to") != "" {
			from, _ := strconv.ParseInt(q.Get("from"), 10, 64)
			to, perr := strconv.ParseInt(q.Get("to"), 10, 64)
			if perr != nil {
				to = time.Now().UnixMilli()
			}
			history, err = s.vaultService.GetRatioRange(r.Context(), poolID, from, to)
		} else {
			limit := 100
			if n, aerr := strconv.Atoi(q.Get("limit")); aerr == nil && n > 0 {
				limit = n
			}
			history, err = s.vaultService.GetRatioHistory(r.Context(), poolID, limit)
		}
		if err != nil {
			writeError(w, http.StatusNotFound, "Pool not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"pool_id": poolID,
			"history": history,
		})

	case len(endpoint) > len("balances/") && endpoint[:len("balances/")] == "balances/":
		address := endpoint[len("balances/"):]
		balance, err := s.vaultService.GetShareBalance(r.Context(), poolID, address)
		if err != nil {
			writeError(w, http.StatusNotFound, "Pool not found")
			return
		}
		writeJSON(w, http.StatusOK, balance)

	case len(endpoint) > len("preview/") && endpoint[:len("preview/")] == "preview/":
		op := endpoint[len("preview/"):]
		s.handlePreview(w, r, poolID, op)

	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// handlePreview handles /v1/pools/{id}/preview/{op}?amount=N
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, poolID, op string) {
	switch op {
	case "deposit", "mint", "withdraw", "redeem":
	default:
		writeError(w, http.StatusNotFound, "Unknown preview operation")
		return
	}

	amount := r.URL.Query().Get("amount")
	if amount == "" {
		writeError(w, http.StatusBadRequest, "amount query parameter required")
		return
	}

	preview, err := s.vaultService.Preview(r.Context(), op, &types.PreviewRequest{
		PoolID: poolID,
		Amount: amount,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// handleDeposit handles POST /v1/deposit
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req types.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PoolID == "" || req.Depositor == "" || req.Assets == "" {
		writeError(w, http.StatusBadRequest, "pool_id, depositor and assets are required")
		return
	}

	resp, err := s.vaultService.Deposit(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.RecordDeposit(req.PoolID)
	if resp.Receipt != nil {
		s.hub.BroadcastVaultEvent(req.PoolID, &websocket.VaultEventMessage{
			EventID:   resp.Receipt.ReceiptID,
			PoolID:    req.PoolID,
			Kind:      "deposit",
			Actor:     resp.Receipt.Depositor,
			Assets:    resp.Receipt.Assets,
			Shares:    resp.Receipt.Shares,
			FeeShares: resp.Receipt.FeeShares,
			Timestamp: types.NowMillis(),
		})
		s.hub.BroadcastReceipt(resp.Receipt.Receiver, &websocket.ReceiptMessage{
			ReceiptID:  resp.Receipt.ReceiptID,
			PoolID:     resp.Receipt.PoolID,
			Kind:       "deposit",
			Address:    resp.Receipt.Receiver,
			Assets:     resp.Receipt.Assets,
			Shares:     resp.Receipt.Shares,
			RatioAfter: resp.Receipt.RatioAfter,
			Timestamp:  types.NowMillis(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleWithdraw handles POST /v1/withdraw
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req types.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PoolID == "" || req.Caller == "" || req.Assets == "" {
		writeError(w, http.StatusBadRequest, "pool_id, caller and assets are required")
		return
	}

	resp, err := s.vaultService.Withdraw(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.metrics.RecordWithdrawal(req.PoolID)
	if resp.Receipt != nil {
		s.hub.BroadcastVaultEvent(req.PoolID, &websocket.VaultEventMessage{
			EventID:   resp.Receipt.ReceiptID,
			PoolID:    req.PoolID,
			Kind:      "withdraw",
			Actor:     resp.Receipt.Owner,
			Assets:    resp.Receipt.Assets,
			Shares:    resp.Receipt.Shares,
			Timestamp: types.NowMillis(),
		})
		s.hub.BroadcastReceipt(resp.Receipt.Owner, &websocket.ReceiptMessage{
			ReceiptID:  resp.Receipt.ReceiptID,
			PoolID:     resp.Receipt.PoolID,
			Kind:       "withdrawal",
			Address:    resp.Receipt.Owner,
			Assets:     resp.Receipt.Assets,
			Shares:     resp.Receipt.Shares,
			RatioAfter: resp.Receipt.RatioAfter,
			Timestamp:  types.NowMillis(),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleUserRoutes handles /v1/user/{address}/* endpoints
func (s *Server) handleUserRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Parse path: /v1/user/{address} or /v1/user/{address}/{endpoint}
	path := r.URL.Path[len("/v1/user/"):]

	address := path
	endpoint := ""
	for i, c := range path {
		if c == '/' {
			address = path[:i]
			endpoint = path[i+1:]
			break
		}
	}

	if address == "" {
		writeError(w, http.StatusBadRequest, "User address required")
		return
	}

	switch endpoint {
	case "", "deposits":
		deposits, err := s.vaultService.GetUserDeposits(r.Context(), address)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"deposits": deposits,
		})

	case "withdrawals":
		withdrawals, err := s.vaultService.GetUserWithdrawals(r.Context(), address)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"withdrawals": withdrawals,
		})

	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Account-Address")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// identifyMiddleware stores the caller address from the X-Account-Address
// header in the request context for the account-scoped rate limits
func identifyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if address := r.Header.Get("X-Account-Address"); address != "" {
			r = r.WithContext(middleware.SetUserContext(r.Context(), address))
		}
		next.ServeHTTP(w, r)
	})
}
