package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// YieldVault Metrics Collector
// Provides metrics for monitoring pool flows and share pricing

// VaultMetrics holds all vault metrics
type VaultMetrics struct {
	registry *prometheus.Registry

	// Flow metrics
	DepositsTotal    *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	DepositVolume    *prometheus.CounterVec
	WithdrawalVolume *prometheus.CounterVec

	// Share pricing metrics
	TotalAssets    *prometheus.GaugeVec
	TotalShares    *prometheus.GaugeVec
	AssetsPerShare *prometheus.GaugeVec
	HighWaterMark  *prometheus.GaugeVec

	// Performance fee metrics
	CrystallizationsTotal *prometheus.CounterVec
	FeeSharesMinted       *prometheus.CounterVec

	// Strategy metrics
	StrategyValue   *prometheus.GaugeVec
	StrategyChanges *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec
}

// NewVaultMetrics creates a metrics set backed by its own registry
func NewVaultMetrics() *VaultMetrics {
	m := &VaultMetrics{
		registry: prometheus.NewRegistry(),
	}

	// Flow metrics
	m.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "deposits",
			Name:      "total",
			Help:      "Total number of deposits settled",
		},
		[]string{"pool_id"},
	)

	m.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "withdrawals",
			Name:      "total",
			Help:      "Total number of withdrawals settled",
		},
		[]string{"pool_id"},
	)

	m.DepositVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "deposits",
			Name:      "volume",
			Help:      "Total principal deposited (in base units)",
		},
		[]string{"pool_id"},
	)

	m.WithdrawalVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "withdrawals",
			Name:      "volume",
			Help:      "Total principal withdrawn (in base units)",
		},
		[]string{"pool_id"},
	)

	// Share pricing metrics
	m.TotalAssets = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "pool",
			Name:      "total_assets",
			Help:      "Total managed assets (in base units)",
		},
		[]string{"pool_id"},
	)

	m.TotalShares = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "pool",
			Name:      "total_shares",
			Help:      "Total share supply",
		},
		[]string{"pool_id"},
	)

	m.AssetsPerShare = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "pool",
			Name:      "assets_per_share",
			Help:      "Current assets-per-share ratio (1e18 scale)",
		},
		[]string{"pool_id"},
	)

	m.HighWaterMark = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "pool",
			Name:      "high_water_mark",
			Help:      "Performance fee high-water mark (1e18 scale)",
		},
		[]string{"pool_id"},
	)

	// Performance fee metrics
	m.CrystallizationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "fees",
			Name:      "crystallizations_total",
			Help:      "Total number of performance fee crystallizations",
		},
		[]string{"pool_id"},
	)

	m.FeeSharesMinted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "fees",
			Name:      "shares_minted",
			Help:      "Total fee shares minted to the collector",
		},
		[]string{"pool_id"},
	)

	// Strategy metrics
	m.StrategyValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "strategy",
			Name:      "position_value",
			Help:      "Invested position value reported by the strategy",
		},
		[]string{"pool_id", "strategy_id"},
	)

	m.StrategyChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "strategy",
			Name:      "changes_total",
			Help:      "Total strategy reassignments",
		},
		[]string{"pool_id"},
	)

	// WebSocket metrics
	m.WSConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "yieldvault",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
	)

	m.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	// API metrics
	m.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	m.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "yieldvault",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	m.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yieldvault",
			Subsystem: "api",
			Name:      "rate_limit_hits",
			Help:      "Total rate limit hits",
		},
		[]string{"limit_type"},
	)

	m.registerAll()

	return m
}

// registerAll registers all metrics with the registry
func (m *VaultMetrics) registerAll() {
	m.registry.MustRegister(m.DepositsTotal)
	m.registry.MustRegister(m.WithdrawalsTotal)
	m.registry.MustRegister(m.DepositVolume)
	m.registry.MustRegister(m.WithdrawalVolume)

	m.registry.MustRegister(m.TotalAssets)
	m.registry.MustRegister(m.TotalShares)
	m.registry.MustRegister(m.AssetsPerShare)
	m.registry.MustRegister(m.HighWaterMark)

	m.registry.MustRegister(m.CrystallizationsTotal)
	m.registry.MustRegister(m.FeeSharesMinted)

	m.registry.MustRegister(m.StrategyValue)
	m.registry.MustRegister(m.StrategyChanges)

	m.registry.MustRegister(m.WSConnectionsActive)
	m.registry.MustRegister(m.WSMessagesTotal)

	m.registry.MustRegister(m.APIRequestsTotal)
	m.registry.MustRegister(m.APIRequestLatency)
	m.registry.MustRegister(m.RateLimitHits)
}

// ============ Recording Helpers ============

// RecordDeposit records a settled deposit
func (m *VaultMetrics) RecordDeposit(poolID string) {
	m.DepositsTotal.WithLabelValues(poolID).Inc()
}

// RecordDepositVolume adds settled deposit volume
func (m *VaultMetrics) RecordDepositVolume(poolID string, assets float64) {
	m.DepositVolume.WithLabelValues(poolID).Add(assets)
}

// RecordWithdrawal records a settled withdrawal
func (m *VaultMetrics) RecordWithdrawal(poolID string) {
	m.WithdrawalsTotal.WithLabelValues(poolID).Inc()
}

// RecordWithdrawalVolume adds settled withdrawal volume
func (m *VaultMetrics) RecordWithdrawalVolume(poolID string, assets float64) {
	m.WithdrawalVolume.WithLabelValues(poolID).Add(assets)
}

// RecordCrystallization records a performance fee crystallization
func (m *VaultMetrics) RecordCrystallization(poolID string, feeShares float64) {
	m.CrystallizationsTotal.WithLabelValues(poolID).Inc()
	m.FeeSharesMinted.WithLabelValues(poolID).Add(feeShares)
}

// RecordStrategyChange records a strategy reassignment
func (m *VaultMetrics) RecordStrategyChange(poolID string) {
	m.StrategyChanges.WithLabelValues(poolID).Inc()
}

// SetPoolState updates the pool pricing gauges from string-encoded values.
// Values too large for float64 lose precision, which is acceptable for gauges.
func (m *VaultMetrics) SetPoolState(poolID, totalAssets, totalShares, ratio string) {
	if v, err := strconv.ParseFloat(totalAssets, 64); err == nil {
		m.TotalAssets.WithLabelValues(poolID).Set(v)
	}
	if v, err := strconv.ParseFloat(totalShares, 64); err == nil {
		m.TotalShares.WithLabelValues(poolID).Set(v)
	}
	if v, err := strconv.ParseFloat(ratio, 64); err == nil {
		m.AssetsPerShare.WithLabelValues(poolID).Set(v)
	}
}

// SetHighWaterMark updates the high-water mark gauge
func (m *VaultMetrics) SetHighWaterMark(poolID string, mark float64) {
	m.HighWaterMark.WithLabelValues(poolID).Set(mark)
}

// SetStrategyValue updates the invested position value gauge
func (m *VaultMetrics) SetStrategyValue(poolID, strategyID string, value float64) {
	m.StrategyValue.WithLabelValues(poolID, strategyID).Set(value)
}

// RecordWSConnection records WebSocket connection changes
func (m *VaultMetrics) RecordWSConnection(delta int) {
	m.WSConnectionsActive.Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (m *VaultMetrics) RecordWSMessage(channel string) {
	m.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// RecordAPIRequest records an API request
func (m *VaultMetrics) RecordAPIRequest(method, path, status string, latencyMs float64) {
	m.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit records a rate limit rejection
func (m *VaultMetrics) RecordRateLimitHit(limitType string) {
	m.RateLimitHits.WithLabelValues(limitType).Inc()
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler for this registry
func (m *VaultMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
