package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the screening engine.
type Metrics struct {
	ScreeningsTotal   *prometheus.CounterVec
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	StoreFaults       prometheus.Counter
	DegradedResults   prometheus.Counter
	BlockedTxns       prometheus.Counter
	ScreeningDuration prometheus.Histogram
}

// New creates and registers the screening metrics.
func New() *Metrics {
	return &Metrics{
		ScreeningsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "screenguard_screenings_total",
			Help: "Total screening runs by outcome status",
		}, []string{"status"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "screenguard_cache_hits_total",
			Help: "Screening cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "screenguard_cache_misses_total",
			Help: "Screening cache misses",
		}),
		StoreFaults: promauto.NewCounter(prometheus.CounterOpts{
			Name: "screenguard_store_faults_total",
			Help: "Watchlist store queries that failed and degraded to zero candidates",
		}),
		DegradedResults: promauto.NewCounter(prometheus.CounterOpts{
			Name: "screenguard_degraded_results_total",
			Help: "Screenings that returned a fail-open CLEAR due to an unexpected fault",
		}),
		BlockedTxns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "screenguard_blocked_transactions_total",
			Help: "Transactions blocked by real-time screening",
		}),
		ScreeningDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "screenguard_screening_duration_ms",
			Help:    "Latency of name screening in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveScreening records one screening run.
func (m *Metrics) ObserveScreening(status string, elapsed time.Duration) {
	m.ScreeningsTotal.WithLabelValues(status).Inc()
	m.ScreeningDuration.Observe(float64(elapsed.Microseconds()) / 1000.0)
}

func (m *Metrics) IncCacheHit() {
	m.CacheHits.Inc()
}

func (m *Metrics) IncCacheMiss() {
	m.CacheMisses.Inc()
}

func (m *Metrics) IncStoreFault() {
	m.StoreFaults.Inc()
}

func (m *Metrics) IncDegradedResult() {
	m.DegradedResults.Inc()
}

func (m *Metrics) IncBlockedTxn() {
	m.BlockedTxns.Inc()
}
