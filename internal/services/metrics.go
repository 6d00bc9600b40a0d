package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Ledger metrics
	InvestmentsCreated   prometheus.Counter
	InvestmentsCancelled prometheus.Counter
	InvestedAmount       prometheus.Gauge
	ProjectsFunded       prometheus.Counter
	LedgerErrors         *prometheus.CounterVec

	// Search metrics
	SearchRequests prometheus.Counter
	SearchDenied   *prometheus.CounterVec
	SearchLatency  prometheus.Histogram

	// Dispatch metrics
	DispatchFailures *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		InvestmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crowdvest_investments_created_total",
			Help: "Total number of investments recorded by the ledger",
		}),

		InvestmentsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crowdvest_investments_cancelled_total",
			Help: "Total number of investments refunded",
		}),

		InvestedAmount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crowdvest_invested_amount",
			Help: "Net amount currently invested across all projects",
		}),

		ProjectsFunded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crowdvest_projects_funded_total",
			Help: "Total number of projects reaching their funding target",
		}),

		LedgerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdvest_ledger_errors_total",
			Help: "Total number of rejected ledger operations by error category",
		}, []string{"operation", "category"}),

		SearchRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crowdvest_search_requests_total",
			Help: "Total number of advanced search requests",
		}),

		SearchDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdvest_search_denied_total",
			Help: "Total number of searches denied by plan gating, by capability",
		}, []string{"capability"}),

		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crowdvest_search_duration_seconds",
			Help:    "Advanced search latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		DispatchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdvest_dispatch_failures_total",
			Help: "Total number of failed fire-and-forget dispatch attempts by channel",
		}, []string{"channel"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (may be nil in tests)
func GetMetrics() *Metrics {
	return globalMetrics
}
