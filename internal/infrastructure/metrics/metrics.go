package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Request workflow metrics
	RequestsCreated  *prometheus.CounterVec
	RequestsDecided  *prometheus.CounterVec
	RequestsStale    *prometheus.CounterVec
	SettlementErrors *prometheus.CounterVec
	SettlementTime   prometheus.Histogram

	// Ledger metrics
	BalanceMutations *prometheus.CounterVec
	MutationAmount   *prometheus.HistogramVec

	// Portfolio metrics
	HoldingsCreated prometheus.Counter
	HoldingsReduced prometheus.Counter
	SharesTraded    *prometheus.CounterVec

	// FX metrics
	FXRefreshes *prometheus.CounterVec
	FXRate      prometheus.Gauge

	// Outbox metrics
	EventsPublished *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_requests_created_total",
				Help: "Total number of pending requests created by kind",
			},
			[]string{"kind"},
		),
		RequestsDecided: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_requests_decided_total",
				Help: "Total number of decided requests by kind and decision",
			},
			[]string{"kind", "decision"},
		),
		RequestsStale: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_requests_stale_total",
				Help: "Total number of approvals refused because the request went stale",
			},
			[]string{"kind"},
		),
		SettlementErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_settlement_errors_total",
				Help: "Total number of settlement failures by kind",
			},
			[]string{"kind"},
		),
		SettlementTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gesledger_settlement_duration_seconds",
			Help:    "Duration of settlement transactions",
			Buckets: prometheus.DefBuckets,
		}),

		BalanceMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_balance_mutations_total",
				Help: "Total number of ledger balance mutations by direction",
			},
			[]string{"direction"},
		),
		MutationAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gesledger_balance_mutation_amount_tl",
				Help:    "Ledger mutation amounts in TL",
				Buckets: []float64{1000, 10000, 25000, 100000, 250000, 1000000, 10000000},
			},
			[]string{"direction"},
		),

		HoldingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gesledger_holdings_created_total",
			Help: "Total number of holdings created",
		}),
		HoldingsReduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "gesledger_holdings_reduced_total",
			Help: "Total number of holding reductions",
		}),
		SharesTraded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_shares_traded_total",
				Help: "Total number of shares bought or sold",
			},
			[]string{"side"},
		),

		FXRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_fx_refreshes_total",
				Help: "Total number of FX refresh attempts by result",
			},
			[]string{"result"},
		),
		FXRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gesledger_fx_usd_try_rate",
			Help: "Last known USD/TRY rate",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_outbox_events_published_total",
				Help: "Total number of outbox events handled by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gesledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		DBRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_db_retries_total",
				Help: "Total retried database transactions by pg error code",
			},
			[]string{"code"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gesledger_rate_limit_hits_total",
			Help: "Total rate limit hits",
		}),

		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gesledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
