package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Escrow metrics
	ProjectsRegistered prometheus.Counter
	DepositsVerified   prometheus.Counter
	RefundsIssued      prometheus.Counter
	DepositAmount      prometheus.Histogram
	LedgerOpDuration   prometheus.Histogram
	LedgerErrors       *prometheus.CounterVec

	// Release metrics
	MilestonesReleased prometheus.Counter
	ReleaseAmount      prometheus.Histogram
	CommissionsAccrued prometheus.Counter

	// Payout metrics
	PayoutsRequested prometheus.Counter
	PayoutsDecided   *prometheus.CounterVec
	PayoutAmount     prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Outbox metrics
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	amountBuckets := []float64{1000, 10000, 50000, 100000, 500000, 1000000, 5000000}

	return &Metrics{
		ProjectsRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_projects_registered_total",
			Help: "Total number of projects registered",
		}),
		DepositsVerified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_deposits_verified_total",
			Help: "Total number of deposits verified",
		}),
		RefundsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_refunds_issued_total",
			Help: "Total number of escrow refunds issued",
		}),
		DepositAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_deposit_amount",
			Help:    "Verified deposit amounts",
			Buckets: amountBuckets,
		}),
		LedgerOpDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_ledger_op_duration_seconds",
			Help:    "Duration of ledger-mutating operations",
			Buckets: prometheus.DefBuckets,
		}),
		LedgerErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_ledger_errors_total",
				Help: "Total number of ledger operation errors by type",
			},
			[]string{"error_type"},
		),

		MilestonesReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_milestones_released_total",
			Help: "Total number of milestone releases",
		}),
		ReleaseAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_release_amount",
			Help:    "Released milestone amounts",
			Buckets: amountBuckets,
		}),
		CommissionsAccrued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_commissions_accrued_total",
			Help: "Total number of commissions accrued",
		}),

		PayoutsRequested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_payouts_requested_total",
			Help: "Total number of payout requests created",
		}),
		PayoutsDecided: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_payouts_decided_total",
				Help: "Total payout decisions by outcome",
			},
			[]string{"outcome"},
		),
		PayoutAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "escrow_payout_amount",
			Help:    "Paid out amounts",
			Buckets: amountBuckets,
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "escrow_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "escrow_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_outbox_events_published_total",
			Help: "Total outbox events published",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "escrow_outbox_publish_errors_total",
			Help: "Total outbox publish errors",
		}),
	}
}
