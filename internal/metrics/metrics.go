// Package metrics exposes prometheus collectors for the ledger.
package metrics

import (
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder counts engine outcomes and outbox deliveries.
type Recorder struct {
	transactions    *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	outboxPublished prometheus.Counter
	outboxErrors    prometheus.Counter
}

// NewRecorder registers the ledger collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Total number of ledger transactions by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transaction_duration_seconds",
				Help:    "Duration of ledger transactions",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"type"},
		),
		outboxPublished: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_outbox_published_total",
				Help: "Total number of outbox messages published to kafka",
			},
		),
		outboxErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_outbox_publish_errors_total",
				Help: "Total number of failed outbox publish attempts",
			},
		),
	}
}

// Observe records one engine operation. The outcome label is the error kind or "ok".
func (r *Recorder) Observe(transactionType string, err error, elapsed time.Duration) {
	r.transactions.WithLabelValues(transactionType, domain.Kind(err)).Inc()
	r.duration.WithLabelValues(transactionType).Observe(elapsed.Seconds())
}

// Published records n delivered outbox messages.
func (r *Recorder) Published(n int) {
	r.outboxPublished.Add(float64(n))
}

// PublishFailed records a failed publish attempt.
func (r *Recorder) PublishFailed() {
	r.outboxErrors.Inc()
}
