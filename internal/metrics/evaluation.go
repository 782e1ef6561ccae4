package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/geoframe/internal/domain/batch"
)

// Evaluation request outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeCanceled = "canceled"
)

// Evaluation holds the batch evaluation metrics. A nil *Evaluation records
// nothing.
type Evaluation struct {
	requests *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
}

// NewEvaluation creates the evaluation metrics and registers them with reg.
// Collectors already registered under the same names are reused.
func NewEvaluation(reg prometheus.Registerer) (*Evaluation, error) {
	e := &Evaluation{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geoframe",
				Name:      "evaluation_requests_total",
				Help:      "Total number of batch evaluations",
			},
			[]string{"function", "outcome"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "geoframe",
				Name:      "evaluation_rows_total",
				Help:      "Evaluated rows by function and row status",
			},
			[]string{"function", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "geoframe",
				Name:      "evaluation_duration_seconds",
				Help:      "Batch evaluation duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"function"},
		),
		size: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "geoframe",
				Name:      "evaluation_batch_rows",
				Help:      "Rows per batch evaluation",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"function"},
		),
	}
	if err := registerOrReuse(reg, &e.requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.rows); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &e.size); err != nil {
		return nil, err
	}
	return e, nil
}

// ObserveRequest records one evaluation call.
func (e *Evaluation) ObserveRequest(function, outcome string, rows int, d time.Duration) {
	if e == nil {
		return
	}
	e.requests.WithLabelValues(function, outcome).Inc()
	e.duration.WithLabelValues(function).Observe(d.Seconds())
	e.size.WithLabelValues(function).Observe(float64(rows))
}

// ObserveRows records per-row outcomes of a completed evaluation.
func (e *Evaluation) ObserveRows(function string, counts map[batch.ItemStatus]int) {
	if e == nil {
		return
	}
	for status, n := range counts {
		e.rows.WithLabelValues(function, string(status)).Add(float64(n))
	}
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("register metric: %w", err)
	}
	return nil
}
