// Package metrics records prediction outcomes for Prometheus.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/f3rmion/dhfr/internal/analysis"
	"github.com/f3rmion/dhfr/internal/predict"
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed"
	OutcomeCanceled  = "canceled"
	OutcomeOther     = "error"
)

// Metrics holds the prediction collectors.
type Metrics struct {
	predictions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dhfr",
			Name:      "predictions_total",
			Help:      "Potency predictions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dhfr",
			Name:      "prediction_duration_seconds",
			Help:      "Round-trip latency of potency predictions.",
			// Feature extraction runs a JVM per compound, so seconds to minutes.
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.predictions, m.duration)
	return m
}

// Instrument wraps p so every call is counted and timed.
func (m *Metrics) Instrument(p analysis.Predictor) analysis.Predictor {
	return &instrumented{next: p, m: m}
}

// Observe records one prediction outcome.
func (m *Metrics) Observe(err error, elapsed time.Duration) {
	outcome := Outcome(err)
	m.predictions.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

type instrumented struct {
	next analysis.Predictor
	m    *Metrics
}

func (i *instrumented) Predict(ctx context.Context, smiles string) (*predict.Response, error) {
	start := time.Now()
	resp, err := i.next.Predict(ctx, smiles)
	i.m.Observe(err, time.Since(start))
	return resp, err
}

// Outcome classifies a prediction error into a label value.
func Outcome(err error) string {
	var (
		serr *predict.SchemaError
		terr *predict.TransportError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, predict.ErrPredictionFailed):
		return OutcomeRejected
	case errors.As(err, &serr):
		return OutcomeMalformed
	case errors.As(err, &terr):
		return OutcomeTransport
	default:
		return OutcomeOther
	}
}
