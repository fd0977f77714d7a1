package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dhfr/internal/predict"
)

type fixedPredictor struct {
	err error
}

func (f fixedPredictor) Predict(context.Context, string) (*predict.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &predict.Response{}, nil
}

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	ok := m.Instrument(fixedPredictor{})
	bad := m.Instrument(fixedPredictor{err: &predict.StatusError{StatusCode: 500}})

	_, err := ok.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	_, err = ok.Predict(context.Background(), "CCO")
	require.NoError(t, err)
	_, err = bad.Predict(context.Background(), "CCO")
	require.Error(t, err)

	require.Equal(t, 2.0, testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeRejected)))

	count, err := testutil.GatherAndCount(reg, "dhfr_predictions_total", "dhfr_prediction_duration_seconds")
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestOutcome(t *testing.T) {
	require.Equal(t, OutcomeSuccess, Outcome(nil))
	require.Equal(t, OutcomeRejected, Outcome(&predict.StatusError{StatusCode: 502}))
	require.Equal(t, OutcomeMalformed, Outcome(&predict.SchemaError{Problems: []string{"missing MW"}}))
	require.Equal(t, OutcomeTransport, Outcome(&predict.TransportError{Err: errors.New("connection refused")}))
	require.Equal(t, OutcomeCanceled, Outcome(&predict.TransportError{Err: context.Canceled}))
	require.Equal(t, OutcomeOther, Outcome(errors.New("boom")))
}
