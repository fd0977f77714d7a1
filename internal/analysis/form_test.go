package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/f3rmion/dhfr/internal/predict"
)

type stubPredictor struct {
	predictFn func(ctx context.Context, smiles string) (*predict.Response, error)
}

func (s *stubPredictor) Predict(ctx context.Context, smiles string) (*predict.Response, error) {
	return s.predictFn(ctx, smiles)
}

func float(v float64) *float64 { return &v }
func str(v string) *string      { return &v }
func boolean(v bool) *bool      { return &v }

func ethanol() *predict.Response {
	return &predict.Response{
		MW:        float(46.07),
		LogP:      float(-0.31),
		HBD:       float(1),
		HBA:       float(1),
		IsPotent:  boolean(true),
		Inhibitor: str("Active"),
		IC50:      float(120.5),
		SVG:       str("<svg></svg>"),
		IUPAC:     str("ethanol"),
	}
}

func respond(resp *predict.Response, err error) *stubPredictor {
	return &stubPredictor{predictFn: func(context.Context, string) (*predict.Response, error) {
		return resp, err
	}}
}

func TestNewForm_Idle(t *testing.T) {
	st := NewForm().State()
	require.Equal(t, State{}, st)
	require.False(t, st.Loading)
	require.False(t, st.HasResult)
	require.Empty(t, st.ErrorMessage)
	require.Nil(t, st.Properties.MolecularWeight)
	require.Nil(t, st.Name)
}

func TestSubmit_Success(t *testing.T) {
	f := NewForm()
	f.SetInput("CCO")

	var got string
	st := f.Submit(context.Background(), &stubPredictor{predictFn: func(_ context.Context, smiles string) (*predict.Response, error) {
		got = smiles
		return ethanol(), nil
	}})

	require.Equal(t, "CCO", got)
	require.False(t, st.Loading)
	require.True(t, st.HasResult)
	require.Empty(t, st.ErrorMessage)
	require.Equal(t, 46.07, *st.Properties.MolecularWeight)
	require.Equal(t, -0.31, *st.Properties.LogP)
	require.Equal(t, 1.0, *st.Properties.HBondDonors)
	require.Equal(t, 1.0, *st.Properties.HBondAcceptors)
	require.True(t, st.Potency.IsPotent)
	require.Equal(t, "Active", *st.Potency.InhibitorType)
	require.True(t, st.Potency.Active())
	require.Equal(t, 120.5, *st.Potency.IC50)
	require.Equal(t, "<svg></svg>", st.Markup)
	require.Equal(t, "ethanol", *st.Name)
	require.Equal(t, "CCO", st.SMILES)
}

func TestSubmit_ValuesAreNotTransformed(t *testing.T) {
	resp := ethanol()
	resp.MW = float(180.15899999999999)
	resp.IC50 = float(0.000123)
	resp.Inhibitor = str("Inactive")
	resp.IsPotent = boolean(false)
	resp.IUPAC = nil

	f := NewForm()
	st := f.Submit(context.Background(), respond(resp, nil))

	require.Equal(t, 180.15899999999999, *st.Properties.MolecularWeight)
	require.Equal(t, 0.000123, *st.Potency.IC50)
	require.False(t, st.Potency.IsPotent)
	require.False(t, st.Potency.Active())
	require.Nil(t, st.Name)

	// The form keeps its own copies.
	*resp.MW = 1
	require.Equal(t, 180.15899999999999, *f.State().Properties.MolecularWeight)
}

func TestSubmit_HTTPFailure(t *testing.T) {
	for _, status := range []int{400, 404, 500, 503} {
		st := NewForm().Submit(context.Background(), respond(nil, &predict.StatusError{StatusCode: status}))

		require.False(t, st.Loading)
		require.False(t, st.HasResult)
		require.Equal(t, "Failed to get prediction", st.ErrorMessage)
	}
}

func TestSubmit_TransportFailure(t *testing.T) {
	st := NewForm().Submit(context.Background(), respond(nil, &predict.TransportError{Err: errors.New("timeout")}))
	require.Equal(t, "timeout", st.ErrorMessage)
	require.False(t, st.HasResult)
	require.False(t, st.Loading)

	st = NewForm().Submit(context.Background(), respond(nil, errors.New("timeout")))
	require.Equal(t, "timeout", st.ErrorMessage)
}

func TestSubmit_FailureWithoutMessage(t *testing.T) {
	cases := map[string]*stubPredictor{
		"empty message": respond(nil, errors.New("")),
		"empty transport error": respond(nil, &predict.TransportError{}),
		"nil response": respond(nil, nil),
		"panic with value": {predictFn: func(context.Context, string) (*predict.Response, error) {
			panic(42)
		}},
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			st := NewForm().Submit(context.Background(), p)
			require.Equal(t, "An unknown error occurred", st.ErrorMessage)
			require.False(t, st.Loading)
			require.False(t, st.HasResult)
		})
	}
}

func TestSubmit_PanicWithError(t *testing.T) {
	st := NewForm().Submit(context.Background(), &stubPredictor{predictFn: func(context.Context, string) (*predict.Response, error) {
		panic(errors.New("decoder exploded"))
	}})
	require.Equal(t, "decoder exploded", st.ErrorMessage)
	require.False(t, st.Loading)
}

func TestSubmit_MalformedResponse(t *testing.T) {
	err := &predict.SchemaError{Problems: []string{"missing IC50"}}
	st := NewForm().Submit(context.Background(), respond(nil, err))
	require.Equal(t, "Malformed prediction response: missing IC50", st.ErrorMessage)
	require.False(t, st.HasResult)
}

func TestBegin_ResetsEverything(t *testing.T) {
	f := NewForm()
	f.SetInput("CCO")
	f.Submit(context.Background(), respond(ethanol(), nil))
	require.True(t, f.State().HasResult)

	f.SetInput("c1ccccc1")
	ticket := f.Begin()
	st := f.State()

	require.Equal(t, "c1ccccc1", ticket.SMILES)
	require.Equal(t, ticket.Seq, st.Seq)
	require.True(t, st.Loading)
	require.False(t, st.HasResult)
	require.Empty(t, st.ErrorMessage)
	require.Equal(t, DrugProperties{}, st.Properties)
	require.Equal(t, Potency{}, st.Potency)
	require.Empty(t, st.Markup)
	require.Nil(t, st.Name)
}

func TestBegin_ClearsPreviousError(t *testing.T) {
	f := NewForm()
	f.Submit(context.Background(), respond(nil, errors.New("boom")))
	require.Equal(t, "boom", f.State().ErrorMessage)

	f.Begin()
	require.Empty(t, f.State().ErrorMessage)
	require.True(t, f.State().Loading)
}

func TestStaleResponsesAreDiscarded(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	f := NewForm(WithLogger(zap.New(core)))

	f.SetInput("CCO")
	first := f.Begin()
	f.SetInput("CCN")
	second := f.Begin()
	require.Greater(t, second.Seq, first.Seq)

	// The older request resolves last; it must not win.
	require.True(t, f.Fail(second.Seq, errors.New("timeout")))
	require.False(t, f.Complete(first.Seq, ethanol()))

	st := f.State()
	require.Equal(t, "timeout", st.ErrorMessage)
	require.False(t, st.HasResult)
	require.Equal(t, "CCN", st.SMILES)
	require.Equal(t, 1, logs.FilterMessage("discarding stale response").Len())
	require.Equal(t, 1, logs.FilterMessage("superseding in-flight submission").Len())
}

func TestLoadingHeldUntilLatestResolves(t *testing.T) {
	f := NewForm()
	first := f.Begin()
	second := f.Begin()

	require.False(t, f.Complete(first.Seq, ethanol()))
	require.True(t, f.State().Loading)

	require.True(t, f.Complete(second.Seq, ethanol()))
	require.False(t, f.State().Loading)

	// A duplicate completion of a finished submission is ignored.
	require.False(t, f.Fail(second.Seq, errors.New("late")))
	require.True(t, f.State().HasResult)
}

func TestConcurrentSubmissions(t *testing.T) {
	f := NewForm()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Submit(context.Background(), respond(ethanol(), nil))
		}()
	}
	wg.Wait()

	st := f.State()
	require.False(t, st.Loading)
	require.True(t, st.HasResult)
}

func TestCall_NilPredictor(t *testing.T) {
	_, err := Call(context.Background(), nil, "CCO")
	require.Error(t, err)
}

func TestMessage(t *testing.T) {
	require.Equal(t, UnknownErrorMessage, Message(nil))
	require.Equal(t, UnknownErrorMessage, Message(errors.New("")))
	require.Equal(t, "x", Message(errors.New("x")))
	require.Equal(t, UnknownErrorMessage, Message(&opaqueError{value: struct{}{}}))
}
