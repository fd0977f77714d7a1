package views

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/f3rmion/dhfr/internal/predict"
	"github.com/f3rmion/dhfr/internal/report"
)

type stubPredictor struct {
	predictFn func(ctx context.Context, smiles string) (*predict.Response, error)
}

func (s *stubPredictor) Predict(ctx context.Context, smiles string) (*predict.Response, error) {
	return s.predictFn(ctx, smiles)
}

func respond(resp *predict.Response, err error) *stubPredictor {
	return &stubPredictor{predictFn: func(context.Context, string) (*predict.Response, error) {
		return resp, err
	}}
}

func float(v float64) *float64 { return &v }
func str(v string) *string      { return &v }
func boolean(v bool) *bool      { return &v }

const squareSVG = `<svg width="10" height="10"><path d="M0 0 H10 V10 H0 Z"/></svg>`

func ethanol() *predict.Response {
	return &predict.Response{
		MW:        float(46.07),
		LogP:      float(-0.31),
		HBD:       float(1),
		HBA:       float(1),
		IsPotent:  boolean(true),
		Inhibitor: str("Active"),
		IC50:      float(120.5),
		SVG:       str(squareSVG),
		IUPAC:     str("ethanol"),
	}
}

func typeText(m FormModel, s string) FormModel {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func pressEnter(m FormModel) (FormModel, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// predictionFrom runs cmd and returns the PredictionMsg it produced.
func predictionFrom(t *testing.T, cmd tea.Cmd) PredictionMsg {
	t.Helper()
	for _, msg := range collect(cmd) {
		if pm, ok := msg.(PredictionMsg); ok {
			return pm
		}
	}
	t.Fatal("command produced no PredictionMsg")
	return PredictionMsg{}
}

func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func submitAndWait(t *testing.T, m FormModel, smiles string) FormModel {
	t.Helper()
	m = typeText(m, smiles)
	m, cmd := pressEnter(m)
	m, _ = m.Update(predictionFrom(t, cmd))
	return m
}

func TestFormModel_Idle(t *testing.T) {
	m := NewFormModel(respond(ethanol(), nil), nil)
	view := m.View()

	require.Contains(t, view, "Enter SMILES notation")
	require.Contains(t, view, "Analyze Compound")
	require.NotContains(t, view, "Drug Properties")
	require.NotContains(t, view, "Error")
}

func TestFormModel_Success(t *testing.T) {
	var got string
	p := &stubPredictor{predictFn: func(_ context.Context, smiles string) (*predict.Response, error) {
		got = smiles
		return ethanol(), nil
	}}

	m := NewFormModel(p, nil)
	m = typeText(m, "CCO")
	m, cmd := pressEnter(m)

	require.True(t, m.State().Loading)
	require.Contains(t, m.View(), "Analyzing...")
	require.NotContains(t, m.View(), "Analyze Compound")

	m, _ = m.Update(predictionFrom(t, cmd))
	require.Equal(t, "CCO", got)

	st := m.State()
	require.False(t, st.Loading)
	require.True(t, st.HasResult)
	require.Empty(t, st.ErrorMessage)

	view := m.View()
	require.Contains(t, view, "Molecular Weight: 46.07 g/mol")
	require.Contains(t, view, "LogP: -0.31")
	require.Contains(t, view, "H-Bond Donors: 1")
	require.Contains(t, view, "H-Bond Acceptors: 1")
	require.Contains(t, view, "This compound is predicted to be an Active inhibitor of DHFR.")
	require.Contains(t, view, "IC50: 120.5 nM")
	require.Contains(t, view, "ethanol")
	require.Contains(t, view, "█")
	require.Contains(t, view, "Analyze Compound")

	require.Equal(t, ColorActive, inhibitorStyle(st.Potency).GetForeground())
}

func TestFormModel_InactiveStyling(t *testing.T) {
	resp := ethanol()
	resp.Inhibitor = str("Inactive")
	resp.IsPotent = boolean(false)

	m := submitAndWait(t, NewFormModel(respond(resp, nil), nil), "CCO")

	require.Contains(t, m.View(), "predicted to be an Inactive inhibitor")
	require.Equal(t, ColorInactive, inhibitorStyle(m.State().Potency).GetForeground())
}

func TestFormModel_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client, err := predict.NewClient(srv.URL)
	require.NoError(t, err)

	m := submitAndWait(t, NewFormModel(client, nil), "CCO")

	st := m.State()
	require.False(t, st.Loading)
	require.False(t, st.HasResult)
	require.Equal(t, "Failed to get prediction", st.ErrorMessage)

	view := m.View()
	require.Contains(t, view, "Error")
	require.Contains(t, view, "Failed to get prediction")
	require.NotContains(t, view, "Drug Properties")
	require.NotContains(t, view, "Potency Prediction")
}

func TestFormModel_TransportError(t *testing.T) {
	m := submitAndWait(t, NewFormModel(respond(nil, &predict.TransportError{Err: errors.New("timeout")}), nil), "CCO")

	require.Equal(t, "timeout", m.State().ErrorMessage)
	require.Contains(t, m.View(), "timeout")
	require.NotContains(t, m.View(), "Drug Properties")
}

func TestFormModel_NilPredictor(t *testing.T) {
	m := submitAndWait(t, NewFormModel(nil, nil), "CCO")

	require.False(t, m.State().Loading)
	require.NotEmpty(t, m.State().ErrorMessage)
}

func TestFormModel_ResetOnSubmit(t *testing.T) {
	m := submitAndWait(t, NewFormModel(respond(ethanol(), nil), nil), "CCO")
	require.Contains(t, m.View(), "Drug Properties")

	m, _ = pressEnter(m)

	st := m.State()
	require.True(t, st.Loading)
	require.False(t, st.HasResult)
	require.Nil(t, st.Properties.MolecularWeight)
	require.Nil(t, st.Name)
	require.NotContains(t, m.View(), "Drug Properties")
	require.NotContains(t, m.View(), "ethanol")
}

func TestFormModel_SupersededRequest(t *testing.T) {
	p := &stubPredictor{predictFn: func(ctx context.Context, smiles string) (*predict.Response, error) {
		if err := ctx.Err(); err != nil {
			return nil, &predict.TransportError{Err: err}
		}
		resp := ethanol()
		resp.IUPAC = str(smiles)
		return resp, nil
	}}

	m := NewFormModel(p, nil)
	m = typeText(m, "CC")
	m, first := pressEnter(m)
	m = typeText(m, "O")
	m, second := pressEnter(m)

	// The newer submission cancelled the older one's context.
	stale := predictionFrom(t, first)
	require.ErrorIs(t, stale.Err, context.Canceled)

	m, _ = m.Update(stale)
	require.True(t, m.State().Loading)
	require.Empty(t, m.State().ErrorMessage)

	m, _ = m.Update(predictionFrom(t, second))
	st := m.State()
	require.False(t, st.Loading)
	require.True(t, st.HasResult)
	require.Equal(t, "CCO", st.SMILES)
	require.Equal(t, "CCO", *st.Name)
}

func TestFormModel_LateResponseAfterCompletion(t *testing.T) {
	m := submitAndWait(t, NewFormModel(respond(ethanol(), nil), nil), "CCO")

	m, _ = m.Update(PredictionMsg{Seq: m.State().Seq, Err: errors.New("late")})

	require.True(t, m.State().HasResult)
	require.Empty(t, m.State().ErrorMessage)
}

func TestFormModel_CopySummary(t *testing.T) {
	var copied string
	m := NewFormModel(respond(ethanol(), nil), nil)
	m.SetClipboard(func(s string) error {
		copied = s
		return nil
	})

	// Nothing to copy before the first submission.
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Nil(t, cmd)
	require.Empty(t, copied)

	m = submitAndWait(t, m, "CCO")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	require.NotNil(t, cmd)
	require.Equal(t, report.Summary(m.State()), copied)
	require.Contains(t, m.View(), "Copied to clipboard")

	m, _ = m.Update(clearCopiedMsg{})
	require.NotContains(t, m.View(), "Copied to clipboard")
}

func TestFormModel_CopyFailure(t *testing.T) {
	m := NewFormModel(respond(ethanol(), nil), nil)
	m.SetClipboard(func(string) error { return errors.New("no clipboard") })

	m = submitAndWait(t, m, "CCO")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})

	require.Contains(t, m.View(), "Copy failed: no clipboard")
}

func TestInfoModel_View(t *testing.T) {
	m := NewInfoModel(Methodology)
	m.SetSize(80, 24)
	view := m.View()

	require.Equal(t, "Methodology", m.Title())
	require.Contains(t, view, "1. Input of canonical SMILES notation")
	require.Contains(t, view, "5. Results interpretation and visualization")

	d := NewInfoModel(Disclaimer)
	require.Contains(t, d.View(), "research purposes only")
	require.Contains(t, d.View(), "Contributors")
}

func TestWordWrap(t *testing.T) {
	require.Equal(t, "aaa bbb\nccc", wordWrap("aaa bbb ccc", 7))
	require.Equal(t, "", wordWrap("", 10))
}
