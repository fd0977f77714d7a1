// Package analysis holds the compound analysis form: its state, the
// submit lifecycle, and the mapping from prediction responses to display
// fields. It knows nothing about how the form is drawn.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/f3rmion/dhfr/internal/predict"
)

// UnknownErrorMessage is shown when a failure carries no message of its own.
const UnknownErrorMessage = "An unknown error occurred"

// ActiveInhibitor is the inhibitor label the service uses for potent compounds.
const ActiveInhibitor = "Active"

// Predictor runs one potency prediction.
type Predictor interface {
	Predict(ctx context.Context, smiles string) (*predict.Response, error)
}

// Prober checks that the prediction service is reachable.
type Prober interface {
	Ping(ctx context.Context) (any, error)
}

// DrugProperties are the Lipinski descriptors of the submitted compound.
// Nil means "not known yet".
type DrugProperties struct {
	MolecularWeight *float64 `json:"molecularWeight" yaml:"molecular_weight"`
	LogP            *float64 `json:"logP" yaml:"logp"`
	HBondDonors     *float64 `json:"hBondDonors" yaml:"h_bond_donors"`
	HBondAcceptors  *float64 `json:"hBondAcceptors" yaml:"h_bond_acceptors"`
}

// Potency is the predicted DHFR inhibition of the compound.
type Potency struct {
	IsPotent      bool     `json:"isPotent" yaml:"is_potent"`
	InhibitorType *string  `json:"inhibitorType" yaml:"inhibitor_type"`
	IC50          *float64 `json:"ic50" yaml:"ic50"`
}

// Active reports whether the inhibitor label is the positive one.
func (p Potency) Active() bool {
	return p.InhibitorType != nil && *p.InhibitorType == ActiveInhibitor
}

// State is a snapshot of everything the form displays.
type State struct {
	// Seq identifies the submission this state belongs to. Zero means idle.
	Seq    uint64 `json:"seq" yaml:"seq"`
	SMILES string `json:"smiles" yaml:"smiles"`

	Loading      bool   `json:"loading" yaml:"loading"`
	HasResult    bool   `json:"hasResult" yaml:"has_result"`
	ErrorMessage string `json:"errorMessage,omitempty" yaml:"error_message,omitempty"`

	Properties DrugProperties `json:"properties" yaml:"properties"`
	Potency    Potency        `json:"potency" yaml:"potency"`

	// Markup is the structure drawing exactly as the service sent it.
	Markup string  `json:"svg" yaml:"svg"`
	Name   *string `json:"iupac" yaml:"iupac"`
}

// Ticket identifies one submission.
type Ticket struct {
	Seq    uint64
	SMILES string
}

// Form is the compound analysis form. It is safe for concurrent use; only
// the most recent submission may move it out of the loading state.
type Form struct {
	mu     sync.Mutex
	input  string
	seq    uint64
	state  State
	logger *zap.Logger
}

// Option configures a Form.
type Option func(*Form)

// WithLogger attaches a logger for lifecycle diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewForm returns an idle form.
func NewForm(opts ...Option) *Form {
	f := &Form{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetInput records the text currently typed into the form.
func (f *Form) SetInput(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = s
}

// Input returns the text currently typed into the form.
func (f *Form) Input() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// State returns a snapshot of the form.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin starts a submission of the current input. All result and error
// state is cleared before the request goes out.
func (f *Form) Begin() Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	if f.state.Loading {
		f.logger.Debug("superseding in-flight submission", zap.Uint64("previous", f.state.Seq), zap.Uint64("seq", f.seq))
	}
	f.state = State{
		Seq:     f.seq,
		SMILES:  f.input,
		Loading: true,
	}

	return Ticket{Seq: f.seq, SMILES: f.input}
}

// Complete applies a successful response. It returns false when seq is not
// the latest submission, in which case the form is left untouched.
func (f *Form) Complete(seq uint64, resp *predict.Response) bool {
	if resp == nil {
		return f.Fail(seq, nil)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.current(seq) {
		return false
	}

	f.state.Properties = DrugProperties{
		MolecularWeight: copyFloat(resp.MW),
		LogP:            copyFloat(resp.LogP),
		HBondDonors:     copyFloat(resp.HBD),
		HBondAcceptors:  copyFloat(resp.HBA),
	}
	f.state.Potency = Potency{
		IsPotent:      resp.IsPotent != nil && *resp.IsPotent,
		InhibitorType: copyString(resp.Inhibitor),
		IC50:          copyFloat(resp.IC50),
	}
	if resp.SVG != nil {
		f.state.Markup = *resp.SVG
	}
	f.state.Name = copyString(resp.IUPAC)
	f.state.HasResult = true
	f.state.ErrorMessage = ""
	f.state.Loading = false

	return true
}

// Fail applies a failed submission. Like Complete it ignores stale
// submissions.
func (f *Form) Fail(seq uint64, err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.current(seq) {
		return false
	}

	f.state.HasResult = false
	f.state.ErrorMessage = Message(err)
	f.state.Loading = false

	return true
}

// current must be called with mu held.
func (f *Form) current(seq uint64) bool {
	if seq != f.seq || !f.state.Loading {
		f.logger.Debug("discarding stale response", zap.Uint64("seq", seq), zap.Uint64("latest", f.seq))
		return false
	}
	return true
}

// Submit runs a whole submission of the current input synchronously and
// returns the resulting state.
func (f *Form) Submit(ctx context.Context, p Predictor) State {
	t := f.Begin()

	resp, err := Call(ctx, p, t.SMILES)
	if err != nil {
		f.logger.Info("prediction failed", zap.Uint64("seq", t.Seq), zap.Error(err))
		f.Fail(t.Seq, err)
	} else {
		f.Complete(t.Seq, resp)
	}

	return f.State()
}

// Call invokes p, turning a panic into an error so the form always reaches
// a terminal state.
func Call(ctx context.Context, p Predictor, smiles string) (resp *predict.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = &opaqueError{value: r}
			}
		}
	}()

	if p == nil {
		return nil, errors.New("no predictor configured")
	}
	return p.Predict(ctx, smiles)
}

// opaqueError wraps a panic value that is not an error.
type opaqueError struct {
	value any
}

func (e *opaqueError) Error() string {
	return fmt.Sprintf("prediction panicked: %v", e.value)
}

// Message is the user-visible text for a failed submission.
func Message(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	var oe *opaqueError
	if errors.As(err, &oe) {
		return UnknownErrorMessage
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
