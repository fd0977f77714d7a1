// Package views provides the individual views for the terminal form.
package views

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/f3rmion/dhfr/internal/analysis"
	"github.com/f3rmion/dhfr/internal/clipboard"
	"github.com/f3rmion/dhfr/internal/predict"
	"github.com/f3rmion/dhfr/internal/report"
	"github.com/f3rmion/dhfr/internal/structure"
)

const (
	previewCols = 36
	previewRows = 16
)

var (
	ColorActive   = lipgloss.Color("#16a34a")
	ColorInactive = lipgloss.Color("#dc2626")
)

var (
	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f1faee"))

	descriptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8dadc")).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1a1a2e")).
			Background(lipgloss.Color("#f1faee")).
			Padding(0, 2)

	buttonBusyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Background(lipgloss.Color("#2d3436")).
			Padding(0, 2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ecdc4")).
			MarginTop(1)

	errorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorInactive).
			Foreground(ColorInactive).
			Padding(0, 1).
			MarginTop(1)

	errorTitleStyle = lipgloss.NewStyle().Bold(true)

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	inactiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInactive)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffe66d")).
			Italic(true)

	previewStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f1faee"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	copiedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a8e6cf")).
			Bold(true)
)

// PredictionMsg carries the outcome of one submission back to the form.
type PredictionMsg struct {
	Seq      uint64
	Response *predict.Response
	Err      error
}

type clearCopiedMsg struct{}

func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearCopiedMsg{}
	})
}

// FormModel is the compound input view.
type FormModel struct {
	input     textinput.Model
	spinner   spinner.Model
	form      *analysis.Form
	predictor analysis.Predictor
	logger    *zap.Logger

	// cancel aborts the in-flight request, if any.
	cancel context.CancelFunc

	preview string
	copy    func(string) error
	copied  bool
	copyErr error

	width  int
	height int
}

// NewFormModel creates the input view. p may be nil, in which case every
// submission fails.
func NewFormModel(p analysis.Predictor, logger *zap.Logger) FormModel {
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Enter SMILES notation"
	ti.Focus()
	ti.CharLimit = 512
	ti.Width = 48
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ecdc4"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffe66d"))

	return FormModel{
		input:     ti,
		spinner:   sp,
		form:      analysis.NewForm(analysis.WithLogger(logger)),
		predictor: p,
		logger:    logger,
		copy:      clipboard.Write,
	}
}

// SetSize updates the view dimensions.
func (m *FormModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetClipboard replaces the clipboard writer.
func (m *FormModel) SetClipboard(write func(string) error) {
	m.copy = write
}

// State returns a snapshot of the underlying form.
func (m FormModel) State() analysis.State {
	return m.form.State()
}

// Focus gives keyboard focus to the SMILES input.
func (m *FormModel) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes keyboard focus from the SMILES input.
func (m *FormModel) Blur() {
	m.input.Blur()
}

// Update handles messages.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+y":
			return m.copySummary()
		}

	case PredictionMsg:
		return m.handlePrediction(msg), nil

	case spinner.TickMsg:
		if !m.form.State().Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearCopiedMsg:
		m.copied = false
		m.copyErr = nil
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.form.SetInput(m.input.Value())
	return m, cmd
}

// submit starts a new submission, superseding any request still in flight.
func (m FormModel) submit() (FormModel, tea.Cmd) {
	wasLoading := m.form.State().Loading

	m.form.SetInput(m.input.Value())
	ticket := m.form.Begin()
	m.preview = ""
	m.copied = false
	m.copyErr = nil

	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.logger.Info("sending request", zap.Uint64("seq", ticket.Seq), zap.String("canonical_smiles", ticket.SMILES))

	p := m.predictor
	run := func() tea.Msg {
		resp, err := analysis.Call(ctx, p, ticket.SMILES)
		return PredictionMsg{Seq: ticket.Seq, Response: resp, Err: err}
	}

	if wasLoading {
		return m, run
	}
	return m, tea.Batch(m.spinner.Tick, run)
}

func (m FormModel) handlePrediction(msg PredictionMsg) FormModel {
	var applied bool
	if msg.Err != nil {
		applied = m.form.Fail(msg.Seq, msg.Err)
		if applied {
			m.logger.Warn("prediction failed", zap.Uint64("seq", msg.Seq), zap.Error(msg.Err))
		}
	} else {
		applied = m.form.Complete(msg.Seq, msg.Response)
	}
	if !applied {
		return m
	}

	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	st := m.form.State()
	if st.HasResult && st.Markup != "" {
		art, err := structure.Render(st.Markup, previewCols, previewRows)
		if err != nil {
			m.logger.Debug("structure preview unavailable", zap.Error(err))
		}
		m.preview = art
	}

	return m
}

func (m FormModel) copySummary() (FormModel, tea.Cmd) {
	st := m.form.State()
	if st.Seq == 0 || st.Loading {
		return m, nil
	}
	if m.copy == nil {
		return m, nil
	}

	if err := m.copy(report.Summary(st)); err != nil {
		m.copyErr = err
		m.logger.Warn("copying summary", zap.Error(err))
	} else {
		m.copied = true
	}
	return m, clearCopiedAfter(2 * time.Second)
}

// View renders the input view.
func (m FormModel) View() string {
	st := m.form.State()
	var b strings.Builder

	b.WriteString(cardTitleStyle.Render("Drug Input"))
	b.WriteString("\n")
	b.WriteString(descriptionStyle.Render("Enter the canonical SMILES of your compound"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Canonical SMILES"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if st.Loading {
		b.WriteString(buttonBusyStyle.Render(m.spinner.View() + " Analyzing..."))
	} else {
		b.WriteString(buttonStyle.Render("Analyze Compound"))
	}
	b.WriteString("\n")

	if st.ErrorMessage != "" {
		b.WriteString(errorBoxStyle.Render(errorTitleStyle.Render("Error") + "\n" + st.ErrorMessage))
		b.WriteString("\n")
	}

	if st.HasResult {
		details := m.renderResult(st)
		if side := m.renderStructure(st); side != "" {
			details = lipgloss.JoinHorizontal(lipgloss.Top, details, "    ", side)
		}
		b.WriteString(details)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.copied:
		b.WriteString(copiedStyle.Render("Copied to clipboard"))
	case m.copyErr != nil:
		b.WriteString(inactiveStyle.Render("Copy failed: " + m.copyErr.Error()))
	case st.Seq > 0 && !st.Loading:
		b.WriteString(helpStyle.Render("enter: analyze • ctrl+y: copy summary"))
	default:
		b.WriteString(helpStyle.Render("Type a SMILES string and press Enter to analyze"))
	}

	return b.String()
}

func (m FormModel) renderResult(st analysis.State) string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Drug Properties"))
	b.WriteString("\n")
	b.WriteString("• Molecular Weight: " + report.Number(st.Properties.MolecularWeight) + " g/mol\n")
	b.WriteString("• LogP: " + report.Number(st.Properties.LogP) + "\n")
	b.WriteString("• H-Bond Donors: " + report.Number(st.Properties.HBondDonors) + "\n")
	b.WriteString("• H-Bond Acceptors: " + report.Number(st.Properties.HBondAcceptors) + "\n")

	b.WriteString(sectionStyle.Render("Potency Prediction"))
	b.WriteString("\n")
	label := inhibitorStyle(st.Potency).Render(report.Text(st.Potency.InhibitorType))
	b.WriteString("This compound is predicted to be an " + label + " inhibitor of DHFR.\n")
	b.WriteString("IC50: " + report.Number(st.Potency.IC50) + " nM")

	return b.String()
}

func (m FormModel) renderStructure(st analysis.State) string {
	var parts []string
	if name := report.Text(st.Name); name != "" {
		parts = append(parts, nameStyle.Render(name))
	}
	if m.preview != "" {
		parts = append(parts, previewStyle.Render(m.preview))
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.NewStyle().MarginTop(1).Render(lipgloss.JoinVertical(lipgloss.Center, parts...))
}

// inhibitorStyle colors the inhibitor label green when it is the active
// label and red otherwise.
func inhibitorStyle(p analysis.Potency) lipgloss.Style {
	if p.Active() {
		return activeStyle
	}
	return inactiveStyle
}
