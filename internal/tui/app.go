package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/f3rmion/dhfr/internal/analysis"
	"github.com/f3rmion/dhfr/internal/tui/views"
)

const probeTimeout = 10 * time.Second

// Tab identifies one of the top-level tabs.
type Tab int

const (
	TabInput Tab = iota
	TabIntroduction
	TabMethodology
	TabDisclaimer
	tabCount
)

// ProbeMsg reports the result of the start-up liveness check.
type ProbeMsg struct {
	Body any
	Err  error
}

// Service is what the terminal form needs from the prediction backend.
type Service interface {
	analysis.Predictor
	analysis.Prober
}

// AppModel is the top-level terminal model
type AppModel struct {
	prober analysis.Prober
	logger *zap.Logger

	// Layout state
	width  int
	height int
	ready  bool

	tab   Tab
	form  views.FormModel
	pages [tabCount - 1]views.InfoModel
}

// NewApp creates the terminal form. svc may be nil.
func NewApp(svc Service, logger *zap.Logger) AppModel {
	if logger == nil {
		logger = zap.NewNop()
	}

	var predictor analysis.Predictor
	var prober analysis.Prober
	if svc != nil {
		predictor = svc
		prober = svc
	}

	return AppModel{
		prober: prober,
		logger: logger,
		tab:    TabInput,
		form:   views.NewFormModel(predictor, logger),
		pages: [tabCount - 1]views.InfoModel{
			views.NewInfoModel(views.Introduction),
			views.NewInfoModel(views.Methodology),
			views.NewInfoModel(views.Disclaimer),
		},
	}
}

// Init initializes the model
func (m AppModel) Init() tea.Cmd {
	m.logger.Info("form mounted")
	return tea.Batch(textinput.Blink, m.probe())
}

func (m AppModel) probe() tea.Cmd {
	if m.prober == nil {
		return nil
	}
	prober := m.prober
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		body, err := prober.Ping(ctx)
		return ProbeMsg{Body: body, Err: err}
	}
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			return m.switchTab((m.tab + 1) % tabCount)
		case "shift+tab":
			return m.switchTab((m.tab + tabCount - 1) % tabCount)
		case "f1":
			return m.switchTab(TabInput)
		case "f2":
			return m.switchTab(TabIntroduction)
		case "f3":
			return m.switchTab(TabMethodology)
		case "f4":
			return m.switchTab(TabDisclaimer)
		}

		// Only the input tab takes keystrokes
		if m.tab != TabInput {
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentWidth := m.width - 6
		contentHeight := m.height - 10
		m.form.SetSize(contentWidth, contentHeight)
		for i := range m.pages {
			m.pages[i].SetSize(contentWidth, contentHeight)
		}
		return m, nil

	case ProbeMsg:
		if msg.Err != nil {
			m.logger.Warn("liveness probe failed", zap.Error(msg.Err))
		} else {
			m.logger.Info("liveness probe", zap.Any("body", msg.Body))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m AppModel) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	if t == TabInput {
		return m, m.form.Focus()
	}
	m.form.Blur()
	return m, nil
}

// ActiveTab returns the tab currently shown.
func (m AppModel) ActiveTab() Tab {
	return m.tab
}

// Form returns the input view.
func (m AppModel) Form() views.FormModel {
	return m.form
}

// View renders the UI
func (m AppModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render("Computational Drug Discovery"),
		SubtitleStyle.Render("Target disease - Tuberculosis (TB)"),
		SubtitleStyle.Render("Target inhibitor - Dihydrofolate reductase (DHFR)"),
	)

	var content string
	if m.tab == TabInput {
		content = m.form.View()
	} else {
		content = m.pages[m.tab-1].View()
	}

	card := CardStyle.Render(content)
	help := HelpStyle.Render("tab/shift+tab: switch tabs • F1-F4: jump to tab • esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderTabs(), card, help)
}

func (m AppModel) renderTabs() string {
	labels := [tabCount]string{"Input"}
	for i, p := range m.pages {
		labels[i+1] = p.Title()
	}

	tabs := make([]string, 0, len(labels))
	for i, label := range labels {
		style := TabStyle
		if Tab(i) == m.tab {
			style = TabActiveStyle
		}
		tabs = append(tabs, style.Render(label))
	}

	return TabBarStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}
