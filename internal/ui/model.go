package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/minerdash/minerdash/internal/levels"
	"github.com/minerdash/minerdash/internal/logging"
	"github.com/minerdash/minerdash/internal/progress"
	"github.com/minerdash/minerdash/internal/protocol"
	"github.com/minerdash/minerdash/internal/settings"
	"github.com/minerdash/minerdash/internal/transport"
)

// keyMap defines key bindings for the dashboard
type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Reset key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Left, k.Right, k.Reset},
		{k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "prev subsystem"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next subsystem"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "quieter"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "louder"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset to defaults"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ModelConfig holds what the dashboard needs from its caller
type ModelConfig struct {
	URL     string          // Channel endpoint, shown in the header
	Sender  settings.Sender // Where settings updates go, usually the transport manager
	Initial levels.State    // Starting selector values, defaults when nil
	Events  *Events         // Transport events, nil for a static view
	Width   int             // Initial width, terminal width when 0
}

// Model is the Bubble Tea dashboard: level selectors, progress bars and
// the connectivity status line.
type Model struct {
	url    string
	events *Events

	router   *protocol.Router
	panel    *settings.Panel
	renderer *progress.Renderer

	list         *SelectorList
	generation   *ProgressView
	verification *ProgressView

	status  transport.Status
	lastErr error

	width    int
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// NewModel builds the dashboard and mounts the selectors
func NewModel(cfg ModelConfig) Model {
	width := cfg.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	width = ClampWidth(width)

	list := NewSelectorList()
	panel := settings.NewPanel(list, cfg.Sender, settings.WithInitial(cfg.Initial))
	panel.Init()

	generation := NewProgressView("Generation")
	verification := NewProgressView("Verification")
	generation.SetWidth(width)
	verification.SetWidth(width)

	renderer := progress.NewRenderer()
	renderer.Attach(progress.Generation, generation)
	renderer.Attach(progress.Verification, verification)

	router := protocol.NewRouter()
	router.Register(panel, protocol.TypeSettingsAck, protocol.TypeSettingsSync, protocol.TypeSettingsReject)
	router.Register(renderer, protocol.TypeProgress)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	h := help.New()
	h.Width = width

	return Model{
		url:          cfg.URL,
		events:       cfg.Events,
		router:       router,
		panel:        panel,
		renderer:     renderer,
		list:         list,
		generation:   generation,
		verification: verification,
		status:       transport.Status{State: transport.StateDisconnected},
		width:        width,
		spinner:      s,
		help:         h,
		keys:         newKeyMap(),
	}
}

// Panel returns the settings panel behind the selectors
func (m Model) Panel() *settings.Panel { return m.panel }

// Selectors returns the selector list
func (m Model) Selectors() *SelectorList { return m.list }

// Renderer returns the progress renderer
func (m Model) Renderer() *progress.Renderer { return m.renderer }

// Status returns the last reported connectivity status
func (m Model) Status() transport.Status { return m.status }

// Err returns the last error shown to the operator
func (m Model) Err() error { return m.lastErr }

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.events.Listen())
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if err := m.router.Handle(m.url, msg.Data); err != nil {
			m.lastErr = err
		}
		return m, m.events.Listen()

	case StatusMsg:
		m.status = transport.Status(msg)
		switch msg.State {
		case transport.StateConnecting:
			// Whatever the old connection left unacknowledged is gone; the
			// backend pushes a fresh snapshot once connected.
			m.panel.Resync()
		case transport.StateConnected:
			m.lastErr = nil
		}
		return m, m.events.Listen()

	case tea.WindowSizeMsg:
		m.width = ClampWidth(msg.Width)
		m.help.Width = m.width
		m.generation.SetWidth(m.width)
		m.verification.SetWidth(m.width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.list.Up()

	case key.Matches(msg, m.keys.Down):
		m.list.Down()

	case key.Matches(msg, m.keys.Left):
		m.step(-1)

	case key.Matches(msg, m.keys.Right):
		m.step(1)

	case key.Matches(msg, m.keys.Reset):
		if err := m.panel.SetLevels(levels.Defaults()); err != nil {
			m.lastErr = err
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) step(delta int) {
	c := m.list.Selected()
	if c == nil {
		return
	}
	if err := c.Step(delta); err != nil {
		m.lastErr = err
		return
	}
	logging.Debug("Level changed from dashboard",
		zap.String("subsystem", c.Key()),
		zap.String("level", c.Value().String()),
	)
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(NewHeader("minerdash", m.url).SetWidth(m.width).Render())
	b.WriteString("\n")
	b.WriteString(StatusLine(m.status))
	b.WriteString("\n\n")

	b.WriteString(SectionTitleStyle.Render("Progress"))
	b.WriteString("\n")
	marker := m.spinner.View()
	b.WriteString(m.generation.View(marker))
	b.WriteString("\n")
	b.WriteString(m.verification.View(marker))
	b.WriteString("\n\n")

	title := SectionTitleStyle.Render("Log levels")
	if m.panel.Pending() {
		title += "  " + StepNoteStyle.Render("(saving…)")
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.list.View())
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(ErrorMessageStyle.PaddingLeft(2).Render(FailureMarker + " " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(HelpBarStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// StatusLine renders the connectivity line for s
func StatusLine(s transport.Status) string {
	var text string
	switch s.State {
	case transport.StateConnected:
		text = ActiveMarker + " connected"
	case transport.StateConnecting:
		text = "… connecting"
	case transport.StateReconnecting:
		text = fmt.Sprintf("… connection lost, retrying in %s (attempt %d)",
			s.Delay.Round(100*time.Millisecond), s.Attempt)
	case transport.StateFailed:
		if protocol.IsType(s.Err, protocol.ErrTypeTransportUnavailable) {
			return StatusStyle(transport.StateDisconnected).Render(IdleMarker + " offline, changes stay local")
		}
		text = FailureMarker + " backend unreachable"
	default:
		text = IdleMarker + " offline, changes stay local"
	}
	if s.Err != nil && s.State != transport.StateConnected {
		text += ": " + s.Err.Error()
	}
	return StatusStyle(s.State).Render(text)
}
