// Package tui is the terminal dashboard for one project. Terminal focus changes are
// published as page visibility signals and quitting is published as an unload.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hobbytrack/project-timer/internal/lifecycle"
	"hobbytrack/project-timer/internal/notify"
	"hobbytrack/project-timer/internal/recorder"
	"hobbytrack/project-timer/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	toastStyles = map[notify.Kind]lipgloss.Style{
		notify.KindInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4A90E2")),
		notify.KindSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")),
		notify.KindError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
)

// Timer is the part of the dashboard the terminal view drives.
type Timer interface {
	Start(projectID string) (service.View, error)
	Pause(ctx context.Context, projectID string) (service.View, recorder.PauseResult, error)
	State(projectID string) (service.View, error)
	SetCounters(ctx context.Context, projectID string, rows, stitches *int64) (service.View, error)
	SaveNow(ctx context.Context, projectID string) (service.View, error)
}

// Options configures the terminal dashboard.
type Options struct {
	Context       context.Context
	Timer         Timer
	Hub           *lifecycle.Hub
	Notifications *notify.Center
	ProjectID     string
	Initial       service.View
	Refresh       time.Duration
}

// Model is the Bubble Tea model of the terminal dashboard.
type Model struct {
	ctx       context.Context
	timer     Timer
	hub       *lifecycle.Hub
	center    *notify.Center
	projectID string
	refresh   time.Duration

	view     service.View
	toasts   []notify.Notification
	err      error
	focused  bool
	quitting bool

	keys     keyMap
	help     help.Model
	showHelp bool
}

// New creates the dashboard model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = time.Second
	}

	return Model{
		ctx:       ctx,
		timer:     opts.Timer,
		hub:       opts.Hub,
		center:    opts.Notifications,
		projectID: opts.ProjectID,
		refresh:   refresh,
		view:      opts.Initial,
		focused:   true,
		keys:      DefaultKeyMap(),
		help:      help.New(),
	}
}

// Messages

type tickMsg time.Time

type viewMsg struct {
	view service.View
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) actionCmd(fn func() (service.View, error)) tea.Cmd {
	return func() tea.Msg {
		view, err := fn()
		return viewMsg{view: view, err: err}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.refresh)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.FocusMsg:
		m.focused = true
		return m, m.lifecycleCmd(lifecycle.KindVisible)

	case tea.BlurMsg:
		m.focused = false
		return m, m.lifecycleCmd(lifecycle.KindHidden)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.refreshCmd(), tickCmd(m.refresh))

	case viewMsg:
		if msg.err == nil || msg.view.Project.ID != "" {
			m.view = msg.view
		}
		m.err = msg.err
		if m.center != nil {
			m.toasts = m.center.List()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.publish(lifecycle.KindUnload)
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if m.view.Timer.Running {
			return m, m.actionCmd(func() (service.View, error) {
				view, _, err := m.timer.Pause(m.ctx, m.projectID)
				return view, err
			})
		}
		return m, m.actionCmd(func() (service.View, error) {
			return m.timer.Start(m.projectID)
		})

	case key.Matches(msg, m.keys.Save):
		return m, m.actionCmd(func() (service.View, error) {
			return m.timer.SaveNow(m.ctx, m.projectID)
		})

	case key.Matches(msg, m.keys.RowUp):
		return m, m.counterCmd(1, 0)
	case key.Matches(msg, m.keys.RowDown):
		return m, m.counterCmd(-1, 0)
	case key.Matches(msg, m.keys.StitchUp):
		return m, m.counterCmd(0, 1)
	case key.Matches(msg, m.keys.StitchDown):
		return m, m.counterCmd(0, -1)
	}
	return m, nil
}

func (m Model) counterCmd(rowDelta, stitchDelta int64) tea.Cmd {
	var rows, stitches *int64
	if rowDelta != 0 {
		n := m.view.Project.RowCount + rowDelta
		rows = &n
	}
	if stitchDelta != 0 {
		n := m.view.Project.StitchCount + stitchDelta
		stitches = &n
	}
	return m.actionCmd(func() (service.View, error) {
		return m.timer.SetCounters(m.ctx, m.projectID, rows, stitches)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	return m.actionCmd(func() (service.View, error) {
		return m.timer.State(m.projectID)
	})
}

// lifecycleCmd publishes kind off the update loop, since a hidden signal may run an
// auto-pause save, and then refreshes the view.
func (m Model) lifecycleCmd(kind lifecycle.Kind) tea.Cmd {
	return m.actionCmd(func() (service.View, error) {
		m.publish(kind)
		return m.timer.State(m.projectID)
	})
}

func (m Model) publish(kind lifecycle.Kind) {
	if m.hub == nil {
		return
	}
	m.hub.Publish(lifecycle.Event{ProjectID: m.projectID, Kind: kind})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return "Saving and closing...\n"
	}

	var b strings.Builder

	title := m.view.Project.Name
	if title == "" {
		title = m.projectID
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(clockStyle.Render(FormatDuration(m.view.Timer.ElapsedSeconds)))
	b.WriteString("\n")

	status := pausedStyle.Render("Paused")
	if m.view.Timer.Running {
		status = runningStyle.Render("Running")
	}
	if !m.focused {
		status += mutedStyle.Render(" (window unfocused)")
	}
	b.WriteString(status)
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Rows: %d   Stitches: %d\n", m.view.Project.RowCount, m.view.Project.StitchCount))

	if m.err != nil {
		b.WriteString(toastStyles[notify.KindError].Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	for _, t := range m.toasts {
		style, ok := toastStyles[t.Kind]
		if !ok {
			style = mutedStyle
		}
		b.WriteString(style.Render("• " + t.Message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// FormatDuration renders whole seconds as H:MM:SS.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	mnt := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
}

// Run starts the terminal dashboard and blocks until the user quits.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(opts.Context),
	)
	_, err := p.Run()
	return err
}
