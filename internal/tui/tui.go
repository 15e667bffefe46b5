// Package tui provides a Bubble Tea terminal user interface for epic-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/epic-downloader/internal/config"
	"github.com/handiism/epic-downloader/internal/download"
	"github.com/handiism/epic-downloader/internal/model"
)

var errCancelled = errors.New("cancelled by user")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4D96FF")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

const (
	fieldFolder = iota
	fieldDate
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state    State
	inputs   []textinput.Model
	focused  int
	spinner  spinner.Model
	progress progress.Model
	settings *config.Settings
	apiKey   string
	logs     []LogEntry
	err      error

	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.ProgressEvent
	report  *model.RunReport

	filesDone     int32
	filesFailed   int32
	filesTotal    int32
	receivedBytes int64

	verbose bool

	width  int
	height int
}

// Message types
type (
	// ProgressMsg carries one progress event from the running manager.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// RunDoneMsg is sent when the run returns.
	RunDoneMsg struct {
		Report *model.RunReport
		Err    error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// NewModel creates a new TUI model. A settings value of nil selects the
// defaults.
func NewModel(settings *config.Settings, apiKey string) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	folder := textinput.New()
	folder.Placeholder = "./epic"
	folder.Focus()
	folder.CharLimit = 500
	folder.Width = 60

	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD (empty for latest)"
	date.CharLimit = 10
	date.Width = 30

	sp := spinner.New()
	sp.Spinner = spinner.Globe
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4D96FF"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateInput,
		inputs:   []textinput.Model{folder, date},
		spinner:  sp,
		progress: prog,
		settings: settings,
		apiKey:   apiKey,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
			}
			return m, nil

		case "tab", "shift+tab":
			if m.state == StateInput {
				m.focus((m.focused + 1) % len(m.inputs))
				return m, nil
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.inputs[fieldFolder].Value()) != "" {
				return m.start()
			}
			return m, nil

		case "ctrl+s":
			if m.state == StateInput {
				m.settings.SkipExisting = !m.settings.SkipExisting
				return m, nil
			}

		case "ctrl+t":
			if m.state == StateInput {
				m.settings.Thumbnails.Enabled = !m.settings.Thumbnails.Enabled
				return m, nil
			}

		case "ctrl+x":
			if m.state == StateInput {
				m.settings.ArchiveAfterRun = !m.settings.ArchiveAfterRun
				return m, nil
			}

		case "ctrl+l":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if msg.Event.Level != download.LevelVerbose || m.verbose {
			m.logs = append(m.logs, LogEntry{Message: msg.Event.Message, Level: msg.Event.Level})
			if len(m.logs) > maxLogs {
				m.logs = m.logs[len(m.logs)-maxLogs:]
			}
		}
		cmds = append(cmds, waitForEvent(m.events))

	case RunDoneMsg:
		m.syncProgress()
		m.report = msg.Report
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.state == StateDownloading {
			m.syncProgress()
			cmds = append(cmds, m.progress.SetPercent(m.percent()), tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) focus(i int) {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
}

// start creates the manager and launches the run in the background.
func (m Model) start() (tea.Model, tea.Cmd) {
	events := make(chan download.ProgressEvent, 64)
	m.events = events
	m.manager = download.NewManager(m.settings, m.apiKey, func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	})
	m.state = StateDownloading

	folder := strings.TrimSpace(m.inputs[fieldFolder].Value())
	date := strings.TrimSpace(m.inputs[fieldDate].Value())

	return m, tea.Batch(
		runDownload(m.ctx, m.manager, events, folder, date),
		waitForEvent(events),
		tickProgress(),
		m.spinner.Tick,
	)
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.report = nil
	m.manager = nil
	m.events = nil
	m.filesDone, m.filesFailed, m.filesTotal = 0, 0, 0
	m.receivedBytes = 0
	m.ctx, m.cancel = context.WithCancel(context.Background())
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.focus(fieldFolder)
}

func (m *Model) syncProgress() {
	if m.manager == nil {
		return
	}
	m.receivedBytes, m.filesDone, m.filesFailed, m.filesTotal = m.manager.GetProgress()
}

func (m Model) percent() float64 {
	if m.filesTotal == 0 {
		return 0
	}
	return float64(m.filesDone+m.filesFailed) / float64(m.filesTotal)
}

// runDownload runs the pipeline and closes events once no more can arrive.
func runDownload(ctx context.Context, manager *download.Manager, events chan download.ProgressEvent, folder, date string) tea.Cmd {
	return func() tea.Msg {
		report, err := manager.Run(ctx, folder, date)
		close(events)
		return RunDoneMsg{Report: report, Err: err}
	}
}

func waitForEvent(events <-chan download.ProgressEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: event}
	}
}

func tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🌍 EPIC Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download a day of Earth images from NASA EPIC"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func check(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Target folder:"))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldFolder].View())
	b.WriteString("\n\n")
	b.WriteString(subtitleStyle.Render("Date:"))
	b.WriteString("\n")
	b.WriteString(m.inputs[fieldDate].View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Keep existing images (ctrl+s)\n", check(m.settings.SkipExisting))
	fmt.Fprintf(&b, "  %s Write thumbnails (ctrl+t)\n", check(m.settings.Thumbnails.Enabled))
	fmt.Fprintf(&b, "  %s Archive the date folder (ctrl+x)\n", check(m.settings.ArchiveAfterRun))
	fmt.Fprintf(&b, "  %s Verbose output (ctrl+l)\n", check(m.verbose))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Collection: %s • %s • %d workers",
		m.settings.Collection, m.settings.ImageType, m.settings.MaxConcurrentDownloads)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.filesTotal == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Resolving date and fetching the image list..."))
		b.WriteString("\n\n")
		b.WriteString(m.renderLogs())
		return b.String()
	}

	b.WriteString(m.progress.ViewAs(m.percent()))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf(
		"Images: %d/%d | Failed: %d | Downloaded: %.2f MB",
		m.filesDone,
		m.filesTotal,
		m.filesFailed,
		float64(m.receivedBytes)/1024/1024,
	)))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	r := m.report
	if r == nil {
		return b.String()
	}

	title := "✨ Download Complete!"
	if r.Partial() {
		title = "⚠️  Download finished with failures"
	}

	body := fmt.Sprintf("%s\n\n"+
		"Date: %s\n"+
		"Folder: %s\n"+
		"Images: %d/%d\n"+
		"Size: %.2f MB",
		title,
		dateStyle.Render(r.Date.String()),
		r.Folder,
		r.SuccessCount,
		r.Total,
		float64(m.receivedBytes)/1024/1024,
	)
	if r.ArchivePath != "" {
		body += "\nArchive: " + r.ArchivePath
	}
	b.WriteString(boxStyle.Render(body))
	b.WriteString("\n")

	for _, f := range r.Failures {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  ✗ %s: %s", f.Identifier, f.Reason)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n", m.err.Error())
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • tab: switch field • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, apiKey string) error {
	p := tea.NewProgram(NewModel(settings, apiKey), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
