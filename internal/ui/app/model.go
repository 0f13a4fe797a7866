package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	checkindto "staywithme/internal/modules/checkin/dto"
	notifydto "staywithme/internal/modules/notify/dto"
	"staywithme/internal/platform/clock"
	"staywithme/internal/ui/components"
	"staywithme/internal/ui/theme"
	historyview "staywithme/internal/ui/views/history"
	logview "staywithme/internal/ui/views/log"
	sessionview "staywithme/internal/ui/views/session"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type watchPort interface {
	Attach(ctx context.Context) error
	Detach()
	Confirm(ctx context.Context) error
	Snapshot() checkindto.Snapshot
}

type sessionPort interface {
	Start(ctx context.Context, duration time.Duration, substances, notes string) (checkindto.SessionOutput, error)
	End(ctx context.Context) (checkindto.SessionOutput, error)
	RefreshLocation(ctx context.Context) (bool, error)
	History(ctx context.Context, limit int) ([]checkindto.SessionOutput, error)
}

type logPort interface {
	ListLogs(ctx context.Context, sessionID string, limit int) ([]notifydto.LogEntryOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabSession tabID = iota
	tabHistory
	tabLog
	tabCount
)

var tabLabels = [tabCount]string{"Session", "History", "Log"}

// ─── messages ────────────────────────────────────────────────────────────────

// SnapshotMsg carries a foreground controller snapshot into the program.
type SnapshotMsg struct{ Snapshot checkindto.Snapshot }

type clockMsg time.Time

type actionMsg struct {
	status string
	err    error
	reload bool
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Confirm key.Binding
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Confirm: key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space/c", "I'm OK")),
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Tab, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Confirm, k.Tab},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root of the watch screen. Countdowns live in the foreground
// controller; the model only renders its snapshots and forwards actions.
type Model struct {
	watch    watchPort
	sessions sessionPort
	clock    clock.Clock

	sessionView sessionview.Model
	historyView historyview.Model
	logView     logview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(watch watchPort, sessions sessionPort, logs logPort, clk clock.Clock) Model {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	sv := sessionview.New()
	sv.SetNow(clk.Now())
	return Model{
		watch:       watch,
		sessions:    sessions,
		clock:       clk,
		sessionView: sv,
		historyView: historyview.New(sessions),
		logView:     logview.New(logs),
		activeTab:   tabSession,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(paletteCommands),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.attachCmd(),
		m.historyView.Init(),
		m.logView.Init(),
		m.tickCmd(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Keys go to an open palette only; everything else, including the clock
	// tick, still reaches the model.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		if _, isKey := msg.(tea.KeyMsg); isKey {
			return m, cmd
		}
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case SnapshotMsg:
		prev := m.sessionView.Snapshot()
		m.sessionView.SetSnapshot(msg.Snapshot)
		if msg.Snapshot.Err != nil {
			m.status = "evaluate: " + msg.Snapshot.Err.Error()
		}
		if msg.Snapshot.Level != prev.Level || msg.Snapshot.Completed != prev.Completed {
			cmds = append(cmds, m.historyView.Reload(), m.logView.Reload())
		}
		return m, tea.Batch(cmds...)

	case clockMsg:
		m.sessionView.SetNow(time.Time(msg))
		return m, tea.Batch(append(cmds, m.tickCmd())...)

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = msg.status
		}
		if msg.reload {
			cmds = append(cmds, m.historyView.Reload(), m.logView.Reload())
		}
		return m, tea.Batch(cmds...)

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
		case "?":
			m.showHelp = !m.showHelp
		case ":":
			return m, m.palette.Open()
		case " ", "c":
			if m.activeTab == tabSession {
				return m, m.confirmCmd()
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabSession:
		m.sessionView, tabCmd = m.sessionView.Update(msg)
	case tabHistory:
		m.historyView, tabCmd = m.historyView.Update(msg)
	case tabLog:
		m.logView, tabCmd = m.logView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()

	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabSession:
		return m.sessionView.View()
	case tabHistory:
		return m.historyView.View()
	case tabLog:
		return m.logView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "staywithme  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if snap := m.sessionView.Snapshot(); snap.Active {
		left = theme.LevelBadge(snap.Level, snap.LevelName) + "  " + left
	}
	right := theme.Muted.Render("space:ok  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

// paletteCommands lists what executePalette understands.
var paletteCommands = []components.Command{
	{Name: "checkin", Usage: "checkin", Help: "confirm you are okay"},
	{Name: "start", Usage: "start <duration> [substances]", Help: "begin a session"},
	{Name: "end", Usage: "end", Help: "end the session"},
	{Name: "refresh", Usage: "refresh", Help: "re-read the last known location"},
	{Name: "history", Usage: "history", Help: "show past sessions"},
	{Name: "log", Usage: "log [session id]", Help: "show what was sent"},
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "checkin", "ok":
		return m, m.confirmCmd()

	case "start":
		if len(parts) < 2 {
			m.status = "usage: start <duration> [substances]"
			return m, nil
		}
		duration, err := time.ParseDuration(parts[1])
		if err != nil {
			m.status = "invalid duration: " + parts[1]
			return m, nil
		}
		substances := strings.Join(parts[2:], " ")
		m.activeTab = tabSession
		return m, m.startCmd(duration, substances)

	case "end":
		return m, m.endCmd()

	case "refresh":
		return m, m.refreshLocationCmd()

	case "history":
		m.activeTab = tabHistory
		return m, m.historyView.Reload()

	case "log":
		m.activeTab = tabLog
		sessionID := ""
		if len(parts) >= 2 {
			sessionID = parts[1]
		} else if id, ok := m.historyView.SelectedSessionID(); ok {
			sessionID = id
		}
		m.logView.SetSession(sessionID)
		return m, m.logView.Reload()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	return m.activeTab == tabHistory && m.historyView.Filtering()
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.sessionView, _ = m.sessionView.Update(sz)
	m.historyView, _ = m.historyView.Update(sz)
	m.logView, _ = m.logView.Update(sz)
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) tickCmd() tea.Cmd {
	clk := m.clock
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return clockMsg(clk.Now())
	})
}

func (m Model) attachCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.watch.Attach(context.Background()); err != nil {
			return actionMsg{err: fmt.Errorf("attach: %w", err)}
		}
		return SnapshotMsg{Snapshot: m.watch.Snapshot()}
	}
}

func (m Model) confirmCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.watch.Confirm(context.Background()); err != nil {
			return actionMsg{err: fmt.Errorf("check-in: %w", err)}
		}
		return actionMsg{status: "checked in at " + m.clock.Now().Local().Format("15:04"), reload: true}
	}
}

func (m Model) startCmd(duration time.Duration, substances string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		out, err := m.sessions.Start(ctx, duration, substances, "")
		if err != nil {
			return actionMsg{err: fmt.Errorf("start: %w", err)}
		}
		if err := m.watch.Attach(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("attach: %w", err)}
		}
		return actionMsg{status: "session started, ends " + out.EndsAt.Local().Format("15:04"), reload: true}
	}
}

func (m Model) endCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if _, err := m.sessions.End(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("end: %w", err)}
		}
		m.watch.Detach()
		if err := m.watch.Attach(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("attach: %w", err)}
		}
		return actionMsg{status: "session ended", reload: true}
	}
}

func (m Model) refreshLocationCmd() tea.Cmd {
	return func() tea.Msg {
		updated, err := m.sessions.RefreshLocation(context.Background())
		if err != nil {
			return actionMsg{err: fmt.Errorf("location: %w", err)}
		}
		if !updated {
			return actionMsg{status: "location unchanged"}
		}
		return actionMsg{status: "location updated"}
	}
}
