// Package log renders the notification log as a table with the selected
// message shown underneath.
package log

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	notifydto "staywithme/internal/modules/notify/dto"
	"staywithme/internal/ui/theme"
)

const (
	logLimit      = 200
	messageHeight = 6
)

type Port interface {
	ListLogs(ctx context.Context, sessionID string, limit int) ([]notifydto.LogEntryOutput, error)
}

type LoadedMsg struct {
	Entries []notifydto.LogEntryOutput
	Err     error
}

type Model struct {
	port       Port
	sessionID  string
	entries    []notifydto.LogEntryOutput
	shown      []notifydto.LogEntryOutput
	failedOnly bool
	err        error
	table      table.Model
	spinner    spinner.Model
	loading    bool
	width      int
	height     int
}

func New(port Port) Model {
	t := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(theme.Sapphire).BorderForeground(theme.Surface1).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Green)
	t.SetStyles(styles)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)

	m := Model{port: port, table: t, spinner: sp, loading: true, width: 80, height: 24}
	m.resize()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case LoadedMsg:
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
		}
		m.refreshRows()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "f" && !m.loading {
			m.failedOnly = !m.failedOnly
			m.refreshRows()
			return m, nil
		}
	}

	if m.loading {
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading notifications")
	}
	message := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(max(m.width-2, 10)).
		Height(messageHeight).
		Render(m.renderSelected())
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTitle(), m.table.View(), message)
}

// SetSession narrows the log to one session; "" shows every session.
func (m *Model) SetSession(sessionID string) {
	m.sessionID = sessionID
}

// Reload fetches the log for the current session filter.
func (m Model) Reload() tea.Cmd {
	port, sessionID := m.port, m.sessionID
	return func() tea.Msg {
		if port == nil {
			return LoadedMsg{}
		}
		entries, err := port.ListLogs(context.Background(), sessionID, logLimit)
		return LoadedMsg{Entries: entries, Err: err}
	}
}

// Shown returns the rows currently in the table.
func (m Model) Shown() []notifydto.LogEntryOutput { return m.shown }

func (m *Model) refreshRows() {
	m.shown = nil
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		if m.failedOnly && e.Success {
			continue
		}
		m.shown = append(m.shown, e)
		result := "sent"
		if !e.Success {
			result = "FAILED"
		}
		rows = append(rows, table.Row{e.At.Local().Format("02 Jan 15:04:05"), e.Kind, result, e.ContactID})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) resize() {
	contact := max(m.width-16-14-8-8, 10)
	m.table.SetColumns([]table.Column{
		{Title: "Time", Width: 16},
		{Title: "Kind", Width: 14},
		{Title: "Result", Width: 8},
		{Title: "Contact", Width: contact},
	})
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-messageHeight-4, 3))
}

func (m Model) renderTitle() string {
	title := "Notifications"
	if m.sessionID != "" {
		title += " for session " + m.sessionID
	}
	if m.failedOnly {
		title += " (failed only)"
	}
	if m.err != nil {
		return theme.Title.Render(title) + "  " + theme.Hot.Render(m.err.Error())
	}
	return theme.Title.Render(title) + theme.Muted.Render("  f: toggle failed")
}

func (m Model) renderSelected() string {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return theme.Muted.Render("Nothing has been sent yet")
	}
	e := m.shown[i]
	var sb strings.Builder
	sb.WriteString(theme.Muted.Render("session "+e.SessionID) + "\n")
	if e.Success {
		sb.WriteString(lipgloss.NewStyle().Foreground(theme.Green).Render("delivered"))
	} else {
		sb.WriteString(theme.Hot.Render("failed"))
	}
	sb.WriteString("\n" + e.Message)
	return sb.String()
}
