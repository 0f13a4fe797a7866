package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	checkindto "staywithme/internal/modules/checkin/dto"
	"staywithme/internal/ui/theme"
)

const historyLimit = 50

type Port interface {
	History(ctx context.Context, limit int) ([]checkindto.SessionOutput, error)
}

type LoadedMsg struct {
	Sessions []checkindto.SessionOutput
	Err      error
}

type sessionItem struct {
	session checkindto.SessionOutput
}

func (i sessionItem) Title() string {
	return i.session.StartedAt.Local().Format("Mon 02 Jan 15:04")
}

func (i sessionItem) Description() string {
	state := "ended"
	if i.session.Active {
		state = "active"
	}
	return fmt.Sprintf("%s  %s  level %d", i.session.Duration, state, i.session.Level)
}

func (i sessionItem) FilterValue() string {
	return i.session.StartedAt.Format(time.DateOnly) + " " + i.session.Substances + " " + i.session.Notes
}

type Model struct {
	port     Port
	list     list.Model
	selected checkindto.SessionOutput
	detail   viewport.Model
	spinner  spinner.Model
	loading  bool
	width    int
	height   int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sessions"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Sessions: " + msg.Err.Error()
			return m, nil
		}
		items := make([]list.Item, len(msg.Sessions))
		for i, s := range msg.Sessions {
			items[i] = sessionItem{session: s}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.showSelected()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.showSelected()
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading sessions…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Filtering reports whether the list's search filter is open.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// SelectedSessionID returns the highlighted session, if any.
func (m Model) SelectedSessionID() (string, bool) {
	if item, ok := m.list.SelectedItem().(sessionItem); ok {
		return item.session.ID, true
	}
	return "", false
}

// Reload fetches the session list again.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{}
		}
		sessions, err := m.port.History(context.Background(), historyLimit)
		return LoadedMsg{Sessions: sessions, Err: err}
	}
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m *Model) showSelected() {
	if item, ok := m.list.SelectedItem().(sessionItem); ok {
		m.selected = item.session
	} else {
		m.selected = checkindto.SessionOutput{}
	}
	m.detail.SetContent(m.renderDetail())
}

func (m Model) renderDetail() string {
	s := m.selected
	if s.ID == "" {
		return theme.Muted.Render("No sessions yet")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(s.StartedAt.Local().Format("Monday 02 January 15:04")) + "\n\n")
	sb.WriteString(theme.Muted.Render("id:        ") + s.ID + "\n")
	sb.WriteString(theme.Muted.Render("duration:  ") + s.Duration.String() + "\n")
	sb.WriteString(theme.Muted.Render("ends:      ") + s.EndsAt.Local().Format("15:04") + "\n")
	sb.WriteString(theme.Muted.Render("level:     ") + theme.LevelBadge(s.Level, fmt.Sprintf("%d", s.Level)) + "\n")
	if s.LastConfirmedAt != nil {
		sb.WriteString(theme.Muted.Render("check-in:  ") + s.LastConfirmedAt.Local().Format("15:04:05") + "\n")
	}
	if s.EndedAt != nil {
		sb.WriteString(theme.Muted.Render("ended:     ") + s.EndedAt.Local().Format("15:04:05") + "\n")
	}
	if s.Location != "" {
		sb.WriteString(theme.Muted.Render("location:  ") + s.Location + "\n")
	}
	if s.Substances != "" {
		sb.WriteString(theme.Muted.Render("taken:     ") + s.Substances + "\n")
	}
	if s.Notes != "" {
		sb.WriteString(theme.Muted.Render("notes:     ") + s.Notes + "\n")
	}
	return sb.String()
}
