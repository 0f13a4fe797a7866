package session

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	checkindto "staywithme/internal/modules/checkin/dto"
	"staywithme/internal/ui/theme"
)

// Model renders the countdowns of the attached session. It owns no timers;
// the app feeds it snapshots and the current time.
type Model struct {
	snap   checkindto.Snapshot
	now    time.Time
	width  int
	height int
}

func New() Model {
	return Model{now: time.Now()}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
	}
	return m, nil
}

func (m *Model) SetSnapshot(s checkindto.Snapshot) { m.snap = s }

func (m *Model) SetNow(t time.Time) { m.now = t }

func (m Model) Snapshot() checkindto.Snapshot { return m.snap }

func (m Model) View() string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.render())
}

func (m Model) render() string {
	s := m.snap
	if !s.Active {
		var sb strings.Builder
		if s.Completed {
			sb.WriteString(theme.Title.Render("Session complete. Glad you made it through.") + "\n\n")
		} else {
			sb.WriteString(theme.Title.Render("No active session") + "\n\n")
		}
		sb.WriteString(theme.Muted.Render("press : and type  start 3h  to begin"))
		if s.Err != nil {
			sb.WriteString("\n\n" + theme.Hot.Render(s.Err.Error()))
		}
		return sb.String()
	}

	var sb strings.Builder
	sb.WriteString(theme.LevelBadge(s.Level, strings.ToUpper(s.LevelName)) + "\n\n")
	sb.WriteString(theme.Muted.Render("session ends in   ") + Countdown(s.EndsAt.Sub(m.now)) + "\n")
	switch {
	case !s.NextCheckInAt.IsZero():
		sb.WriteString(theme.Muted.Render("check in within   ") +
			lipgloss.NewStyle().Foreground(theme.LevelColor(s.Level)).Bold(true).Render(Countdown(s.NextCheckInAt.Sub(m.now))) + "\n")
	case !s.UrgentAt.IsZero():
		sb.WriteString(theme.Muted.Render("urgent alert in   ") +
			theme.Hot.Render(Countdown(s.UrgentAt.Sub(m.now))) + "\n")
	}
	if s.Level >= 3 {
		sb.WriteString("\n" + theme.Alarm.Render("Your contacts are being alerted. Check in if you are OK.") + "\n")
	}
	sb.WriteString("\n" + theme.Hot.Render("space / c") + theme.Muted.Render("  I'm OK"))
	if s.Err != nil {
		sb.WriteString("\n\n" + theme.Muted.Render("last error: "+s.Err.Error()))
	}
	return sb.String()
}

// Countdown formats d as HH:MM:SS, clamping negatives to zero.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	mins := int(d%time.Hour) / int(time.Minute)
	secs := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, mins, secs)
}
