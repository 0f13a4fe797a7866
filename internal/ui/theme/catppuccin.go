package theme

import "github.com/charmbracelet/lipgloss"

var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Maroon   = lipgloss.Color("#eba0ac")
	Red      = lipgloss.Color("#f38ba8")

	App = lipgloss.NewStyle().
		Background(Base).
		Foreground(Text).
		Padding(1, 2)

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(1)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Alarm = lipgloss.NewStyle().Foreground(Base).Background(Red).Bold(true).Padding(0, 1)
)

// levelColors is indexed by escalation level 0..4.
var levelColors = [...]lipgloss.Color{Green, Yellow, Peach, Maroon, Red}

// LevelColor returns the accent for an escalation level.
func LevelColor(level int) lipgloss.Color {
	if level < 0 || level >= len(levelColors) {
		return Subtext0
	}
	return levelColors[level]
}

// LevelBadge renders a level name on its accent colour.
func LevelBadge(level int, name string) string {
	return lipgloss.NewStyle().
		Foreground(Base).
		Background(LevelColor(level)).
		Bold(true).
		Padding(0, 1).
		Render(name)
}
