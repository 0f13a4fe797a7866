package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"staywithme/internal/ui/theme"
)

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

// Command is one entry the palette suggests.
type Command struct {
	Name  string
	Usage string
	Help  string
}

type commandSource []Command

func (c commandSource) String(i int) string { return c[i].Name }
func (c commandSource) Len() int            { return len(c) }

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	usageStyle = lipgloss.NewStyle().Foreground(theme.Text)
	helpStyle  = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// Palette is a one-line command prompt that fuzzy-matches the first word
// against its commands. tab completes the best match.
type Palette struct {
	input    textinput.Model
	commands commandSource
	visible  bool
	width    int
}

func NewPalette(commands []Command) Palette {
	ti := textinput.New()
	ti.Placeholder = "checkin, start 3h, end"
	ti.CharLimit = 256
	return Palette{input: ti, commands: commandSource(commands)}
}

func (p Palette) Visible() bool { return p.visible }

// Open shows the palette with an empty prompt and returns the focus command.
func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// Matches returns the commands matching the word typed so far, best first.
// An empty prompt or a prompt with arguments lists every command or the one
// being completed.
func (p Palette) Matches() []Command {
	word, _, hasArgs := strings.Cut(strings.TrimSpace(p.input.Value()), " ")
	if word == "" {
		return p.commands
	}
	if hasArgs {
		for _, c := range p.commands {
			if c.Name == word {
				return []Command{c}
			}
		}
		return nil
	}
	found := fuzzy.FindFrom(word, p.commands)
	out := make([]Command, 0, len(found))
	for _, f := range found {
		out = append(out, p.commands[f.Index])
	}
	return out
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		case "tab":
			if matches := p.Matches(); len(matches) > 0 && !strings.Contains(p.input.Value(), " ") {
				p.input.SetValue(matches[0].Name + " ")
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Palette) close() {
	p.visible = false
	p.input.Blur()
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if matches := p.Matches(); len(matches) > 0 {
		sb.WriteString("\n")
		for _, c := range matches {
			sb.WriteString("  " + usageStyle.Render(c.Usage))
			if c.Help != "" {
				sb.WriteString(helpStyle.Render("  " + c.Help))
			}
			sb.WriteString("\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
