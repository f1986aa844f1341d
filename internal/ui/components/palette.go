package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neurocal/internal/ui/theme"
)

const maxSuggestions = 6

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

// Command is one palette entry. Args is shown as a usage hint only.
type Command struct {
	Name string
	Args string
	Help string
}

var (
	paletteBox = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)
	argStyle  = lipgloss.NewStyle().Foreground(theme.Lavender)
	helpStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// Palette is a command line overlay. Tab completes the first suggestion.
type Palette struct {
	input    textinput.Model
	commands []Command
	visible  bool
	width    int
}

func NewPalette(commands []Command) Palette {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "command"
	in.CharLimit = 128
	return Palette{input: in, commands: commands}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.Reset()
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

// Suggest returns the commands whose name starts with the first word typed.
func (p Palette) Suggest(typed string) []Command {
	word := strings.ToLower(strings.TrimSpace(typed))
	if i := strings.IndexByte(word, ' '); i >= 0 {
		word = word[:i]
	}
	var out []Command
	for _, c := range p.commands {
		if strings.HasPrefix(c.Name, word) {
			out = append(out, c)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			p.close()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case tea.KeyEnter:
			input := strings.TrimSpace(p.input.Value())
			p.close()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: input} }
		case tea.KeyTab:
			if s := p.Suggest(p.input.Value()); len(s) > 0 && !strings.Contains(p.input.Value(), " ") {
				p.input.SetValue(s[0].Name + " ")
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
	lines := []string{theme.Title.Render("Commands"), p.input.View()}
	for _, c := range p.Suggest(p.input.Value()) {
		line := "  " + c.Name
		if c.Args != "" {
			line += " " + argStyle.Render(c.Args)
		}
		lines = append(lines, line+"  "+helpStyle.Render(c.Help))
	}
	w := p.width
	if w < 30 {
		w = 64
	}
	return paletteBox.Width(w - 2).Render(strings.Join(lines, "\n"))
}
