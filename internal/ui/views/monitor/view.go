package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	smootherdto "neurocal/internal/modules/smoother/dto"
	"neurocal/internal/ui/theme"
)

const maxGlow = 4

// FrameMsg carries one rendered frame into the Bubble Tea loop.
type FrameMsg smootherdto.FrameOutput

var bulbShape = []string{
	" .---. ",
	"/     \\",
	"|  ~  |",
	"\\     /",
	" |===| ",
	" '---' ",
}

type Model struct {
	settings smootherdto.SettingsOutput
	frame    smootherdto.FrameOutput
	bar      progress.Model
	width    int
}

func New(settings smootherdto.SettingsOutput) Model {
	bar := progress.New(progress.WithGradient(string(theme.Surface1), string(theme.Yellow)))
	bar.Width = 40
	return Model{settings: settings, bar: bar, frame: smootherdto.FrameOutput{Metric: settings.Metric, PlaybackRate: settings.BaseRate}}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 60)
	case FrameMsg:
		m.frame = smootherdto.FrameOutput(msg)
	}
	return m, nil
}

func (m Model) Frame() smootherdto.FrameOutput { return m.frame }

func (m Model) View() string {
	f := m.frame
	title := theme.Title.Render(f.Metric) +
		theme.Muted.Render(fmt.Sprintf("  poll %s  render %s  %d steps", m.settings.PollInterval, m.settings.RenderInterval, m.settings.Steps))
	readout := fmt.Sprintf("%s %d%%   %s %.2f×",
		theme.Hot.Render("level"), f.Percent,
		theme.Hot.Render("rate"), f.PlaybackRate)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		Bulb(f),
		"",
		m.bar.ViewAs(f.BarWidth/100),
		readout,
	)
}

// Bulb draws the lamp with its filament and glow scaled by the frame.
func Bulb(f smootherdto.FrameOutput) string {
	off, _ := colorful.Hex(string(theme.Surface1))
	on, _ := colorful.Hex(string(theme.Yellow))
	bg, _ := colorful.Hex(string(theme.Base))

	glass := off.BlendLab(on, f.Brightness/100).Clamped()
	filament := bg.BlendLab(on, f.FilamentAlpha).Clamped()
	glow := bg.BlendLab(on, f.GlowAlpha*0.6).Clamped()
	shadow := bg.BlendLab(off, f.ShadowAlpha).Clamped()

	glassStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(glass.Hex())).Bold(f.Brightness > 50)
	filamentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(filament.Hex()))
	baseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(shadow.Hex()))

	lines := make([]string, len(bulbShape))
	for i, row := range bulbShape {
		switch {
		case strings.Contains(row, "~"):
			j := strings.Index(row, "~")
			lines[i] = glassStyle.Render(row[:j]) + filamentStyle.Render("~") + glassStyle.Render(row[j+1:])
		case i >= len(bulbShape)-2:
			lines[i] = baseStyle.Render(row)
		default:
			lines[i] = glassStyle.Render(row)
		}
	}
	bulb := strings.Join(lines, "\n")
	pad := GlowPadding(f.GlowRadius)
	if pad == 0 {
		return bulb
	}
	return lipgloss.NewStyle().
		Padding(pad/2, pad).
		Background(lipgloss.Color(glow.Hex())).
		Render(bulb)
}

// GlowPadding converts a glow radius in pixels to cells of halo.
func GlowPadding(radius float64) int {
	cells := int(radius / 80 * maxGlow)
	return min(max(cells, 0), maxGlow)
}
