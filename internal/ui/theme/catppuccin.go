package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha colours used by the calibration and monitor screens.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Crust    = lipgloss.Color("#11111b")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")
)

// Text styles.
var (
	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
)

// Phase screen.
var (
	// Timer shows the countdown or mm:ss text above the progress bar.
	Timer = lipgloss.NewStyle().Foreground(Peach).Bold(true).Padding(0, 1)

	// AnswerKey labels the digit that picks an answer.
	AnswerKey = lipgloss.NewStyle().Foreground(Crust).Background(Lavender).Bold(true).Padding(0, 1)

	Stimulus = lipgloss.NewStyle().Foreground(Green)

	// TargetCanvas frames the area the focus target moves in.
	TargetCanvas = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Surface1).
			Background(Base)

	Alert = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Red).
		Foreground(Red).
		Bold(true).
		Padding(0, 1)
)

// StatusBar runs along the bottom of every screen.
var StatusBar = lipgloss.NewStyle().Background(Mantle).Foreground(Text)
