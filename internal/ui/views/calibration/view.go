package calibration

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	calibrationdto "neurocal/internal/modules/calibration/dto"
	"neurocal/internal/ui/theme"
)

// Screens the sequencer shows besides its own phase names.
const (
	screenHidden  = ""
	screenStart   = "start"
	screenResults = "results"
)

const (
	canvasWidth  = 48
	canvasHeight = 12
)

// EventMsg carries one presenter event into the Bubble Tea loop.
type EventMsg calibrationdto.PresenterEvent

// StatusMsg carries a fresh status snapshot.
type StatusMsg struct {
	Status calibrationdto.StatusOutput
}

// Model renders whatever the sequencer last presented. It holds no
// sequencing state of its own.
type Model struct {
	plan     calibrationdto.PlanOutput
	status   calibrationdto.StatusOutput
	screen   string
	timer    string
	fraction float64
	stimulus string
	target   bool
	targetX  float64
	targetY  float64
	alert    string

	raw      string
	bar      progress.Model
	spin     spinner.Model
	results  viewport.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
}

func New(plan calibrationdto.PlanOutput) Model {
	bar := progress.New(progress.WithGradient(string(theme.Sapphire), string(theme.Lavender)), progress.WithoutPercentage())
	bar.Width = canvasWidth
	r, _ := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(72))
	return Model{
		plan:     plan,
		screen:   screenStart,
		bar:      bar,
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Hot)),
		results:  viewport.New(72, 10),
		renderer: r,
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
	case StatusMsg:
		m.status = msg.Status
	case EventMsg:
		was := m.screen
		m.apply(calibrationdto.PresenterEvent(msg))
		if m.screen == screenHidden && was != screenHidden {
			return m, m.spin.Tick
		}
		return m, nil
	case spinner.TickMsg:
		// The spinner only runs while the sequencer waits with every view hidden.
		if m.screen != screenHidden {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) apply(e calibrationdto.PresenterEvent) {
	switch e.Kind {
	case calibrationdto.EventPhase:
		m.screen = e.Phase
		m.target = false
		m.stimulus = ""
		if e.Phase != screenStart && e.Phase != screenHidden {
			m.alert = ""
		}
	case calibrationdto.EventProgress:
		m.fraction = e.Progress
	case calibrationdto.EventTimer:
		m.timer = e.Timer
	case calibrationdto.EventStimulus:
		m.stimulus = e.Stimulus
	case calibrationdto.EventStopStimulus:
		m.stimulus = ""
	case calibrationdto.EventTarget:
		m.target = true
		m.targetX, m.targetY = e.X, e.Y
	case calibrationdto.EventResults:
		m.raw = e.Results
		m.results.SetContent(m.renderResults())
		m.results.GotoTop()
	case calibrationdto.EventAlert:
		m.alert = e.Alert
	}
}

// Answers lists the labels the active response phase accepts.
func (m Model) Answers() []string {
	if m.status.Kind != "response" || m.screen != m.status.Phase {
		return nil
	}
	return m.status.Answers
}

func (m Model) Screen() string { return m.screen }

func (m Model) Alerting() bool { return m.alert != "" }

func (m *Model) DismissAlert() { m.alert = "" }

// ShowText replaces the results pane, used for palette output such as the run list.
func (m *Model) ShowText(md string) {
	m.raw = ""
	m.results.SetContent(m.markdown(md))
	m.results.GotoTop()
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenHidden:
		body = m.viewWaiting()
	case screenStart:
		body = m.viewStart()
	case screenResults:
		body = m.viewResults()
	default:
		body = m.viewPhase()
	}
	if m.alert != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, theme.Alert.Render(m.alert), theme.Muted.Render("esc: dismiss"), "", body)
	}
	return body
}

func (m Model) viewWaiting() string {
	text := "…"
	if m.status.State == "starting" {
		text = "waiting for the backend to start collection"
	}
	return m.spin.View() + " " + theme.Muted.Render(text)
}

func (m Model) viewStart() string {
	head := theme.Title.Render(m.plan.Name) + theme.Muted.Render(fmt.Sprintf("  %d phases, %s mode", len(m.plan.Phases), m.plan.Mode))
	parts := []string{head}
	if m.plan.Instructions != "" {
		parts = append(parts, m.markdown(m.plan.Instructions))
	}
	if m.results.TotalLineCount() > 0 && m.raw == "" {
		parts = append(parts, m.results.View())
	}
	parts = append(parts, theme.Hot.Render("press enter to start"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewPhase() string {
	s := m.status
	head := theme.Title.Render(m.screen)
	if s.Total > 0 && s.Phase == m.screen {
		head += theme.Muted.Render(fmt.Sprintf("  %d/%d", s.Index+1, s.Total))
	}
	parts := []string{head}
	if s.Phase == m.screen && s.Text != "" {
		parts = append(parts, s.Text)
	}
	if m.timer != "" {
		parts = append(parts, "", theme.Timer.Render(m.timer), m.bar.ViewAs(m.fraction))
	}
	if m.stimulus != "" {
		parts = append(parts, "", theme.Stimulus.Render("▶ "+m.stimulus))
	}
	if m.target {
		parts = append(parts, "", theme.TargetCanvas.Render(Canvas(m.targetX, m.targetY, canvasWidth, canvasHeight)))
	}
	if answers := m.Answers(); len(answers) > 0 {
		keys := make([]string, 0, len(answers))
		for i, a := range answers {
			keys = append(keys, theme.AnswerKey.Render(fmt.Sprintf("%d", i+1))+" "+a)
		}
		parts = append(parts, "", strings.Join(keys, "   "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewResults() string {
	parts := []string{theme.Title.Render("Results")}
	if m.status.ReportError != "" {
		parts = append(parts, theme.Hot.Render("report failed: "+m.status.ReportError))
	}
	parts = append(parts, m.results.View(), theme.Muted.Render("r: reset  ↑/↓: scroll"))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderResults() string {
	if m.raw == "" {
		return ""
	}
	return m.markdown("```json\n" + m.raw + "\n```")
}

func (m Model) markdown(md string) string {
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func (m *Model) resize() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.results.Width = w
	m.results.Height = max(m.height-8, 3)
	m.bar.Width = min(w, canvasWidth)
	if r, err := glamour.NewTermRenderer(glamour.WithStylePath("dark"), glamour.WithWordWrap(w)); err == nil {
		m.renderer = r
	}
	if m.raw != "" {
		m.results.SetContent(m.renderResults())
	}
}

// Canvas draws the focus target at fractional position (x, y) on a w×h grid.
func Canvas(x, y float64, w, h int) string {
	col := int(math.Round(clamp01(x) * float64(w-1)))
	row := int(math.Round(clamp01(y) * float64(h-1)))
	var sb strings.Builder
	for r := 0; r < h; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		if r != row {
			sb.WriteString(strings.Repeat(" ", w))
			continue
		}
		sb.WriteString(strings.Repeat(" ", col))
		sb.WriteString("●")
		sb.WriteString(strings.Repeat(" ", w-col-1))
	}
	return sb.String()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
