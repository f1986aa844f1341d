package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	calibrationdto "neurocal/internal/modules/calibration/dto"
	smootherdto "neurocal/internal/modules/smoother/dto"
	apperrors "neurocal/internal/platform/errors"
	"neurocal/internal/ui/components"
	"neurocal/internal/ui/theme"
	calibrationview "neurocal/internal/ui/views/calibration"
	monitorview "neurocal/internal/ui/views/monitor"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type calibrationPort interface {
	Start(ctx context.Context) (calibrationdto.StartOutput, error)
	Respond(ctx context.Context, answer string) error
	RespondIndex(ctx context.Context, n int) error
	Reset(ctx context.Context) error
	Unload(ctx context.Context) calibrationdto.UnloadOutput
	Status(ctx context.Context) calibrationdto.StatusOutput
	Plan(ctx context.Context) calibrationdto.PlanOutput
	Runs(ctx context.Context) ([]calibrationdto.RunOutput, error)
}

type monitorPort interface {
	Frame(ctx context.Context) smootherdto.FrameOutput
	Settings(ctx context.Context) smootherdto.SettingsOutput
}

type screen int

const (
	screenCalibration screen = iota
	screenMonitor
)

var calibrationCommands = []components.Command{
	{Name: "start", Help: "begin the calibration"},
	{Name: "answer", Args: "<label>", Help: "answer the current question"},
	{Name: "reset", Help: "cancel and return to the start screen"},
	{Name: "plan", Help: "show the phases of this plan"},
	{Name: "runs", Help: "list archived runs"},
	{Name: "quit", Help: "leave neurocal"},
}

var monitorCommands = []components.Command{
	{Name: "settings", Help: "show the raw displayed value"},
	{Name: "quit", Help: "leave neurocal"},
}

const statusEvery = time.Second

// ─── async messages ───────────────────────────────────────────────────────────

type startedMsg struct {
	out calibrationdto.StartOutput
	err error
}

type respondedMsg struct{ err error }

type resetMsg struct{ err error }

type unloadMsg struct{ out calibrationdto.UnloadOutput }

type runsMsg struct {
	runs []calibrationdto.RunOutput
	err  error
}

type statusTickMsg struct{}

type planMsg struct{ plan calibrationdto.PlanOutput }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Start   key.Binding
	Answer  key.Binding
	Reset   key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Start:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Answer:  key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "answer")),
		Reset:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss alert")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.Answer, k.Reset, k.Dismiss},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model for one calibration or monitor session.
// Ports are only called from commands, never from Update.
type Model struct {
	ctx    context.Context
	screen screen

	calibration calibrationPort
	events      <-chan calibrationdto.PresenterEvent
	calView     calibrationview.Model

	monitor <-chan smootherdto.FrameOutput
	monView monitorview.Model

	keys       keyMap
	help       help.Model
	showHelp   bool
	palette    components.Palette
	confirming bool
	notified   bool
	status     string
	width      int
	height     int
}

func NewCalibration(ctx context.Context, port calibrationPort, events <-chan calibrationdto.PresenterEvent) Model {
	return Model{
		ctx:         ctx,
		screen:      screenCalibration,
		calibration: port,
		events:      events,
		calView:     calibrationview.New(port.Plan(ctx)),
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(calibrationCommands),
		status:      "ready",
	}
}

func NewMonitor(ctx context.Context, port monitorPort, frames <-chan smootherdto.FrameOutput) Model {
	return Model{
		ctx:     ctx,
		screen:  screenMonitor,
		monitor: frames,
		monView: monitorview.New(port.Settings(ctx)),
		keys:    defaultKeys(),
		help:    help.New(),
		palette: components.NewPalette(monitorCommands),
		status:  "polling",
	}
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenMonitor {
		return listenFrames(m.monitor)
	}
	return tea.Batch(listenEvents(m.events), m.statusCmd(), statusTick())
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette takes the keyboard only. Everything else keeps flowing so
	// the listeners stay armed while it is open.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(keyMsg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
		if m.screen == screenMonitor {
			m.monView, _ = m.monView.Update(sz)
		} else {
			m.calView, _ = m.calView.Update(sz)
		}
		return m, nil

	case calibrationview.EventMsg:
		var cmd tea.Cmd
		m.calView, cmd = m.calView.Update(msg)
		cmds := []tea.Cmd{cmd, listenEvents(m.events)}
		switch msg.Kind {
		case calibrationdto.EventPhase, calibrationdto.EventResults, calibrationdto.EventAlert:
			cmds = append(cmds, m.statusCmd())
		}
		return m, tea.Batch(cmds...)

	case calibrationview.StatusMsg:
		m.calView, _ = m.calView.Update(msg)
		return m, nil

	case statusTickMsg:
		return m, tea.Batch(m.statusCmd(), statusTick())

	case monitorview.FrameMsg:
		m.monView, _ = m.monView.Update(msg)
		return m, listenFrames(m.monitor)

	case startedMsg:
		if msg.err != nil {
			m.status = "start failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("run %s started", shortID(msg.out.RunID))
		}
		return m, m.statusCmd()

	case respondedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		}
		return m, nil

	case resetMsg:
		if msg.err != nil {
			m.status = "reset failed: " + msg.err.Error()
		} else {
			m.status = "reset"
		}
		return m, m.statusCmd()

	case unloadMsg:
		m.notified = m.notified || msg.out.Notified
		if msg.out.Confirm {
			m.confirming = true
			m.status = "calibration in progress"
			return m, nil
		}
		return m, tea.Quit

	case runsMsg:
		if msg.err != nil {
			m.status = "runs: " + msg.err.Error()
			return m, nil
		}
		m.calView.ShowText(runsMarkdown(msg.runs))
		m.status = fmt.Sprintf("%d archived runs", len(msg.runs))
		return m, nil

	case planMsg:
		m.calView.ShowText(planMarkdown(msg.plan))
		m.status = "plan " + msg.plan.Name
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmds []tea.Cmd
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.screen == screenCalibration {
		var cmd tea.Cmd
		m.calView, cmd = m.calView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// Notified reports whether the backend was already told this session is
// leaving a running calibration.
func (m Model) Notified() bool { return m.notified }

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch msg.String() {
		case "y", "Y":
			return m, tea.Quit
		case "n", "N", "esc":
			m.confirming = false
			m.status = "ready"
		}
		return m, nil
	}
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quitCmd()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Palette):
		return m, m.palette.Open()
	}
	if m.screen != screenCalibration {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Dismiss) && m.calView.Alerting():
		m.calView.DismissAlert()
		return m, nil
	case key.Matches(msg, m.keys.Start):
		return m, m.startCmd()
	case key.Matches(msg, m.keys.Reset):
		return m, m.resetCmd()
	case key.Matches(msg, m.keys.Answer):
		n, _ := strconv.Atoi(msg.String())
		return m, m.respondIndexCmd(n)
	}
	var cmd tea.Cmd
	m.calView, cmd = m.calView.Update(msg)
	return m, cmd
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.confirming:
		prompt := theme.Alert.Render("Leave the calibration? Progress will be lost.") + "\n" + theme.Muted.Render("y: leave  n: stay")
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, prompt)
	case m.screen == screenMonitor:
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.monView.View())
	default:
		content = lipgloss.NewStyle().Padding(1, 2).Height(contentH).Render(m.calView.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, content, statusBar)
}

func (m Model) renderStatusBar() string {
	left := theme.Hot.Render("neurocal") + "  " + m.status
	right := theme.Muted.Render("?:help  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	if parts[0] == "quit" {
		return m, m.quitCmd()
	}
	if m.screen == screenMonitor {
		if parts[0] == "settings" {
			f := m.monView.Frame()
			m.status = fmt.Sprintf("%s displayed=%.3f current=%.3f", f.Metric, f.Displayed, f.Current)
			return m, nil
		}
		m.status = "unknown command: " + parts[0]
		return m, nil
	}

	switch parts[0] {
	case "start":
		return m, m.startCmd()
	case "reset":
		return m, m.resetCmd()
	case "answer":
		if len(parts) < 2 {
			m.status = "usage: answer <label>"
			return m, nil
		}
		return m, m.respondCmd(strings.TrimSpace(strings.TrimPrefix(input, parts[0])))
	case "plan":
		return m, m.planCmd()
	case "runs":
		return m, m.runsCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── async commands ───────────────────────────────────────────────────────────

func listenEvents(ch <-chan calibrationdto.PresenterEvent) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return calibrationview.EventMsg(e)
	}
}

func listenFrames(ch <-chan smootherdto.FrameOutput) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return nil
		}
		return monitorview.FrameMsg(f)
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusEvery, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (m Model) statusCmd() tea.Cmd {
	return func() tea.Msg {
		return calibrationview.StatusMsg{Status: m.calibration.Status(m.ctx)}
	}
}

func (m Model) startCmd() tea.Cmd {
	return func() tea.Msg {
		out, err := m.calibration.Start(m.ctx)
		return startedMsg{out: out, err: err}
	}
}

func (m Model) respondIndexCmd(n int) tea.Cmd {
	return func() tea.Msg {
		return respondedMsg{err: quietResponse(m.calibration.RespondIndex(m.ctx, n))}
	}
}

func (m Model) respondCmd(answer string) tea.Cmd {
	return func() tea.Msg {
		return respondedMsg{err: m.calibration.Respond(m.ctx, answer)}
	}
}

func (m Model) resetCmd() tea.Cmd {
	return func() tea.Msg {
		return resetMsg{err: m.calibration.Reset(m.ctx)}
	}
}

func (m Model) planCmd() tea.Cmd {
	return func() tea.Msg {
		return planMsg{plan: m.calibration.Plan(m.ctx)}
	}
}

func (m Model) runsCmd() tea.Cmd {
	return func() tea.Msg {
		runs, err := m.calibration.Runs(m.ctx)
		return runsMsg{runs: runs, err: err}
	}
}

func (m Model) quitCmd() tea.Cmd {
	if m.screen != screenCalibration {
		return tea.Quit
	}
	return func() tea.Msg {
		return unloadMsg{out: m.calibration.Unload(m.ctx)}
	}
}

// Digit keys outside a response phase are ignored rather than reported.
func quietResponse(err error) error {
	if errors.Is(err, apperrors.ErrNoResponsePhase) {
		return nil
	}
	return err
}

// ─── rendering helpers ────────────────────────────────────────────────────────

func planMarkdown(plan calibrationdto.PlanOutput) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n| # | phase | kind | seconds |\n|---|---|---|---|\n", plan.Name)
	for i, p := range plan.Phases {
		secs := "-"
		if p.Duration > 0 {
			secs = strconv.Itoa(p.Duration)
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n", i+1, p.Name, p.Kind, secs)
	}
	return sb.String()
}

func runsMarkdown(runs []calibrationdto.RunOutput) string {
	if len(runs) == 0 {
		return "_No archived runs._"
	}
	var sb strings.Builder
	sb.WriteString("## Archived runs\n\n| finished | plan | values | reported |\n|---|---|---|---|\n")
	for _, r := range runs {
		reported := "yes"
		if !r.Reported {
			reported = "no"
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", r.FinishedAt.Local().Format("2006-01-02 15:04"), r.Plan, r.Records+r.Timestamps, reported)
	}
	return sb.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
