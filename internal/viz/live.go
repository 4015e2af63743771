package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/flowsim/internal/sim"
)

const historyCapacity = 300

type TickMsg time.Time

// Stepper advances one or more simulations together.
type Stepper interface {
	Tick() ([]sim.Snapshot, error)
	Stop()
}

type LiveOptions struct {
	Labels []string
	Frame  time.Duration
	// Ticks > 0 quits after that many ticks.
	Ticks int
	// Width and Height size each pane's canvas in characters.
	Width, Height int
	Theme         string
	GIFPath       string
}

// Model drives a Stepper from the bubbletea frame clock and draws one pane
// per simulation.
type Model struct {
	step       Stepper
	view       *View
	opts       LiveOptions
	canvases   []*Canvas
	snaps      []sim.Snapshot
	population [][]float64
	removed    []int
	ticks      int
	running    bool
	showHelp   bool
	theme      Theme
	styles     Styles
	gif        *GIFRecorder
	recording  bool
	status     string
	err        error
	done       bool
}

func NewModel(step Stepper, view *View, opts LiveOptions) Model {
	if opts.Frame <= 0 {
		opts.Frame = 30 * time.Millisecond
	}
	if opts.Width <= 0 {
		opts.Width = 60
	}
	if opts.Height <= 0 {
		opts.Height = 20
	}
	if len(opts.Labels) == 0 {
		opts.Labels = []string{""}
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "flowsim.gif"
	}
	n := len(opts.Labels)
	m := Model{
		step:       step,
		view:       view,
		opts:       opts,
		canvases:   make([]*Canvas, n),
		population: make([][]float64, n),
		removed:    make([]int, n),
		running:    true,
		theme:      GetTheme(opts.Theme),
		gif:        NewGIFRecorder(int(opts.Frame / (10 * time.Millisecond))),
	}
	for i := range m.canvases {
		m.canvases[i] = NewCanvas(opts.Width, opts.Height)
	}
	m.styles = NewStyles(m.theme)
	return m
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Err is the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) Ticks() int { return m.ticks }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.step.Stop()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.advance()
			}
		case "t":
			m.cycleTheme()
		case "c":
			m.cycleColor()
		case "[":
			m.view.SetRotate(m.view.Config().Rotate - 0.005)
		case "]":
			m.view.SetRotate(m.view.Config().Rotate + 0.005)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.advance()
		}
		if m.err != nil || m.done {
			m.step.Stop()
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) advance() {
	snaps, err := m.step.Tick()
	if err != nil {
		m.err = err
		return
	}
	m.snaps = snaps
	m.ticks++
	for i, s := range snaps {
		if i >= len(m.canvases) {
			break
		}
		m.view.DrawInto(m.canvases[i], s)
		m.population[i] = append(m.population[i], float64(s.Len()))
		if len(m.population[i]) > historyCapacity {
			m.population[i] = m.population[i][1:]
		}
		m.removed[i] += s.Stats.Removed()
	}
	if m.recording {
		m.gif.Capture(m.canvases[0])
	}
	if m.opts.Ticks > 0 && m.ticks >= m.opts.Ticks {
		m.done = true
	}
}

func (m *Model) cycleTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == m.theme.Name {
			m.theme = GetTheme(names[(i+1)%len(names)])
			break
		}
	}
	m.styles = NewStyles(m.theme)
}

func (m *Model) cycleColor() {
	cur := m.view.Config().Color
	for i, mode := range ColorModes {
		if mode == cur {
			_ = m.view.SetColor(ColorModes[(i+1)%len(ColorModes)])
			return
		}
	}
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.status = "recording"
		return
	}
	m.recording = false
	if err := m.gif.Save(m.opts.GIFPath); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "saved " + m.opts.GIFPath
}

// resize splits the terminal between the panes and the stats column.
func (m *Model) resize(w, h int) {
	paneW := (w-48)/len(m.canvases) - 2
	paneH := h - 4
	if paneW < 10 || paneH < 5 {
		return
	}
	for i := range m.canvases {
		m.canvases[i] = NewCanvas(paneW, paneH)
		if i < len(m.snaps) {
			m.view.DrawInto(m.canvases[i], m.snaps[i])
		}
	}
}

func (m Model) View() string {
	panes := make([]string, len(m.canvases))
	for i, c := range m.canvases {
		title := GradientText(strings.ToUpper(m.opts.Labels[i]), m.theme)
		panes[i] = m.styles.Pane.Render(title + "\n" + c.Render(m.theme))
	}
	main := lipgloss.JoinHorizontal(lipgloss.Top, append(panes, m.styles.Stats.Render(m.stats()))...)
	if m.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (m Model) stats() string {
	var s strings.Builder
	s.WriteString(m.styles.Header.Render("FLOWSIM") + "\n")

	switch {
	case m.err != nil:
		s.WriteString(m.styles.Error.Render("ERROR "+m.err.Error()) + "\n")
	case m.recording:
		s.WriteString(m.styles.Record.Render("● REC") + "\n")
	case m.running:
		s.WriteString(m.styles.Running.Render("RUNNING") + "\n")
	default:
		s.WriteString(m.styles.Paused.Render("PAUSED") + "\n")
	}

	t := 0.0
	if len(m.snaps) > 0 {
		t = m.snaps[0].Time
	}
	row := func(label, value string) {
		s.WriteString(m.styles.Label.Render(label) + m.styles.Value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", m.ticks))
	row("Time", fmt.Sprintf("%.2f", t))
	row("Color", m.view.Config().Color)
	row("Theme", m.theme.Name)
	for i, snap := range m.snaps {
		if i >= len(m.opts.Labels) {
			break
		}
		label := m.opts.Labels[i]
		if label == "" {
			label = "Live"
		}
		row(label, fmt.Sprintf("%d live, %d removed", snap.Len(), m.removed[i]))
	}
	if m.opts.Ticks > 0 {
		s.WriteString(ProgressBar(float64(m.ticks)/float64(m.opts.Ticks), 30, m.theme) + "\n")
	}

	if len(m.population[0]) > 1 {
		chart := asciigraph.PlotMany(m.population, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("Population"))
		s.WriteString(m.styles.Graph.Render(chart) + "\n")
	}
	if m.status != "" {
		s.WriteString(m.styles.Value.Render(m.status) + "\n")
	}
	s.WriteString(m.styles.Help.Render("SP:Pause .:Step Q:Quit\nT:Theme C:Color G:Record\n[ ]:Rotate ?:Help"))
	return s.String()
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  .        - Single tick while paused ║
║  Q        - Quit                     ║
║  T        - Cycle themes             ║
║  C        - Cycle color mode         ║
║  [ / ]    - Slower / faster camera   ║
║  G        - Toggle GIF recording     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`
