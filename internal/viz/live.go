package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/doxa/internal/actions"
	"github.com/san-kum/doxa/internal/config"
	"github.com/san-kum/doxa/internal/experiment"
	"github.com/san-kum/doxa/internal/pose"
	"github.com/san-kum/doxa/internal/routine"
	"github.com/san-kum/doxa/internal/storage"
)

const (
	fieldCells   = 36
	headingChart = 120
	minSpeed     = 0.25
	maxSpeed     = 16
)

// SampleMsg carries one tick of the running experiment.
type SampleMsg storage.Sample

// DoneMsg ends the run.
type DoneMsg struct {
	Result *experiment.Result
	Err    error
}

// Gate paces the simulation goroutine to wall time and holds it while paused.
type Gate struct {
	mu     sync.Mutex
	paused bool
	speed  float64
}

func NewGate(speed float64) *Gate {
	return &Gate{speed: math.Max(minSpeed, math.Min(maxSpeed, speed))}
}

func (g *Gate) Toggle() {
	g.mu.Lock()
	g.paused = !g.paused
	g.mu.Unlock()
}

func (g *Gate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused
}

func (g *Gate) Speed() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.speed
}

// Scale multiplies the playback speed, within limits.
func (g *Gate) Scale(k float64) {
	g.mu.Lock()
	g.speed = math.Max(minSpeed, math.Min(maxSpeed, g.speed*k))
	g.mu.Unlock()
}

// Wait holds for one tick of simulated time at the current speed, plus however long the
// gate stays paused.
func (g *Gate) Wait(ctx context.Context, tick time.Duration) error {
	for g.Paused() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(float64(tick) / g.Speed())):
		return nil
	}
}

// Live is the Bubble Tea model of a running simulation.
type Live struct {
	routine   string
	side      string
	half      float64
	robotHalf float64
	budget    time.Duration
	gate      *Gate
	styles    styles

	samples   []storage.Sample
	showTruth bool
	result    *experiment.Result
	err       error
}

func NewLive(routineName string, cfg *config.Config, gate *Gate) Live {
	return Live{
		routine:   routineName,
		side:      cfg.Side,
		half:      cfg.Simulator.FieldHalfWidth,
		robotHalf: cfg.Simulator.RobotRadius * math.Sqrt2 / 2,
		budget:    cfg.Duration,
		gate:      gate,
		styles:    newStyles(GetTheme(cfg.Side)),
		showTruth: true,
	}
}

func (m Live) Init() tea.Cmd { return nil }

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.gate.Toggle()
		case "+", "=":
			m.gate.Scale(2)
		case "-", "_":
			m.gate.Scale(0.5)
		case "t":
			m.showTruth = !m.showTruth
		}
	case SampleMsg:
		m.samples = append(m.samples, storage.Sample(msg))
	case DoneMsg:
		m.result, m.err = msg.Result, msg.Err
	}
	return m, nil
}

func (m Live) field() string {
	c := NewCanvas(fieldCells*2, fieldCells)
	f := NewFieldView(c, m.half)
	f.DrawTiles(routine.TilesToMM)

	est := make([]r2.Vec, len(m.samples))
	truth := make([]r2.Vec, len(m.samples))
	for i, s := range m.samples {
		est[i] = r2.Vec{X: s.X, Y: s.Y}
		truth[i] = r2.Vec{X: s.TrueX, Y: s.TrueY}
	}
	if m.showTruth {
		f.DrawPath(truth)
	} else {
		f.DrawPath(est)
	}
	if n := len(m.samples); n > 0 {
		last := m.samples[n-1]
		f.DrawRobot(pose.Degrees(last.X, last.Y, last.Heading), m.robotHalf)
	}
	return c.String()
}

func (m Live) status() string {
	switch {
	case m.err != nil:
		return m.styles.bad.Render("ERROR " + m.err.Error())
	case m.result != nil && m.result.OutOfTime:
		return m.styles.warn.Render("OUT OF TIME")
	case m.result != nil:
		return m.styles.good.Render("DONE")
	case m.gate.Paused():
		return m.styles.warn.Render("PAUSED")
	}
	return m.styles.good.Render(fmt.Sprintf("RUNNING x%.2g", m.gate.Speed()))
}

func (m Live) View() string {
	st := m.styles
	var s strings.Builder
	s.WriteString(st.header.Render(fmt.Sprintf("%s (%s)", strings.ToUpper(m.routine), m.side)) + "\n")
	s.WriteString(m.status() + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}

	if n := len(m.samples); n > 0 {
		last := m.samples[n-1]
		row("Action", last.Action)
		row("Time", fmt.Sprintf("%.2fs", last.Time))
		row("Budget", ProgressBar(last.Time/m.budget.Seconds(), 20))
		row("Estimate", fmt.Sprintf("(%.0f, %.0f) %.1f°", last.X, last.Y, last.Heading))
		row("Truth", fmt.Sprintf("(%.0f, %.0f) %.1f°", last.TrueX, last.TrueY, last.TrueHeading))
		row("Drift", fmt.Sprintf("%.1fmm", math.Hypot(last.X-last.TrueX, last.Y-last.TrueY)))

		left := make([]float64, 0, n)
		right := make([]float64, 0, n)
		headings := make([]float64, 0, n)
		for _, smp := range m.samples {
			left = append(left, smp.Left)
			right = append(right, smp.Right)
			headings = append(headings, smp.Heading)
		}
		row("Left", fmt.Sprintf("%6.2fV ", last.Left)+Sparkline(left, 20, -12, 12))
		row("Right", fmt.Sprintf("%6.2fV ", last.Right)+Sparkline(right, 20, -12, 12))

		if len(headings) > headingChart {
			headings = headings[len(headings)-headingChart:]
		}
		if len(headings) > 1 {
			s.WriteString("\n" + asciigraph.Plot(headings,
				asciigraph.Height(5),
				asciigraph.Width(36),
				asciigraph.Caption("heading (deg)")) + "\n")
		}
	} else {
		row("Action", "calibrating")
	}

	if m.result != nil {
		s.WriteString("\n")
		for _, a := range m.result.Actions {
			style := st.good
			if a.Reason != actions.Settled {
				style = st.warn
			}
			s.WriteString(fmt.Sprintf("%-15s %s %5dms\n", a.Action, style.Render(fmt.Sprintf("%-9s", a.Reason)), a.Elapsed.Milliseconds()))
		}
	}

	s.WriteString(st.help.Render("SPACE pause  +/- speed  T truth/estimate  Q quit"))
	return lipgloss.JoinHorizontal(lipgloss.Top, m.field(), st.panel.Render(s.String()))
}

// RunLive runs routineName in the simulator and shows it as it goes.
func RunLive(ctx context.Context, cfg *config.Config, routineName string, speed float64) error {
	rt, err := routine.Get(routineName)
	if err != nil {
		return err
	}
	e, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	gate := NewGate(speed)
	p := tea.NewProgram(NewLive(routineName, cfg, gate), tea.WithContext(ctx))

	period := cfg.Drivetrain.Period
	e.OnSample(func(s storage.Sample) {
		if gate.Wait(ctx, period) == nil {
			p.Send(SampleMsg(s))
		}
	})

	go func() {
		err := e.Prepare(ctx)
		var res *experiment.Result
		if err == nil {
			res, err = e.Run(ctx, rt)
		}
		p.Send(DoneMsg{Result: res, Err: err})
	}()

	_, err = p.Run()
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
