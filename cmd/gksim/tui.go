package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soundbytelabs/gatekeeper/sim"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Virtual milliseconds advanced per UI tick; the UI ticks at roughly
// the same wall interval so the sim runs near real time.
const tickStepMS = 16

// Auto-release duration for the tap keys.
const tapAutoReleaseMS = 200

type tickMsg time.Time

type lfoPreset struct {
	label string
	freq  float64
	shape sim.CVShape
}

var lfoPresets = []lfoPreset{
	{label: "off"},
	{label: "1Hz sine", freq: 1, shape: sim.CVSine},
	{label: "2Hz tri", freq: 2, shape: sim.CVTriangle},
	{label: "4Hz square", freq: 4, shape: sim.CVSquare},
}

type model struct {
	engine *sim.Engine

	holdA bool
	holdB bool

	// Scheduled auto-releases for tap keys, in virtual time. Zero means
	// inactive.
	releaseA uint32
	releaseB uint32

	cvLevel  uint8
	cvGate   bool
	lfoIdx   int
	showHelp bool

	quitting bool
}

func newModel(engine *sim.Engine) model {
	return model{engine: engine, showHelp: true}
}

func tick() tea.Cmd {
	return tea.Tick(tickStepMS*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "esc", "ctrl+c":
			m.quitting = true
			m.engine.Quit()
			return m, tea.Quit

		case "a": // tap A (or release a held A)
			if m.holdA {
				m.holdA = false
				m.engine.SetButtonA(false)
			} else {
				m.engine.SetButtonA(true)
				m.releaseA = m.engine.Frame().TimeMS + tapAutoReleaseMS
			}

		case "b":
			if m.holdB {
				m.holdB = false
				m.engine.SetButtonB(false)
			} else {
				m.engine.SetButtonB(true)
				m.releaseB = m.engine.Frame().TimeMS + tapAutoReleaseMS
			}

		case "A": // hold A until 'a'
			m.holdA = true
			m.releaseA = 0
			m.engine.SetButtonA(true)

		case "B":
			m.holdB = true
			m.releaseB = 0
			m.engine.SetButtonB(true)

		case "c", "C":
			m.cvGate = !m.cvGate
			m.lfoIdx = 0
			m.engine.SetCVGate(m.cvGate)

		case "+", "=":
			m.cvLevel = satAdd(m.cvLevel, 10)
			m.lfoIdx = 0
			m.engine.SetCVManual(m.cvLevel)

		case "-", "_":
			m.cvLevel = satSub(m.cvLevel, 10)
			m.lfoIdx = 0
			m.engine.SetCVManual(m.cvLevel)

		case "t":
			m.engine.TriggerCV()

		case "l":
			m.lfoIdx = (m.lfoIdx + 1) % len(lfoPresets)
			p := lfoPresets[m.lfoIdx]
			if p.freq == 0 {
				m.engine.SetCVManual(0)
			} else {
				m.engine.SetCVLFO(p.freq, p.shape, 0, 255)
			}

		case "R":
			m.engine.Reset()

		case "L":
			m.showHelp = !m.showHelp
		}

	case tickMsg:
		m.engine.TickMS(tickStepMS)

		now := m.engine.Frame().TimeMS
		if m.releaseA != 0 && now >= m.releaseA {
			m.releaseA = 0
			m.engine.SetButtonA(false)
		}
		if m.releaseB != 0 && now >= m.releaseB {
			m.releaseB = 0
			m.engine.SetButtonB(false)
		}
		return m, tick()
	}
	return m, nil
}

// ------------------------
// View
// ------------------------

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hiStyle  = lipgloss.NewStyle().Bold(true)
)

func swatch(c types.RGB) string {
	if c == (types.RGB{}) {
		return dimStyle.Render("○")
	}
	hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("●")
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	f := m.engine.Frame()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Gatekeeper Simulator"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("   t=%d ms", f.TimeMS)))
	b.WriteString("\n\n")

	state := fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("top:"), hiStyle.Render(f.Top),
		labelStyle.Render("mode:"), hiStyle.Render(f.Mode),
		labelStyle.Render("page:"), pageStr(f))
	leds := fmt.Sprintf("%s %s  %s %s",
		labelStyle.Render("mode LED:"), swatch(f.LEDs.Mode),
		labelStyle.Render("activity LED:"), swatch(f.LEDs.Activity))
	io := fmt.Sprintf("%s %s %s   %s %d.%dV (%s)   %s %s",
		labelStyle.Render("buttons:"), btn("A", f.ButtonA), btn("B", f.ButtonB),
		labelStyle.Render("cv:"), f.CVMillivolts/1000, (f.CVMillivolts%1000)/100, onOff(f.CVDigital),
		labelStyle.Render("out:"), onOff(f.Output))

	b.WriteString(panelStyle.Render(state+"\n"+leds+"\n"+io) + "\n")

	events := m.engine.Events(8)
	if len(events) > 0 {
		var ev strings.Builder
		for _, rec := range events {
			ev.WriteString(fmt.Sprintf("[%8d ms] %-6s %s\n", rec.TimeMS, rec.Kind, rec.Text))
		}
		b.WriteString(panelStyle.Render(strings.TrimRight(ev.String(), "\n")) + "\n")
	}

	if m.showHelp {
		b.WriteString(dimStyle.Render(
			"a/b tap · A/B hold · c gate · +/- level · t trigger · l lfo (" +
				lfoPresets[m.lfoIdx].label + ") · R reset · L help · q quit"))
	}
	return b.String()
}

func pageStr(f sim.Frame) string {
	if !f.InMenu {
		return dimStyle.Render("-")
	}
	return hiStyle.Render(fmt.Sprintf("%s (%d/%d)", f.Page, f.SettingValue+1, f.SettingCount))
}

func btn(name string, pressed bool) string {
	if pressed {
		return hiStyle.Render("[" + name + "]")
	}
	return dimStyle.Render(" " + name + " ")
}

func onOff(v bool) string {
	if v {
		return hiStyle.Render("high")
	}
	return dimStyle.Render("low")
}

func satAdd(v, d uint8) uint8 {
	if v > 255-d {
		return 255
	}
	return v + d
}

func satSub(v, d uint8) uint8 {
	if v < d {
		return 0
	}
	return v - d
}
