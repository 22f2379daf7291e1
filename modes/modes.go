// Package modes implements the five signal-processing modes. Each mode
// keeps its own context struct; only the active mode's context is live,
// and switching modes reinitializes the fresh variant in place.
package modes

import (
	"github.com/soundbytelabs/gatekeeper/settings"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Feedback is the per-tick LED descriptor handed to the feedback
// controller. Mode handlers fill the activity fields; the coordinator
// adds the application state.
type Feedback struct {
	Mode types.RGB // mode indicator color

	Activity           types.RGB
	ActivityBrightness uint8 // 0-255, for pulsing effects

	CurrentMode types.Mode
	CurrentPage types.Page
	InMenu      bool

	// Menu value feedback for the activity LED.
	SettingValue uint8
	SettingCount uint8
}

// activityWhite is the activity LED color when an output is simply "on".
var activityWhite = types.RGB{R: 255, G: 255, B: 255}

// Handler is the shared shape of all five modes.
type Handler interface {
	// Init resets the context from the current settings. Called on every
	// mode change and whenever a governing setting changes.
	Init(s *settings.Settings)
	// Process consumes one tick of input and returns the output level.
	Process(input bool, now uint32) bool
	// FillLED writes the activity portion of the descriptor.
	FillLED(fb *Feedback)
}

// ------------------------
// Gate
// ------------------------

// Gate passes the input straight through.
type Gate struct {
	output bool
}

func (g *Gate) Init(*settings.Settings) { g.output = false }

func (g *Gate) Process(input bool, _ uint32) bool {
	g.output = input
	return g.output
}

func (g *Gate) FillLED(fb *Feedback) {
	fb.Activity = activityWhite
	fb.ActivityBrightness = onOff(g.output)
}

// ------------------------
// Trigger
// ------------------------

// Trigger emits a fixed-length pulse on the configured input edge.
// Retriggering while the pulse is still high is ignored, matching
// typical clock-trigger hardware.
type Trigger struct {
	output     bool
	lastInput  bool
	pulseStart uint32
	durationMS uint16
	edge       uint8
}

func (t *Trigger) Init(s *settings.Settings) {
	*t = Trigger{durationMS: settings.TriggerPulseMS[0]}
	if s != nil && s.TriggerPulseIdx < settings.TriggerPulseCount {
		t.durationMS = settings.TriggerPulseMS[s.TriggerPulseIdx]
		t.edge = s.TriggerEdge
	}
}

func (t *Trigger) Process(input bool, now uint32) bool {
	rising := input && !t.lastInput
	falling := !input && t.lastInput
	t.lastInput = input

	if t.output && now-t.pulseStart >= uint32(t.durationMS) {
		t.output = false
	}

	armed := false
	switch t.edge {
	case settings.TriggerEdgeRising:
		armed = rising
	case settings.TriggerEdgeFalling:
		armed = falling
	case settings.TriggerEdgeBoth:
		armed = rising || falling
	}
	if armed && !t.output {
		t.output = true
		t.pulseStart = now
	}
	return t.output
}

func (t *Trigger) FillLED(fb *Feedback) {
	fb.Activity = activityWhite
	fb.ActivityBrightness = onOff(t.output)
}

// ------------------------
// Toggle
// ------------------------

// Toggle flips the output on the configured input edge.
type Toggle struct {
	output    bool
	lastInput bool
	edge      uint8
}

func (t *Toggle) Init(s *settings.Settings) {
	*t = Toggle{}
	if s != nil {
		t.edge = s.ToggleEdge
	}
}

func (t *Toggle) Process(input bool, _ uint32) bool {
	rising := input && !t.lastInput
	falling := !input && t.lastInput
	t.lastInput = input

	switch t.edge {
	case settings.ToggleEdgeRising:
		if rising {
			t.output = !t.output
		}
	case settings.ToggleEdgeFalling:
		if falling {
			t.output = !t.output
		}
	}
	return t.output
}

func (t *Toggle) FillLED(fb *Feedback) {
	fb.Activity = activityWhite
	fb.ActivityBrightness = onOff(t.output)
}

// ------------------------
// Divide
// ------------------------

// Divide counts rising edges modulo N and emits a short pulse when the
// counter wraps.
type Divide struct {
	output     bool
	lastInput  bool
	counter    uint8
	divisor    uint8
	pulseStart uint32
}

func (d *Divide) Init(s *settings.Settings) {
	*d = Divide{divisor: settings.DivideDivisors[0]}
	if s != nil && s.DivideDivisorIdx < settings.DivideDivisorCount {
		d.divisor = settings.DivideDivisors[s.DivideDivisorIdx]
	}
}

func (d *Divide) Process(input bool, now uint32) bool {
	rising := input && !d.lastInput
	d.lastInput = input

	if d.output && now-d.pulseStart >= settings.OutputPulseMS {
		d.output = false
	}

	if rising {
		d.counter++
		if d.counter >= d.divisor {
			d.counter = 0
			d.output = true
			d.pulseStart = now
		}
	}
	return d.output
}

func (d *Divide) FillLED(fb *Feedback) {
	fb.Activity = activityWhite
	fb.ActivityBrightness = onOff(d.output)
}

// ------------------------
// Cycle
// ------------------------

// Cycle is a free-running clock: the output toggles every half period.
// Input is ignored. The phase counter ramps 0..255 across each half
// period and feeds the activity LED brightness.
type Cycle struct {
	output     bool
	running    bool
	lastToggle uint32
	periodMS   uint16
	phase      uint8
}

func (c *Cycle) Init(s *settings.Settings) {
	*c = Cycle{running: true, periodMS: settings.CyclePeriodMS[0]}
	if s != nil && s.CycleTempoIdx < settings.CycleTempoCount {
		c.periodMS = settings.CyclePeriodMS[s.CycleTempoIdx]
	}
}

func (c *Cycle) Process(_ bool, now uint32) bool {
	if !c.running {
		return c.output
	}
	half := uint32(c.periodMS / 2)
	if half == 0 {
		half = 1
	}
	if now-c.lastToggle >= half {
		c.output = !c.output
		c.lastToggle = now
	}
	c.phase = uint8((now - c.lastToggle) * 255 / half)
	return c.output
}

// Phase returns the position within the current half period, 0..255.
func (c *Cycle) Phase() uint8 { return c.phase }

func (c *Cycle) FillLED(fb *Feedback) {
	fb.Activity = activityWhite
	if c.output {
		// Ramp the high half down for a soft pulse.
		fb.ActivityBrightness = 255 - c.phase
	} else {
		fb.ActivityBrightness = 0
	}
}

// ------------------------
// Bank
// ------------------------

// Bank statically allocates one context per mode. Only the context
// selected by the coordinator is live at any time; Init on a variant
// reuses its memory in place.
type Bank struct {
	Gate    Gate
	Trigger Trigger
	Toggle  Toggle
	Divide  Divide
	Cycle   Cycle
}

// Handler returns the context for a mode. Out-of-range modes fall back
// to gate (guard-and-drop).
func (b *Bank) Handler(m types.Mode) Handler {
	switch m {
	case types.ModeTrigger:
		return &b.Trigger
	case types.ModeToggle:
		return &b.Toggle
	case types.ModeDivide:
		return &b.Divide
	case types.ModeCycle:
		return &b.Cycle
	default:
		return &b.Gate
	}
}

// Init reinitializes the context for a mode from settings and returns it.
func (b *Bank) Init(m types.Mode, s *settings.Settings) Handler {
	h := b.Handler(m)
	h.Init(s)
	return h
}

func onOff(on bool) uint8 {
	if on {
		return 255
	}
	return 0
}
