// Package core owns the three-level state machine hierarchy and routes
// semantic events through it: top (perform/menu), mode, and menu page.
// One Update call per tick drives the whole pipeline from input sampling
// to the output bit and the LED descriptor.
package core

import (
	"github.com/soundbytelabs/gatekeeper/event"
	"github.com/soundbytelabs/gatekeeper/fsm"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/input"
	"github.com/soundbytelabs/gatekeeper/modes"
	"github.com/soundbytelabs/gatekeeper/output"
	"github.com/soundbytelabs/gatekeeper/settings"
	"github.com/soundbytelabs/gatekeeper/types"
)

// MenuTimeoutMS is the inactivity deadline after which the menu exits.
const MenuTimeoutMS = 60000

// Coordinator owns the FSM hierarchy and all shared per-tick state. The
// settings record is externally owned and shared by reference for the
// coordinator's lifetime.
type Coordinator struct {
	h hal.HAL
	s *settings.Settings

	topFSM  fsm.FSM
	modeFSM fsm.FSM
	menuFSM fsm.FSM

	events  event.Processor
	cv      input.CV
	buttonA input.Button
	buttonB input.Button

	bank    modes.Bank
	handler modes.Handler

	menuEntryMode types.Mode
	menuEnterTime uint32
	lastActivity  uint32

	// Set when the menu exits on a solo A hold; the ModeNext emitted by
	// the same press's release is swallowed so the exit gesture does not
	// also advance the mode.
	suppressModeNext bool

	outputState bool
}

// New wires a coordinator to its HAL and settings record. The machines
// are built but not started; call Start after restoring the mode.
func New(h hal.HAL, s *settings.Settings) *Coordinator {
	c := &Coordinator{h: h, s: s, cv: input.NewCV()}

	pins := h.Pins()
	c.buttonA, _ = input.NewButton(h, pins.ButtonA)
	c.buttonB, _ = input.NewButton(h, pins.ButtonB)

	c.handler = c.bank.Init(types.ModeGate, s)

	topStates := []fsm.State{
		{ID: uint8(types.TopPerform)},
		{ID: uint8(types.TopMenu)},
	}
	topTransitions := []fsm.Transition{
		{From: uint8(types.TopPerform), Event: uint8(event.MenuToggle), To: uint8(types.TopMenu), Action: c.enterMenu},
		{From: uint8(types.TopMenu), Event: uint8(event.MenuToggle), To: uint8(types.TopPerform), Action: c.exitMenu},
		{From: uint8(types.TopMenu), Event: uint8(event.Timeout), To: uint8(types.TopPerform), Action: c.exitMenu},
		// Solo A hold also leaves the menu; the release must not then
		// advance the mode, hence the dedicated action.
		{From: uint8(types.TopMenu), Event: uint8(event.AHold), To: uint8(types.TopPerform), Action: c.exitMenuViaHold},
	}

	modeStates := []fsm.State{
		{ID: uint8(types.ModeGate)},
		{ID: uint8(types.ModeTrigger)},
		{ID: uint8(types.ModeToggle)},
		{ID: uint8(types.ModeDivide)},
		{ID: uint8(types.ModeCycle)},
	}
	modeTransitions := []fsm.Transition{
		{From: fsm.AnyState, Event: uint8(event.ModeNext), To: fsm.NoTransition, Action: c.nextMode},
	}

	menuStates := []fsm.State{
		{ID: uint8(types.PageGateCV)},
		{ID: uint8(types.PageTriggerBehavior)},
		{ID: uint8(types.PageTriggerPulseLen)},
		{ID: uint8(types.PageToggleBehavior)},
		{ID: uint8(types.PageDivideDivisor)},
		{ID: uint8(types.PageCyclePattern)},
		{ID: uint8(types.PageCVGlobal)},
		{ID: uint8(types.PageMenuTimeout)},
	}
	menuTransitions := []fsm.Transition{
		{From: fsm.AnyState, Event: uint8(event.ATap), To: fsm.NoTransition, Action: c.nextPage},
		{From: fsm.AnyState, Event: uint8(event.BTap), To: fsm.NoTransition, Action: c.cycleValue},
	}

	c.topFSM = fsm.New(topStates, topTransitions, uint8(types.TopPerform))
	c.modeFSM = fsm.New(modeStates, modeTransitions, uint8(types.ModeGate))
	c.menuFSM = fsm.New(menuStates, menuTransitions, uint8(types.PageGateCV))

	return c
}

// Start activates the machines. Call once, after SetMode has restored
// the persisted mode.
func (c *Coordinator) Start() {
	c.topFSM.Start()
	c.modeFSM.Start()
	c.menuFSM.Start()
	c.lastActivity = c.h.Millis()
}

// Update runs one tick: sample inputs, derive one event, route it, and
// run the active mode handler.
func (c *Coordinator) Update() {
	now := c.h.Millis()

	// Condition the inputs.
	cvState := c.cv.Update(c.h.ADCRead(c.h.Pins().CVChannel))
	c.buttonA.Update(now)
	c.buttonB.Update(now)

	ev := c.events.Update(event.Input{
		ButtonA: c.buttonA.Pressed(),
		ButtonB: c.buttonB.Pressed(),
		CVIn:    cvState,
		Now:     now,
	})

	if ev != event.None {
		top := types.TopState(c.topFSM.State())

		// Any activity while in the menu rewinds the timeout.
		if top == types.TopMenu {
			c.lastActivity = now
		}

		switch {
		case ev == event.APress:
			c.suppressModeNext = false
			c.route(top, ev)
		case ev == event.ModeNext && c.suppressModeNext:
			c.suppressModeNext = false
		default:
			c.route(top, ev)
		}
	}

	// Menu inactivity timeout, delivered as a synthetic event.
	if types.TopState(c.topFSM.State()) == types.TopMenu {
		if now-c.lastActivity >= MenuTimeoutMS {
			c.topFSM.Process(uint8(event.Timeout))
		}
	}

	// Mode handler input. In perform the CV is ORed with button B,
	// except while A is down: that suppresses B so a half-assembled
	// compound gesture never reaches the output. In the menu the
	// buttons belong to navigation and only the CV passes through.
	var inputState bool
	if types.TopState(c.topFSM.State()) == types.TopPerform {
		inputState = cvState || (c.events.BPressed() && !c.events.APressed())
		if c.Mode() == types.ModeGate && c.s != nil && c.s.GateAMode == settings.GateAModeManual {
			inputState = inputState || c.events.APressed()
		}
	} else {
		inputState = cvState
	}

	c.outputState = c.handler.Process(inputState, now)
}

// route offers the event to the top machine first; unconsumed events go
// to the menu machine while in the menu, otherwise to the mode machine.
func (c *Coordinator) route(top types.TopState, ev event.Event) {
	if c.topFSM.Process(uint8(ev)) {
		return
	}
	if top == types.TopMenu {
		c.menuFSM.Process(uint8(ev))
	} else {
		c.modeFSM.Process(uint8(ev))
	}
}

// ------------------------
// FSM actions
// ------------------------

func (c *Coordinator) enterMenu() {
	c.menuEntryMode = c.Mode()
	c.menuEnterTime = c.h.Millis()
	c.lastActivity = c.menuEnterTime
	c.menuFSM.SetState(uint8(c.menuEntryMode.StartPage()))
}

func (c *Coordinator) exitMenu() {
	if c.s != nil {
		c.s.Mode = c.modeFSM.State()
		settings.Save(c.h, c.s)
	}
}

func (c *Coordinator) exitMenuViaHold() {
	c.exitMenu()
	c.suppressModeNext = true
}

func (c *Coordinator) nextMode() {
	next := (c.modeFSM.State() + 1) % uint8(types.ModeCount)
	c.modeFSM.SetState(next)
	c.handler = c.bank.Init(types.Mode(next), c.s)
	c.lastActivity = c.h.Millis()
}

func (c *Coordinator) nextPage() {
	next := (c.menuFSM.State() + 1) % uint8(types.PageCount)
	c.menuFSM.SetState(next)
	c.lastActivity = c.h.Millis()
}

func (c *Coordinator) cycleValue() {
	if c.s == nil {
		return
	}
	mode := c.Mode()
	reinit := false

	switch c.Page() {
	case types.PageGateCV:
		c.s.GateAMode = (c.s.GateAMode + 1) % settings.GateAModeCount
		reinit = mode == types.ModeGate
	case types.PageTriggerBehavior:
		c.s.TriggerEdge = (c.s.TriggerEdge + 1) % settings.TriggerEdgeCount
		reinit = mode == types.ModeTrigger
	case types.PageTriggerPulseLen:
		c.s.TriggerPulseIdx = (c.s.TriggerPulseIdx + 1) % settings.TriggerPulseCount
		reinit = mode == types.ModeTrigger
	case types.PageToggleBehavior:
		c.s.ToggleEdge = (c.s.ToggleEdge + 1) % settings.ToggleEdgeCount
		reinit = mode == types.ModeToggle
	case types.PageDivideDivisor:
		c.s.DivideDivisorIdx = (c.s.DivideDivisorIdx + 1) % settings.DivideDivisorCount
		reinit = mode == types.ModeDivide
	case types.PageCyclePattern:
		c.s.CycleTempoIdx = (c.s.CycleTempoIdx + 1) % settings.CycleTempoCount
		reinit = mode == types.ModeCycle
	default:
		// Global pages carry no cycling action yet.
	}

	if reinit {
		c.handler = c.bank.Init(mode, c.s)
	}
	c.lastActivity = c.h.Millis()
}

// ------------------------
// Accessors
// ------------------------

// TopState returns the current top-level state.
func (c *Coordinator) TopState() types.TopState { return types.TopState(c.topFSM.State()) }

// Mode returns the active signal-processing mode.
func (c *Coordinator) Mode() types.Mode { return types.Mode(c.modeFSM.State()) }

// SetMode forces a mode, reinitializing its context. Used to restore the
// persisted mode at startup. Out-of-range modes are dropped.
func (c *Coordinator) SetMode(m types.Mode) {
	if m >= types.ModeCount {
		return
	}
	c.modeFSM.SetState(uint8(m))
	c.handler = c.bank.Init(m, c.s)
}

// InMenu reports whether the top machine is in the menu.
func (c *Coordinator) InMenu() bool { return c.TopState() == types.TopMenu }

// Page returns the current menu page; only meaningful while in the menu.
func (c *Coordinator) Page() types.Page { return types.Page(c.menuFSM.State()) }

// Output returns the output bit computed by the active mode handler.
func (c *Coordinator) Output() bool { return c.outputState }

// CVState returns the CV digital level after hysteresis.
func (c *Coordinator) CVState() bool { return c.cv.State() }

// Feedback fills the LED descriptor for this tick.
func (c *Coordinator) Feedback(fb *modes.Feedback) {
	if fb == nil {
		return
	}
	mode := c.Mode()
	c.handler.FillLED(fb)

	fb.Mode = output.ModeColor(mode)
	fb.CurrentMode = mode
	fb.CurrentPage = c.Page()
	fb.InMenu = c.InMenu()

	fb.SettingValue = 0
	fb.SettingCount = 1
	if c.s != nil {
		switch fb.CurrentPage {
		case types.PageGateCV:
			fb.SettingValue, fb.SettingCount = c.s.GateAMode, settings.GateAModeCount
		case types.PageTriggerBehavior:
			fb.SettingValue, fb.SettingCount = c.s.TriggerEdge, settings.TriggerEdgeCount
		case types.PageTriggerPulseLen:
			fb.SettingValue, fb.SettingCount = c.s.TriggerPulseIdx, settings.TriggerPulseCount
		case types.PageToggleBehavior:
			fb.SettingValue, fb.SettingCount = c.s.ToggleEdge, settings.ToggleEdgeCount
		case types.PageDivideDivisor:
			fb.SettingValue, fb.SettingCount = c.s.DivideDivisorIdx, settings.DivideDivisorCount
		case types.PageCyclePattern:
			fb.SettingValue, fb.SettingCount = c.s.CycleTempoIdx, settings.CycleTempoCount
		}
	}
}
