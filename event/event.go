// Package event turns conditioned button and CV states into semantic
// events: presses, taps, holds and the two compound gestures.
package event

import "github.com/soundbytelabs/gatekeeper/x/statusx"

// Event is the single semantic event a tick can produce.
//
// Events are grouped by timing: press events fire immediately on button
// down, tap/release events fire on button up, hold events fire once the
// threshold is reached while still pressed, and compound events are
// recognized from button combinations.
type Event uint8

const (
	None Event = iota

	// Performance events (on press, fast response).
	APress
	BPress
	CVRise
	CVFall

	// Configuration events (on release, deliberate).
	ATap
	ARelease
	BTap
	BRelease

	// Hold events (threshold reached while held).
	AHold
	BHold

	// Compound gestures.
	MenuToggle // A held first, then B reaches its hold threshold
	ModeNext   // solo A hold released with B never touched

	Timeout // synthetic, injected by the coordinator

	Count
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case APress:
		return "a_press"
	case BPress:
		return "b_press"
	case CVRise:
		return "cv_rise"
	case CVFall:
		return "cv_fall"
	case ATap:
		return "a_tap"
	case ARelease:
		return "a_release"
	case BTap:
		return "b_tap"
	case BRelease:
		return "b_release"
	case AHold:
		return "a_hold"
	case BHold:
		return "b_hold"
	case MenuToggle:
		return "menu_toggle"
	case ModeNext:
		return "mode_next"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// HoldThresholdMS is the press duration at which a hold latches.
const HoldThresholdMS = 500

// Status flags.
const (
	epAPressed uint8 = 1 << 0
	epALast    uint8 = 1 << 1
	epAHold    uint8 = 1 << 2
	epBPressed uint8 = 1 << 3
	epBLast    uint8 = 1 << 4
	epBHold    uint8 = 1 << 5
	epCVState  uint8 = 1 << 6
	epCVLast   uint8 = 1 << 7
)

// Extended status flags (separate byte).
const (
	epCompoundFired   uint8 = 1 << 0 // compound gesture already fired this press
	epBTouchedDuringA uint8 = 1 << 1 // B was pressed while A hold was latched
)

// Input is the conditioned state handed to the processor each tick.
type Input struct {
	ButtonA bool // true = pressed
	ButtonB bool
	CVIn    bool // true = high
	Now     uint32
}

// Processor tracks button and CV input states across ticks for edge
// detection and gesture recognition. The zero value is ready to use.
type Processor struct {
	status     uint8
	ext        uint8
	aPressTime uint32
	bPressTime uint32
}

// Reset clears all flags and timestamps.
func (p *Processor) Reset() {
	p.status = 0
	p.ext = 0
	p.aPressTime = 0
	p.bPressTime = 0
}

// Update consumes one tick of input and returns at most one event.
//
// Priority when several become eligible in the same tick: A transitions,
// then B transitions, then the compound rewrite (B hold promoted to
// MenuToggle), then CV edges.
func (p *Processor) Update(in Input) Event {
	ev := None
	now := in.Now

	statusx.Put(&p.status, epAPressed, in.ButtonA)
	statusx.Put(&p.status, epBPressed, in.ButtonB)
	statusx.Put(&p.status, epCVState, in.CVIn)

	// Button A.
	aPressed := statusx.Any(p.status, epAPressed)
	aWasPressed := statusx.Any(p.status, epALast)

	switch {
	case aPressed && !aWasPressed:
		p.aPressTime = now
		statusx.Clr(&p.status, epAHold)
		p.ext &^= epBTouchedDuringA
		ev = APress

	case !aPressed && aWasPressed:
		if statusx.None(p.status, epAHold) {
			ev = ATap
		} else if p.ext&(epBTouchedDuringA|epCompoundFired) == 0 {
			// Solo hold released: mode change. (A menu exit happens on
			// AHold; the coordinator swallows the ModeNext that follows.)
			ev = ModeNext
		} else {
			ev = ARelease
		}
		statusx.Clr(&p.status, epAHold)

	case aPressed && statusx.None(p.status, epAHold):
		if now-p.aPressTime >= HoldThresholdMS {
			statusx.Set(&p.status, epAHold)
			// Emit only for solo holds; with B down the latch is kept
			// silent so the compound gesture stays distinguishable.
			if statusx.None(p.status, epBPressed) {
				ev = AHold
			}
		}
	}

	// Button B.
	bPressed := statusx.Any(p.status, epBPressed)
	bWasPressed := statusx.Any(p.status, epBLast)

	switch {
	case bPressed && !bWasPressed:
		p.bPressTime = now
		statusx.Clr(&p.status, epBHold)
		// A B press during a latched A hold cancels the solo gesture.
		if statusx.Any(p.status, epAHold) {
			p.ext |= epBTouchedDuringA
		}
		if ev == None {
			ev = BPress
		}

	case !bPressed && bWasPressed:
		if ev == None {
			if statusx.None(p.status, epBHold) {
				ev = BTap
			} else {
				ev = BRelease
			}
		}
		statusx.Clr(&p.status, epBHold)

	case bPressed && statusx.None(p.status, epBHold):
		if now-p.bPressTime >= HoldThresholdMS {
			statusx.Set(&p.status, epBHold)
			if ev == None {
				ev = BHold
			}
		}
	}

	// Compound: B just reached hold while A is down and A was pressed
	// strictly first. Fires once per gesture.
	if p.ext&epCompoundFired == 0 {
		if ev == BHold && statusx.Any(p.status, epAPressed) && p.aPressTime < p.bPressTime {
			ev = MenuToggle
			p.ext |= epCompoundFired
		}
	}
	if !aPressed && !bPressed {
		p.ext &^= epCompoundFired
	}

	// CV edges, lowest priority.
	cvHigh := statusx.Any(p.status, epCVState)
	cvWasHigh := statusx.Any(p.status, epCVLast)
	if ev == None {
		if cvHigh && !cvWasHigh {
			ev = CVRise
		} else if !cvHigh && cvWasHigh {
			ev = CVFall
		}
	}

	statusx.Put(&p.status, epALast, aPressed)
	statusx.Put(&p.status, epBLast, bPressed)
	statusx.Put(&p.status, epCVLast, cvHigh)

	return ev
}

// APressed reports whether button A is currently pressed.
func (p *Processor) APressed() bool { return statusx.Any(p.status, epAPressed) }

// BPressed reports whether button B is currently pressed.
func (p *Processor) BPressed() bool { return statusx.Any(p.status, epBPressed) }

// AHolding reports whether the A hold threshold has been reached.
func (p *Processor) AHolding() bool { return statusx.Any(p.status, epAHold) }

// BHolding reports whether the B hold threshold has been reached.
func (p *Processor) BHolding() bool { return statusx.Any(p.status, epBHold) }

// CompoundFired reports whether the compound gesture latch is set.
func (p *Processor) CompoundFired() bool { return p.ext&epCompoundFired != 0 }
