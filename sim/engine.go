package sim

import (
	"sync"

	"github.com/soundbytelabs/gatekeeper/boot"
	"github.com/soundbytelabs/gatekeeper/bus"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/hal/halmock"
	"github.com/soundbytelabs/gatekeeper/input"
	"github.com/soundbytelabs/gatekeeper/modes"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Bus topics published by the engine.
var (
	TopicFrame = bus.T("sim", "frame") // retained, one Frame per tick batch
	TopicEvent = bus.T("sim", "event") // EventRecord per observed change
)

// DefaultPins mirrors the reference hardware's pin map.
var DefaultPins = hal.Pins{
	ButtonA:   2,
	ButtonB:   1,
	SigOut:    0,
	Max:       5,
	CVChannel: 2,
}

// CapturePixels is the simulator's pixel sink: it just records the two
// staged colors.
type CapturePixels struct {
	colors [2]types.RGB
}

func (p *CapturePixels) SetColor(index int, c types.RGB) {
	if index >= 0 && index < len(p.colors) {
		p.colors[index] = c
	}
}

func (p *CapturePixels) Flush() {}

// Colors returns the currently staged pixel colors.
func (p *CapturePixels) Colors() (mode, activity types.RGB) {
	return p.colors[0], p.colors[1]
}

// Engine runs the firmware core under virtual time. All entry points
// are safe for concurrent use; the socket server and the TUI drive the
// same engine.
type Engine struct {
	mu sync.Mutex

	H   *halmock.Mock
	App *boot.App
	CV  CVSource
	Pix *CapturePixels

	conn *bus.Connection
	log  EventLog

	buttonA bool
	buttonB bool

	last    Frame
	started bool
	quit    bool
}

// New boots the core against a fresh mock HAL. The bus connection may
// be nil for tests that only poke the engine directly.
func New(b *bus.Bus) *Engine {
	e := &Engine{
		H:   halmock.New(DefaultPins),
		Pix: &CapturePixels{},
	}
	if b != nil {
		e.conn = b.NewConnection("engine")
	}
	e.App = boot.Startup(e.H, e.Pix)
	e.started = true
	e.snapshot()
	return e
}

// TickMS advances the simulation by n virtual milliseconds, one core
// tick per millisecond, then publishes the resulting frame.
func (e *Engine) TickMS(n uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := uint32(0); i < n; i++ {
		e.H.SetADC(DefaultPins.CVChannel, e.CV.Sample(e.H.Millis()))
		e.App.Tick()
		e.H.AdvanceTime(1)
		e.observe()
	}

	if e.conn != nil {
		frame := e.last
		e.conn.Publish(TopicFrame, &frame, true)
	}
}

// observe diffs the new frame against the previous one and logs changes.
func (e *Engine) observe() {
	prev := e.last
	e.snapshot()
	cur := e.last

	if cur.ButtonA != prev.ButtonA {
		e.addEvent("input", "button A "+pressedStr(cur.ButtonA))
	}
	if cur.ButtonB != prev.ButtonB {
		e.addEvent("input", "button B "+pressedStr(cur.ButtonB))
	}
	if cur.Top != prev.Top {
		e.addEvent("state", "top -> "+cur.Top)
	}
	if cur.Mode != prev.Mode {
		e.addEvent("state", "mode -> "+cur.Mode)
	}
	if cur.InMenu && cur.Page != prev.Page {
		e.addEvent("state", "page -> "+cur.Page)
	}
	if cur.Output != prev.Output {
		e.addEvent("output", "output "+onStr(cur.Output))
	}
}

func (e *Engine) snapshot() {
	c := e.App.Coord
	mode, activity := e.Pix.Colors()
	raw := e.H.ADCRead(DefaultPins.CVChannel)

	fb := Frame{
		TimeMS:       e.H.Millis(),
		ButtonA:      e.buttonA,
		ButtonB:      e.buttonB,
		CVRaw:        raw,
		CVMillivolts: input.ADCToMillivolts(raw),
		CVDigital:    c.CVState(),
		Output:       c.Output(),
		Top:          c.TopState().String(),
		Mode:         c.Mode().String(),
		Page:         c.Page().String(),
		InMenu:       c.InMenu(),
		LEDs:         LEDState{Mode: mode, Activity: activity},
	}
	fb.SettingValue, fb.SettingCount = e.settingForPage()
	e.last = fb
}

func (e *Engine) settingForPage() (uint8, uint8) {
	var fb modes.Feedback
	e.App.Coord.Feedback(&fb)
	return fb.SettingValue, fb.SettingCount
}

func (e *Engine) addEvent(kind, text string) {
	rec := EventRecord{TimeMS: e.H.Millis(), Kind: kind, Text: text}
	e.log.Add(rec)
	if e.conn != nil {
		e.conn.Publish(TopicEvent, rec, false)
	}
}

// ------------------------
// Inputs
// ------------------------

// SetButtonA drives the simulated button A.
func (e *Engine) SetButtonA(pressed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buttonA = pressed
	e.H.PressButtonA(pressed)
}

// SetButtonB drives the simulated button B.
func (e *Engine) SetButtonB(pressed bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buttonB = pressed
	e.H.PressButtonB(pressed)
}

// SetCVManual holds the CV at a fixed ADC level.
func (e *Engine) SetCVManual(v uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CV.SetManual(v)
}

// SetCVGate switches the CV between 0 and full scale.
func (e *Engine) SetCVGate(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CV.SetGate(on)
}

// TriggerCV emits a short CV impulse.
func (e *Engine) TriggerCV() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CV.Trigger(e.H.Millis())
}

// SetCVLFO starts a CV oscillator.
func (e *Engine) SetCVLFO(freqHz float64, shape CVShape, lo, hi uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.CV.SetLFO(freqHz, shape, lo, hi)
}

// Reset rewinds virtual time and reboots the core, keeping the EEPROM
// contents so persisted settings survive like a power cycle.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.H.ResetTime()
	e.buttonA = false
	e.buttonB = false
	e.H.PressButtonA(false)
	e.H.PressButtonB(false)
	e.App = boot.Startup(e.H, e.Pix)
	e.snapshot()
}

// Quit marks the engine stopped; drivers poll Quitting.
func (e *Engine) Quit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quit = true
}

// Quitting reports whether Quit was called.
func (e *Engine) Quitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quit
}

// Frame returns a copy of the latest frame.
func (e *Engine) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Events returns up to n recent event records.
func (e *Engine) Events(n int) []EventRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log.Recent(n)
}

func pressedStr(p bool) string {
	if p {
		return "pressed"
	}
	return "released"
}

func onStr(on bool) string {
	if on {
		return "high"
	}
	return "low"
}
