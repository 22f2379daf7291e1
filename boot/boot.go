// Package boot runs the exactly-once bring-up sequence: factory-reset
// detection, settings load-or-default with user-visible feedback, and
// wiring of the coordinator and LED controller before the tick loop.
package boot

import (
	"github.com/soundbytelabs/gatekeeper/core"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/modes"
	"github.com/soundbytelabs/gatekeeper/output"
	"github.com/soundbytelabs/gatekeeper/settings"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Factory-reset timing.
const (
	ResetHoldMS  = 3000 // both buttons held this long from cold boot
	ResetPollMS  = 50   // polling interval while waiting
	ResetBlinkMS = 100  // feedback LED toggle rate while pending

	// Iteration cap bounds the polling loop even if the millisecond
	// timer stops advancing mid-wait.
	resetMaxIterations = ResetHoldMS/ResetPollMS + 20

	defaultsBlinkCount = 2
)

// Result tells the caller how initialization completed.
type Result uint8

const (
	Ok             Result = iota // settings loaded from the store
	OkDefaults                   // store invalid or empty, defaults in use
	OkFactoryReset               // reset performed, defaults written back
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case OkDefaults:
		return "ok_defaults"
	case OkFactoryReset:
		return "ok_factory_reset"
	default:
		return "unknown"
	}
}

// CheckFactoryReset reports whether both buttons were held from cold
// boot for the full hold time. It first verifies the millisecond timer
// is advancing; a stalled timer aborts rather than hanging the device.
func CheckFactoryReset(h hal.HAL) bool {
	t1 := h.Millis()
	h.DelayMS(10)
	if h.Millis() <= t1 {
		return false
	}

	pins := h.Pins()

	// Active-low: a high level means released.
	if h.ReadPin(pins.ButtonA) || h.ReadPin(pins.ButtonB) {
		return false
	}

	start := h.Millis()
	lastBlink := start
	iterations := 0

	for h.Millis()-start < ResetHoldMS && iterations < resetMaxIterations {
		if h.Millis()-lastBlink >= ResetBlinkMS {
			h.TogglePin(pins.SigOut)
			lastBlink = h.Millis()
		}
		if h.ReadPin(pins.ButtonA) || h.ReadPin(pins.ButtonB) {
			h.ClearPin(pins.SigOut)
			return false
		}
		h.DelayMS(ResetPollMS)
		iterations++
	}

	// Held long enough: solid confirmation on the output LED.
	h.SetPin(pins.SigOut)
	h.DelayMS(500)
	h.ClearPin(pins.SigOut)
	return true
}

// defaultsFeedback signals the defaults fall-back: a double pair of
// short blinks on the output LED.
func defaultsFeedback(h hal.HAL) {
	pin := h.Pins().SigOut
	for pair := 0; pair < 2; pair++ {
		for i := 0; i < defaultsBlinkCount; i++ {
			h.SetPin(pin)
			h.DelayMS(100)
			h.ClearPin(pin)
			h.DelayMS(100)
		}
		h.DelayMS(100)
	}
}

// Run performs factory reset handling and settings load-or-default,
// populating s either way.
func Run(h hal.HAL, s *settings.Settings) Result {
	if h == nil || s == nil {
		return OkDefaults
	}

	if CheckFactoryReset(h) {
		settings.Clear(h)
		*s = settings.Defaults()
		settings.Save(h, s)

		// Read the magic back to confirm the write. On failure the
		// device stays up on the in-RAM defaults; the next boot lands
		// on the defaults path again, which is the correct behavior.
		if h.EEPROMReadWord(settings.MagicAddr) != settings.MagicValue {
			for i := 0; i < 10; i++ {
				h.TogglePin(h.Pins().SigOut)
				h.DelayMS(50)
			}
			h.ClearPin(h.Pins().SigOut)
		}
		return OkFactoryReset
	}

	loaded, err := settings.Load(h)
	if err == nil {
		*s = loaded
		return Ok
	}

	*s = settings.Defaults()
	defaultsFeedback(h)
	return OkDefaults
}

// App bundles everything the tick loop needs. It owns the settings
// record so the coordinator's reference stays valid for the device
// lifetime.
type App struct {
	Settings settings.Settings
	Coord    *core.Coordinator
	LEDs     *output.Controller
	Result   Result

	h  hal.HAL
	fb modes.Feedback
}

// Startup runs the bring-up sequence and returns the assembled app:
// HAL and timer init, factory reset / load-or-default, coordinator with
// the persisted mode, LED controller, watchdog on.
func Startup(h hal.HAL, px output.PixelWriter) *App {
	app := &App{h: h}

	h.Init()
	h.InitTimer()

	app.Result = Run(h, &app.Settings)

	app.Coord = core.New(h, &app.Settings)
	app.Coord.SetMode(types.Mode(app.Settings.Mode))
	app.Coord.Start()

	app.LEDs = output.NewController(px)

	h.WatchdogEnable()
	return app
}

// Tick is one main-loop iteration: coordinator, output pin mirror, LED
// render, watchdog feed.
func (a *App) Tick() {
	a.Coord.Update()

	pin := a.h.Pins().SigOut
	if a.Coord.Output() {
		a.h.SetPin(pin)
	} else {
		a.h.ClearPin(pin)
	}

	a.Coord.Feedback(&a.fb)
	a.LEDs.Update(&a.fb, a.h.Millis())

	a.h.WatchdogReset()
}
