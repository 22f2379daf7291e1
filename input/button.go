// Package input conditions the raw hardware inputs: button debouncing
// and CV hysteresis.
package input

import (
	"github.com/soundbytelabs/gatekeeper/errcode"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/x/statusx"
)

// EdgeDebounceMS is the per-edge debounce guard. Each edge direction has
// its own timer, so a clean release immediately after a clean press is
// never suppressed by the press's guard.
const EdgeDebounceMS = 5

// Button status flags.
const (
	btnRaw     uint8 = 1 << 0 // raw sample (inverted: true = pressed)
	btnPressed uint8 = 1 << 1 // debounced pressed
	btnLast    uint8 = 1 << 2 // previous cycle's debounced pressed
	btnRise    uint8 = 1 << 3 // rising edge this tick
	btnFall    uint8 = 1 << 4 // falling edge this tick

	// Legacy multi-tap config gesture bits. Retired; kept so the status
	// byte layout stays compatible with stored diagnostics.
	btnCounting uint8 = 1 << 5
	btnConfig   uint8 = 1 << 6
)

// Button converts a raw active-low pin sample into a debounced
// pressed/released state with single-tick edge flags.
type Button struct {
	h   hal.HAL
	pin hal.Pin

	status   uint8
	lastRise uint32
	lastFall uint32
}

// NewButton binds a button to a pin. The pin must be within the HAL's
// valid range.
func NewButton(h hal.HAL, pin hal.Pin) (Button, error) {
	if h == nil {
		return Button{}, errcode.InvalidParam
	}
	if pin > h.Pins().Max {
		return Button{}, errcode.InvalidPin
	}
	return Button{h: h, pin: pin}, nil
}

// Reset clears all state and edge timers.
func (b *Button) Reset() {
	b.status = 0
	b.lastRise = 0
	b.lastFall = 0
}

// Update samples the pin and refreshes the debounced state. Call once
// per tick. Rising and falling edge flags are valid until the next call
// and are mutually exclusive within one tick.
func (b *Button) Update(now uint32) {
	if b.h == nil {
		return
	}

	// Active-low: pressed reads as electrical low.
	statusx.Put(&b.status, btnRaw, !b.h.ReadPin(b.pin))
	statusx.Clr(&b.status, btnRise|btnFall)

	// Rising edge: raw pressed, debounced state was released, and the
	// per-edge guard has elapsed.
	if statusx.Any(b.status, btnRaw) && statusx.None(b.status, btnLast) {
		if now-b.lastRise >= EdgeDebounceMS {
			b.lastRise = now
			statusx.Set(&b.status, btnRise|btnPressed)
		}
	}

	// Falling edge, symmetric with its own guard.
	if statusx.None(b.status, btnRaw) && statusx.Any(b.status, btnLast) {
		if now-b.lastFall >= EdgeDebounceMS {
			b.lastFall = now
			statusx.Set(&b.status, btnFall)
			statusx.Clr(&b.status, btnPressed)
		}
	}

	statusx.Put(&b.status, btnLast, statusx.Any(b.status, btnPressed))
}

// Pressed reports the debounced state.
func (b *Button) Pressed() bool { return statusx.Any(b.status, btnPressed) }

// RisingEdge reports a press edge detected by the last Update.
func (b *Button) RisingEdge() bool { return statusx.Any(b.status, btnRise) }

// FallingEdge reports a release edge detected by the last Update.
func (b *Button) FallingEdge() bool { return statusx.Any(b.status, btnFall) }
