package output

import (
	"github.com/soundbytelabs/gatekeeper/types"
	"github.com/soundbytelabs/gatekeeper/x/mathx"
)

// AnimType selects the animation applied to one LED.
type AnimType uint8

const (
	AnimNone AnimType = iota // static color
	AnimBlink
	AnimGlow
)

// Default animation periods.
const (
	BlinkPeriodMS = 500
	GlowPeriodMS  = 1000
)

// Animation is the per-LED animation state.
type Animation struct {
	typ        AnimType
	base       types.RGB
	periodMS   uint16
	lastUpdate uint32
	phase      uint8
	on         bool
}

// Set starts an animation with the given base color and period.
func (a *Animation) Set(typ AnimType, color types.RGB, periodMS uint16) {
	a.typ = typ
	a.base = color
	if periodMS == 0 {
		periodMS = BlinkPeriodMS
	}
	a.periodMS = periodMS
	a.phase = 0
	a.on = true
}

// SetStatic shows a steady color.
func (a *Animation) SetStatic(color types.RGB) {
	a.typ = AnimNone
	a.base = color
}

// Stop turns the LED off.
func (a *Animation) Stop(px PixelWriter, index int) {
	a.typ = AnimNone
	a.base = types.RGB{}
	if px != nil {
		px.SetColor(index, types.RGB{})
	}
}

// Scale multiplies each channel by brightness/255.
func Scale(c types.RGB, brightness uint8) types.RGB {
	return types.RGB{
		R: mathx.Scale8(c.R, brightness),
		G: mathx.Scale8(c.G, brightness),
		B: mathx.Scale8(c.B, brightness),
	}
}

// Update advances the animation and stages the resulting color.
func (a *Animation) Update(px PixelWriter, index int, now uint32) {
	if px == nil {
		return
	}
	switch a.typ {
	case AnimBlink:
		// Toggle at half-period intervals.
		half := uint32(a.periodMS / 2)
		if now-a.lastUpdate >= half {
			a.lastUpdate = now
			a.on = !a.on
		}
		if a.on {
			px.SetColor(index, a.base)
		} else {
			px.SetColor(index, types.RGB{})
		}

	case AnimGlow:
		// Triangle wave: phase 0..127 ramps up, 128..255 ramps down.
		phaseTime := now % uint32(a.periodMS)
		a.phase = uint8(phaseTime * 255 / uint32(a.periodMS))
		var brightness uint8
		if a.phase < 128 {
			brightness = a.phase * 2
		} else {
			brightness = (255 - a.phase) * 2
		}
		px.SetColor(index, Scale(a.base, brightness))

	default:
		px.SetColor(index, a.base)
	}
}
