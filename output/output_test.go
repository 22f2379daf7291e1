package output

import (
	"testing"

	"github.com/soundbytelabs/gatekeeper/modes"
	"github.com/soundbytelabs/gatekeeper/types"
)

// capture records staged colors without any hardware.
type capture struct {
	colors  [2]types.RGB
	flushes int
}

func (c *capture) SetColor(index int, col types.RGB) {
	if index >= 0 && index < len(c.colors) {
		c.colors[index] = col
	}
}

func (c *capture) Flush() { c.flushes++ }

func TestColorTables(t *testing.T) {
	if ModeColor(types.ModeGate) != (types.RGB{G: 255}) {
		t.Fatalf("gate color %+v", ModeColor(types.ModeGate))
	}
	if ModeColor(types.ModeDivide) != (types.RGB{R: 255, B: 255}) {
		t.Fatalf("divide color %+v", ModeColor(types.ModeDivide))
	}
	if ModeColor(types.Mode(99)) != (types.RGB{}) {
		t.Fatalf("out-of-range mode not dark")
	}

	// Pages inherit their mode's color; global pages are white.
	if PageColor(types.PageTriggerPulseLen) != ModeColor(types.ModeTrigger) {
		t.Fatalf("trigger page color mismatch")
	}
	if PageColor(types.PageCVGlobal) != (types.RGB{R: 255, G: 255, B: 255}) {
		t.Fatalf("global page not white")
	}
}

func TestBlinkTogglesAtHalfPeriod(t *testing.T) {
	var a Animation
	px := &capture{}
	red := types.RGB{R: 255}
	a.Set(AnimBlink, red, 500)

	a.Update(px, 0, 0)
	if px.colors[0] != red {
		t.Fatalf("blink not on at phase start")
	}
	a.Update(px, 0, 250)
	if px.colors[0] != (types.RGB{}) {
		t.Fatalf("blink not off after half period")
	}
	a.Update(px, 0, 500)
	if px.colors[0] != red {
		t.Fatalf("blink not on after full period")
	}
}

func TestGlowTriangleWave(t *testing.T) {
	var a Animation
	px := &capture{}
	a.Set(AnimGlow, types.RGB{R: 255}, 1000)

	a.Update(px, 0, 0)
	if px.colors[0].R != 0 {
		t.Fatalf("glow brightness at phase 0: %d", px.colors[0].R)
	}

	a.Update(px, 0, 500) // phase 127 -> brightness 254
	if px.colors[0].R < 250 {
		t.Fatalf("glow brightness at mid period: %d", px.colors[0].R)
	}

	a.Update(px, 0, 990) // near the end of the ramp down
	if px.colors[0].R > 20 {
		t.Fatalf("glow brightness near period end: %d", px.colors[0].R)
	}
}

func TestScale(t *testing.T) {
	c := Scale(types.RGB{R: 200, G: 100, B: 50}, 128)
	if c.R != 100 || c.G != 50 || c.B != 25 {
		t.Fatalf("Scale got %+v", c)
	}
}

func TestControllerPerformShowsModeColor(t *testing.T) {
	px := &capture{}
	ctrl := NewController(px)

	fb := modes.Feedback{
		CurrentMode:        types.ModeGate,
		Activity:           types.RGB{R: 255, G: 255, B: 255},
		ActivityBrightness: 0,
	}
	ctrl.Update(&fb, 10)

	if px.colors[LEDMode] != ModeColor(types.ModeGate) {
		t.Fatalf("mode LED %+v", px.colors[LEDMode])
	}
	if px.colors[LEDActivity] != (types.RGB{}) {
		t.Fatalf("activity LED %+v, want off", px.colors[LEDActivity])
	}
	if px.flushes == 0 {
		t.Fatalf("controller never flushed")
	}

	// Output on: activity full white.
	fb.ActivityBrightness = 255
	ctrl.Update(&fb, 11)
	if px.colors[LEDActivity] != (types.RGB{R: 255, G: 255, B: 255}) {
		t.Fatalf("activity LED %+v, want white", px.colors[LEDActivity])
	}

	// Partial brightness is scaled.
	fb.ActivityBrightness = 128
	ctrl.Update(&fb, 12)
	if px.colors[LEDActivity].R != 128 {
		t.Fatalf("activity LED %+v, want half white", px.colors[LEDActivity])
	}
}

func TestControllerModeChange(t *testing.T) {
	px := &capture{}
	ctrl := NewController(px)

	fb := modes.Feedback{CurrentMode: types.ModeCycle}
	ctrl.Update(&fb, 5)
	if px.colors[LEDMode] != ModeColor(types.ModeCycle) {
		t.Fatalf("mode LED did not follow mode change")
	}
}

func TestControllerMenuValueEncoding(t *testing.T) {
	px := &capture{}
	ctrl := NewController(px)

	fb := modes.Feedback{
		CurrentMode: types.ModeGate,
		CurrentPage: types.PageGateCV,
		InMenu:      true,
	}

	// Value 0: activity LED off.
	ctrl.Update(&fb, 10)
	if !ctrl.InMenu() {
		t.Fatalf("controller missed menu entry")
	}
	if px.colors[LEDActivity] != (types.RGB{}) {
		t.Fatalf("value 0 activity %+v, want off", px.colors[LEDActivity])
	}

	// Value 1: solid page color.
	fb.SettingValue = 1
	ctrl.Update(&fb, 20)
	if px.colors[LEDActivity] != PageColor(types.PageGateCV) {
		t.Fatalf("value 1 activity %+v", px.colors[LEDActivity])
	}

	// Value 2: blink in page color (on at the seed instant).
	fb.SettingValue = 2
	ctrl.Update(&fb, 30)
	if px.colors[LEDActivity] != PageColor(types.PageGateCV) {
		t.Fatalf("value 2 activity %+v at blink start", px.colors[LEDActivity])
	}
	ctrl.Update(&fb, 30+BlinkPeriodMS/2)
	if px.colors[LEDActivity] != (types.RGB{}) {
		t.Fatalf("value 2 blink never went dark")
	}
}

func TestControllerMenuEnterExit(t *testing.T) {
	px := &capture{}
	ctrl := NewController(px)

	perform := modes.Feedback{CurrentMode: types.ModeTrigger}
	ctrl.Update(&perform, 5)

	// First trigger page blinks; its sibling glows.
	menu := perform
	menu.InMenu = true
	menu.CurrentPage = types.PageTriggerBehavior
	ctrl.Update(&menu, 10)
	if px.colors[LEDMode] != PageColor(types.PageTriggerBehavior) {
		t.Fatalf("page blink not on at entry: %+v", px.colors[LEDMode])
	}

	menu.CurrentPage = types.PageTriggerPulseLen
	ctrl.Update(&menu, 20)
	// Glow at t=20 of a 1000 ms period is nearly dark.
	if px.colors[LEDMode].G > 40 {
		t.Fatalf("second page did not re-seed as glow: %+v", px.colors[LEDMode])
	}

	// Exit restores the solid mode color.
	ctrl.Update(&perform, 30)
	if px.colors[LEDMode] != ModeColor(types.ModeTrigger) {
		t.Fatalf("mode color not restored on exit: %+v", px.colors[LEDMode])
	}
}
