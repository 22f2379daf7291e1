// Package output renders the coordinator's LED descriptor onto the
// two-pixel chain: color tables, blink/glow animation, and the feedback
// controller that reacts to menu and mode changes.
package output

import "github.com/soundbytelabs/gatekeeper/types"

// Pixel indices on the chain.
const (
	LEDMode     = 0 // mode color in perform, page color in menu
	LEDActivity = 1 // output state / setting value
)

// PixelWriter is the pixel-chain sink. The core only stages colors;
// the writer owns the serial timing and is expected to skip the flush
// when nothing changed.
type PixelWriter interface {
	SetColor(index int, c types.RGB)
	Flush()
}

// Mode colors, indexed by mode ordinal.
var modeColors = [types.ModeCount]types.RGB{
	{R: 0, G: 255, B: 0},   // gate: green
	{R: 0, G: 128, B: 255}, // trigger: cyan
	{R: 255, G: 64, B: 0},  // toggle: orange
	{R: 255, G: 0, B: 255}, // divide: magenta
	{R: 255, G: 255, B: 0}, // cycle: yellow
}

// Global settings pages show white.
var globalColor = types.RGB{R: 255, G: 255, B: 255}

// pageGlow marks the second page of a group (glow instead of blink).
var pageGlow = [types.PageCount]bool{
	types.PageTriggerPulseLen: true,
	types.PageMenuTimeout:     true,
}

// ModeColor returns the indicator color for a mode; out-of-range modes
// are rendered dark.
func ModeColor(m types.Mode) types.RGB {
	if m >= types.ModeCount {
		return types.RGB{}
	}
	return modeColors[m]
}

// PageColor returns a page's color: the owning mode's color, or white
// for the global pages.
func PageColor(p types.Page) types.RGB {
	if p >= types.PageCount {
		return types.RGB{R: 128, G: 128, B: 128}
	}
	if m, ok := types.ModeForPage(p); ok {
		return modeColors[m]
	}
	return globalColor
}

// PageGlows reports whether a page animates as glow rather than blink.
func PageGlows(p types.Page) bool {
	return p < types.PageCount && pageGlow[p]
}
