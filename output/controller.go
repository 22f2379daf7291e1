package output

import (
	"github.com/soundbytelabs/gatekeeper/modes"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Controller turns the per-tick LED descriptor into colors on the two
// pixels, tracking menu entry/exit, mode changes and page changes so
// animations are re-seeded only when something actually changed.
type Controller struct {
	px PixelWriter

	modeAnim     Animation
	activityAnim Animation

	inMenu  bool
	mode    types.Mode
	page    types.Page
	lastVal uint8 // previous setting value, 0xFF forces a re-pick
}

// NewController binds the controller to a pixel sink and shows the
// initial mode color.
func NewController(px PixelWriter) *Controller {
	c := &Controller{px: px, lastVal: 0xFF}
	c.setMode(0)
	return c
}

// Update consumes one descriptor. Call once per tick, after the
// coordinator has run.
func (c *Controller) Update(fb *modes.Feedback, now uint32) {
	if fb == nil || c.px == nil {
		return
	}

	if fb.InMenu && !c.inMenu {
		c.enterMenu(fb.CurrentPage)
	} else if !fb.InMenu && c.inMenu {
		c.exitMenu()
	}

	if !fb.InMenu && fb.CurrentMode != c.mode {
		c.setMode(fb.CurrentMode)
	}
	if fb.InMenu && fb.CurrentPage != c.page {
		c.setPage(fb.CurrentPage)
	}

	if !c.inMenu {
		// Perform: mode LED shows the steady mode color, activity LED
		// follows the handler's color and brightness.
		c.modeAnim.Update(c.px, LEDMode, now)

		switch fb.ActivityBrightness {
		case 255:
			c.activityAnim.SetStatic(fb.Activity)
		case 0:
			c.activityAnim.SetStatic(types.RGB{})
		default:
			c.activityAnim.SetStatic(Scale(fb.Activity, fb.ActivityBrightness))
		}
		c.activityAnim.Update(c.px, LEDActivity, now)
	} else {
		// Menu: mode LED carries the page animation, activity LED
		// encodes the setting's value index: off, solid, blink, glow.
		c.modeAnim.Update(c.px, LEDMode, now)

		if fb.SettingValue != c.lastVal {
			pageColor := PageColor(c.page)
			c.lastVal = fb.SettingValue
			switch fb.SettingValue {
			case 0:
				c.activityAnim.SetStatic(types.RGB{})
			case 1:
				c.activityAnim.SetStatic(pageColor)
			case 2:
				c.activityAnim.Set(AnimBlink, pageColor, BlinkPeriodMS)
			default:
				c.activityAnim.Set(AnimGlow, pageColor, GlowPeriodMS)
			}
		}
		c.activityAnim.Update(c.px, LEDActivity, now)
	}

	c.px.Flush()
}

func (c *Controller) setMode(m types.Mode) {
	if m >= types.ModeCount {
		m = 0
	}
	c.mode = m
	if !c.inMenu {
		c.modeAnim.SetStatic(ModeColor(m))
	}
}

func (c *Controller) enterMenu(page types.Page) {
	c.inMenu = true
	c.page = page
	c.lastVal = 0xFF
	c.seedPageAnim(page)
}

func (c *Controller) exitMenu() {
	c.inMenu = false
	c.modeAnim.SetStatic(ModeColor(c.mode))
}

func (c *Controller) setPage(page types.Page) {
	if page >= types.PageCount {
		page = 0
	}
	c.page = page
	c.lastVal = 0xFF
	if c.inMenu {
		c.seedPageAnim(page)
	}
}

// seedPageAnim differentiates the pages within a mode group: the first
// page blinks, the second glows.
func (c *Controller) seedPageAnim(page types.Page) {
	color := PageColor(page)
	if PageGlows(page) {
		c.modeAnim.Set(AnimGlow, color, GlowPeriodMS)
	} else {
		c.modeAnim.Set(AnimBlink, color, BlinkPeriodMS)
	}
}

// Flash starts a 200 ms-period blink of the activity LED in the given
// color. The next perform-mode Update, or a setting-value change in the
// menu, replaces it.
func (c *Controller) Flash(color types.RGB) {
	c.activityAnim.Set(AnimBlink, color, 200)
}

// InMenu reports the controller's view of the menu state.
func (c *Controller) InMenu() bool { return c.inMenu }
