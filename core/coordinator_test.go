package core

import (
	"testing"

	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/hal/halmock"
	"github.com/soundbytelabs/gatekeeper/settings"
	"github.com/soundbytelabs/gatekeeper/types"
)

var testPins = hal.Pins{ButtonA: 2, ButtonB: 1, SigOut: 0, Max: 5, CVChannel: 2}

type rig struct {
	m *halmock.Mock
	s settings.Settings
	c *Coordinator
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{m: halmock.New(testPins), s: settings.Defaults()}
	r.c = New(r.m, &r.s)
	r.c.SetMode(types.ModeGate)
	r.c.Start()
	// Settle past the boot-time debounce guards.
	r.runFor(10)
	return r
}

// runFor runs one coordinator update per virtual millisecond.
func (r *rig) runFor(ms int) {
	for i := 0; i < ms; i++ {
		r.c.Update()
		r.m.AdvanceTime(1)
	}
}

func (r *rig) pressA()   { r.m.PressButtonA(true) }
func (r *rig) releaseA() { r.m.PressButtonA(false) }
func (r *rig) pressB()   { r.m.PressButtonB(true) }
func (r *rig) releaseB() { r.m.PressButtonB(false) }

// menuToggleGesture performs A hold + B hold with A pressed first.
// Returns with both buttons still held.
func (r *rig) menuToggleGesture() {
	r.pressA()
	r.runFor(100)
	r.pressB()
	r.runFor(560) // B reaches its hold threshold
}

// modeNextGesture performs a solo A hold and release.
func (r *rig) modeNextGesture() {
	r.pressA()
	r.runFor(560)
	r.releaseA()
	r.runFor(50)
}

// menuExitGesture is a solo A hold while in the menu; the exit happens
// at the hold threshold, before the release.
func (r *rig) menuExitGesture() {
	r.pressA()
	r.runFor(560)
	r.releaseA()
	r.runFor(50)
}

func (r *rig) releaseBoth() {
	r.releaseA()
	r.releaseB()
	r.runFor(100)
}

// ------------------------
// Menu toggle
// ------------------------

func TestMenuToggleEntersMenu(t *testing.T) {
	r := newRig(t)
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("not in perform at boot")
	}

	r.menuToggleGesture()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("menu toggle gesture did not enter menu")
	}
}

func TestMenuEntryPageFollowsMode(t *testing.T) {
	cases := []struct {
		mode types.Mode
		page types.Page
	}{
		{types.ModeGate, types.PageGateCV},
		{types.ModeTrigger, types.PageTriggerBehavior},
		{types.ModeToggle, types.PageToggleBehavior},
		{types.ModeDivide, types.PageDivideDivisor},
		{types.ModeCycle, types.PageCyclePattern},
	}
	for _, tc := range cases {
		r := newRig(t)
		r.c.SetMode(tc.mode)
		r.menuToggleGesture()
		if got := r.c.Page(); got != tc.page {
			t.Fatalf("mode %v: entry page %v, want %v", tc.mode, got, tc.page)
		}
		r.releaseBoth()
	}
}

func TestMenuExitsOnAHold(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("not in menu")
	}

	r.releaseBoth()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("menu exited on button release")
	}

	r.menuExitGesture()
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("solo A hold did not exit menu")
	}
}

func TestMenuDoesNotExitOnButtonRelease(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()

	r.releaseA()
	r.runFor(100)
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("menu exited on A release")
	}

	r.releaseB()
	r.runFor(100)
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("menu exited on B release")
	}
}

func TestMenuExitsOnAHoldButNotBHold(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("not in menu")
	}

	// B hold has no effect in the menu.
	r.pressB()
	r.runFor(600)
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("B hold exited the menu")
	}
	r.releaseB()
	r.runFor(100)

	// A hold exits at the threshold, before release.
	r.pressA()
	r.runFor(600)
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("A hold did not exit the menu")
	}
	r.releaseA()
	r.runFor(50)
}

// ------------------------
// Menu timeout
// ------------------------

func TestMenuTimeoutExitsMenu(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("not in menu")
	}

	r.runFor(MenuTimeoutMS + 100)
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("menu did not time out")
	}
}

func TestMenuTimeoutResetsOnActivity(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()

	r.runFor(30000)

	// A tap is activity: it advances the page and rewinds the deadline.
	r.pressA()
	r.runFor(50)
	r.releaseA()
	r.runFor(50)

	r.runFor(40000)
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("timeout not reset by activity")
	}

	r.runFor(25000)
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("menu did not time out after inactivity")
	}
}

// ------------------------
// Mode changes
// ------------------------

func TestModeNextChangesMode(t *testing.T) {
	r := newRig(t)
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("not in gate at boot")
	}

	r.modeNextGesture()
	if r.c.Mode() != types.ModeTrigger {
		t.Fatalf("mode %v, want trigger", r.c.Mode())
	}

	r.modeNextGesture()
	if r.c.Mode() != types.ModeToggle {
		t.Fatalf("mode %v, want toggle", r.c.Mode())
	}
}

func TestModeNextWrapsAround(t *testing.T) {
	r := newRig(t)
	for i := 0; i < int(types.ModeCount); i++ {
		r.modeNextGesture()
	}
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("mode %v after full cycle, want gate", r.c.Mode())
	}
}

func TestModeChangeDoesNotAffectOutput(t *testing.T) {
	r := newRig(t)

	// In gate mode, B drives the output high.
	r.pressB()
	r.runFor(50)
	if !r.c.Output() {
		t.Fatalf("B did not drive gate output")
	}
	r.releaseB()
	r.runFor(50)

	r.modeNextGesture()

	// Trigger mode starts from a fresh context: output low.
	if r.c.Output() {
		t.Fatalf("output survived the mode change")
	}
}

func TestModeCycleEventTiming(t *testing.T) {
	// Solo hold from 100 to 700 advances exactly one mode.
	r := newRig(t)
	r.runFor(90) // align virtual time at 100

	r.pressA()
	r.runFor(600)
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("mode changed before release")
	}
	r.releaseA()
	r.runFor(10)
	if r.c.Mode() != types.ModeTrigger {
		t.Fatalf("mode %v after release, want trigger", r.c.Mode())
	}

	for i := 0; i < 4; i++ {
		r.modeNextGesture()
	}
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("mode %v after five advances, want gate", r.c.Mode())
	}
}

// ------------------------
// Gesture non-interference
// ------------------------

func TestMenuGestureDoesNotTriggerModeChange(t *testing.T) {
	r := newRig(t)
	initial := r.c.Mode()

	r.menuToggleGesture()
	if r.c.Mode() != initial {
		t.Fatalf("menu gesture changed the mode")
	}
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("menu gesture did not enter menu")
	}
	r.releaseBoth()
}

func TestModeGestureDoesNotEnterMenu(t *testing.T) {
	r := newRig(t)
	r.modeNextGesture()
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("mode gesture entered the menu")
	}
	if r.c.Mode() != types.ModeTrigger {
		t.Fatalf("mode gesture did not advance the mode")
	}
}

func TestMenuExitDoesNotChangeMode(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("mode drifted entering menu")
	}

	r.menuExitGesture()
	if r.c.TopState() != types.TopPerform {
		t.Fatalf("not back in perform")
	}
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("menu exit advanced the mode")
	}
}

func TestModeNextStillWorksAfterMenuExit(t *testing.T) {
	// The release swallowed after a hold-exit must not eat the next
	// legitimate mode gesture.
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	r.menuExitGesture()
	if r.c.Mode() != types.ModeGate {
		t.Fatalf("mode changed by exit gesture")
	}

	r.modeNextGesture()
	if r.c.Mode() != types.ModeTrigger {
		t.Fatalf("mode gesture after menu exit did not advance")
	}
}

// ------------------------
// Menu value cycling
// ------------------------

func (r *rig) tapA() {
	r.pressA()
	r.runFor(50)
	r.releaseA()
	r.runFor(50)
}

func (r *rig) tapB() {
	r.pressB()
	r.runFor(50)
	r.releaseB()
	r.runFor(50)
}

func TestMenuValueCyclesTriggerPulse(t *testing.T) {
	r := newRig(t)
	r.c.SetMode(types.ModeTrigger)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.Page() != types.PageTriggerBehavior {
		t.Fatalf("entry page %v", r.c.Page())
	}

	r.tapA()
	if r.c.Page() != types.PageTriggerPulseLen {
		t.Fatalf("page %v after tap, want trigger_pulse_len", r.c.Page())
	}

	if r.s.TriggerPulseIdx != 0 {
		t.Fatalf("initial pulse index %d", r.s.TriggerPulseIdx)
	}
	r.tapB()
	if r.s.TriggerPulseIdx != 1 {
		t.Fatalf("pulse index %d after B tap, want 1", r.s.TriggerPulseIdx)
	}
}

func TestMenuValueWrapsAround(t *testing.T) {
	r := newRig(t)
	r.c.SetMode(types.ModeDivide)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.Page() != types.PageDivideDivisor {
		t.Fatalf("entry page %v", r.c.Page())
	}

	for i := 0; i < int(settings.DivideDivisorCount); i++ {
		r.tapB()
	}
	if r.s.DivideDivisorIdx != 0 {
		t.Fatalf("divisor index %d after full cycle, want 0", r.s.DivideDivisorIdx)
	}
}

func TestMenuPageRingWraps(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	start := r.c.Page()

	for i := 0; i < int(types.PageCount); i++ {
		r.tapA()
	}
	if r.c.Page() != start {
		t.Fatalf("page %v after full ring, want %v", r.c.Page(), start)
	}
}

// ------------------------
// Gate A-button setting
// ------------------------

func TestGateAButtonDisabledByDefault(t *testing.T) {
	r := newRig(t)
	r.pressA()
	r.runFor(50)
	if r.c.Output() {
		t.Fatalf("A drove the output while disabled")
	}
	r.releaseA()
	r.runFor(50)
}

func TestGateAButtonEnabledDrivesOutput(t *testing.T) {
	r := newRig(t)
	r.s.GateAMode = settings.GateAModeManual

	r.pressA()
	r.runFor(50)
	if !r.c.Output() {
		t.Fatalf("A did not drive the gate output")
	}
	r.releaseA()
	r.runFor(50)
	if r.c.Output() {
		t.Fatalf("output stuck after A release")
	}
}

func TestGateAButtonOnlyWorksInGateMode(t *testing.T) {
	r := newRig(t)
	r.s.GateAMode = settings.GateAModeManual
	r.c.SetMode(types.ModeTrigger)

	r.pressA()
	r.runFor(50)
	if r.c.Output() {
		t.Fatalf("A drove the output outside gate mode")
	}
	r.releaseA()
}

// ------------------------
// Output routing
// ------------------------

func TestBSuppressedWhileAHeld(t *testing.T) {
	r := newRig(t)

	// B alone drives the gate output.
	r.pressB()
	r.runFor(20)
	if !r.c.Output() {
		t.Fatalf("B alone did not drive output")
	}
	r.releaseB()
	r.runFor(20)

	// With A down, B is reserved for the compound gesture.
	r.pressA()
	r.runFor(20)
	r.pressB()
	r.runFor(20)
	if r.c.Output() {
		t.Fatalf("B drove output while A was held")
	}
	r.releaseBoth()
}

func TestMenuReservesButtonsButPassesCV(t *testing.T) {
	r := newRig(t)
	r.menuToggleGesture()
	r.releaseBoth()
	if r.c.TopState() != types.TopMenu {
		t.Fatalf("not in menu")
	}

	// Buttons no longer reach the signal path.
	r.pressB()
	r.runFor(20)
	if r.c.Output() {
		t.Fatalf("B drove the output inside the menu")
	}
	r.releaseB()
	r.runFor(20)

	// CV still does (gate mode passes it through).
	r.m.SetADC(testPins.CVChannel, 200)
	r.runFor(20)
	if !r.c.Output() {
		t.Fatalf("CV did not drive the output inside the menu")
	}
	r.m.SetADC(testPins.CVChannel, 0)
	r.runFor(20)
}

// ------------------------
// Menu exit persistence (end-to-end scenario)
// ------------------------

func TestMenuExitPersistsSettings(t *testing.T) {
	r := newRig(t)

	// Enter the menu with the compound gesture, release, then exit via
	// solo A hold; the exit action must write the store.
	r.menuToggleGesture()
	r.releaseBoth()
	r.menuExitGesture()

	if r.c.TopState() != types.TopPerform {
		t.Fatalf("not back in perform")
	}

	if r.m.EEPROMReadWord(settings.MagicAddr) != settings.MagicValue {
		t.Fatalf("settings not persisted on menu exit")
	}
	want := r.s.Checksum()
	if got := r.m.EEPROMReadByte(settings.ChecksumAddr); got != want {
		t.Fatalf("stored checksum %#x, want %#x", got, want)
	}

	// The persisted image round-trips.
	loaded, err := settings.Load(r.m)
	if err != nil {
		t.Fatalf("reload after menu exit: %v", err)
	}
	if loaded != r.s {
		t.Fatalf("reloaded %+v, want %+v", loaded, r.s)
	}
}

func TestMenuExitPersistsChangedValue(t *testing.T) {
	r := newRig(t)
	r.c.SetMode(types.ModeTrigger)

	r.menuToggleGesture()
	r.releaseBoth()
	r.tapA() // trigger pulse length page
	r.tapB() // 10 ms -> 50 ms
	r.menuExitGesture()

	loaded, err := settings.Load(r.m)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.TriggerPulseIdx != 1 {
		t.Fatalf("persisted pulse index %d, want 1", loaded.TriggerPulseIdx)
	}
	if loaded.Mode != uint8(types.ModeTrigger) {
		t.Fatalf("persisted mode %d, want trigger", loaded.Mode)
	}
}

// ------------------------
// CV behavior through the coordinator
// ------------------------

func TestCVHysteresisDrivesGate(t *testing.T) {
	r := newRig(t)

	r.m.SetADC(testPins.CVChannel, 129)
	r.runFor(5)
	if !r.c.CVState() || !r.c.Output() {
		t.Fatalf("CV above threshold did not drive output")
	}

	// Mid-scale holds the level.
	r.m.SetADC(testPins.CVChannel, 128)
	r.runFor(5)
	if !r.c.CVState() {
		t.Fatalf("mid-scale dropped the CV level")
	}

	r.m.SetADC(testPins.CVChannel, 76)
	r.runFor(5)
	if r.c.CVState() || r.c.Output() {
		t.Fatalf("CV below threshold did not release output")
	}
}
