package types

// ------------------------
// FSM hierarchy vocabulary
// ------------------------

// TopState selects between normal operation and configuration.
type TopState uint8

const (
	TopPerform TopState = iota // process signals
	TopMenu                    // adjust settings
	TopStateCount
)

// Mode is the active signal-processing mode. Persists across menu
// entry/exit and power cycles.
type Mode uint8

const (
	ModeGate    Mode = iota // output follows input
	ModeTrigger             // edge produces fixed-length pulse
	ModeToggle              // each configured input edge flips output
	ModeDivide              // pulse every N input edges
	ModeCycle               // free-running internal clock
	ModeCount
)

// Page is one settings page in the flat menu ring. A:tap advances the
// page, B:tap cycles the value on the current page.
type Page uint8

const (
	PageGateCV Page = iota
	PageTriggerBehavior
	PageTriggerPulseLen
	PageToggleBehavior
	PageDivideDivisor
	PageCyclePattern
	PageCVGlobal
	PageMenuTimeout
	PageCount
)

// StartPage maps the active mode to the first menu page relevant to it,
// for context-aware menu entry.
func (m Mode) StartPage() Page {
	switch m {
	case ModeGate:
		return PageGateCV
	case ModeTrigger:
		return PageTriggerBehavior
	case ModeToggle:
		return PageToggleBehavior
	case ModeDivide:
		return PageDivideDivisor
	case ModeCycle:
		return PageCyclePattern
	default:
		return PageGateCV
	}
}

func (m Mode) String() string {
	switch m {
	case ModeGate:
		return "gate"
	case ModeTrigger:
		return "trigger"
	case ModeToggle:
		return "toggle"
	case ModeDivide:
		return "divide"
	case ModeCycle:
		return "cycle"
	default:
		return "unknown"
	}
}

func (t TopState) String() string {
	if t == TopMenu {
		return "menu"
	}
	return "perform"
}

func (p Page) String() string {
	switch p {
	case PageGateCV:
		return "gate_cv"
	case PageTriggerBehavior:
		return "trigger_behavior"
	case PageTriggerPulseLen:
		return "trigger_pulse_len"
	case PageToggleBehavior:
		return "toggle_behavior"
	case PageDivideDivisor:
		return "divide_divisor"
	case PageCyclePattern:
		return "cycle_pattern"
	case PageCVGlobal:
		return "cv_global"
	case PageMenuTimeout:
		return "menu_timeout"
	default:
		return "unknown"
	}
}

// ModeForPage reports which mode's settings a page belongs to, or
// (0, false) for the global pages.
func ModeForPage(p Page) (Mode, bool) {
	switch p {
	case PageGateCV:
		return ModeGate, true
	case PageTriggerBehavior, PageTriggerPulseLen:
		return ModeTrigger, true
	case PageToggleBehavior:
		return ModeToggle, true
	case PageDivideDivisor:
		return ModeDivide, true
	case PageCyclePattern:
		return ModeCycle, true
	default:
		return 0, false
	}
}
