// Package sim is the host-side simulator engine: it runs the firmware
// core against a virtual-time HAL, snapshots observable state per tick,
// and fans frames and events out over the bus to renderers and socket
// clients.
package sim

import "github.com/soundbytelabs/gatekeeper/types"

// LEDState is the rendered color of both pixels.
type LEDState struct {
	Mode     types.RGB `json:"mode"`
	Activity types.RGB `json:"activity"`
}

// Frame is one tick's observable state.
type Frame struct {
	TimeMS uint32 `json:"time_ms"`

	ButtonA bool `json:"button_a"`
	ButtonB bool `json:"button_b"`

	CVRaw        uint8  `json:"cv_raw"`
	CVMillivolts uint16 `json:"cv_mv"`
	CVDigital    bool   `json:"cv_digital"`

	Output bool `json:"output"`

	Top    string `json:"top"`
	Mode   string `json:"mode"`
	Page   string `json:"page"`
	InMenu bool   `json:"in_menu"`

	SettingValue uint8 `json:"setting_value"`
	SettingCount uint8 `json:"setting_count"`

	LEDs LEDState `json:"leds"`
}

// EventRecord is one entry in the bounded event log.
type EventRecord struct {
	TimeMS uint32 `json:"time_ms"`
	Kind   string `json:"kind"` // "input", "state", "output"
	Text   string `json:"text"`
}

// eventLogCap bounds the in-memory event ring.
const eventLogCap = 64

// EventLog is a bounded ring of recent simulator events.
type EventLog struct {
	entries [eventLogCap]EventRecord
	next    int
	count   int
}

// Add appends a record, evicting the oldest once full.
func (l *EventLog) Add(rec EventRecord) {
	l.entries[l.next] = rec
	l.next = (l.next + 1) % eventLogCap
	if l.count < eventLogCap {
		l.count++
	}
}

// Recent returns up to n records, newest last.
func (l *EventLog) Recent(n int) []EventRecord {
	if n > l.count {
		n = l.count
	}
	out := make([]EventRecord, 0, n)
	for i := l.count - n; i < l.count; i++ {
		idx := (l.next - l.count + i + 2*eventLogCap) % eventLogCap
		out = append(out, l.entries[idx])
	}
	return out
}
