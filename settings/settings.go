// Package settings holds the persistent configuration record, its
// non-volatile layout, and the lookup tables that map stored indices to
// runtime values.
package settings

import (
	"github.com/soundbytelabs/gatekeeper/errcode"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/types"
)

// Non-volatile layout. Total bytes used ≤ 0x11.
const (
	MagicAddr    uint16 = 0x00 // 2 bytes, little-endian
	SchemaAddr   uint16 = 0x02 // 1 byte
	SettingsAddr uint16 = 0x03 // Size bytes
	ChecksumAddr uint16 = 0x10 // 1 byte, XOR over the settings bytes

	// MagicValue is the byte pair "GK".
	MagicValue uint16 = 0x474B

	// SchemaVersion is bumped whenever the record layout changes.
	// Version 2 added the per-mode configuration indices.
	SchemaVersion uint8 = 2

	// Size of the packed record in bytes.
	Size = 8
)

// ------------------------
// Value lookup tables
// ------------------------

// TriggerPulseMS maps the trigger-pulse index to a duration.
var TriggerPulseMS = [...]uint16{10, 50, 100, 1}

const TriggerPulseCount = uint8(len(TriggerPulseMS))

// Trigger edge selection.
const (
	TriggerEdgeRising uint8 = iota
	TriggerEdgeFalling
	TriggerEdgeBoth
	TriggerEdgeCount
)

// DivideDivisors maps the divisor index to a division ratio.
var DivideDivisors = [...]uint8{2, 4, 8, 24}

const DivideDivisorCount = uint8(len(DivideDivisors))

// CyclePeriodMS maps the tempo index to a full-cycle period
// (60000 / BPM for 60, 80, 100, 120, 160 BPM).
var CyclePeriodMS = [...]uint16{1000, 750, 600, 500, 375}

// CycleBPM holds the display BPM for each tempo index.
var CycleBPM = [...]uint8{60, 80, 100, 120, 160}

const CycleTempoCount = uint8(len(CyclePeriodMS))

// Toggle edge selection.
const (
	ToggleEdgeRising uint8 = iota
	ToggleEdgeFalling
	ToggleEdgeCount
)

// Gate mode A-button behavior.
const (
	GateAModeOff uint8 = iota
	GateAModeManual
	GateAModeCount
)

// OutputPulseMS is the pulse length used by divide mode.
const OutputPulseMS = 10

// fieldLimits are the exclusive upper bounds per record field, in field
// order. Zero means no bound (reserved).
var fieldLimits = [Size]uint8{
	uint8(types.ModeCount),
	TriggerPulseCount,
	TriggerEdgeCount,
	DivideDivisorCount,
	CycleTempoCount,
	ToggleEdgeCount,
	GateAModeCount,
	0,
}

// ------------------------
// Record
// ------------------------

// Settings is the persisted configuration record. Each field is a small
// index into one of the lookup tables above; the packed byte order is
// the field order.
type Settings struct {
	Mode             uint8 // types.Mode ordinal
	TriggerPulseIdx  uint8
	TriggerEdge      uint8
	DivideDivisorIdx uint8
	CycleTempoIdx    uint8
	ToggleEdge       uint8
	GateAMode        uint8
	Reserved         uint8
}

// Defaults returns the factory record: all indices zero (gate mode,
// 10 ms pulse, rising edges, /2, 60 BPM, gate-A disabled).
func Defaults() Settings { return Settings{} }

// Bytes packs the record in field order.
func (s *Settings) Bytes() [Size]uint8 {
	return [Size]uint8{
		s.Mode, s.TriggerPulseIdx, s.TriggerEdge, s.DivideDivisorIdx,
		s.CycleTempoIdx, s.ToggleEdge, s.GateAMode, s.Reserved,
	}
}

func fromBytes(b [Size]uint8) Settings {
	return Settings{
		Mode: b[0], TriggerPulseIdx: b[1], TriggerEdge: b[2], DivideDivisorIdx: b[3],
		CycleTempoIdx: b[4], ToggleEdge: b[5], GateAMode: b[6], Reserved: b[7],
	}
}

// Checksum is the XOR of the packed record bytes.
func (s *Settings) Checksum() uint8 {
	var sum uint8
	for _, b := range s.Bytes() {
		sum ^= b
	}
	return sum
}

// Validate checks every bounded field against its exclusive upper bound.
func (s *Settings) Validate() error {
	b := s.Bytes()
	for i, limit := range fieldLimits {
		if limit > 0 && b[i] >= limit {
			return errcode.OutOfRange
		}
	}
	return nil
}

// ------------------------
// Store operations
// ------------------------

// Save writes magic, schema, record and checksum. The HAL's update-style
// writes skip unchanged bytes, so re-saving an identical record causes
// zero wear.
func Save(h hal.HAL, s *Settings) {
	if h == nil || s == nil {
		return
	}
	h.EEPROMWriteWord(MagicAddr, MagicValue)
	h.EEPROMWriteByte(SchemaAddr, SchemaVersion)
	for i, b := range s.Bytes() {
		h.EEPROMWriteByte(SettingsAddr+uint16(i), b)
	}
	h.EEPROMWriteByte(ChecksumAddr, s.Checksum())
}

// Load reads and validates the stored record. The four levels short-
// circuit in order: magic, schema, checksum, field ranges. On failure
// the returned error is the corresponding errcode and the record is the
// zero value.
func Load(h hal.HAL) (Settings, error) {
	if h == nil {
		return Settings{}, errcode.InvalidParam
	}
	if h.EEPROMReadWord(MagicAddr) != MagicValue {
		return Settings{}, errcode.BadMagic
	}
	if h.EEPROMReadByte(SchemaAddr) != SchemaVersion {
		// A migration hook could live here; mismatches fall back to
		// defaults for now.
		return Settings{}, errcode.BadSchema
	}
	var b [Size]uint8
	for i := range b {
		b[i] = h.EEPROMReadByte(SettingsAddr + uint16(i))
	}
	s := fromBytes(b)
	if h.EEPROMReadByte(ChecksumAddr) != s.Checksum() {
		return Settings{}, errcode.BadChecksum
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Clear invalidates the store by erasing the magic word.
func Clear(h hal.HAL) {
	if h == nil {
		return
	}
	h.EEPROMWriteWord(MagicAddr, 0xFFFF)
}
