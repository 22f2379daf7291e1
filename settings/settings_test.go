package settings

import (
	"testing"

	"github.com/soundbytelabs/gatekeeper/errcode"
	"github.com/soundbytelabs/gatekeeper/hal"
	"github.com/soundbytelabs/gatekeeper/hal/halmock"
)

var testPins = hal.Pins{ButtonA: 2, ButtonB: 1, SigOut: 0, Max: 5, CVChannel: 2}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := halmock.New(testPins)

	s := Defaults()
	s.Mode = 3
	s.TriggerPulseIdx = 2
	s.CycleTempoIdx = 4
	Save(m, &s)

	got, err := Load(m)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != s {
		t.Fatalf("round trip: got %+v, want %+v", got, s)
	}
}

func TestLayoutOnDisk(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	s.Mode = 1
	Save(m, &s)

	ee := m.EEPROM()
	if ee[0] != 0x4B || ee[1] != 0x47 {
		t.Fatalf("magic bytes %#x %#x, want little-endian GK", ee[0], ee[1])
	}
	if ee[2] != SchemaVersion {
		t.Fatalf("schema byte %d", ee[2])
	}
	if ee[3] != 1 {
		t.Fatalf("mode byte %d, want 1", ee[3])
	}
	if ee[0x10] != s.Checksum() {
		t.Fatalf("checksum %#x, want %#x", ee[0x10], s.Checksum())
	}
}

func TestLoadEmptyStoreFailsOnMagic(t *testing.T) {
	m := halmock.New(testPins)
	if _, err := Load(m); err != errcode.BadMagic {
		t.Fatalf("empty store: got %v, want bad_magic", err)
	}
}

func TestLoadSchemaMismatch(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	Save(m, &s)

	m.EEPROM()[SchemaAddr] = SchemaVersion + 1
	if _, err := Load(m); err != errcode.BadSchema {
		t.Fatalf("schema mismatch: got %v", err)
	}
}

func TestLoadChecksumMismatch(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	s.TriggerPulseIdx = 1
	Save(m, &s)

	// Corrupt one settings byte without fixing the checksum.
	m.EEPROM()[SettingsAddr+1] = 3
	if _, err := Load(m); err != errcode.BadChecksum {
		t.Fatalf("corrupted byte: got %v", err)
	}
}

func TestLoadRangeValidation(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	s.Mode = 9 // out of range but checksummed consistently
	Save(m, &s)

	if _, err := Load(m); err != errcode.OutOfRange {
		t.Fatalf("out-of-range field: got %v", err)
	}
}

func TestReservedFieldUnbounded(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	s.Reserved = 0xAB
	Save(m, &s)

	got, err := Load(m)
	if err != nil {
		t.Fatalf("reserved value rejected: %v", err)
	}
	if got.Reserved != 0xAB {
		t.Fatalf("reserved byte lost: %#x", got.Reserved)
	}
}

func TestIdenticalSaveCausesNoWear(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	Save(m, &s)

	wear := m.EEPROMWrites
	Save(m, &s)
	if m.EEPROMWrites != wear {
		t.Fatalf("identical save wrote %d extra bytes", m.EEPROMWrites-wear)
	}
}

func TestClearInvalidatesMagic(t *testing.T) {
	m := halmock.New(testPins)
	s := Defaults()
	Save(m, &s)
	Clear(m)
	if _, err := Load(m); err != errcode.BadMagic {
		t.Fatalf("after Clear: got %v", err)
	}
}

func TestChecksumIsXOR(t *testing.T) {
	s := Settings{Mode: 1, TriggerPulseIdx: 2, CycleTempoIdx: 4, Reserved: 0x80}
	want := uint8(1 ^ 2 ^ 4 ^ 0x80)
	if got := s.Checksum(); got != want {
		t.Fatalf("checksum %#x, want %#x", got, want)
	}
}

func TestValidateDefaults(t *testing.T) {
	s := Defaults()
	if err := s.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
