// Package halmock provides a hal.HAL with virtual time for host-side
// tests and the simulator.
package halmock

import (
	"github.com/soundbytelabs/gatekeeper/hal"
)

// EEPROMSize is the size of the mock byte store. The persistent image
// uses at most 0x11 bytes; the rest stays 0xFF like erased EEPROM.
const EEPROMSize = 64

// Mock implements hal.HAL entirely in memory.
//
// Time is virtual: it advances only through AdvanceTime and DelayMS, so
// tests drive the clock tick by tick. Not safe for concurrent use; the
// core is single-threaded and tests run it from one goroutine.
type Mock struct {
	PinCfg hal.Pins

	now     uint32
	stalled bool // when set, the timer stops advancing (startup failure tests)

	levels [32]bool // pin levels, true = high
	eeprom [EEPROMSize]uint8
	adc    [8]uint8

	// Counters observed by tests.
	EEPROMWrites int
	WatchdogOn   bool
	WatchdogFeed int
}

// New returns a mock with erased EEPROM (all 0xFF), buttons released
// (active-low inputs idle high) and the ADC at 0.
func New(pins hal.Pins) *Mock {
	m := &Mock{PinCfg: pins}
	for i := range m.eeprom {
		m.eeprom[i] = 0xFF
	}
	m.levels[pins.ButtonA] = true
	m.levels[pins.ButtonB] = true
	return m
}

// ------------------------
// Test-side controls
// ------------------------

// AdvanceTime moves the virtual clock forward.
func (m *Mock) AdvanceTime(ms uint32) {
	if !m.stalled {
		m.now += ms
	}
}

// ResetTime rewinds the virtual clock to zero.
func (m *Mock) ResetTime() { m.now = 0 }

// StallTimer freezes the millisecond counter, simulating a dead timer ISR.
func (m *Mock) StallTimer(stalled bool) { m.stalled = stalled }

// PressButtonA drives the active-low button A pin.
func (m *Mock) PressButtonA(pressed bool) { m.levels[m.PinCfg.ButtonA] = !pressed }

// PressButtonB drives the active-low button B pin.
func (m *Mock) PressButtonB(pressed bool) { m.levels[m.PinCfg.ButtonB] = !pressed }

// SetADC sets the value returned for an ADC channel.
func (m *Mock) SetADC(channel, v uint8) { m.adc[channel&7] = v }

// SetPinLevel drives an arbitrary pin level directly.
func (m *Mock) SetPinLevel(p hal.Pin, high bool) { m.levels[p] = high }

// PinLevel reads back a pin level without going through the HAL contract.
func (m *Mock) PinLevel(p hal.Pin) bool { return m.levels[p] }

// EEPROM exposes the raw store for layout assertions.
func (m *Mock) EEPROM() []uint8 { return m.eeprom[:] }

// FillEEPROM overwrites the whole store with v (0xFF = erased).
func (m *Mock) FillEEPROM(v uint8) {
	for i := range m.eeprom {
		m.eeprom[i] = v
	}
}

// ------------------------
// hal.HAL implementation
// ------------------------

func (m *Mock) Init()          {}
func (m *Mock) Pins() hal.Pins { return m.PinCfg }

func (m *Mock) SetPin(p hal.Pin)    { m.levels[p&31] = true }
func (m *Mock) ClearPin(p hal.Pin)  { m.levels[p&31] = false }
func (m *Mock) TogglePin(p hal.Pin) { m.levels[p&31] = !m.levels[p&31] }

func (m *Mock) ReadPin(p hal.Pin) bool { return m.levels[p&31] }

func (m *Mock) InitTimer()     {}
func (m *Mock) Millis() uint32 { return m.now }

// DelayMS advances virtual time, so blocking startup code (factory-reset
// polling) runs to completion inside a test.
func (m *Mock) DelayMS(ms uint32) { m.AdvanceTime(ms) }

func (m *Mock) EEPROMReadByte(addr uint16) uint8 {
	if int(addr) >= len(m.eeprom) {
		return 0xFF
	}
	return m.eeprom[addr]
}

func (m *Mock) EEPROMWriteByte(addr uint16, v uint8) {
	if int(addr) >= len(m.eeprom) {
		return
	}
	// Update semantics: identical writes cause no wear.
	if m.eeprom[addr] == v {
		return
	}
	m.eeprom[addr] = v
	m.EEPROMWrites++
}

func (m *Mock) EEPROMReadWord(addr uint16) uint16 {
	return uint16(m.EEPROMReadByte(addr)) | uint16(m.EEPROMReadByte(addr+1))<<8
}

func (m *Mock) EEPROMWriteWord(addr uint16, v uint16) {
	m.EEPROMWriteByte(addr, uint8(v))
	m.EEPROMWriteByte(addr+1, uint8(v>>8))
}

func (m *Mock) ADCRead(channel uint8) uint8 { return m.adc[channel&7] }

func (m *Mock) WatchdogEnable()  { m.WatchdogOn = true }
func (m *Mock) WatchdogReset()   { m.WatchdogFeed++ }
func (m *Mock) WatchdogDisable() { m.WatchdogOn = false }
