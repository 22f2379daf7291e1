//go:build rp2040

package main

import (
	"machine"
	"time"

	"github.com/soundbytelabs/gatekeeper/hal"
)

// Pin map for the Pico build.
const (
	pinButtonA = machine.GP2
	pinButtonB = machine.GP3
	pinSigOut  = machine.GP4
	pinCV      = machine.GP26 // ADC0
	pixelPin   = machine.GP16
)

// settingsImageSize is the flash image holding the persistent settings:
// one 256-byte page, of which the layout uses at most 0x11 bytes.
const settingsImageSize = 256

// rp2040HAL implements hal.HAL over the machine package. The EEPROM
// contract is backed by a flash page cached in RAM; Sync commits dirty
// bytes from the main loop so a burst of settings writes costs a single
// erase cycle.
type rp2040HAL struct {
	start time.Time
	adc   machine.ADC

	image  [settingsImageSize]byte
	loaded bool
	dirty  bool
}

func newRP2040HAL() *rp2040HAL {
	return &rp2040HAL{start: time.Now()}
}

func (h *rp2040HAL) Pins() hal.Pins {
	return hal.Pins{
		ButtonA:   hal.Pin(pinButtonA),
		ButtonB:   hal.Pin(pinButtonB),
		SigOut:    hal.Pin(pinSigOut),
		Max:       29,
		CVChannel: 0,
	}
}

func (h *rp2040HAL) Init() {
	pinButtonA.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinButtonB.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	pinSigOut.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinSigOut.Low()

	machine.InitADC()
	h.adc = machine.ADC{Pin: pinCV}
	h.adc.Configure(machine.ADCConfig{})

	h.loadImage()
}

func (h *rp2040HAL) SetPin(p hal.Pin)    { machine.Pin(p).High() }
func (h *rp2040HAL) ClearPin(p hal.Pin)  { machine.Pin(p).Low() }
func (h *rp2040HAL) TogglePin(p hal.Pin) { machine.Pin(p).Set(!machine.Pin(p).Get()) }

func (h *rp2040HAL) ReadPin(p hal.Pin) bool { return machine.Pin(p).Get() }

func (h *rp2040HAL) InitTimer() {}

func (h *rp2040HAL) Millis() uint32 {
	return uint32(time.Since(h.start).Milliseconds())
}

func (h *rp2040HAL) DelayMS(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// ADCRead returns the top 8 bits of the 16-bit conversion. The RP2040
// read cannot time out, so the mid-scale fault contract is trivially
// satisfied.
func (h *rp2040HAL) ADCRead(channel uint8) uint8 {
	return uint8(h.adc.Get() >> 8)
}

// ------------------------
// Flash-backed byte store
// ------------------------

func (h *rp2040HAL) loadImage() {
	if h.loaded {
		return
	}
	if _, err := machine.Flash.ReadAt(h.image[:], 0); err != nil {
		// Unreadable flash behaves like an erased store; the loader
		// falls back to defaults.
		for i := range h.image {
			h.image[i] = 0xFF
		}
	}
	h.loaded = true
}

func (h *rp2040HAL) EEPROMReadByte(addr uint16) uint8 {
	if int(addr) >= len(h.image) {
		return 0xFF
	}
	return h.image[addr]
}

func (h *rp2040HAL) EEPROMWriteByte(addr uint16, v uint8) {
	if int(addr) >= len(h.image) {
		return
	}
	if h.image[addr] == v {
		return
	}
	h.image[addr] = v
	h.dirty = true
}

func (h *rp2040HAL) EEPROMReadWord(addr uint16) uint16 {
	return uint16(h.EEPROMReadByte(addr)) | uint16(h.EEPROMReadByte(addr+1))<<8
}

func (h *rp2040HAL) EEPROMWriteWord(addr uint16, v uint16) {
	h.EEPROMWriteByte(addr, uint8(v))
	h.EEPROMWriteByte(addr+1, uint8(v>>8))
}

// Sync commits the cached image to flash when dirty. Called from the
// main loop, outside the settings-save burst.
func (h *rp2040HAL) Sync() {
	if !h.dirty {
		return
	}
	h.dirty = false

	needed := machine.Flash.EraseBlockSize()
	blocks := (int64(len(h.image)) + needed - 1) / needed
	if err := machine.Flash.EraseBlocks(0, blocks); err != nil {
		return
	}
	_, _ = machine.Flash.WriteAt(h.image[:], 0)
}

// ------------------------
// Watchdog
// ------------------------

func (h *rp2040HAL) WatchdogEnable() {
	machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: 250,
	})
	machine.Watchdog.Start()
}

func (h *rp2040HAL) WatchdogReset() { machine.Watchdog.Update() }

func (h *rp2040HAL) WatchdogDisable() {
	// The RP2040 watchdog cannot be stopped once started; stretch the
	// timeout instead so startup code can run long feedback delays.
	machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: 8000,
	})
}
