//go:build rp2040

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"

	"github.com/soundbytelabs/gatekeeper/types"
)

// pixelChain drives the two WS2812 pixels. Colors are staged per tick
// and only flushed when something changed; the bit-banged transmit
// briefly disables interrupts, so skipping identical frames keeps the
// tick budget safe.
type pixelChain struct {
	ws    ws2812.Device
	buf   [2]color.RGBA
	dirty bool
}

func newPixelChain(pin machine.Pin) *pixelChain {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &pixelChain{ws: ws2812.New(pin), dirty: true}
}

func (p *pixelChain) SetColor(index int, c types.RGB) {
	if index < 0 || index >= len(p.buf) {
		return
	}
	next := color.RGBA{R: c.R, G: c.G, B: c.B}
	if p.buf[index] != next {
		p.buf[index] = next
		p.dirty = true
	}
}

func (p *pixelChain) Flush() {
	if !p.dirty {
		return
	}
	p.dirty = false
	_ = p.ws.WriteColors(p.buf[:])
}
