//go:build rp2040

// Command gatekeeper: firmware entry point for the RP2040 build.
//
// Build/flash (TinyGo):
//
//	tinygo flash -target pico ./cmd/gatekeeper
//
// Wiring assumptions (edit pin constants in hal_rp2040.go as needed):
//   - Button A on GP2, button B on GP3, both to ground (internal pull-ups).
//   - Signal out on GP4 (drives the output jack buffer and output LED).
//   - CV input on GP26 / ADC0, 0-5 V scaled to 0-3.3 V externally.
//   - Two WS2812 pixels chained on GP16.
//   - Optional debug trace on UART0 (GP0 TX) at 115200 baud.
package main

import (
	"time"

	"github.com/soundbytelabs/gatekeeper/boot"
)

func main() {
	// Let USB settle before anything prints.
	time.Sleep(2 * time.Second)

	h := newRP2040HAL()
	px := newPixelChain(pixelPin)

	app := boot.Startup(h, px)
	println("gatekeeper:", app.Result.String(), "mode", int(app.Settings.Mode))

	trace := newTrace()

	for {
		app.Tick()
		h.Sync()
		trace.emit(h.Millis(), app)
		time.Sleep(time.Millisecond)
	}
}
