//go:build rp2040

package main

import (
	"machine"
	"strconv"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"github.com/soundbytelabs/gatekeeper/boot"
)

// traceIntervalMS is how often the debug line goes out.
const traceIntervalMS = 1000

// trace emits a one-line state snapshot over UART0 for bench debugging.
type trace struct {
	u    *uartx.UART
	next uint32
}

func newTrace() *trace {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	return &trace{u: u}
}

func (t *trace) emit(now uint32, app *boot.App) {
	if now < t.next {
		return
	}
	t.next = now + traceIntervalMS

	line := "t=" + strconv.FormatUint(uint64(now), 10) +
		" top=" + app.Coord.TopState().String() +
		" mode=" + app.Coord.Mode().String() +
		" out=" + bit(app.Coord.Output()) +
		" cv=" + bit(app.Coord.CVState()) + "\r\n"
	_, _ = t.u.Write([]byte(line))
}

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
