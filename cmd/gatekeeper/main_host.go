//go:build !rp2040

// Command gatekeeper targets the RP2040; build it with TinyGo:
//
//	tinygo flash -target pico ./cmd/gatekeeper
//
// On the host, use the simulator instead: go run ./cmd/gksim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "gatekeeper is firmware; flash with `tinygo flash -target pico ./cmd/gatekeeper`")
	fmt.Fprintln(os.Stderr, "for host-side work, run the simulator: go run ./cmd/gksim")
	os.Exit(2)
}
