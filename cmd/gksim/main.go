// Command gksim runs the Gatekeeper core on the host: an interactive
// TUI by default, or headless script / NDJSON modes for CI and external
// tooling. A Unix-socket NDJSON command server can be enabled alongside
// any mode.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soundbytelabs/gatekeeper/bus"
	"github.com/soundbytelabs/gatekeeper/sim"
)

func main() {
	scriptPath := flag.String("script", "", "run a script file instead of interactive mode")
	jsonStream := flag.Bool("json", false, "stream one frame object per interval (NDJSON)")
	batch := flag.Bool("batch", false, "plain text event output (for CI/scripts)")
	socketPath := flag.String("socket", "", "enable socket server on the given path")
	socketOn := flag.Bool("socket-default", false, "enable socket server on "+sim.SocketDefaultPath)
	flag.Parse()

	b := bus.New(64)
	engine := sim.New(b)

	if *socketOn && *socketPath == "" {
		*socketPath = sim.SocketDefaultPath
	}
	if *socketPath != "" {
		srv, err := sim.ListenSocket(engine, *socketPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "socket: %v\n", err)
			os.Exit(1)
		}
		defer srv.Close()
	}

	switch {
	case *scriptPath != "":
		os.Exit(runScript(engine, *scriptPath))
	case *jsonStream:
		runJSON(engine)
	case *batch:
		runBatch(b, engine)
	default:
		runTUI(engine)
	}
}

func runScript(engine *sim.Engine, path string) int {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "script: %v\n", err)
		return 1
	}
	defer f.Close()

	script, err := sim.ParseScript(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "script: %v\n", err)
		return 1
	}

	logf := func(timeMS uint32, format string, args ...any) {
		fmt.Printf("[%8d ms] ", timeMS)
		fmt.Printf(format, args...)
		fmt.Println()
	}
	if err := script.Run(engine, logf); err != nil {
		fmt.Fprintf(os.Stderr, "script: %v\n", err)
		return 1
	}
	return 0
}

// runJSON emits the latest frame every interval, advancing virtual time
// in lockstep with the wall clock.
func runJSON(engine *sim.Engine) {
	enc := json.NewEncoder(os.Stdout)
	const stepMS = 20
	for !engine.Quitting() {
		engine.TickMS(stepMS)
		frame := engine.Frame()
		if err := enc.Encode(&frame); err != nil {
			return
		}
		time.Sleep(stepMS * time.Millisecond)
	}
}

// runBatch prints event lines as they happen.
func runBatch(b *bus.Bus, engine *sim.Engine) {
	conn := b.NewConnection("batch")
	events := conn.Subscribe(sim.TopicEvent)
	defer conn.Disconnect()

	go func() {
		for msg := range events.Channel() {
			if rec, ok := msg.Payload.(sim.EventRecord); ok {
				fmt.Printf("[%8d ms] %-6s %s\n", rec.TimeMS, rec.Kind, rec.Text)
			}
		}
	}()

	const stepMS = 20
	for !engine.Quitting() {
		engine.TickMS(stepMS)
		time.Sleep(stepMS * time.Millisecond)
	}
}

func runTUI(engine *sim.Engine) {
	p := tea.NewProgram(newModel(engine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		os.Exit(1)
	}
}
