package sim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

// Script is a parsed input script. Line format:
//
//	# comment
//	<delay_ms> <action> [target] [value]
//	@<abs_ms>  <action> [target] [value]
//
// Actions: press, release, cv, assert, log, quit.
// Targets for press/release: a, b, cv. Assert targets: output, cv,
// top, mode, page.
type Script struct {
	Steps []Step
}

// Step is one scheduled script action.
type Step struct {
	Line     int
	AtMS     uint32
	Absolute bool
	Action   string
	Target   string
	Value    string
}

// ParseScript reads a script, tokenizing each line with shlex so quoted
// log messages survive.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tokens, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(tokens) < 2 {
			return nil, fmt.Errorf("line %d: want <time> <action> ...", lineNo)
		}

		step := Step{Line: lineNo, Action: tokens[1]}
		timeTok := tokens[0]
		if strings.HasPrefix(timeTok, "@") {
			step.Absolute = true
			timeTok = timeTok[1:]
		}
		at, err := strconv.ParseUint(timeTok, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad time %q", lineNo, tokens[0])
		}
		step.AtMS = uint32(at)

		if len(tokens) > 2 {
			step.Target = tokens[2]
		}
		if len(tokens) > 3 {
			step.Value = tokens[3]
		}

		switch step.Action {
		case "press", "release", "cv", "assert", "log", "quit":
		default:
			return nil, fmt.Errorf("line %d: unknown action %q", lineNo, step.Action)
		}
		s.Steps = append(s.Steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logf receives script progress lines.
type Logf func(timeMS uint32, format string, args ...any)

// Run executes the script against an engine, advancing virtual time
// between steps. Assert failures abort with an error naming the line.
func (s *Script) Run(e *Engine, logf Logf) error {
	if logf == nil {
		logf = func(uint32, string, ...any) {}
	}

	for _, step := range s.Steps {
		now := e.Frame().TimeMS
		target := step.AtMS
		if !step.Absolute {
			target = now + step.AtMS
		}
		if target > now {
			e.TickMS(target - now)
		}

		if err := s.apply(e, step, logf); err != nil {
			return err
		}
		if e.Quitting() {
			break
		}
	}
	return nil
}

func (s *Script) apply(e *Engine, step Step, logf Logf) error {
	now := e.Frame().TimeMS

	switch step.Action {
	case "press", "release":
		pressed := step.Action == "press"
		switch step.Target {
		case "a":
			e.SetButtonA(pressed)
		case "b":
			e.SetButtonB(pressed)
		case "cv":
			e.SetCVGate(pressed)
		default:
			return fmt.Errorf("line %d: unknown target %q", step.Line, step.Target)
		}

	case "cv":
		v, err := strconv.ParseUint(step.Target, 10, 8)
		if err != nil {
			return fmt.Errorf("line %d: bad cv value %q", step.Line, step.Target)
		}
		e.SetCVManual(uint8(v))

	case "assert":
		frame := e.Frame()
		var got string
		switch step.Target {
		case "output":
			got = boolBit(frame.Output)
		case "cv":
			got = boolBit(frame.CVDigital)
		case "top":
			got = frame.Top
		case "mode":
			got = frame.Mode
		case "page":
			got = frame.Page
		default:
			return fmt.Errorf("line %d: unknown assert target %q", step.Line, step.Target)
		}
		if got != step.Value {
			return fmt.Errorf("line %d: assert %s: want %q, got %q (t=%d ms)",
				step.Line, step.Target, step.Value, got, now)
		}
		logf(now, "assert %s == %s ok", step.Target, step.Value)

	case "log":
		msg := step.Target
		if step.Value != "" {
			msg += " " + step.Value
		}
		logf(now, "%s", msg)

	case "quit":
		e.Quit()
	}
	return nil
}

func boolBit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
