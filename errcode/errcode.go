package errcode

// Code is a stable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Settings store validation, in check order.
	BadMagic    Code = "bad_magic"
	BadSchema   Code = "bad_schema"
	BadChecksum Code = "bad_checksum"
	OutOfRange  Code = "out_of_range"

	// Startup.
	TimerStalled Code = "timer_stalled"
	WriteFailed  Code = "write_failed"

	// Guard failures (input-domain invalid).
	InvalidPin   Code = "invalid_pin"
	InvalidMode  Code = "invalid_mode"
	InvalidPage  Code = "invalid_page"
	InvalidParam Code = "invalid_param"

	Error Code = "error" // generic fallback
)

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}
