// Package errs defines the sentinel error kinds used throughout tracecore.
//
// The core never panics in production: state-machine violations and
// unsupported-feature cases are logged once via the standard log package and
// turned into no-ops. Attaching to an external device (the GPU adapter's
// Attach) returns an error instead.
package errs

import "errors"

var (
	// ErrUsage marks a caller violation of the recorder's state machine,
	// e.g. LeaveFrame without a matching EnterFrame.
	ErrUsage = errors.New("tracecore: usage error")

	// ErrUnsupported marks an environment that cannot provide a requested
	// feature, e.g. a GPU without timer query support.
	ErrUnsupported = errors.New("tracecore: unsupported")

	// ErrOutOfRange marks a string-table index with no corresponding entry.
	ErrOutOfRange = errors.New("tracecore: index out of range")

	// ErrInvalidInput marks a value that cannot be encoded as JSON for an
	// annotation, timestamp, or time-range value.
	ErrInvalidInput = errors.New("tracecore: invalid input")
)
