// Package terrors defines the error taxonomy shared by the engine packages.
//
// Every public operation surfaces failures by wrapping one of the sentinel
// kinds below, so callers can classify with errors.Is without depending on
// message text. Invariant violations are programmer errors: they are logged
// through the reporter hook and abort the current operation.
package terrors

import (
	"errors"
	"fmt"

	"github.com/banshee-data/trajectory.engine/internal/monitoring"
)

// Sentinel error kinds. Wrap with fmt.Errorf("%w: ...", kind).
var (
	// ErrInvalidArg marks nil, empty or malformed input at a public boundary.
	ErrInvalidArg = errors.New("invalid argument")

	// ErrMixedDimensions marks 2D/3D, geodetic/planar or SRID mismatches.
	ErrMixedDimensions = errors.New("mixed dimensionality")

	// ErrTypeMismatch marks a binary operation across incompatible base types.
	ErrTypeMismatch = errors.New("operand type mismatch")

	// ErrInvariant marks an internally inconsistent value observed after
	// construction. Not recoverable.
	ErrInvariant = errors.New("invariant violation")

	// ErrNotContiguous marks a strict union of disjoint spans.
	ErrNotContiguous = errors.New("result is not contiguous")

	// ErrCancelled marks cooperative cancellation of a long-running operation.
	ErrCancelled = errors.New("operation cancelled")

	// ErrOverflow marks integer span construction that would wrap.
	ErrOverflow = errors.New("integer overflow")
)

// Logf is the reporter hook for invariant breaks. It defaults to the
// monitoring package's diagnostic logger but may be replaced by SetReporter.
// Tests can redirect or mute it.
var Logf func(format string, v ...interface{}) = func(format string, v ...interface{}) {
	monitoring.Logf(format, v...)
}

// SetReporter replaces the reporter. Passing nil installs a no-op reporter.
func SetReporter(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Invariant reports an invariant violation through the reporter and returns
// an error wrapping ErrInvariant. The caller must abort the operation.
func Invariant(code, format string, v ...interface{}) error {
	msg := fmt.Sprintf(format, v...)
	Logf("invariant violation [%s]: %s", code, msg)
	return fmt.Errorf("%w [%s]: %s", ErrInvariant, code, msg)
}
