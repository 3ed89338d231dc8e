// SPDX-License-Identifier: MPL-2.0

package issue

import "fmt"

// Status classifies the result of one discovery, merge, or patch step.
type Status int

const (
	// StatusOk marks a step that completed and contributed work.
	StatusOk Status = iota
	// StatusSkipped marks a step that was a no-op, with a reason
	// (missing directory, already-scanned root, nothing recorded).
	StatusSkipped
	// StatusFatal marks a step that failed and must abort the operation.
	StatusFatal
)

// Outcome is the explicit step result used across discovery, merge, and
// patch paths. It replaces the mixed throw-or-swallow style with one
// value: Ok, Skipped(reason), or Fatal(err).
type Outcome struct {
	Status Status
	// Reason explains a skip; empty for Ok.
	Reason string
	// Err carries the fatal error; nil unless Status is StatusFatal.
	Err error
}

// Ok returns the successful outcome.
func Ok() Outcome {
	return Outcome{Status: StatusOk}
}

// Skipped returns a no-op outcome with the given reason.
func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// Skippedf returns a no-op outcome with a formatted reason.
func Skippedf(format string, args ...any) Outcome {
	return Outcome{Status: StatusSkipped, Reason: fmt.Sprintf(format, args...)}
}

// Fatal returns an aborting outcome carrying err.
func Fatal(err error) Outcome {
	return Outcome{Status: StatusFatal, Err: err}
}

// IsOk reports whether the step contributed work.
func (o Outcome) IsOk() bool { return o.Status == StatusOk }

// IsSkipped reports whether the step was a no-op.
func (o Outcome) IsSkipped() bool { return o.Status == StatusSkipped }

// IsFatal reports whether the step failed.
func (o Outcome) IsFatal() bool { return o.Status == StatusFatal }

// String returns a short textual form, mainly for logs and tests.
func (o Outcome) String() string {
	switch o.Status {
	case StatusOk:
		return "ok"
	case StatusSkipped:
		return "skipped: " + o.Reason
	case StatusFatal:
		return "fatal: " + o.Err.Error()
	default:
		return "unknown"
	}
}
