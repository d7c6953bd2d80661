package ccat

import "github.com/pkg/errors"

// Result is the exit code of a codec operation. Success and the three
// severities from the error handling design (InvalidInput, OutOfMemory,
// Disabled) satisfy the error interface so they can be returned directly
// from the public API. NotReady names the empty-window condition of
// BuildRecovery and is not one of the four severities; no function in this
// package returns it, since BuildRecovery reports an empty window as
// ErrWindowEmpty.
type Result byte

const (
	Success Result = iota
	InvalidInput
	OutOfMemory
	Disabled
	NotReady
)

func (r Result) Error() string {
	switch r {
	case Success:
		return "ccat: success"
	case InvalidInput:
		return "ccat: invalid input"
	case OutOfMemory:
		return "ccat: out of memory"
	case Disabled:
		return "ccat: codec disabled after fatal error"
	case NotReady:
		return "ccat: window not ready"
	default:
		return "ccat: unknown result"
	}
}

// IsSuccess reports whether err is nil or the Success result, which lets
// callers written against the four-kind result model treat both the same.
func IsSuccess(err error) bool {
	if err == nil {
		return true
	}
	r, ok := err.(Result)
	return ok && r == Success
}

// fatalf wraps an invariant violation with a stack trace and is the only
// error kind that latches a codec into Disabled.
func fatalf(format string, args ...interface{}) error {
	return errors.Wrapf(Disabled, format, args...)
}
