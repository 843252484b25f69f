package helper

import (
	"errors"
	"strings"
)

// Unit is the payload of helper calls that report only success or failure.
type Unit struct{}

// Failure describes a failed helper call. Both fields are optional; a
// Failure with neither set is an unknown error.
type Failure struct {
	Cmd     string `json:"cmd,omitempty"`
	Message string `json:"message,omitempty"`
}

// Unknown reports whether the failure carries no detail at all.
func (f Failure) Unknown() bool {
	return f.Cmd == "" && f.Message == ""
}

func (f Failure) Error() string {
	switch {
	case f.Cmd != "" && f.Message != "":
		return f.Cmd + ": " + f.Message
	case f.Cmd != "":
		return f.Cmd + " failed"
	case f.Message != "":
		return f.Message
	default:
		return "unknown error"
	}
}

// Result is the envelope every helper call returns: either a value or a
// Failure, never both. The zero Result is an unknown failure.
type Result[T any] struct {
	value   T
	failure Failure
	ok      bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Fail wraps a failure.
func Fail[T any](f Failure) Result[T] {
	return Result[T]{failure: f}
}

// FromError builds a Result from an idiomatic (value, error) pair.
func FromError[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](FailureFrom(err))
	}
	return Ok(v)
}

// Ok reports whether the result holds a value.
func (r Result[T]) Ok() bool {
	return r.ok
}

// Value returns the value and whether it is present.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.ok
}

// Failure returns the failure and whether the result is a failure.
func (r Result[T]) Failure() (Failure, bool) {
	if r.ok {
		return Failure{}, false
	}
	return r.failure, true
}

// FailureFrom converts an error into a Failure. The command is taken from
// the first CommandError in the chain.
func FailureFrom(err error) Failure {
	if err == nil {
		return Failure{}
	}
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return Failure{Cmd: cmdErr.Cmd, Message: cmdErr.Detail()}
	}
	return Failure{Message: strings.TrimSpace(err.Error())}
}
