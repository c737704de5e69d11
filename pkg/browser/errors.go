package browser

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError is returned when a lookup found no matching element within
// the implicit wait timeout.
type NotFoundError struct {
	Strategy Strategy
	Value    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no element matching %s %q", e.Strategy, e.Value)
}

// TimeoutError is returned when a predicate-based wait exceeded its bound.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Last    error // last error observed while polling, if any
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("%s: timed out after %s (last error: %v)", e.Op, e.Timeout, e.Last)
	}
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// StaleElementError is returned when a previously obtained element handle no
// longer maps to a live DOM node.
type StaleElementError struct {
	Op string
}

func (e *StaleElementError) Error() string {
	return fmt.Sprintf("%s: element reference is stale", e.Op)
}

// AssertionError is raised when an explicit expectation was false.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

// Assertionf builds an AssertionError from a format string.
func Assertionf(format string, args ...interface{}) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// DriverError wraps any other failure coming out of the remote-control
// boundary (navigation fault, protocol error, script failure).
type DriverError struct {
	Op  string
	Err error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// IsTransient reports whether the retry loop may re-attempt after err.
// Not-found from a plain lookup is deliberately excluded; callers that want
// it retried wrap it in a DriverError (see Session.Contains).
func IsTransient(err error) bool {
	var (
		timeout   *TimeoutError
		stale     *StaleElementError
		assertion *AssertionError
		driver    *DriverError
	)
	return errors.As(err, &timeout) ||
		errors.As(err, &stale) ||
		errors.As(err, &assertion) ||
		errors.As(err, &driver)
}
