// Package revert models rejected operations whose reason text is part of the
// observable interface. Error() returns the reason verbatim so callers and
// tooling written against the original reason strings keep matching.
package revert

import "errors"

// Error is a caller-visible rejection. Compare against package sentinels
// with errors.Is.
type Error struct {
	reason string
}

// New returns a rejection carrying reason.
func New(reason string) *Error {
	return &Error{reason: reason}
}

func (e *Error) Error() string { return e.reason }

// Reason returns the verbatim reason text.
func (e *Error) Reason() string { return e.reason }

// Reason extracts the reason text from err or anything it wraps.
// ok is false when err is not a rejection.
func Reason(err error) (reason string, ok bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.reason, true
	}
	return "", false
}

// Is reports whether err is, or wraps, a rejection.
func Is(err error) bool {
	_, ok := Reason(err)
	return ok
}
