package window

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a label has no live window.
var ErrNotFound = errors.New("window not found")

// ErrorKind categorizes window errors. A kind is itself an error so callers
// can match with errors.Is(err, window.InvalidRegion).
type ErrorKind int

const (
	// CreationFailed means the window system refused to create a window.
	CreationFailed ErrorKind = iota + 1
	// FocusFailed means a window existed but could not be brought to front.
	// Never surfaced to callers of OpenOrFocus.
	FocusFailed
	// InvalidTarget means click-through was requested for a window that
	// does not support it.
	InvalidTarget
	// InvalidRegion means a rectangle had a non-positive width or height.
	InvalidRegion
)

func (k ErrorKind) String() string {
	switch k {
	case CreationFailed:
		return "creation failed"
	case FocusFailed:
		return "focus failed"
	case InvalidTarget:
		return "invalid target"
	case InvalidRegion:
		return "invalid region"
	default:
		return "unknown window error"
	}
}

func (k ErrorKind) Error() string {
	return k.String()
}

// Error is a window operation failure.
type Error struct {
	Kind   ErrorKind
	Label  string
	Reason string
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Label != "" {
		msg = fmt.Sprintf("%s for window %q", msg, e.Label)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches an ErrorKind target against the error's kind.
func (e *Error) Is(target error) bool {
	kind, ok := target.(ErrorKind)
	return ok && kind == e.Kind
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, label, reason string, cause error) *Error {
	return &Error{Kind: kind, Label: label, Reason: reason, Cause: cause}
}

// KindOf returns the kind of a window error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return 0
}
