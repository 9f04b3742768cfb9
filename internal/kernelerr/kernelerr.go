// Package kernelerr defines the error taxonomy of spec.md §7: a small
// set of sentinel kinds every other kernel package wraps its errors in,
// so the converger can decide propagation (fatal vs. local vs. warn-and-drop)
// by a single errors.Is/errors.As check instead of string matching.
package kernelerr

import "errors"

// Kind tags an error's propagation class per spec.md §7.
type Kind int

const (
	KindScriptParse Kind = iota
	KindHostException
	KindGuardIOError
	KindProviderError
	KindUnknownAction
	KindUnknownTarget
	KindCycleDetected
	KindMarshalError
)

func (k Kind) String() string {
	switch k {
	case KindScriptParse:
		return "script_parse"
	case KindHostException:
		return "host_exception"
	case KindGuardIOError:
		return "guard_io_error"
	case KindProviderError:
		return "provider_error"
	case KindUnknownAction:
		return "unknown_action"
	case KindUnknownTarget:
		return "unknown_target"
	case KindCycleDetected:
		return "cycle_detected"
	case KindMarshalError:
		return "marshal_error"
	default:
		return "unknown"
	}
}

// Error is a kernel error tagged with its propagation Kind and an
// optional wrapped cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Msg: msg} }

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err (or something it wraps) is a kernel *Error of kind.
func Is(err error, kind Kind) bool {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind == kind
	}
	return false
}

// IgnoreFailureEligible reports whether an error of this kind should be
// suppressible by a resource's ignore_failure=true: ProviderError,
// GuardIOError and HostException, the kinds raised at the per-resource
// apply stage where ignore_failure applies.
func IgnoreFailureEligible(err error) bool {
	return Is(err, KindProviderError) || Is(err, KindGuardIOError) || Is(err, KindHostException)
}
