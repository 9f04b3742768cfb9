// Package guard implements only_if/not_if evaluation (spec.md §4.5): a
// tagged-union Guard that is either a host-script callable or a shell
// command, optionally run under a target UID/GID.
package guard

import "github.com/nodeforge/ember/internal/script"

// Form discriminates a Guard's representation. Structural, per the
// REDESIGN FLAGS note in spec.md §9: "so the 'at most one of' invariant
// is structural" rather than two optional fields a caller could set both.
type Form int

const (
	// FormNone means the guard slot was never set.
	FormNone Form = iota
	FormCallable
	FormShell
)

// Guard is the only_if/not_if slot of CommonProps. The shell-command
// form takes priority if both representations were somehow supplied to
// the same slot (spec.md §4.5 "Shell-command form takes priority").
type Guard struct {
	Form     Form
	Callable script.CallableHandle
	Shell    string
}

// Identity describes the optional privilege-drop target for a
// shell-command guard.
type Identity struct {
	User  string // empty means unspecified
	Group string // empty means unspecified
}

// Decision is the outcome of GuardEvaluator.ShouldRun.
type Decision struct {
	Run    bool
	Reason string // set only when Run is false and there was no error
}

// Skip constructs a skip Decision with the given reason.
func Skip(reason string) Decision { return Decision{Run: false, Reason: reason} }

// Run is the canonical "proceed" Decision.
var Run = Decision{Run: true}
