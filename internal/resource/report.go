package resource

import "time"

// Report is the outcome of one apply (or one notification-driven
// apply_action) as defined in spec.md §3. The invariant
// was_updated=true => skip_reason=None (and vice versa) is enforced by
// the constructors below rather than left to callers to maintain by hand.
type Report struct {
	Identity    ID
	WasUpdated  bool
	Action      string
	SkipReason  *string
	Elapsed     time.Duration
	Err         error
}

// Updated builds a Report recording that apply changed observable state.
func Updated(id ID, action string, elapsed time.Duration) Report {
	return Report{Identity: id, WasUpdated: true, Action: action, Elapsed: elapsed}
}

// UpToDate builds a Report recording a no-op apply (not a guard skip).
func UpToDate(id ID, action, reason string, elapsed time.Duration) Report {
	r := reason
	return Report{Identity: id, WasUpdated: false, Action: action, SkipReason: &r, Elapsed: elapsed}
}

// Skipped builds a Report recording a guard-induced skip.
func Skipped(id ID, action, reason string) Report {
	r := reason
	return Report{Identity: id, WasUpdated: false, Action: action, SkipReason: &r}
}

// Failed builds a Report recording an apply error; by convention the
// skip reason carries "error: " + err.Error() per spec.md §4.7 step 5.
func Failed(id ID, action string, elapsed time.Duration, err error) Report {
	reason := "error: " + err.Error()
	return Report{Identity: id, WasUpdated: false, Action: action, SkipReason: &reason, Elapsed: elapsed, Err: err}
}
