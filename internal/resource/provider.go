package resource

import "context"

// Provider is the universal contract every resource type implements
// (spec.md §4.10 / C10). Implementations must never apply outside a
// guard-decision gate they didn't evaluate themselves — the Converger
// calls GuardEvaluator first and only invokes Apply when it decided Run.
type Provider interface {
	WithCommon

	// Identity returns the resource's "<type>[<name>]" identity string.
	Identity() ID

	// ActionName returns the action selected for this declaration.
	ActionName() string

	// Apply performs the declared action and reports its outcome. Even
	// a no-op path (e.g. package already installed) must return a
	// Report with WasUpdated=false and a SkipReason, never a bare zero
	// value.
	Apply(ctx context.Context) (Report, error)

	// ApplyAction performs the named action regardless of what was
	// originally declared, for notification-driven invocations
	// (spec.md §4.7 "Action dispatch"). Returns an UnknownAction
	// (kernelerr.KindUnknownAction) error if name isn't one of the
	// type's permitted actions.
	ApplyAction(ctx context.Context, name string) (Report, error)

	// Drop releases any resources the provider holds (in particular,
	// GC-protected script callables) once the Resource is no longer
	// needed.
	Drop()
}

// WithCommon exposes the CommonProps every Provider implementation holds,
// so the Converger/GuardEvaluator/NotificationGraph can reach guard and
// notification configuration without a type switch per concrete
// provider. Concrete providers satisfy this by embedding Base.
type WithCommon interface {
	CommonProps() *Props
}
