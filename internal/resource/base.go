package resource

import "context"

// Base is an embeddable helper every concrete provider uses to satisfy
// WithCommon and the Drop half of Provider, and to self-gate
// notification-triggered ApplyAction calls (which, unlike the main
// declaration-order loop, are not pre-gated by the Converger).
type Base struct {
	ID    ID
	Props *Props
}

func (b *Base) Identity() ID        { return b.ID }
func (b *Base) CommonProps() *Props { return b.Props }
func (b *Base) Drop()               { b.Props.Drop() }

// Guarded evaluates this resource's guards and, if they pass, calls fn;
// otherwise it returns a Skipped report carrying "skipped due to guards"
// without invoking fn at all (DESIGN.md Open Question #1: a flushed or
// immediate notification whose target is skipped by its own guards still
// produces a report).
func (b *Base) Guarded(ctx context.Context, action string, fn func(ctx context.Context) (Report, error)) (Report, error) {
	decision, err := b.Props.ShouldRun()
	if err != nil {
		return Report{}, err
	}
	if !decision.Run {
		return Skipped(b.ID, action, "skipped due to guards"), nil
	}
	return fn(ctx)
}
