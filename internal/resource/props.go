package resource

import (
	"sync"

	"github.com/nodeforge/ember/internal/guard"
	"github.com/nodeforge/ember/internal/script"
)

// Props is CommonProps (spec.md §3/§4.4): the guard, notification,
// subscription, and error-policy state attached to every resource,
// regardless of type. Constructed with the script-state back-pointer
// (HostRef) that outlives the resource by construction — the Converger
// and the Host share a parent scope (spec.md §9 "Cyclic ownership").
type Props struct {
	mu sync.Mutex

	HostRef   script.Host
	Evaluator *guard.Evaluator

	OnlyIf *guard.Guard
	NotIf  *guard.Guard

	GuardUser  string
	GuardGroup string

	IgnoreFailure bool

	Notifications []Notification
	Subscriptions []Subscription

	protectedCallables []script.CallableHandle
}

// NewProps constructs a Props bound to the given host back-pointer.
func NewProps(host script.Host) *Props {
	return &Props{HostRef: host, Evaluator: guard.New(host)}
}

// ShouldRun evaluates this resource's only_if/not_if per spec.md §4.5.
// Providers call this from ApplyAction (notification-driven invocations
// aren't pre-gated by the Converger the way the main declaration-order
// loop is); the Converger calls it directly for the main loop.
func (p *Props) ShouldRun() (guard.Decision, error) {
	p.mu.Lock()
	onlyIf, notIf := p.OnlyIf, p.NotIf
	id := guard.Identity{User: p.GuardUser, Group: p.GuardGroup}
	ev := p.Evaluator
	p.mu.Unlock()
	return ev.ShouldRun(onlyIf, notIf, id)
}

// SetOnlyIf sets only_if to a host callable, recording the handle so
// Drop can release its GC protection later. Per spec.md §4.4's
// invariant, the callable must already be GC-protected before this
// returns — the caller passes a handle the script host minted when it
// pinned the callable (by marshalling it or via script.Host.GCProtect),
// so that invariant holds by construction here.
func (p *Props) SetOnlyIf(handle script.CallableHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OnlyIf = &guard.Guard{Form: guard.FormCallable, Callable: handle}
	p.protectedCallables = append(p.protectedCallables, handle)
}

// SetOnlyIfShell sets only_if to a shell command string.
func (p *Props) SetOnlyIfShell(cmd string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.OnlyIf = &guard.Guard{Form: guard.FormShell, Shell: cmd}
}

// SetNotIf mirrors SetOnlyIf for not_if.
func (p *Props) SetNotIf(handle script.CallableHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NotIf = &guard.Guard{Form: guard.FormCallable, Callable: handle}
	p.protectedCallables = append(p.protectedCallables, handle)
}

// SetNotIfShell mirrors SetOnlyIfShell for not_if.
func (p *Props) SetNotIfShell(cmd string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.NotIf = &guard.Guard{Form: guard.FormShell, Shell: cmd}
}

// SetIgnoreFailure sets the ignore_failure property.
func (p *Props) SetIgnoreFailure(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.IgnoreFailure = v
}

// Notifies appends a notification declaration (the `notifies` DSL form).
func (p *Props) Notifies(targetIdentity, action string, timing Timing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Notifications = append(p.Notifications, Notification{
		TargetIdentity: targetIdentity,
		ActionName:     action,
		Timing:         timing,
	})
}

// Subscribes appends a subscription declaration (the `subscribes` DSL
// form). Subscriptions are rewritten into notifications on the source
// resource before the run begins (spec.md §4.6) and then cleared.
func (p *Props) Subscribes(sourceIdentity, action string, timing Timing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Subscriptions = append(p.Subscriptions, Subscription{
		SourceIdentity: sourceIdentity,
		ActionName:     action,
		Timing:         timing,
	})
}

// ClearSubscriptions empties Subscriptions after rewriting them into
// notifications on their source resources.
func (p *Props) ClearSubscriptions() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Subscriptions = nil
}

// CommonProps implements WithCommon.
func (p *Props) CommonProps() *Props { return p }

// Drop releases GC protection for any guard callables this Props holds,
// per spec.md §3 "Host callables ... must be GC-protected for the
// entire lifetime of the Resource ... drop releases them back to GC."
func (p *Props) Drop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.HostRef == nil {
		return
	}
	for _, h := range p.protectedCallables {
		p.HostRef.GCRelease(h)
	}
	p.protectedCallables = nil
}
