// Package notify implements the notification/subscription graph
// (spec.md §4.6 / C6): target resolution by identity string, dedup of
// delayed notifications, and dispatch of immediate ones.
package notify

import (
	"context"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/resource"
	"github.com/rs/zerolog/log"
)

// MaxChainDepth bounds immediate-notification recursion (spec.md §4.6
// "Implementations must bound chain depth (≥ 16)").
const MaxChainDepth = 16

type delayedKey struct {
	target string
	action string
}

// Graph owns the delayed-notification multiset for one run and knows
// how to resolve and dispatch notifications against a Registry.
type Graph struct {
	registry *resource.Registry

	delayedOrder []delayedKey
	delayedSeen  map[delayedKey]bool
}

// New constructs a Graph bound to registry.
func New(registry *resource.Registry) *Graph {
	return &Graph{registry: registry, delayedSeen: make(map[delayedKey]bool)}
}

// RewriteSubscriptions iterates every registered resource once and, for
// each subscription declared on resource R targeting source S, appends
// an equivalent notification onto S's CommonProps, then clears R's
// subscriptions (spec.md §4.6 "Subscription rewrite"). Must run exactly
// once, before the first resource is attempted.
func (g *Graph) RewriteSubscriptions() {
	all := g.registry.All()
	for _, r := range all {
		wc, ok := r.(resource.WithCommon)
		if !ok {
			continue
		}
		props := wc.CommonProps()
		for _, sub := range props.Subscriptions {
			targets := g.registry.FindAll(sub.SourceIdentity)
			if len(targets) == 0 {
				log.Warn().Str("source", sub.SourceIdentity).Msg("subscribes: source resource not found, dropped")
				continue
			}
			for _, src := range targets {
				swc, ok := src.(resource.WithCommon)
				if !ok {
					continue
				}
				swc.CommonProps().Notifies(r.Identity().String(), sub.ActionName, sub.Timing)
			}
		}
		props.ClearSubscriptions()
	}
}

// DispatchImmediate runs every immediate-timed notification in notifications
// synchronously, before the Converger proceeds to the next declaration-order
// resource, per spec.md §4.6/§5. Returns the reports produced by every
// chained apply_action, plus an error if the chain exceeded MaxChainDepth.
func (g *Graph) DispatchImmediate(ctx context.Context, notifications []resource.Notification) ([]resource.Report, error) {
	return g.dispatchImmediate(ctx, notifications, 0)
}

func (g *Graph) dispatchImmediate(ctx context.Context, notifications []resource.Notification, depth int) ([]resource.Report, error) {
	if depth >= MaxChainDepth {
		return nil, kernelerr.New(kernelerr.KindCycleDetected, "immediate notification chain exceeded max depth")
	}

	var reports []resource.Report
	for _, n := range notifications {
		if n.Timing != resource.Immediate {
			continue
		}
		targets := g.registry.FindAll(n.TargetIdentity)
		if len(targets) == 0 {
			log.Warn().Str("target", n.TargetIdentity).Str("action", n.ActionName).Msg("notifies: target not found, dropped")
			continue
		}
		for _, target := range targets {
			report, armed, err := g.applyAndArm(ctx, target, n.ActionName)
			if err != nil {
				return reports, err
			}
			reports = append(reports, report)
			if armed == nil {
				continue
			}
			chained, err := g.dispatchImmediate(ctx, armed, depth+1)
			reports = append(reports, chained...)
			if err != nil {
				return reports, err
			}
		}
	}
	return reports, nil
}

// applyAndArm invokes target.ApplyAction(action) and, if it updated
// state, returns the target's own notification list to chain/queue.
func (g *Graph) applyAndArm(ctx context.Context, target resource.Provider, action string) (resource.Report, []resource.Notification, error) {
	report, err := target.ApplyAction(ctx, action)
	if err != nil {
		if kernelerr.Is(err, kernelerr.KindUnknownAction) {
			log.Warn().Str("target", target.Identity().String()).Str("action", action).Msg("notifies: unknown action, dropped")
			return resource.Skipped(target.Identity(), action, "unknown action, notification dropped"), nil, nil
		}
		return report, nil, err
	}
	if !report.WasUpdated {
		return report, nil, nil
	}
	wc, ok := target.(resource.WithCommon)
	if !ok {
		return report, nil, nil
	}
	return report, wc.CommonProps().Notifications, nil
}

// QueueDelayed stashes every delayed-timed notification into the
// run-owned multiset, deduped on (target, action) with first-arrival
// ordering (spec.md §3 "Delayed notifications form a multiset").
func (g *Graph) QueueDelayed(notifications []resource.Notification) {
	for _, n := range notifications {
		if n.Timing != resource.Delayed {
			continue
		}
		key := delayedKey{target: n.TargetIdentity, action: n.ActionName}
		if g.delayedSeen[key] {
			continue
		}
		g.delayedSeen[key] = true
		g.delayedOrder = append(g.delayedOrder, key)
	}
}

// FlushDelayed delivers each unique delayed notification exactly once,
// in arrival order, at run end (spec.md §4.6 "flush_delayed"). A
// delayed notification whose target update arms further immediate
// notifications dispatches them recursively; newly-armed delayed
// notifications are not re-enqueued for a further flush round
// (DESIGN.md Open Question #2).
func (g *Graph) FlushDelayed(ctx context.Context) ([]resource.Report, error) {
	var reports []resource.Report
	for _, key := range g.delayedOrder {
		targets := g.registry.FindAll(key.target)
		if len(targets) == 0 {
			log.Warn().Str("target", key.target).Str("action", key.action).Msg("flush: target not found, dropped")
			continue
		}
		for _, target := range targets {
			report, armed, err := g.applyAndArm(ctx, target, key.action)
			if err != nil {
				return reports, err
			}
			reports = append(reports, report)
			if armed == nil {
				continue
			}
			chained, err := g.dispatchImmediate(ctx, armed, 0)
			reports = append(reports, chained...)
			if err != nil {
				return reports, err
			}
		}
	}
	return reports, nil
}
