// Package converge implements the Converger (spec.md §4.7 / C7): the
// state machine that drives one run, in declaration order, dispatching
// notifications and applying the error policy.
package converge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nodeforge/ember/internal/asyncexec"
	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/notify"
	"github.com/nodeforge/ember/internal/report"
	"github.com/nodeforge/ember/internal/resource"
	"github.com/rs/zerolog/log"
)

// State is one of the Converger's explicit run states, mirrored after
// the teacher's chat/fsm.go enum-plus-switch-dispatch shape and
// generalized here to resource application instead of a chat turn.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateApplying
	StateDispatching
	StateFlushing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateApplying:
		return "applying"
	case StateDispatching:
		return "dispatching"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Summary is the result of one Run.
type Summary struct {
	RunID   string
	Reports []resource.Report
	Aborted bool
	Err     error
}

// Converger drives a registry of declared resources to convergence.
type Converger struct {
	Registry *resource.Registry
	Sink     report.Sink

	state State
}

// New constructs a Converger over registry, emitting to sink (a
// report.MultiSink if more than one collaborator needs the stream).
func New(registry *resource.Registry, sink report.Sink) *Converger {
	if sink == nil {
		sink = report.ConsoleSink{}
	}
	return &Converger{Registry: registry, Sink: sink}
}

// State returns the Converger's current run state.
func (c *Converger) State() State { return c.state }

func (c *Converger) transition(s State) {
	c.state = s
	log.Debug().Str("state", s.String()).Msg("converge: state transition")
}

// Run drives one full convergence pass: Idle → Resolving → Applying →
// Dispatching (interleaved per updated resource) → Flushing → Done,
// per spec.md §4.7.
func (c *Converger) Run(ctx context.Context) Summary {
	runID := uuid.NewString()
	log := log.With().Str("run_id", runID).Logger()

	graph := notify.New(c.Registry)

	c.transition(StateResolving)
	graph.RewriteSubscriptions()

	summary := Summary{RunID: runID}

	c.transition(StateApplying)
	all := c.Registry.All()
	for _, p := range all {
		report, armed, err := c.applyOne(ctx, p, runID)
		summary.Reports = append(summary.Reports, report)
		if err != nil {
			log.Error().Err(err).Str("identity", p.Identity().String()).Msg("converge: run aborted")
			summary.Aborted = true
			summary.Err = err
			return summary
		}
		if armed == nil {
			continue
		}

		c.transition(StateDispatching)
		immediate, delayed := partition(armed)
		graph.QueueDelayed(delayed)
		chained, err := graph.DispatchImmediate(ctx, immediate)
		summary.Reports = append(summary.Reports, chained...)
		c.emitAll(chained, runID)
		if err != nil {
			summary.Aborted = true
			summary.Err = err
			return summary
		}
		c.transition(StateApplying)
	}

	c.transition(StateFlushing)
	flushed, err := graph.FlushDelayed(ctx)
	summary.Reports = append(summary.Reports, flushed...)
	c.emitAll(flushed, runID)
	if err != nil {
		summary.Aborted = true
		summary.Err = err
	}

	c.transition(StateDone)
	return summary
}

// applyOne runs the per-resource algorithm of spec.md §4.7 steps 1-6 for
// a single declaration-order resource. It returns the resource's own
// notifications when its apply updated state (nil otherwise), so the
// caller can dispatch/queue them.
func (c *Converger) applyOne(ctx context.Context, p resource.Provider, runID string) (resource.Report, []resource.Notification, error) {
	id := p.Identity()
	action := p.ActionName()
	c.Sink.Emit(report.Record{Phase: report.PhaseStart, Identity: id.String(), Action: action, RunID: runID})

	start := time.Now()

	decision, err := p.CommonProps().ShouldRun()
	if err != nil {
		return c.finishError(p, action, start, err, runID)
	}
	if !decision.Run {
		r := resource.Skipped(id, action, decision.Reason)
		c.emit(r, runID)
		return r, nil, nil
	}

	rpt, err := asyncexec.Execute(ctx, func(ctx context.Context) applyResult {
		r, err := p.Apply(ctx)
		return applyResult{report: r, err: err}
	})
	if rpt.err != nil {
		return c.finishError(p, action, start, rpt.err, runID)
	}

	rpt.report.Elapsed = time.Since(start)
	c.emit(rpt.report, runID)

	if !rpt.report.WasUpdated {
		return rpt.report, nil, nil
	}
	return rpt.report, p.CommonProps().Notifications, nil
}

type applyResult struct {
	report resource.Report
	err    error
}

// finishError applies the error policy of spec.md §4.7 step 5: a
// report is always emitted; the run aborts unless the resource has
// ignore_failure=true and the error is of a kind
// kernelerr.IgnoreFailureEligible accepts, in which case notifications
// are not armed and the run continues.
func (c *Converger) finishError(p resource.Provider, action string, start time.Time, err error, runID string) (resource.Report, []resource.Notification, error) {
	id := p.Identity()
	r := resource.Failed(id, action, time.Since(start), err)
	c.emit(r, runID)

	if p.CommonProps().IgnoreFailure && kernelerr.IgnoreFailureEligible(err) {
		return r, nil, nil
	}
	return r, nil, err
}

func (c *Converger) emit(r resource.Report, runID string) {
	c.Sink.Emit(toRecord(r, runID))
}

func (c *Converger) emitAll(reports []resource.Report, runID string) {
	for _, r := range reports {
		c.emit(r, runID)
	}
}

func toRecord(r resource.Report, runID string) report.Record {
	return report.Record{
		Phase:      report.PhaseDone,
		Identity:   r.Identity.String(),
		Action:     r.Action,
		WasUpdated: r.WasUpdated,
		SkipReason: r.SkipReason,
		Failed:     r.Err != nil,
		Elapsed:    r.Elapsed,
		RunID:      runID,
	}
}

func partition(notifications []resource.Notification) (immediate, delayed []resource.Notification) {
	for _, n := range notifications {
		if n.Timing == resource.Immediate {
			immediate = append(immediate, n)
		} else {
			delayed = append(delayed, n)
		}
	}
	return immediate, delayed
}
