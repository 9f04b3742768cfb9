// Package bindings defines the thin capability interfaces the kernel
// accepts from outside itself (spec.md §4.12 / C12), so cmd/ember can
// wire concrete collaborators in without internal/converge or
// internal/report importing them directly. Grounded on the teacher's
// small-capability-interface style (internal/ai/tools/executor.go's
// StateProvider/CommandPolicy/AgentServer split).
package bindings

import (
	"context"

	"github.com/nodeforge/ember/internal/report"
)

// RecipeSource supplies the recipe text for one convergence run. The
// default implementation reads a file path; --watch re-invokes it on
// every debounced filesystem event.
type RecipeSource interface {
	Load(ctx context.Context) (text string, err error)
}

// ReportCollaborator is anything cmd/ember attaches to a run's report
// stream in addition to the console sink: the websocket Hub, the
// Prometheus MetricsSink, or a test-only recorder.
type ReportCollaborator interface {
	report.Sink
}

// HostFacts exposes read-only host information to guard callables
// registered under the `host` table in the prelude (host.cpu_count(),
// host.memory_total()), backed by gopsutil. Kept as a narrow interface
// so guard evaluation and tests never depend on gopsutil directly.
type HostFacts interface {
	CPUCount() (int, error)
	MemoryTotalBytes() (uint64, error)
}
