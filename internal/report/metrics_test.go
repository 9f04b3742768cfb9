package report_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/report"
)

func TestMetricsSink_CountsOutcomesByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := report.NewMetricsSink(reg)

	sink.Emit(report.Record{Phase: report.PhaseDone, Identity: "file[a]", WasUpdated: true, Elapsed: 5 * time.Millisecond})
	sink.Emit(report.Record{Phase: report.PhaseDone, Identity: "file[b]", WasUpdated: false})
	reason := "error: boom"
	sink.Emit(report.Record{Phase: report.PhaseDone, Identity: "execute[c]", Failed: true, SkipReason: &reason})
	// A PhaseStart record must never be counted.
	sink.Emit(report.Record{Phase: report.PhaseStart, Identity: "file[d]"})

	count, err := testutil.GatherAndCount(reg, "ember_resources_applied_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	errCount, err := testutil.GatherAndCount(reg, "ember_run_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, errCount)
}
