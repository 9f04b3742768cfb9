package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/config"
	"github.com/nodeforge/ember/internal/report"
)

type literalRecipeSource string

func (s literalRecipeSource) Load(ctx context.Context) (string, error) {
	return string(s), nil
}

type spyRecordSink struct {
	records []report.Record
}

func (s *spyRecordSink) Emit(r report.Record) {
	s.records = append(s.records, r)
}

func TestConvergeOnce_AppliesFileResourceAndReportsUpdate(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "greeting.txt")
	recipe := literalRecipeSource(`
file {
  name = "` + target + `",
  content = "hello from ember\n",
}
`)

	cfg := config.Config{StateDir: t.TempDir()}
	sink := &spyRecordSink{}

	summary, err := convergeOnce(context.Background(), recipe, cfg, sink)
	require.NoError(t, err)
	assert.False(t, summary.Aborted)
	require.Len(t, summary.Reports, 1)
	assert.True(t, summary.Reports[0].WasUpdated)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello from ember\n", string(got))
	assert.NotEmpty(t, sink.records, "the sink must observe at least one record per resource")
}

func TestConvergeOnce_SecondRunOnSameRecipeIsNoOp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "greeting.txt")
	recipe := literalRecipeSource(`
file {
  name = "` + target + `",
  content = "stable\n",
}
`)

	cfg := config.Config{StateDir: t.TempDir()}
	sink := &spyRecordSink{}

	_, err := convergeOnce(context.Background(), recipe, cfg, sink)
	require.NoError(t, err)

	summary, err := convergeOnce(context.Background(), recipe, cfg, sink)
	require.NoError(t, err)
	require.Len(t, summary.Reports, 1)
	assert.False(t, summary.Reports[0].WasUpdated, "an unchanged recipe must report no update on the second run")
}

func TestConvergeOnce_RecipeParseErrorIsReturned(t *testing.T) {
	cfg := config.Config{StateDir: t.TempDir()}
	sink := &spyRecordSink{}

	_, err := convergeOnce(context.Background(), literalRecipeSource("not valid lua ]["), cfg, sink)
	require.Error(t, err)
}
