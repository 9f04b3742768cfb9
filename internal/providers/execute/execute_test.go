package execute_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/providers/execute"
	"github.com/nodeforge/ember/internal/resource"
)

func TestExecute_Run_AlwaysReportsUpdatedOnSuccess(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	p := execute.New("touch-marker", resource.NewProps(nil), "touch "+marker, "", execute.ActionRun)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, r.WasUpdated)

	_, statErr := os.Stat(marker)
	assert.NoError(t, statErr)
}

func TestExecute_Run_NonZeroExitIsProviderError(t *testing.T) {
	p := execute.New("fail", resource.NewProps(nil), "exit 1", "", execute.ActionRun)
	_, err := p.Apply(context.Background())
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindProviderError))
}

func TestExecute_Nothing_IsAlwaysUpToDate(t *testing.T) {
	p := execute.New("noop", resource.NewProps(nil), "exit 1", "", execute.ActionNothing)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, r.WasUpdated, "the `nothing` action never runs the command")
}

func TestExecute_ApplyAction_UnknownActionErrors(t *testing.T) {
	p := execute.New("x", resource.NewProps(nil), "true", "", execute.ActionRun)
	_, err := p.ApplyAction(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindUnknownAction))
}

func TestExecute_UsesDeclaredWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "pwd.txt")
	p := execute.New("pwd", resource.NewProps(nil), "pwd > "+out, dir, execute.ActionRun)
	_, err := p.Apply(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(got), filepath.Base(dir))
}
