package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/kernelerr"
	"github.com/nodeforge/ember/internal/providers/file"
	"github.com/nodeforge/ember/internal/resource"
)

func TestFile_Create_FirstApplyUpdatesSecondIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	p := file.New(path, resource.NewProps(nil), []byte("hello"), resource.Attributes{}, file.ActionCreate)

	r1, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, r1.WasUpdated)

	p2 := file.New(path, resource.NewProps(nil), []byte("hello"), resource.Attributes{}, file.ActionCreate)
	r2, err := p2.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, r2.WasUpdated)
}

func TestFile_Delete_AbsentIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghost")
	p := file.New(path, resource.NewProps(nil), nil, resource.Attributes{}, file.ActionDelete)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
}

func TestFile_Delete_RemovesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	p := file.New(path, resource.NewProps(nil), nil, resource.Attributes{}, file.ActionDelete)
	r, err := p.Apply(context.Background())
	require.NoError(t, err)
	assert.True(t, r.WasUpdated)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFile_ApplyAction_UnknownActionErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	p := file.New(path, resource.NewProps(nil), []byte("x"), resource.Attributes{}, file.ActionCreate)
	_, err := p.ApplyAction(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, kernelerr.Is(err, kernelerr.KindUnknownAction))
}

func TestFile_ApplyAction_SkipsWhenGuardFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a")
	props := resource.NewProps(nil)
	props.SetOnlyIfShell("false")
	p := file.New(path, props, []byte("x"), resource.Attributes{}, file.ActionCreate)

	r, err := p.ApplyAction(context.Background(), "create")
	require.NoError(t, err)
	assert.False(t, r.WasUpdated)
	require.NotNil(t, r.SkipReason)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "a notification-driven apply gated by a failing guard must not write")
}
