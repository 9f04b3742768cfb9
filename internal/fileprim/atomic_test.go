package fileprim_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/fileprim"
	"github.com/nodeforge/ember/internal/resource"
)

func TestWriteAtomic_FirstWriteIsUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	updated, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestWriteAtomic_IdenticalContentIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	_, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{})
	require.NoError(t, err)

	updated, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{})
	require.NoError(t, err)
	assert.False(t, updated, "byte-identical content must not rewrite the file")
}

func TestWriteAtomic_ModeOnlyChangeStillUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	_, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{})
	require.NoError(t, err)

	mode := uint32(0o600)
	updated, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{Mode: &mode})
	require.NoError(t, err)
	assert.True(t, updated, "a mode-only change must still report updated")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWriteAtomic_NoTempFileSurvivesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	content := strings.Repeat("x", 1<<20) // 1 MiB, per spec.md Scenario F
	_, err := fileprim.WriteAtomic(path, []byte(content), resource.Attributes{})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "no leftover temp file should remain: %s", e.Name())
	}
}

func TestWriteAtomic_RenameFailureLeavesNoTempFileAndNoPartialWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	// A directory occupying the target path makes the final os.Rename
	// fail (EISDIR/ENOTDIR), exercising the cleanup-on-rename-failure
	// path without needing an injectable rename hook.
	require.NoError(t, os.Mkdir(path, 0o755))

	updated, err := fileprim.WriteAtomic(path, []byte("hello"), resource.Attributes{})
	require.Error(t, err)
	assert.False(t, updated)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir(), "the original directory must be untouched on rename failure")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no leftover temp file should remain after a failed rename")
	assert.Equal(t, "f", entries[0].Name())
}

func TestWriteAtomic_DifferentContentReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	_, err := fileprim.WriteAtomic(path, []byte("old"), resource.Attributes{})
	require.NoError(t, err)

	updated, err := fileprim.WriteAtomic(path, []byte("new"), resource.Attributes{})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}
