package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecipeWatcher_FiresOnWrite(t *testing.T) {
	orig := debounceWrite
	debounceWrite = 10 * time.Millisecond
	t.Cleanup(func() { debounceWrite = orig })

	path := filepath.Join(t.TempDir(), "recipe.lua")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	var fired int32
	rw, err := NewRecipeWatcher([]string{path}, func() { atomic.AddInt32(&fired, 1) })
	require.NoError(t, err)
	defer rw.Stop()

	require.NoError(t, os.WriteFile(path, []byte("x = 2"), 0o644))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestRecipeWatcher_DebouncesBurstsOfWrites(t *testing.T) {
	orig := debounceWrite
	debounceWrite = 50 * time.Millisecond
	t.Cleanup(func() { debounceWrite = orig })

	path := filepath.Join(t.TempDir(), "recipe.lua")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	var fired int32
	rw, err := NewRecipeWatcher([]string{path}, func() { atomic.AddInt32(&fired, 1) })
	require.NoError(t, err)
	defer rw.Stop()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("x = 2"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) >= 1
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fired), "a debounced burst of writes must fire onChange exactly once")
}

func TestRecipeWatcher_StopEndsTheWatchLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.lua")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	rw, err := NewRecipeWatcher([]string{path}, func() {})
	require.NoError(t, err)
	rw.Stop()
}
