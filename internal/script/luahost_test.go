package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeforge/ember/internal/script"
)

func TestLuaHost_EvalRecipe_RunsPlainChunk(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	err := h.EvalRecipe(context.Background(), `x = 1 + 1`)
	assert.NoError(t, err)
}

func TestLuaHost_EvalRecipe_ParseErrorIsEvalError(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	err := h.EvalRecipe(context.Background(), `this is not lua (`)
	require.Error(t, err)
	var evalErr *script.EvalError
	require.ErrorAs(t, err, &evalErr)
}

func TestLuaHost_BindGoFunc_RoundTripsScalarArgs(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	var got []script.Value
	err := h.BindGoFunc("__capture", func(args []script.Value) (script.Value, error) {
		got = args
		return script.String("ok"), nil
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `result = __capture("hello", 42, true)`)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, script.KindString, got[0].Kind)
	assert.Equal(t, "hello", got[0].Str)
	assert.Equal(t, script.KindInt, got[1].Kind)
	assert.Equal(t, int64(42), got[1].Int)
	assert.Equal(t, script.KindBool, got[2].Kind)
	assert.True(t, got[2].Bool)
}

func TestLuaHost_BindGoFunc_RoundTripsTableArg(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	var got script.Value
	err := h.BindGoFunc("__capture", func(args []script.Value) (script.Value, error) {
		got = args[0]
		return script.Nil, nil
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `__capture({path = "/etc/x", mode = "0644"})`)
	require.NoError(t, err)

	require.Equal(t, script.KindMap, got.Kind)
	assert.Equal(t, "/etc/x", got.Map["path"].Str)
	assert.Equal(t, "0644", got.Map["mode"].Str)
}

func TestLuaHost_BindGoFunc_ErrorRaisesLuaError(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	err := h.BindGoFunc("__fail", func(args []script.Value) (script.Value, error) {
		return script.Nil, assert.AnError
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `__fail()`)
	assert.Error(t, err)
}

func TestLuaHost_GCProtectAndInvokeCallable(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	err := h.BindGoFunc("__store", func(args []script.Value) (script.Value, error) {
		return script.Nil, nil
	})
	require.NoError(t, err)

	var captured script.Value
	err = h.BindGoFunc("__keep", func(args []script.Value) (script.Value, error) {
		captured = args[0]
		return script.Nil, nil
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `__keep(function() return true end)`)
	require.NoError(t, err)
	require.Equal(t, script.KindCallable, captured.Kind)

	handle, err := h.GCProtect(captured)
	require.NoError(t, err)

	result, err := h.InvokeCallable(handle)
	require.NoError(t, err)
	assert.True(t, result.Truthy)
	assert.False(t, result.Threw)

	h.GCRelease(handle)
	// Second release is a no-op, not an error.
	h.GCRelease(handle)

	_, err = h.InvokeCallable(handle)
	assert.Error(t, err, "invoking a released handle must fail, not panic")
}

func TestLuaHost_InvokeCallable_CapturesThrow(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	var captured script.Value
	err := h.BindGoFunc("__keep", func(args []script.Value) (script.Value, error) {
		captured = args[0]
		return script.Nil, nil
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `__keep(function() error("boom") end)`)
	require.NoError(t, err)

	handle, err := h.GCProtect(captured)
	require.NoError(t, err)

	result, err := h.InvokeCallable(handle)
	require.NoError(t, err, "a script-level throw is reported via InvokeResult, not a Go error")
	assert.True(t, result.Threw)
	assert.NotEmpty(t, result.ThrewReason)
}

func TestLuaHost_InternSymbol_UnknownGlobalErrors(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	_, err := h.InternSymbol("does_not_exist")
	assert.Error(t, err)
}

func TestLuaHost_ArrayTableMarshalsAsKindArray(t *testing.T) {
	h := script.NewLuaHost()
	defer h.Close()

	var got script.Value
	err := h.BindGoFunc("__capture", func(args []script.Value) (script.Value, error) {
		got = args[0]
		return script.Nil, nil
	})
	require.NoError(t, err)

	err = h.EvalRecipe(context.Background(), `__capture({"a", "b", "c"})`)
	require.NoError(t, err)

	require.Equal(t, script.KindArray, got.Kind)
	require.Len(t, got.Array, 3)
	assert.Equal(t, "a", got.Array[0].Str)
	assert.Equal(t, "c", got.Array[2].Str)
}
