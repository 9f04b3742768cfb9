package script

import "context"

// CallableHandle identifies a host value (a Lua function, in the
// gopher-lua implementation) pinned against garbage collection for the
// lifetime of the Resource that owns it. The zero value is never valid;
// handles are minted by the host when it pins a value: by GCProtect,
// by InternSymbol, and when Marshal meets a function.
type CallableHandle uint64

// InvokeResult is the outcome of calling a zero-argument host callable.
type InvokeResult struct {
	Truthy      bool
	Threw       bool
	ThrewReason string
}

// Host is the contract the kernel requires from an embedded script
// interpreter (spec.md §4.1). The gopher-lua implementation lives in
// luahost.go; the kernel never imports gopher-lua types directly so a
// different interpreter could be substituted without touching the
// converger, guard evaluator, or registry.
type Host interface {
	// LoadPrelude loads interpreter-level DSL definitions (one prelude
	// chunk per resource type), bundled at build time as embedded strings.
	LoadPrelude(name, text string) error

	// EvalRecipe executes user recipe text. A parse or top-level runtime
	// error is returned as *EvalError with message and location.
	EvalRecipe(ctx context.Context, text string) error

	// InvokeCallable calls a stored callable with no arguments. Exceptions
	// raised by the script are captured, never unwound into native code.
	InvokeCallable(handle CallableHandle) (InvokeResult, error)

	// GCProtect pins v (the top of the host's working stack, or an
	// interpreter-specific reference) against collection and returns a
	// handle for later release and invocation.
	GCProtect(v Value) (CallableHandle, error)

	// GCRelease unpins a previously protected callable. Safe to call more
	// than once; the second and later calls are no-ops.
	GCRelease(handle CallableHandle)

	// Marshal converts a host-native stack value to a kernel Value.
	Marshal(v any) (Value, error)

	// Unmarshal converts a kernel Value to a host-native value pushed
	// onto the interpreter's stack/registry and returned opaquely.
	Unmarshal(v Value) (any, error)

	// InternSymbol returns a fast-dispatch handle for a method/function
	// name, used by providers that repeatedly invoke the same callback.
	InternSymbol(name string) (CallableHandle, error)

	// BindGoFunc exposes a Go function as a global callable under name,
	// taking and returning marshalled Values. This is how the prelude's
	// DSL forms (file{}, directory{}, ...) ultimately call back into the
	// ResourceRegistry without the kernel depending on gopher-lua types.
	BindGoFunc(name string, fn func(args []Value) (Value, error)) error

	// Close releases all interpreter resources. Only called once the
	// Converger's run (and every Resource drop) has completed.
	Close()
}

// EvalError is returned by EvalRecipe on a parse or fatal runtime error.
type EvalError struct {
	Message  string
	Location string
	Fatal    bool // HostFatal: interpreter corrupted, run must abort
}

func (e *EvalError) Error() string {
	if e.Location != "" {
		return e.Location + ": " + e.Message
	}
	return e.Message
}

// HostException wraps a caught script-level exception (a guard or block
// callable threw) as a Go error without unwinding out of native code.
type HostException struct {
	Message string
}

func (e *HostException) Error() string { return "host exception: " + e.Message }
