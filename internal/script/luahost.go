package script

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// LuaHost is the gopher-lua-backed Host implementation. It is the
// kernel's only supported interpreter: a Lua chunk is loaded once per
// resource type as "prelude", after which recipe text runs in the same
// *lua.LState and can call the table/function forms the prelude defined
// (spec.md §4.1).
type LuaHost struct {
	mu    sync.Mutex
	state *lua.LState

	nextHandle uint64
	protected  map[CallableHandle]lua.LValue
}

// NewLuaHost constructs a fresh interpreter. The caller must call Close
// once the host is no longer needed.
func NewLuaHost() *LuaHost {
	return &LuaHost{
		state:     lua.NewState(lua.Options{SkipOpenLibs: false}),
		protected: make(map[CallableHandle]lua.LValue),
	}
}

func (h *LuaHost) LoadPrelude(name, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn, err := h.state.LoadString(text)
	if err != nil {
		return &EvalError{Message: err.Error(), Location: name}
	}
	h.state.Push(fn)
	if err := h.state.PCall(0, lua.MultRet, nil); err != nil {
		return &EvalError{Message: err.Error(), Location: name}
	}
	return nil
}

func (h *LuaHost) EvalRecipe(ctx context.Context, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.SetContext(ctx)
	defer h.state.RemoveContext()

	fn, err := h.state.LoadString(text)
	if err != nil {
		return &EvalError{Message: err.Error(), Location: "recipe"}
	}
	h.state.Push(fn)
	if err := h.state.PCall(0, lua.MultRet, nil); err != nil {
		if lerr, ok := err.(*lua.ApiError); ok && lerr.Type == lua.ApiErrorRun {
			return &EvalError{Message: err.Error(), Location: "recipe"}
		}
		// A non-recoverable interpreter fault: treat as fatal per
		// spec.md §4.1 (HostFatal, run aborts).
		return &EvalError{Message: err.Error(), Location: "recipe", Fatal: true}
	}
	return nil
}

func (h *LuaHost) InvokeCallable(handle CallableHandle) (InvokeResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn, ok := h.protected[handle]
	if !ok {
		return InvokeResult{}, fmt.Errorf("script: unknown callable handle %d", handle)
	}

	h.state.Push(fn)
	err := h.state.PCall(0, 1, nil)
	if err != nil {
		return InvokeResult{Threw: true, ThrewReason: err.Error()}, nil
	}
	ret := h.state.Get(-1)
	h.state.Pop(1)
	return InvokeResult{Truthy: lua.LVAsBool(ret)}, nil
}

func (h *LuaHost) GCProtect(v Value) (CallableHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	lv, err := h.unmarshalLocked(v)
	if err != nil {
		return 0, err
	}
	handle := CallableHandle(atomic.AddUint64(&h.nextHandle, 1))
	h.protected[handle] = lv
	return handle, nil
}

func (h *LuaHost) GCRelease(handle CallableHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.protected, handle)
}

func (h *LuaHost) Marshal(v any) (Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lv, ok := v.(lua.LValue)
	if !ok {
		return Nil, fmt.Errorf("script: Marshal expects a lua.LValue, got %T", v)
	}
	return h.marshalLocked(lv)
}

func (h *LuaHost) marshalLocked(lv lua.LValue) (Value, error) {
	switch t := lv.(type) {
	case *lua.LNilType:
		return Nil, nil
	case lua.LBool:
		return Bool(bool(t)), nil
	case lua.LNumber:
		f := float64(t)
		if f == float64(int64(f)) {
			return Int(int64(f)), nil
		}
		return Float(f), nil
	case lua.LString:
		return String(string(t)), nil
	case *lua.LTable:
		// A table with only positive integer keys 1..n is an array;
		// otherwise it's a map. Mirrors the DSL's table-literal usage.
		maxN := t.Len()
		isArray := maxN > 0
		arr := make([]Value, 0, maxN)
		m := make(map[string]Value)
		t.ForEach(func(k, val lua.LValue) {
			mv, err := h.marshalLocked(val)
			if err != nil {
				return
			}
			if kn, ok := k.(lua.LNumber); ok && isArray {
				idx := int(kn)
				if idx >= 1 && idx <= maxN {
					return // handled by the indexed loop below
				}
			}
			m[k.String()] = mv
		})
		for i := 1; i <= maxN; i++ {
			mv, err := h.marshalLocked(t.RawGetInt(i))
			if err != nil {
				return Nil, err
			}
			arr = append(arr, mv)
		}
		if len(m) == 0 {
			return Value{Kind: KindArray, Array: arr}, nil
		}
		for i, mv := range arr {
			m[fmt.Sprint(i+1)] = mv
		}
		return Value{Kind: KindMap, Map: m}, nil
	case *lua.LFunction:
		handle := CallableHandle(atomic.AddUint64(&h.nextHandle, 1))
		h.protected[handle] = lv
		return Value{Kind: KindCallable, Callable: handle}, nil
	default:
		return Nil, fmt.Errorf("script: cannot marshal lua value of type %T", lv)
	}
}

func (h *LuaHost) Unmarshal(v Value) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unmarshalLocked(v)
}

func (h *LuaHost) unmarshalLocked(v Value) (lua.LValue, error) {
	switch v.Kind {
	case KindNil:
		return lua.LNil, nil
	case KindBool:
		return lua.LBool(v.Bool), nil
	case KindInt:
		return lua.LNumber(v.Int), nil
	case KindFloat:
		return lua.LNumber(v.Float), nil
	case KindString:
		return lua.LString(v.Str), nil
	case KindArray:
		t := h.state.NewTable()
		for i, e := range v.Array {
			lv, err := h.unmarshalLocked(e)
			if err != nil {
				return nil, err
			}
			t.RawSetInt(i+1, lv)
		}
		return t, nil
	case KindMap:
		t := h.state.NewTable()
		for k, e := range v.Map {
			lv, err := h.unmarshalLocked(e)
			if err != nil {
				return nil, err
			}
			t.RawSetString(k, lv)
		}
		return t, nil
	case KindCallable:
		lv, ok := h.protected[v.Callable]
		if !ok {
			return nil, fmt.Errorf("script: unknown callable handle %d", v.Callable)
		}
		return lv, nil
	default:
		return nil, fmt.Errorf("script: cannot unmarshal value kind %v", v.Kind)
	}
}

func (h *LuaHost) InternSymbol(name string) (CallableHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	lv := h.state.GetGlobal(name)
	if lv == lua.LNil {
		return 0, fmt.Errorf("script: no such global %q", name)
	}
	handle := CallableHandle(atomic.AddUint64(&h.nextHandle, 1))
	h.protected[handle] = lv
	return handle, nil
}

func (h *LuaHost) BindGoFunc(name string, fn func(args []Value) (Value, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.SetGlobal(name, h.state.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		args := make([]Value, 0, top)
		for i := 1; i <= top; i++ {
			v, err := h.marshalLocked(L.Get(i))
			if err != nil {
				L.RaiseError("%s", err.Error())
				return 0
			}
			args = append(args, v)
		}
		ret, err := fn(args)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		lv, err := h.unmarshalLocked(ret)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lv)
		return 1
	}))
	return nil
}

func (h *LuaHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.protected = nil
	h.state.Close()
}
