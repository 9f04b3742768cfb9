package script

import "fmt"

// Kind tags a marshalled Value's underlying representation.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindArray
	KindMap
	KindCallable
)

// Value is the tagged union every host scalar/array/dict value marshals
// into, per spec.md §4.2. Exactly one of the fields below is meaningful,
// selected by Kind.
type Value struct {
	Kind     Kind
	Bool     bool
	Int      int64
	Float    float64
	Str      string
	Bytes    []byte
	Array    []Value
	Map      map[string]Value
	Callable CallableHandle
}

// Nil is the canonical nil Value.
var Nil = Value{Kind: KindNil}

func String(s string) Value { return Value{Kind: KindString, Str: s} }
func Int(i int64) Value     { return Value{Kind: KindInt, Int: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func Bool(b bool) Value     { return Value{Kind: KindBool, Bool: b} }

// IsNil reports whether v is the nil value.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// TypeError is returned by ExpectString when a Value cannot be
// coerced to the requested Go type.
type TypeError struct {
	Want string
	Got  Kind
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("script: cannot coerce %v to %s", e.Got, e.Want)
}

// ExpectString coerces v to a Go string, failing with *TypeError on a
// Value that cannot be represented as one (arrays, maps, callables).
func ExpectString(v Value) (string, error) {
	switch v.Kind {
	case KindNil:
		return "", nil
	case KindString:
		return v.Str, nil
	case KindInt:
		return fmt.Sprintf("%d", v.Int), nil
	case KindFloat:
		return fmt.Sprintf("%g", v.Float), nil
	case KindBool:
		return fmt.Sprintf("%t", v.Bool), nil
	default:
		return "", &TypeError{Want: "string", Got: v.Kind}
	}
}

// ParseOctalMode parses s as an octal POSIX permission mode. Per spec.md
// §4.2, an empty string means "unset" (returns nil, no error); any other
// unparseable or out-of-range string is also treated as unset — invalid
// modes are ignored rather than aborting a run, by design.
func ParseOctalMode(s string) *uint32 {
	if s == "" {
		return nil
	}
	var m uint32
	n, err := fmt.Sscanf(s, "%o", &m)
	if err != nil || n != 1 || m > 0o7777 {
		return nil
	}
	return &m
}

// ParseUint parses s as an unsigned integer, empty string meaning unset,
// with the same ignore-on-error convention as ParseOctalMode.
func ParseUint(s string) *uint64 {
	if s == "" {
		return nil
	}
	var u uint64
	n, err := fmt.Sscanf(s, "%d", &u)
	if err != nil || n != 1 {
		return nil
	}
	return &u
}
