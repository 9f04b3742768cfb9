// Package dsl is the wiring layer between the embedded script host and
// the resource kernel: it binds Go constructor functions into the host
// under the names the prelude's DSL forms call (__file, __directory,
// ...), and implements fill_common_from_marshal, the one routine every
// constructor uses to populate CommonProps from a recipe's table
// literal (spec.md §6 "Provider interface").
package dsl

import (
	"fmt"

	"github.com/nodeforge/ember/internal/resource"
	"github.com/nodeforge/ember/internal/script"
)

// Table is the marshalled argument every DSL form passes to its Go
// binding: the single table literal argument of e.g. file{...}.
type Table map[string]script.Value

// AsTable extracts m's underlying map, failing if args isn't exactly
// one table-kind value — every resource form takes a single table.
func AsTable(args []script.Value) (Table, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("dsl: expected exactly one table argument, got %d", len(args))
	}
	if args[0].Kind != script.KindMap {
		return nil, fmt.Errorf("dsl: expected a table argument, got %v", args[0].Kind)
	}
	return Table(args[0].Map), nil
}

// String reads key as a coerced string, "" if absent.
func (t Table) String(key string) string {
	v, ok := t[key]
	if !ok {
		return ""
	}
	s, err := script.ExpectString(v)
	if err != nil {
		return ""
	}
	return s
}

// Bool reads key as a bool, false if absent or not a bool.
func (t Table) Bool(key string) bool {
	v, ok := t[key]
	if !ok || v.Kind != script.KindBool {
		return false
	}
	return v.Bool
}

// Mode reads key via script.ParseOctalMode.
func (t Table) Mode(key string) *uint32 {
	return script.ParseOctalMode(t.String(key))
}

// Attributes builds a resource.Attributes from the table's mode/owner/group.
func (t Table) Attributes() resource.Attributes {
	attrs := resource.Attributes{Mode: t.Mode("mode")}
	if v, ok := t["owner"]; ok && v.Kind == script.KindString {
		s := v.Str
		attrs.Owner = &s
	}
	if v, ok := t["group"]; ok && v.Kind == script.KindString {
		s := v.Str
		attrs.Group = &s
	}
	return attrs
}

// fillCommon populates props from the table's common keys: only_if,
// not_if, ignore_failure, guard_user, guard_group, notifies,
// subscribes. Every resource constructor calls this exactly once,
// mirroring spec.md §6's fill_common_from_marshal.
func fillCommon(host script.Host, props *resource.Props, t Table) error {
	if err := applyGuardSlot(host, t, "only_if", props.SetOnlyIf, props.SetOnlyIfShell); err != nil {
		return err
	}
	if err := applyGuardSlot(host, t, "not_if", props.SetNotIf, props.SetNotIfShell); err != nil {
		return err
	}
	props.SetIgnoreFailure(t.Bool("ignore_failure"))
	props.GuardUser = t.String("guard_user")
	props.GuardGroup = t.String("guard_group")

	for _, n := range notificationList(t["notifies"]) {
		props.Notifies(n.target, n.action, n.timing)
	}
	for _, s := range notificationList(t["subscribes"]) {
		props.Subscribes(s.target, s.action, s.timing)
	}
	return nil
}

func applyGuardSlot(host script.Host, t Table, key string, setCallable func(script.CallableHandle), setShell func(string)) error {
	v, ok := t[key]
	if !ok || v.IsNil() {
		return nil
	}
	switch v.Kind {
	case script.KindCallable:
		setCallable(v.Callable)
	case script.KindString:
		setShell(v.Str)
	default:
		return fmt.Errorf("dsl: %s must be a function or a shell command string", key)
	}
	return nil
}

type parsedNotification struct {
	target, action string
	timing         resource.Timing
}

// notificationList reads the notifies/subscribes table, which holds an
// array of {target|source, action, timing} maps — timing defaults to
// "immediate" when omitted.
func notificationList(v script.Value) []parsedNotification {
	if v.Kind != script.KindArray {
		return nil
	}
	out := make([]parsedNotification, 0, len(v.Array))
	for _, entry := range v.Array {
		if entry.Kind != script.KindMap {
			continue
		}
		m := Table(entry.Map)
		target := m.String("target")
		if target == "" {
			target = m.String("source")
		}
		action := m.String("action")
		timing := resource.Immediate
		if m.String("timing") == "delayed" {
			timing = resource.Delayed
		}
		out = append(out, parsedNotification{target: target, action: action, timing: timing})
	}
	return out
}
