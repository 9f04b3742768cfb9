// Package resource defines the universal resource contract: identity,
// actions, attributes, common properties, the provider trait, and the
// append-only registry the script host populates during recipe evaluation.
package resource

import "fmt"

// ID is a resource's identity, rendered as "<type>[<name>]" everywhere the
// kernel needs a lookup key: notification targets, log lines, reports.
// Two resources may share an ID; the notification graph deliberately
// notifies every match rather than enforcing uniqueness (spec.md §3).
type ID struct {
	Type string
	Name string
}

// String renders the canonical identity string, e.g. "file[/etc/nginx.conf]".
func (id ID) String() string {
	return fmt.Sprintf("%s[%s]", id.Type, id.Name)
}
