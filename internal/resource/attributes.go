package resource

// Attributes models the three canonical file attributes shared by every
// resource that writes a filesystem path. Pointer fields distinguish
// "unset" from an explicit zero value, since the DSL marshal boundary
// (script.ParseOctalMode / script.ParseUint) converts the empty-string
// sentinel to nil rather than to a zero value (spec.md §4.2).
type Attributes struct {
	Mode  *uint32
	Owner *string
	Group *string
}

// IsZero reports whether no attribute was set.
func (a Attributes) IsZero() bool {
	return a.Mode == nil && a.Owner == nil && a.Group == nil
}
