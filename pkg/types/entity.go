package types

import "strings"

// TypeDirectSearch marks an entity whose value is a complete SPL query typed
// by the user rather than an observable to substitute into a template.
const TypeDirectSearch = "custom.splunkSearch"

// Entity is one observable value submitted for lookup.
// Identity is the (Value, type) pair; entities are never mutated by a lookup.
type Entity struct {
	Value           string   `json:"value" yaml:"value"`
	Types           []string `json:"types,omitzero" yaml:"types"`
	IsUserInitiated bool     `json:"is_user_initiated,omitempty" yaml:"is_user_initiated"`
}

// HasType reports whether the entity carries the given type (case-insensitive).
func (e Entity) HasType(t string) bool {
	for _, et := range e.Types {
		if strings.EqualFold(et, t) {
			return true
		}
	}
	return false
}

// IsDirectSearch reports whether the entity is a user-initiated raw SPL query.
func (e Entity) IsDirectSearch() bool {
	return e.IsUserInitiated && e.HasType(TypeDirectSearch)
}
