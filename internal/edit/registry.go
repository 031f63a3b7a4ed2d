package edit

import "voxedit.dev/internal/geom"

// PropertyKind discriminates the closed set of property shapes a catalog
// can declare for a block kind.
type PropertyKind int

const (
	// KindDirectional properties carry a facing; their values map to
	// direction vectors and are rewritten under spatial transforms.
	KindDirectional PropertyKind = iota + 1
	// KindEnum properties are opaque symbol sets; transforms ignore them.
	KindEnum
)

// DirectionalValue is one member of a directional property's finite value
// set. Dir is nil for sentinel members ("none"); such members are never
// produced by remapping.
type DirectionalValue struct {
	Name string
	Dir  *geom.Vec3
}

// Property describes one block property. For directional properties the
// Values order is significant: equal-scoring remap candidates resolve to
// the last one in this order, so catalogs must enumerate deterministically.
type Property struct {
	Name   string
	Kind   PropertyKind
	Values []DirectionalValue // directional only
	Enum   []string           // enum only
}

// Value looks up a member of a directional property by name.
func (p Property) Value(name string) (DirectionalValue, bool) {
	for _, v := range p.Values {
		if v.Name == name {
			return v, true
		}
	}
	return DirectionalValue{}, false
}

// StateRegistry exposes the property sets of block kinds. Implemented by
// the block catalog; consumed, never owned, by the edit layer. A false
// return means the block kind has no registered properties, which is a
// normal condition (most blocks have no orientation).
type StateRegistry interface {
	States(id uint16) (map[string]Property, bool)
}
