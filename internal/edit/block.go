// Package edit provides the block-editing extent abstraction and the
// orientation-preserving transform decorator built on top of it.
package edit

import "voxedit.dev/internal/geom"

// Block is one block state: a palette id plus named property values
// (orientation metadata and the like). The zero Props map means "no
// properties"; ids are resolved against the block catalog.
type Block struct {
	ID    uint16
	Props map[string]string
}

// Clone deep-copies the property map so the copy can be mutated without
// affecting the original.
func (b Block) Clone() Block {
	if b.Props == nil {
		return Block{ID: b.ID}
	}
	props := make(map[string]string, len(b.Props))
	for k, v := range b.Props {
		props[k] = v
	}
	return Block{ID: b.ID, Props: props}
}

// Prop returns the value of a named property.
func (b Block) Prop(name string) (string, bool) {
	v, ok := b.Props[name]
	return v, ok
}

// Extent is block storage: something that can resolve and accept block
// states at integral world positions. SetBlock reports whether the write
// changed anything; errors are storage failures (out of bounds, closed
// backends) and are never swallowed by decorators.
type Extent interface {
	GetBlock(pos geom.Vec3i) (Block, error)
	// GetFullBlock resolves the block including any extended data the
	// storage keeps out of the fast path.
	GetFullBlock(pos geom.Vec3i) (Block, error)
	SetBlock(pos geom.Vec3i, b Block) (bool, error)
}
