package edit

import (
	"voxedit.dev/internal/edit/transform"
	"voxedit.dev/internal/geom"
)

// TransformExtent decorates an Extent so that block orientation stays
// geometrically consistent under a fixed spatial transform. Positions are
// untouched; only directional properties are rewritten. Reads apply the
// transform forward, writes apply its inverse, so the wrapped storage
// always holds data in the untransformed frame.
//
// The decorator holds no mutable state; concurrent use is exactly as safe
// as concurrent use of the wrapped extent.
type TransformExtent struct {
	wrapped Extent
	reg     StateRegistry
	tr      transform.Transform
}

func NewTransformExtent(wrapped Extent, reg StateRegistry, tr transform.Transform) *TransformExtent {
	return &TransformExtent{wrapped: wrapped, reg: reg, tr: tr}
}

// Transform returns the held transform for inspection or composition.
func (e *TransformExtent) Transform() transform.Transform { return e.tr }

func (e *TransformExtent) GetBlock(pos geom.Vec3i) (Block, error) {
	b, err := e.wrapped.GetBlock(pos)
	if err != nil {
		return b, err
	}
	return TransformBlock(b, e.reg, e.tr), nil
}

func (e *TransformExtent) GetFullBlock(pos geom.Vec3i) (Block, error) {
	b, err := e.wrapped.GetFullBlock(pos)
	if err != nil {
		return b, err
	}
	return TransformBlock(b, e.reg, e.tr), nil
}

func (e *TransformExtent) SetBlock(pos geom.Vec3i, b Block) (bool, error) {
	return e.wrapped.SetBlock(pos, TransformBlock(b, e.reg, e.tr.Inverse()))
}

// TransformBlock rewrites every directional property of b under t and
// returns the result. The input block is never mutated: the property map
// is cloned on the first rewrite, so unregistered or orientation-free
// blocks pass through untouched and unallocated.
func TransformBlock(b Block, reg StateRegistry, t transform.Transform) Block {
	states, ok := reg.States(b.ID)
	if !ok {
		return b
	}

	out := b
	copied := false
	for name, prop := range states {
		if prop.Kind != KindDirectional {
			continue
		}
		cur, ok := b.Prop(name)
		if !ok {
			continue
		}
		val, ok := prop.Value(cur)
		if !ok || val.Dir == nil {
			continue
		}
		next, ok := RemapDirection(prop, t, *val.Dir)
		if !ok || next.Name == cur {
			continue
		}
		if !copied {
			out = b.Clone()
			copied = true
		}
		out.Props[name] = next.Name
	}
	return out
}
