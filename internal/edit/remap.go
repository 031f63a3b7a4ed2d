package edit

import (
	"voxedit.dev/internal/edit/transform"
	"voxedit.dev/internal/geom"
)

// RemapDirection selects the member of a directional property that best
// approximates oldDir after applying t. "Best" is the maximum dot product
// between the transformed direction and each candidate's normalized
// direction; on exact ties the last candidate in the property's value
// order wins. Returns false when no candidate carries a direction, which
// signals "no applicable remapping", not an error.
//
// Pure function of its inputs; safe for concurrent use.
func RemapDirection(p Property, t transform.Transform, oldDir geom.Vec3) (DirectionalValue, bool) {
	newDir := transform.ApplyDirection(t, oldDir)

	var best DirectionalValue
	closest := -2.0
	found := false

	for _, v := range p.Values {
		if v.Dir == nil {
			continue
		}
		dot := v.Dir.Normalize().Dot(newDir)
		if dot >= closest {
			closest = dot
			best = v
			found = true
		}
	}
	return best, found
}
