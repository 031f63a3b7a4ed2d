// Package transform provides spatial transforms (rotations, reflections,
// translations and their compositions) applied to world positions and,
// derivatively, to facing directions.
package transform

import "voxedit.dev/internal/geom"

// Transform maps 3D points to 3D points. Implementations must be pure:
// Apply allocates nothing shared and Inverse returns a transform that
// undoes Apply. Invertibility is a caller precondition, not validated.
type Transform interface {
	Apply(geom.Vec3) geom.Vec3
	Inverse() Transform
}

// ApplyDirection transforms a facing direction rather than a point.
// Subtracting the transformed origin strips any translation component,
// leaving pure rotation/reflection; the result is normalized.
func ApplyDirection(t Transform, v geom.Vec3) geom.Vec3 {
	return t.Apply(v).Sub(t.Apply(geom.Zero)).Normalize()
}
