package transform

import (
	"math"

	"voxedit.dev/internal/geom"
)

// Affine is an invertible affine map: a 3x3 coefficient matrix (row-major)
// plus a translation column. The zero value is NOT usable; start from
// Identity() or a constructor.
type Affine struct {
	m [9]float64
	t geom.Vec3
}

func Identity() Affine {
	return Affine{m: [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
}

// RotateY rotates about the vertical axis by deg degrees. The sign
// convention follows compass order: +90 turns north into east.
func RotateY(deg float64) Affine {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Affine{m: [9]float64{
		c, 0, -s,
		0, 1, 0,
		s, 0, c,
	}}
}

// RotateX rotates about the west-east axis by deg degrees.
func RotateX(deg float64) Affine {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Affine{m: [9]float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}}
}

// RotateZ rotates about the north-south axis by deg degrees.
func RotateZ(deg float64) Affine {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Affine{m: [9]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}}
}

// Scale scales each axis independently. Negative factors mirror: for
// example Scale(-1, 1, 1) reflects across the YZ plane.
func Scale(x, y, z float64) Affine {
	return Affine{m: [9]float64{
		x, 0, 0,
		0, y, 0,
		0, 0, z,
	}}
}

func Translate(v geom.Vec3) Affine {
	a := Identity()
	a.t = v
	return a
}

func (a Affine) Apply(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: a.m[0]*v.X + a.m[1]*v.Y + a.m[2]*v.Z + a.t.X,
		Y: a.m[3]*v.X + a.m[4]*v.Y + a.m[5]*v.Z + a.t.Y,
		Z: a.m[6]*v.X + a.m[7]*v.Y + a.m[8]*v.Z + a.t.Z,
	}
}

// Combine composes transforms: a.Combine(b).Apply(v) == a.Apply(b.Apply(v)),
// so b runs first.
func (a Affine) Combine(b Affine) Affine {
	var out Affine
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.m[r*3+c] = a.m[r*3]*b.m[c] + a.m[r*3+1]*b.m[3+c] + a.m[r*3+2]*b.m[6+c]
		}
	}
	out.t = a.Apply(b.t)
	return out
}

// Inverse inverts the matrix by adjugate over determinant and derives the
// inverse translation. Singular matrices are a caller error and produce
// non-finite coefficients.
func (a Affine) Inverse() Transform {
	m := a.m
	det := m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])

	inv := Affine{m: [9]float64{
		(m[4]*m[8] - m[5]*m[7]) / det,
		(m[2]*m[7] - m[1]*m[8]) / det,
		(m[1]*m[5] - m[2]*m[4]) / det,
		(m[5]*m[6] - m[3]*m[8]) / det,
		(m[0]*m[8] - m[2]*m[6]) / det,
		(m[2]*m[3] - m[0]*m[5]) / det,
		(m[3]*m[7] - m[4]*m[6]) / det,
		(m[1]*m[6] - m[0]*m[7]) / det,
		(m[0]*m[4] - m[1]*m[3]) / det,
	}}
	inv.t = inv.applyLinear(a.t).Scale(-1)
	return inv
}

func (a Affine) applyLinear(v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: a.m[0]*v.X + a.m[1]*v.Y + a.m[2]*v.Z,
		Y: a.m[3]*v.X + a.m[4]*v.Y + a.m[5]*v.Z,
		Z: a.m[6]*v.X + a.m[7]*v.Y + a.m[8]*v.Z,
	}
}
