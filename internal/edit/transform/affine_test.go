package transform

import (
	"testing"

	"voxedit.dev/internal/geom"
)

const eps = 1e-9

var (
	north = geom.Vec3{Z: -1}
	south = geom.Vec3{Z: 1}
	east  = geom.Vec3{X: 1}
	west  = geom.Vec3{X: -1}
	up    = geom.Vec3{Y: 1}
	down  = geom.Vec3{Y: -1}
)

func TestRotateY_QuarterTurns(t *testing.T) {
	cases := []struct {
		deg  float64
		in   geom.Vec3
		want geom.Vec3
	}{
		{90, north, east},
		{90, east, south},
		{90, south, west},
		{90, west, north},
		{-90, north, west},
		{180, north, south},
		{90, up, up},
		{270, east, north},
	}
	for _, c := range cases {
		got := RotateY(c.deg).Apply(c.in)
		if !got.Equals(c.want, eps) {
			t.Fatalf("RotateY(%v).Apply(%v) = %v, want %v", c.deg, c.in, got, c.want)
		}
	}
}

func TestRotateX_RotateZ(t *testing.T) {
	if got := RotateX(90).Apply(up); !got.Equals(south, eps) {
		t.Fatalf("RotateX(90) up = %v, want south", got)
	}
	if got := RotateZ(90).Apply(east); !got.Equals(up, eps) {
		t.Fatalf("RotateZ(90) east = %v, want up", got)
	}
}

func TestScale_Mirrors(t *testing.T) {
	m := Scale(-1, 1, 1)
	if got := m.Apply(east); !got.Equals(west, eps) {
		t.Fatalf("mirror east = %v, want west", got)
	}
	if got := m.Apply(up); !got.Equals(up, eps) {
		t.Fatalf("mirror up = %v, want up", got)
	}
}

func TestInverse_RoundTrip(t *testing.T) {
	transforms := []Affine{
		Identity(),
		RotateY(90),
		RotateY(38.5),
		RotateX(45).Combine(RotateZ(30)),
		Scale(-1, 1, 1),
		Scale(1, 1, -1).Combine(RotateY(90)),
		Translate(geom.Vec3{X: 4, Y: -2, Z: 11}).Combine(RotateY(180)),
	}
	points := []geom.Vec3{
		{X: 1, Y: 2, Z: 3},
		{X: -7.5, Y: 0, Z: 0.25},
		north, up, west,
	}
	for _, tr := range transforms {
		inv := tr.Inverse()
		for _, p := range points {
			got := inv.Apply(tr.Apply(p))
			if !got.Equals(p, 1e-6) {
				t.Fatalf("inverse round trip: got %v, want %v", got, p)
			}
		}
	}
}

func TestCombine_Order(t *testing.T) {
	a := RotateY(90)
	b := Translate(geom.Vec3{X: 3})
	v := geom.Vec3{X: 1, Y: 0, Z: 2}

	got := a.Combine(b).Apply(v)
	want := a.Apply(b.Apply(v))
	if !got.Equals(want, eps) {
		t.Fatalf("combine order: got %v, want %v", got, want)
	}
}

func TestApplyDirection_IgnoresTranslation(t *testing.T) {
	tr := Translate(geom.Vec3{X: 100, Y: -3, Z: 7}).Combine(RotateY(90))
	if got := ApplyDirection(tr, north); !got.Equals(east, eps) {
		t.Fatalf("direction under translated rotation = %v, want east", got)
	}

	pure := Translate(geom.Vec3{X: 5})
	if got := ApplyDirection(pure, north); !got.Equals(north, eps) {
		t.Fatalf("direction under pure translation = %v, want north", got)
	}
}

func TestApplyDirection_Normalizes(t *testing.T) {
	tr := Scale(3, 3, 3)
	got := ApplyDirection(tr, geom.Vec3{X: 2})
	if !got.Equals(east, eps) {
		t.Fatalf("direction under scale = %v, want unit east", got)
	}
}
