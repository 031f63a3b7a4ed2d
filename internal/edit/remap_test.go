package edit

import (
	"testing"

	"voxedit.dev/internal/edit/transform"
	"voxedit.dev/internal/geom"
)

func dirp(v geom.Vec3) *geom.Vec3 { return &v }

// facingProp enumerates the six axis-aligned facings plus a directionless
// "none" sentinel, in a fixed order.
func facingProp() Property {
	return Property{
		Name: "facing",
		Kind: KindDirectional,
		Values: []DirectionalValue{
			{Name: "north", Dir: dirp(geom.Vec3{Z: -1})},
			{Name: "south", Dir: dirp(geom.Vec3{Z: 1})},
			{Name: "east", Dir: dirp(geom.Vec3{X: 1})},
			{Name: "west", Dir: dirp(geom.Vec3{X: -1})},
			{Name: "up", Dir: dirp(geom.Vec3{Y: 1})},
			{Name: "down", Dir: dirp(geom.Vec3{Y: -1})},
			{Name: "none", Dir: nil},
		},
	}
}

func TestRemapDirection_Rotate90NorthToEast(t *testing.T) {
	p := facingProp()
	got, ok := RemapDirection(p, transform.RotateY(90), geom.Vec3{Z: -1})
	if !ok {
		t.Fatalf("expected a remap result")
	}
	if got.Name != "east" {
		t.Fatalf("north under +90 = %q, want east", got.Name)
	}

	got, ok = RemapDirection(p, transform.RotateY(-90), geom.Vec3{Z: -1})
	if !ok || got.Name != "west" {
		t.Fatalf("north under -90 = %q (ok=%v), want west", got.Name, ok)
	}
}

func TestRemapDirection_IdentityKeepsValue(t *testing.T) {
	p := facingProp()
	for _, v := range p.Values {
		if v.Dir == nil {
			continue
		}
		got, ok := RemapDirection(p, transform.Identity(), *v.Dir)
		if !ok {
			t.Fatalf("%s: expected a result", v.Name)
		}
		if got.Name != v.Name {
			t.Fatalf("identity remap of %q = %q", v.Name, got.Name)
		}
	}
}

func TestRemapDirection_MirrorKeepsUp(t *testing.T) {
	p := facingProp()
	got, ok := RemapDirection(p, transform.Scale(-1, 1, 1), geom.Vec3{Y: 1})
	if !ok || got.Name != "up" {
		t.Fatalf("up under X mirror = %q (ok=%v), want up", got.Name, ok)
	}

	got, ok = RemapDirection(p, transform.Scale(-1, 1, 1), geom.Vec3{X: 1})
	if !ok || got.Name != "west" {
		t.Fatalf("east under X mirror = %q (ok=%v), want west", got.Name, ok)
	}
}

func TestRemapDirection_RoundTripLaw(t *testing.T) {
	p := facingProp()
	tr := transform.RotateY(90)
	inv := tr.Inverse()
	for _, v := range p.Values {
		if v.Dir == nil {
			continue
		}
		fwd, ok := RemapDirection(p, tr, *v.Dir)
		if !ok {
			t.Fatalf("%s: forward remap failed", v.Name)
		}
		back, ok := RemapDirection(p, inv, *fwd.Dir)
		if !ok {
			t.Fatalf("%s: inverse remap failed", v.Name)
		}
		if back.Name != v.Name {
			t.Fatalf("round trip %q -> %q -> %q", v.Name, fwd.Name, back.Name)
		}
	}
}

func TestRemapDirection_TieBreakLastWins(t *testing.T) {
	// Target lands exactly between north and east; both score the same
	// dot product, so the later candidate must win every time.
	p := Property{
		Name: "facing",
		Kind: KindDirectional,
		Values: []DirectionalValue{
			{Name: "north", Dir: dirp(geom.Vec3{Z: -1})},
			{Name: "east", Dir: dirp(geom.Vec3{X: 1})},
		},
	}
	diag := geom.Vec3{X: 1, Z: -1}
	for i := 0; i < 50; i++ {
		got, ok := RemapDirection(p, transform.Identity(), diag)
		if !ok || got.Name != "east" {
			t.Fatalf("iteration %d: tie resolved to %q (ok=%v), want east", i, got.Name, ok)
		}
	}
}

func TestRemapDirection_NoCandidates(t *testing.T) {
	p := Property{
		Name:   "facing",
		Kind:   KindDirectional,
		Values: []DirectionalValue{{Name: "none"}, {Name: "unset"}},
	}
	if _, ok := RemapDirection(p, transform.RotateY(90), geom.Vec3{Z: -1}); ok {
		t.Fatalf("expected no result when no candidate has a direction")
	}

	empty := Property{Name: "facing", Kind: KindDirectional}
	if _, ok := RemapDirection(empty, transform.RotateY(90), geom.Vec3{Z: -1}); ok {
		t.Fatalf("expected no result for an empty value set")
	}
}
