package collider

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestAABBOverlaps(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{0.5, 0.5, 0.5}, Max: mgl32.Vec3{1.5, 1.5, 1.5}}
	c := AABB{Min: mgl32.Vec3{2, 2, 2}, Max: mgl32.Vec3{3, 3, 3}}
	if !a.Overlaps(b) {
		t.Error("expected a,b to overlap")
	}
	if a.Overlaps(c) {
		t.Error("expected a,c to not overlap")
	}
	if !MightCollide(a, b) || MightCollide(a, c) {
		t.Error("MightCollide disagreed with Overlaps")
	}
}

func TestWorldAABBFromOBBIdentity(t *testing.T) {
	local := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	world := WorldAABBFromOBB(local, mgl32.Vec3{5, 0, 0}, mgl32.QuatIdent(), 2)
	want := AABB{Min: mgl32.Vec3{3, -2, -2}, Max: mgl32.Vec3{7, 2, 2}}
	const eps = 1e-4
	if !approxEqual(world.Min, want.Min, eps) || !approxEqual(world.Max, want.Max, eps) {
		t.Fatalf("got %+v, want %+v", world, want)
	}
}

func approxEqual(a, b mgl32.Vec3, eps float32) bool {
	d := a.Sub(b)
	return abs(d.X()) < eps && abs(d.Y()) < eps && abs(d.Z()) < eps
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestIntersectionRegionWholeCubeOverlap(t *testing.T) {
	worldAABB := AABB{Min: mgl32.Vec3{-10, -10, -10}, Max: mgl32.Vec3{10, 10, 10}}
	region, ok := NewIntersectionRegion(worldAABB, mgl32.Vec3{0, 0, 0}, 1, 1)
	if !ok {
		t.Fatal("expected overlap")
	}
	if region.Bounds.Size.X != 2 || region.Bounds.Size.Y != 2 || region.Bounds.Size.Z != 2 {
		t.Fatalf("bounds = %+v, want full 2x2x2 coverage at depth 1", region.Bounds)
	}
	if region.OctantCount() != 8 {
		t.Fatalf("OctantCount() = %d, want 8", region.OctantCount())
	}
}

func TestIntersectionRegionSmallObjectOneOctant(t *testing.T) {
	// Cube occupies world [0,1]^3. A tiny object inside octant 7's
	// region ([0.5,1]^3 at depth 1) should produce a 1-cell region.
	worldAABB := AABB{Min: mgl32.Vec3{0.6, 0.6, 0.6}, Max: mgl32.Vec3{0.7, 0.7, 0.7}}
	region, ok := NewIntersectionRegion(worldAABB, mgl32.Vec3{0, 0, 0}, 1, 1)
	if !ok {
		t.Fatal("expected overlap")
	}
	if region.OctantCount() != 1 {
		t.Fatalf("OctantCount() = %d, want 1", region.OctantCount())
	}
	if region.Bounds.Pos.X != 1 || region.Bounds.Pos.Y != 1 || region.Bounds.Pos.Z != 1 {
		t.Fatalf("Pos = %+v, want (1,1,1)", region.Bounds.Pos)
	}
}

func TestIntersectionRegionNoOverlap(t *testing.T) {
	worldAABB := AABB{Min: mgl32.Vec3{5, 5, 5}, Max: mgl32.Vec3{6, 6, 6}}
	_, ok := NewIntersectionRegion(worldAABB, mgl32.Vec3{0, 0, 0}, 1, 1)
	if ok {
		t.Fatal("expected no overlap")
	}
}
