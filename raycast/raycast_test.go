package raycast

import (
	"testing"

	"cubecore/coord"
	"cubecore/cube"

	"github.com/go-gl/mathgl/mgl32"
)

func isSolidUint8(v uint8) bool { return v != 0 }

// TestRaycastGoldenHit sets up a root where only octant 7 (+X +Y +Z)
// is Solid(42) and everything else is Solid(0). A ray from
// (-2, 0.5, 0.5) along +X must hit value 42, entering through the -X
// face, at coord {pos:(1,1,1), depth:1}, with position.x landing on
// the root's +X-half boundary (x≈0 in the centered [-1,1] convention).
func TestRaycastGoldenHit(t *testing.T) {
	var children [cube.NumOctants]*cube.Cube[uint8]
	for i := range children {
		children[i] = cube.Solid(uint8(0))
	}
	children[7] = cube.Solid(uint8(42))
	root := cube.Subdivide(children)

	hit, ok := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, isSolidUint8)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Value != 42 {
		t.Errorf("value = %d, want 42", hit.Value)
	}
	if hit.NormalAxis != coord.FaceLeft {
		t.Errorf("normal_axis = %v, want FaceLeft", hit.NormalAxis)
	}
	wantCoord := coord.CubeCoord{Pos: coord.IVec3{X: 1, Y: 1, Z: 1}, Depth: 1}
	if hit.Coord != wantCoord {
		t.Errorf("coord = %+v, want %+v", hit.Coord, wantCoord)
	}
	if d := hit.Position.X(); d < -0.05 || d > 0.05 {
		t.Errorf("position.x = %v, want ≈0", d)
	}
}

func TestRaycastMissesEmptyCube(t *testing.T) {
	root := cube.Solid(uint8(0))
	_, ok := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, isSolidUint8)
	if ok {
		t.Fatal("expected a miss against an all-empty cube")
	}
}

func TestRaycastMissesWhenAABBNotHit(t *testing.T) {
	root := cube.Solid(uint8(1))
	// Ray parallel to the box, passing well outside it.
	_, ok := Raycast(root, mgl32.Vec3{-2, 5, 5}, mgl32.Vec3{1, 0, 0}, isSolidUint8)
	if ok {
		t.Fatal("expected a miss for a ray that never enters the root AABB")
	}
}

func TestRaycastOriginInsideSolidReportsEnteredInterior(t *testing.T) {
	root := cube.Solid(uint8(9))
	hit, ok := Raycast(root, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, isSolidUint8)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !hit.EnteredInterior {
		t.Error("expected EnteredInterior to be true when origin starts inside a solid voxel")
	}
}

func TestRaycastDegenerateInputsMiss(t *testing.T) {
	root := cube.Solid(uint8(1))
	nan := float32(0)
	nan /= nan // produces NaN without a compile-time constant-fold error
	cases := []mgl32.Vec3{
		{nan, 0, 0},
		{0, 0, 0}, // zero direction
	}
	for _, dir := range cases {
		if _, ok := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, dir, isSolidUint8); ok {
			t.Errorf("expected miss for degenerate direction %v", dir)
		}
	}
}

func TestRaycastAxisAlignedShortcutAgreesWithGeneralDescent(t *testing.T) {
	var children [cube.NumOctants]*cube.Cube[uint8]
	for i := range children {
		children[i] = cube.Solid(uint8(0))
	}
	children[3] = cube.Solid(uint8(7)) // (+X +Y -Z)
	root := cube.Subdivide(children)

	axisHit, axisOK := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, isSolidUint8)
	diagonalHit, diagonalOK := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0.05, 0}, isSolidUint8)
	if axisOK != diagonalOK {
		t.Fatalf("shortcut ok=%v, general descent ok=%v", axisOK, diagonalOK)
	}
	if axisOK && (axisHit.Value != diagonalHit.Value || axisHit.Coord != diagonalHit.Coord) {
		t.Errorf("shortcut hit %+v disagrees with general descent %+v", axisHit, diagonalHit)
	}
}

func TestRaycastRespectsNodeBudget(t *testing.T) {
	var children [cube.NumOctants]*cube.Cube[uint8]
	for i := range children {
		children[i] = cube.Solid(uint8(0))
	}
	children[7] = cube.Solid(uint8(5))
	root := cube.Subdivide(children)

	_, ok := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0.0001, 0}, isSolidUint8, WithMaxNodeEntries[uint8](1))
	if ok {
		t.Fatal("expected budget exhaustion to force a miss")
	}
}

type recordingSink struct {
	entries  []coord.CubeCoord
	exceeded bool
}

func (s *recordingSink) EnterNode(c coord.CubeCoord) { s.entries = append(s.entries, c) }
func (s *recordingSink) BudgetExceeded()             { s.exceeded = true }

func TestRaycastDebugSinkRecordsPath(t *testing.T) {
	root := cube.Solid(uint8(3))
	sink := &recordingSink{}
	_, ok := Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}, isSolidUint8, WithDebugSink[uint8](sink))
	if !ok {
		t.Fatal("expected a hit")
	}
	if len(sink.entries) == 0 {
		t.Fatal("expected the debug sink to record at least the root entry")
	}
	if sink.exceeded {
		t.Error("budget should not be exceeded for a trivial raycast")
	}
}

func BenchmarkRaycastShallow(b *testing.B) {
	root := cube.Solid(uint8(1))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Raycast(root, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0.3, 0.1}, isSolidUint8)
	}
}

func BenchmarkRaycastDeep(b *testing.B) {
	var leaf *cube.Cube[uint8] = cube.Solid(uint8(1))
	for d := 0; d < 8; d++ {
		var children [cube.NumOctants]*cube.Cube[uint8]
		for i := range children {
			children[i] = leaf
		}
		children[0] = cube.Solid(uint8(0))
		leaf = cube.Subdivide(children)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Raycast(leaf, mgl32.Vec3{-2, 0.5, 0.5}, mgl32.Vec3{1, 0.3, 0.1}, isSolidUint8)
	}
}
