// Package raycast implements a DDA ray-octree intersection test: a
// recursive descent that finds the first solid voxel along a ray,
// plus a 1-D lattice-marching shortcut for axis-aligned rays.
//
// Unlike coord/cube/traverse/face, this package works in the
// [-1,1]^3-centered convention — the root cube's AABB is [-1,1]^3, not
// [0,1]^3 — because that is the natural frame for the recursive
// local-frame doubling the algorithm depends on. Conversions to/from
// the [0,1]^3 convention happen at this package's boundary via
// coord.NormalizedToCentered/CenteredToNormalized.
package raycast

import (
	"cubecore/coord"
	"cubecore/cube"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxNodeEntries caps the total number of octree node visits a single
// Raycast call will perform, guarding against cycles or pathological
// trees. Exceeding it is treated as a miss.
const MaxNodeEntries = 4096

// SurfaceEpsilonFactor scales the root half-extent to produce the
// inward advance applied after a slab-intersection entry, so the
// first octant test doesn't land exactly on a boundary.
const SurfaceEpsilonFactor = 1e-2

// AxisAlignedAngleEpsilon is the default small-angle tolerance (in the
// sin-of-deviation sense used by coord.ApproxAxisAligned) for routing
// a ray to the axis-aligned shortcut instead of the general descent.
const AxisAlignedAngleEpsilon = 1e-3

// DefaultMaxDepth bounds recursion when the caller supplies no
// WithMaxDepth option. It is comfortably below the 31-bit range of a
// lattice coordinate at that depth.
const DefaultMaxDepth uint32 = 30

const rootHalfExtent = 1.0
const steppingEpsilon = 1e-6

// IsSolid classifies a material value as occluding (true) or passable
// (false) for ray-hit purposes.
type IsSolid[T comparable] func(T) bool

// SampleFunc resolves the value of a Subdivided node encountered at
// the configured max depth, mirroring traverse.SampleFunc.
type SampleFunc[T comparable] func(*cube.Cube[T]) T

func defaultSample[T comparable](node *cube.Cube[T]) T {
	for node.Kind() == cube.KindSubdivided {
		node = node.Child(0)
	}
	return node.Value()
}

// DebugSink receives a record of every node entered during a Raycast
// call, and is notified if the node-entry budget is exceeded. A nil
// sink (the default) disables this entirely. The sink is written to
// only by the calling thread — the core never shares it.
type DebugSink interface {
	EnterNode(c coord.CubeCoord)
	BudgetExceeded()
}

// Hit describes the first solid voxel a ray intersects.
type Hit[T comparable] struct {
	Coord      coord.CubeCoord
	Value      T
	NormalAxis coord.Face
	Position   mgl32.Vec3
	// EnteredInterior is true when the ray origin started inside the
	// hit voxel with no boundary crossed beforehand — there is no
	// well-defined entry face in that case.
	EnteredInterior bool
}

type config[T comparable] struct {
	maxDepth       uint32
	maxNodeEntries int
	sample         SampleFunc[T]
	sink           DebugSink
}

// Option configures a Raycast call.
type Option[T comparable] func(*config[T])

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth[T comparable](depth uint32) Option[T] {
	return func(c *config[T]) { c.maxDepth = depth }
}

// WithMaxNodeEntries overrides MaxNodeEntries.
func WithMaxNodeEntries[T comparable](n int) Option[T] {
	return func(c *config[T]) { c.maxNodeEntries = n }
}

// WithSample overrides the default octant-0 max-depth sampling policy.
func WithSample[T comparable](f SampleFunc[T]) Option[T] {
	return func(c *config[T]) { c.sample = f }
}

// WithDebugSink attaches a DebugSink to the call.
func WithDebugSink[T comparable](sink DebugSink) Option[T] {
	return func(c *config[T]) { c.sink = sink }
}

func signf(x float32) float32 {
	if x < 0 {
		return -1
	}
	return 1
}

func hasNaN(v mgl32.Vec3) bool {
	return v.X() != v.X() || v.Y() != v.Y() || v.Z() != v.Z()
}

// Raycast finds the first voxel along the ray (rayOrigin, rayDir,
// need not be unit) for which isSolid reports true, within root's
// [-1,1]^3 AABB. It never panics; degenerate input (NaN, zero
// direction) reports a miss.
func Raycast[T comparable](root *cube.Cube[T], rayOrigin, rayDir mgl32.Vec3, isSolid IsSolid[T], opts ...Option[T]) (Hit[T], bool) {
	if hasNaN(rayOrigin) || hasNaN(rayDir) || rayDir.Len() == 0 {
		return Hit[T]{}, false
	}
	cfg := config[T]{maxDepth: DefaultMaxDepth, maxNodeEntries: MaxNodeEntries, sample: defaultSample[T]}
	for _, o := range opts {
		o(&cfg)
	}

	if axis, aligned := coord.ApproxAxisAligned(rayDir, AxisAlignedAngleEpsilon); aligned {
		return raycastAxis(root, rayOrigin, rayDir, axis, isSolid, &cfg)
	}

	entered, insideAlready, entryFace, tEntry := slabIntersect(rayOrigin, rayDir)
	if !entered {
		return Hit[T]{}, false
	}
	origin := rayOrigin
	if !insideAlready {
		origin = rayOrigin.Add(rayDir.Mul(tEntry + SurfaceEpsilonFactor*rootHalfExtent))
	}

	budget := 0
	return castNode(root, coord.Root, origin, rayDir, entryFace, origin, rayDir, insideAlready, isSolid, &cfg, &budget)
}

// slabIntersect performs a ray-AABB slab test against the centered
// [-1,1]^3 box, reporting the entry face (the face whose outward
// normal opposes the ray's travel on the axis that constrained the
// entry time) and that time. If origin already lies inside the box,
// inside is true and there is no entry face to report.
func slabIntersect(origin, dir mgl32.Vec3) (hit, inside bool, face coord.Face, tEntry float32) {
	tmin := float32(-3.0e38)
	tmax := float32(3.0e38)
	axisEntry := 0
	for axis := 0; axis < 3; axis++ {
		o, d := origin[axis], dir[axis]
		if d == 0 {
			if o < -1 || o > 1 {
				return false, false, 0, 0
			}
			continue
		}
		inv := 1 / d
		t0 := (-1 - o) * inv
		t1 := (1 - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
			axisEntry = axis
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false, false, 0, 0
		}
	}
	if tmax < 0 {
		return false, false, 0, 0
	}
	if tmin < 0 {
		return true, true, coord.FaceLeft, 0
	}
	return true, false, coord.FaceFromAxisSign(axisEntry, -signf(dir[axisEntry])), tmin
}

// hitPosition reconstructs the world (root-centered-space) position at
// which the ray crossed entryFace into the box occupied by at (using
// the caller's original, unscaled origin/dir — never the recursion's
// locally-transformed ones, which only exist to pick octants).
func hitPosition(entryFace coord.Face, at coord.CubeCoord, origin, dir mgl32.Vec3) mgl32.Vec3 {
	axis := entryFace.Axis()
	min, max := at.ToAABBCentered()
	var plane float32
	if entryFace.Sign() < 0 {
		plane = min[axis]
	} else {
		plane = max[axis]
	}
	if dir[axis] == 0 {
		return origin
	}
	t := (plane - origin[axis]) / dir[axis]
	return origin.Add(dir.Mul(t))
}

// castNode is the recursive DDA descent: it picks an octant, recurses,
// and on a miss steps to the next sibling along the ray until the node
// is exited. localOrigin and localDir are expressed in node's own
// re-centered [-1,1]^3 frame; origOrigin/origDir are the fixed,
// never-transformed ray used to compute the eventual hit position.
func castNode[T comparable](node *cube.Cube[T], c coord.CubeCoord, localOrigin, localDir mgl32.Vec3, entryFace coord.Face, origOrigin, origDir mgl32.Vec3, enteredInterior bool, isSolid IsSolid[T], cfg *config[T], budget *int) (Hit[T], bool) {
	*budget++
	if *budget > cfg.maxNodeEntries {
		if cfg.sink != nil {
			cfg.sink.BudgetExceeded()
		}
		return Hit[T]{}, false
	}
	if cfg.sink != nil {
		cfg.sink.EnterNode(c)
	}

	if node.Kind() == cube.KindSolid || c.Depth == cfg.maxDepth {
		v := resolveLeaf(node, cfg.sample)
		if !isSolid(v) {
			return Hit[T]{}, false
		}
		pos := origOrigin
		if !enteredInterior {
			pos = hitPosition(entryFace, c, origOrigin, origDir)
		}
		return Hit[T]{Coord: c, Value: v, NormalAxis: entryFace, Position: pos, EnteredInterior: enteredInterior}, true
	}

	octant := coord.IndexCentered(localOrigin, localDir)
	cur := localOrigin
	for {
		childLocal := cur.Mul(2).Sub(coord.OctantOffset(octant))
		childDir := localDir.Mul(2)
		if hit, ok := castNode(node.Child(octant), c.Child(octant), childLocal, childDir, entryFace, origOrigin, origDir, enteredInterior, isSolid, cfg, budget); ok {
			return hit, true
		}
		if *budget > cfg.maxNodeEntries {
			return Hit[T]{}, false
		}

		bestAxis := -1
		bestT := float32(3.0e38)
		for axis := 0; axis < 3; axis++ {
			d := localDir[axis]
			if d == 0 {
				continue
			}
			t := -cur[axis] / d
			if t > steppingEpsilon && t < bestT {
				bestT = t
				bestAxis = axis
			}
		}
		if bestAxis < 0 {
			return Hit[T]{}, false
		}
		cur = cur.Add(localDir.Mul(bestT))
		if abs32(cur[0]) > 1+steppingEpsilon || abs32(cur[1]) > 1+steppingEpsilon || abs32(cur[2]) > 1+steppingEpsilon {
			return Hit[T]{}, false
		}
		octant ^= 1 << uint(bestAxis)
		entryFace = coord.FaceFromAxisSign(bestAxis, -signf(localDir[bestAxis]))
		enteredInterior = false
	}
}

func resolveLeaf[T comparable](node *cube.Cube[T], sample SampleFunc[T]) T {
	if node.Kind() == cube.KindSolid {
		return node.Value()
	}
	return sample(node)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func ivecGet(v coord.IVec3, axis int) int32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func ivecSet(v coord.IVec3, axis int, val int32) coord.IVec3 {
	switch axis {
	case 0:
		v.X = val
	case 1:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

// descendToLeaf walks from root toward target, stopping at the first
// Solid node encountered (which may be coarser than target.Depth) or
// at target.Depth itself, resolving a still-Subdivided node there with
// sample.
func descendToLeaf[T comparable](root *cube.Cube[T], target coord.CubeCoord, sample SampleFunc[T]) (coord.CubeCoord, T) {
	node := root
	c := coord.Root
	for c.Depth < target.Depth {
		if node.Kind() == cube.KindSolid {
			return c, node.Value()
		}
		shift := target.Depth - c.Depth - 1
		octant := int((target.Pos.X>>shift)&1) |
			int((target.Pos.Y>>shift)&1)<<1 |
			int((target.Pos.Z>>shift)&1)<<2
		node = node.Child(octant)
		c = c.Child(octant)
	}
	return c, resolveLeaf(node, sample)
}

// raycastAxis is the shortcut for rays within AxisAlignedAngleEpsilon
// of a coordinate axis: it walks the target lattice one cell at a
// time along that axis instead of paying for per-step division in
// three dimensions.
func raycastAxis[T comparable](root *cube.Cube[T], origin, dir mgl32.Vec3, axis int, isSolid IsSolid[T], cfg *config[T]) (Hit[T], bool) {
	entered, insideAlready, entryFace, tEntry := slabIntersect(origin, dir)
	if !entered {
		return Hit[T]{}, false
	}
	o := origin
	if !insideAlready {
		o = origin.Add(dir.Mul(tEntry + SurfaceEpsilonFactor*rootHalfExtent))
	}

	res := int32(1) << cfg.maxDepth
	norm := coord.CenteredToNormalized(o)
	clampToRes := func(v float32) int32 {
		i := int32(math32.Floor(v * float32(res)))
		if i < 0 {
			return 0
		}
		if i >= res {
			return res - 1
		}
		return i
	}
	pos := coord.IVec3{X: clampToRes(norm.X()), Y: clampToRes(norm.Y()), Z: clampToRes(norm.Z())}

	face := entryFace
	limit := cfg.maxNodeEntries
	for i := 0; i < limit; i++ {
		c := coord.CubeCoord{Pos: pos, Depth: cfg.maxDepth}
		leafCoord, v := descendToLeaf(root, c, cfg.sample)
		if cfg.sink != nil {
			cfg.sink.EnterNode(leafCoord)
		}
		if isSolid(v) {
			hp := o
			if !(insideAlready && i == 0) {
				hp = hitPosition(face, leafCoord, o, dir)
			}
			return Hit[T]{Coord: leafCoord, Value: v, NormalAxis: face, Position: hp, EnteredInterior: insideAlready && i == 0}, true
		}

		leafRes := int32(1) << leafCoord.Depth
		scale := res / leafRes
		leafPosAxis := ivecGet(leafCoord.Pos, axis)
		var next int32
		if dir[axis] > 0 {
			next = (leafPosAxis + 1) * scale
		} else {
			next = leafPosAxis*scale - 1
		}
		pos = ivecSet(pos, axis, next)
		face = coord.FaceFromAxisSign(axis, -signf(dir[axis]))
		if ivecGet(pos, axis) < 0 || ivecGet(pos, axis) >= res {
			return Hit[T]{}, false
		}
	}
	if cfg.sink != nil {
		cfg.sink.BudgetExceeded()
	}
	return Hit[T]{}, false
}
