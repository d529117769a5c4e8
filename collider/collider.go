// Package collider builds the minimal region of a voxel octree that
// could touch a dynamic object's world-space bounding box, as a
// RegionBounds that callers pass to traverse.VisitFacesInRegion /
// face.VisitInRegion for exposed-face collision geometry. It never
// calls either of them and never reads voxel data itself —
// only bounding-box arithmetic.
package collider

import (
	"cubecore/coord"
	"cubecore/traverse"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Overlaps reports whether a and b share any volume, using the
// standard per-axis slab-overlap test (min_a < max_b && max_a > min_b
// on every axis).
func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// MightCollide is a cheap slab-overlap prefilter for dynamic-vs-dynamic
// pairs, before either side pays for exact geometry tests.
func MightCollide(a, b AABB) bool {
	return a.Overlaps(b)
}

// WorldAABBFromOBB computes a tight axis-aligned bound of localAABB
// after it is scaled, rotated, and translated into world space: the
// min/max of its 8 transformed corners.
func WorldAABBFromOBB(localAABB AABB, position mgl32.Vec3, rotation mgl32.Quat, scale float32) AABB {
	corners := [8]mgl32.Vec3{
		{localAABB.Min.X(), localAABB.Min.Y(), localAABB.Min.Z()},
		{localAABB.Max.X(), localAABB.Min.Y(), localAABB.Min.Z()},
		{localAABB.Min.X(), localAABB.Max.Y(), localAABB.Min.Z()},
		{localAABB.Max.X(), localAABB.Max.Y(), localAABB.Min.Z()},
		{localAABB.Min.X(), localAABB.Min.Y(), localAABB.Max.Z()},
		{localAABB.Max.X(), localAABB.Min.Y(), localAABB.Max.Z()},
		{localAABB.Min.X(), localAABB.Max.Y(), localAABB.Max.Z()},
		{localAABB.Max.X(), localAABB.Max.Y(), localAABB.Max.Z()},
	}
	world := rotation.Rotate(corners[0]).Mul(scale).Add(position)
	min, max := world, world
	for i := 1; i < 8; i++ {
		w := rotation.Rotate(corners[i]).Mul(scale).Add(position)
		min = componentMin(min, w)
		max = componentMax(max, w)
	}
	return AABB{Min: min, Max: max}
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{minf(a.X(), b.X()), minf(a.Y(), b.Y()), minf(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{maxf(a.X(), b.X()), maxf(a.Y(), b.Y()), maxf(a.Z(), b.Z())}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// IntersectionRegion is the minimal octree region at a fixed depth
// that could touch a world AABB, in the cube's own [0,1]^3 frame.
type IntersectionRegion struct {
	Bounds traverse.RegionBounds
}

// OctantCount returns the number of lattice cells the region spans:
// Size.X * Size.Y * Size.Z, in {1, 2, 4, 8} for a region whose extent
// is 1 or 2 cells per axis.
func (r IntersectionRegion) OctantCount() int {
	s := r.Bounds.Size
	return int(s.X) * int(s.Y) * int(s.Z)
}

// NewIntersectionRegion transforms worldAABB into the cube's local
// [0,1]^3 frame (the cube occupies the world-space box
// [cubePosition, cubePosition + cubeScale]) and returns the minimal
// RegionBounds at targetDepth covering the overlap. The second return
// value is false if worldAABB doesn't overlap the cube at all.
func NewIntersectionRegion(worldAABB AABB, cubePosition mgl32.Vec3, cubeScale float32, targetDepth uint32) (IntersectionRegion, bool) {
	localMin := coord.WorldToNormalized(worldAABB.Min, cubePosition, cubeScale)
	localMax := coord.WorldToNormalized(worldAABB.Max, cubePosition, cubeScale)

	if localMax.X() <= 0 || localMin.X() >= 1 ||
		localMax.Y() <= 0 || localMin.Y() >= 1 ||
		localMax.Z() <= 0 || localMin.Z() >= 1 {
		return IntersectionRegion{}, false
	}

	clamp01 := func(v float32) float32 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	lmin := mgl32.Vec3{clamp01(localMin.X()), clamp01(localMin.Y()), clamp01(localMin.Z())}
	lmax := mgl32.Vec3{clamp01(localMax.X()), clamp01(localMax.Y()), clamp01(localMax.Z())}

	res := float32(int32(1) << targetDepth)
	loAxis := func(v float32) int32 {
		i := int32(v * res)
		if i < 0 {
			return 0
		}
		max := int32(1)<<targetDepth - 1
		if i > max {
			return max
		}
		return i
	}
	hiAxis := func(v float32, lo int32) int32 {
		i := int32(ceil32(v * res))
		resInt := int32(1) << targetDepth
		if i > resInt {
			i = resInt
		}
		if i <= lo {
			i = lo + 1
		}
		return i
	}

	lo := coord.IVec3{X: loAxis(lmin.X()), Y: loAxis(lmin.Y()), Z: loAxis(lmin.Z())}
	hi := coord.IVec3{X: hiAxis(lmax.X(), lo.X), Y: hiAxis(lmax.Y(), lo.Y), Z: hiAxis(lmax.Z(), lo.Z)}

	bounds := traverse.RegionBounds{
		Pos:   lo,
		Size:  coord.IVec3{X: hi.X - lo.X, Y: hi.Y - lo.Y, Z: hi.Z - lo.Z},
		Depth: targetDepth,
	}
	return IntersectionRegion{Bounds: bounds}, true
}

func ceil32(v float32) float32 {
	i := float32(int32(v))
	if v > i {
		return i + 1
	}
	return i
}
