// Package face turns a traversal of a Cube into the flat list of
// exposed quads a mesher or collider consumes: one Quad per
// leaf/neighbor pair where the neighbor is empty or a different
// material, skipping internal faces entirely.
package face

import (
	"cubecore/coord"
	"cubecore/cube"
	"cubecore/traverse"

	"github.com/go-gl/mathgl/mgl32"
)

// IsEmpty reports whether a material value represents "no voxel"
// rather than a solid block. Callers with a richer material type
// supply their own; for the library's own uint8 material convention,
// zero means empty (cube.IsEmptyUint8).
type IsEmpty[T comparable] func(T) bool

// Quad describes one exposed face of one leaf voxel: its direction,
// its center in the [0,1]^3 normalized convention, the voxel's side
// length (size), and the leaf's material.
type Quad[T comparable] struct {
	Face     coord.Face
	Center   mgl32.Vec3
	Size     float32
	Material T
}

// center computes the center of the square face `f` of the voxel box
// [min, max], in the [0,1]^3 normalized convention.
func center(min, max mgl32.Vec3, f coord.Face) mgl32.Vec3 {
	mid := min.Add(max).Mul(0.5)
	axis := f.Axis()
	if f.Sign() < 0 {
		mid[axis] = min[axis]
	} else {
		mid[axis] = max[axis]
	}
	return mid
}

// Visit walks every leaf of root and calls emit once per exposed face:
// a face is exposed when the neighbor material is empty (per isEmpty)
// or differs from the leaf's own material. Faces against the border
// outside root use border's per-face policy.
func Visit[T comparable](root *cube.Cube[T], border traverse.BorderMaterials[T], maxDepth uint32, isEmpty IsEmpty[T], emit func(coord.CubeCoord, Quad[T])) {
	traverse.TraverseWithNeighbors(root, border, maxDepth, func(c coord.CubeCoord, v T, nb traverse.NeighborView[T]) {
		if isEmpty(v) {
			return
		}
		min, max := c.ToAABBNormalized()
		extent := max.X() - min.X()
		for f := coord.Face(0); f < coord.NumFaces; f++ {
			nv := nb.Get(f)
			if isEmpty(nv) || nv != v {
				emit(c, Quad[T]{Face: f, Center: center(min, max, f), Size: extent, Material: v})
			}
		}
	})
}

// VisitInRegion is Visit restricted to the leaves whose lattice box
// intersects bounds, for building partial collision/mesh geometry
// around a moving object without walking the whole world.
func VisitInRegion[T comparable](root *cube.Cube[T], bounds traverse.RegionBounds, border traverse.BorderMaterials[T], isEmpty IsEmpty[T], emit func(coord.CubeCoord, Quad[T])) {
	traverse.VisitFacesInRegion(root, bounds, border, func(c coord.CubeCoord, v T, nb traverse.NeighborView[T]) {
		if isEmpty(v) {
			return
		}
		min, max := c.ToAABBNormalized()
		extent := max.X() - min.X()
		for f := coord.Face(0); f < coord.NumFaces; f++ {
			nv := nb.Get(f)
			if isEmpty(nv) || nv != v {
				emit(c, Quad[T]{Face: f, Center: center(min, max, f), Size: extent, Material: v})
			}
		}
	})
}
