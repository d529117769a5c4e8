// Package traverse implements the three DFS visitation primitives
// that every face-culling and collision-geometry consumer builds on:
// a plain leaf walk, a neighbor-aware walk used for face exposure,
// and a region-bounded variant of the neighbor-aware walk.
//
// All three visit octants in index order 0..7 within a subdivided
// node, which is what makes their output a pure function of the
// input cube.
package traverse

import (
	"cubecore/coord"
	"cubecore/cube"
)

// BorderMaterials is the policy for what lies outside the root cube:
// one material per cube face, indexed by coord.Face.
type BorderMaterials[T comparable] [coord.NumFaces]T

// NeighborView exposes the material across each of a leaf's six
// faces during a neighbor-aware traversal.
type NeighborView[T comparable] interface {
	Get(f coord.Face) T
}

type neighborView[T comparable] struct {
	root   *cube.Cube[T]
	coord  coord.CubeCoord
	border BorderMaterials[T]
	zero   T
}

func (v *neighborView[T]) Get(f coord.Face) T {
	n, ok := v.coord.Neighbor(f)
	if !ok {
		return v.border[f]
	}
	return get(v.root, n, v.zero)
}

// get descends from root toward coord, returning the Solid value
// encountered first — possibly before reaching coord.Depth, if a
// coarser ancestor is already a homogeneous Solid region.
func get[T comparable](root *cube.Cube[T], target coord.CubeCoord, defaultVal T) T {
	node := root
	for depth := uint32(0); depth < target.Depth; depth++ {
		if node.Kind() == cube.KindSolid {
			return node.Value()
		}
		shift := target.Depth - depth - 1
		octant := int((target.Pos.X>>shift)&1) |
			int((target.Pos.Y>>shift)&1)<<1 |
			int((target.Pos.Z>>shift)&1)<<2
		node = node.Child(octant)
	}
	if node.Kind() == cube.KindSolid {
		return node.Value()
	}
	return defaultVal
}

// Get exposes the descent the neighbor view uses internally, for
// callers that want to sample a Cube at an arbitrary CubeCoord
// without walking the whole tree themselves.
func Get[T comparable](root *cube.Cube[T], target coord.CubeCoord, defaultOnPastLeaf T) T {
	return get(root, target, defaultOnPastLeaf)
}

// SampleFunc resolves the "virtual leaf" value of a Subdivided cube
// encountered at the traversal's max depth.
type SampleFunc[T comparable] func(node *cube.Cube[T]) T

// defaultSample descends octant 0 until it finds a Solid. It is the
// deterministic default policy; callers wanting "majority" or another
// policy supply their own SampleFunc.
func defaultSample[T comparable](node *cube.Cube[T]) T {
	for node.Kind() == cube.KindSubdivided {
		node = node.Child(0)
	}
	return node.Value()
}

// resolveLeaf returns the value of node, applying sample only when
// node is still Subdivided at the max depth.
func resolveLeaf[T comparable](node *cube.Cube[T], sample SampleFunc[T]) T {
	if node.Kind() == cube.KindSolid {
		return node.Value()
	}
	return sample(node)
}

// TraverseLeaves performs a depth-first walk of cube, calling visit
// for every Solid leaf at depth <= maxDepth. A Subdivided node
// reached exactly at maxDepth is treated as a virtual leaf sampled by
// the default octant-0 policy (see WithMaxDepthSample to override).
func TraverseLeaves[T comparable](root *cube.Cube[T], maxDepth uint32, visit func(coord.CubeCoord, T), opts ...LeafOption[T]) {
	cfg := leafConfig[T]{sample: defaultSample[T]}
	for _, o := range opts {
		o(&cfg)
	}
	var walk func(node *cube.Cube[T], c coord.CubeCoord)
	walk = func(node *cube.Cube[T], c coord.CubeCoord) {
		if node.Kind() == cube.KindSolid || c.Depth == maxDepth {
			visit(c, resolveLeaf(node, cfg.sample))
			return
		}
		for octant := 0; octant < cube.NumOctants; octant++ {
			walk(node.Child(octant), c.Child(octant))
		}
	}
	walk(root, coord.Root)
}

type leafConfig[T comparable] struct {
	sample SampleFunc[T]
}

// LeafOption configures TraverseLeaves.
type LeafOption[T comparable] func(*leafConfig[T])

// WithMaxDepthSample overrides the default octant-0 sampling policy
// used for a Subdivided node encountered at max depth.
func WithMaxDepthSample[T comparable](f SampleFunc[T]) LeafOption[T] {
	return func(c *leafConfig[T]) { c.sample = f }
}

// TraverseWithNeighbors performs the same walk as TraverseLeaves, but
// visit also receives a NeighborView exposing the six face-adjacent
// materials (border materials outside the root), which is the basis
// for face culling: a face is exposed iff the neighbor is empty or of
// a different material than the visited leaf.
func TraverseWithNeighbors[T comparable](root *cube.Cube[T], border BorderMaterials[T], maxDepth uint32, visit func(coord.CubeCoord, T, NeighborView[T]), opts ...LeafOption[T]) {
	cfg := leafConfig[T]{sample: defaultSample[T]}
	for _, o := range opts {
		o(&cfg)
	}
	var zero T
	var walk func(node *cube.Cube[T], c coord.CubeCoord)
	walk = func(node *cube.Cube[T], c coord.CubeCoord) {
		if node.Kind() == cube.KindSolid || c.Depth == maxDepth {
			v := resolveLeaf(node, cfg.sample)
			view := &neighborView[T]{root: root, coord: c, border: border, zero: zero}
			visit(c, v, view)
			return
		}
		for octant := 0; octant < cube.NumOctants; octant++ {
			walk(node.Child(octant), c.Child(octant))
		}
	}
	walk(root, coord.Root)
}

// RegionBounds is an axis-aligned box in octree-lattice units at a
// fixed Depth, used to restrict a traversal to the part of the world
// that could interact with a dynamic object.
type RegionBounds struct {
	Pos   coord.IVec3
	Size  coord.IVec3
	Depth uint32
}

// Max returns the exclusive upper corner of b (Pos + Size).
func (b RegionBounds) Max() coord.IVec3 {
	return b.Pos.Add(b.Size)
}

// intersectsLattice reports whether the lattice box [lo,hi) at depth
// `atDepth` (inclusive lo, exclusive hi, in that depth's own
// resolution) overlaps b after rescaling both to a common depth.
func (b RegionBounds) intersectsLattice(lo, hi coord.IVec3, atDepth uint32) bool {
	blo, bhi := b.Pos, b.Max()
	// Rescale the region bounds (given at b.Depth) to atDepth so the
	// comparison happens in matching lattice units.
	rescale := func(v coord.IVec3, from, to uint32) coord.IVec3 {
		if from == to {
			return v
		}
		if to > from {
			shift := to - from
			return coord.IVec3{X: v.X << shift, Y: v.Y << shift, Z: v.Z << shift}
		}
		shift := from - to
		return coord.IVec3{X: v.X >> shift, Y: v.Y >> shift, Z: v.Z >> shift}
	}
	blo = rescale(blo, b.Depth, atDepth)
	bhi = rescale(bhi, b.Depth, atDepth)
	// When rescaling the region to a coarser depth, stretch the upper
	// bound up to cover any partial cell (ceil), so a node that only
	// partially overlaps at fine resolution isn't missed at a coarser
	// test depth. bhi computed from Pos+Size already does this at
	// finer-or-equal depths; for b.Depth > atDepth (going coarser) we
	// must round the max up.
	if atDepth < b.Depth {
		shift := b.Depth - atDepth
		mask := (int32(1) << shift) - 1
		max := b.Max()
		if max.X&mask != 0 {
			bhi.X++
		}
		if max.Y&mask != 0 {
			bhi.Y++
		}
		if max.Z&mask != 0 {
			bhi.Z++
		}
	}
	return lo.X < bhi.X && hi.X > blo.X &&
		lo.Y < bhi.Y && hi.Y > blo.Y &&
		lo.Z < bhi.Z && hi.Z > blo.Z
}

// VisitFacesInRegion restricts TraverseWithNeighbors to the leaves
// whose lattice box intersects bounds, producing exactly the same
// face set as an unrestricted traversal filtered to voxels
// intersecting bounds — no face emitted twice, none missed. It prunes
// whole subtrees whose lattice box doesn't intersect bounds rather
// than visiting every leaf and filtering after the fact.
func VisitFacesInRegion[T comparable](root *cube.Cube[T], bounds RegionBounds, border BorderMaterials[T], visit func(coord.CubeCoord, T, NeighborView[T])) {
	var zero T
	var walk func(node *cube.Cube[T], c coord.CubeCoord)
	walk = func(node *cube.Cube[T], c coord.CubeCoord) {
		lo := c.Pos
		hi := coord.IVec3{X: lo.X + 1, Y: lo.Y + 1, Z: lo.Z + 1}
		if !bounds.intersectsLattice(lo, hi, c.Depth) {
			return
		}
		if node.Kind() == cube.KindSolid {
			v := node.Value()
			view := &neighborView[T]{root: root, coord: c, border: border, zero: zero}
			visit(c, v, view)
			return
		}
		for octant := 0; octant < cube.NumOctants; octant++ {
			walk(node.Child(octant), c.Child(octant))
		}
	}
	walk(root, coord.Root)
}
