// Package coord implements the coordinate algebra shared by the
// traversal, face-builder, raycaster, and collider components: octant
// indexing, CubeCoord lattice positions, face identity, and the
// normalized/world affine transform.
package coord

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// IVec3 is an integer lattice position or extent.
type IVec3 struct {
	X, Y, Z int32
}

// Add returns the componentwise sum of v and o.
func (v IVec3) Add(o IVec3) IVec3 {
	return IVec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Face identifies one of the six faces of a cube by its outward
// normal: Left, Right, Bottom, Top, Back, Front.
type Face uint8

const (
	FaceLeft   Face = iota // -X
	FaceRight              // +X
	FaceBottom             // -Y
	FaceTop                // +Y
	FaceBack               // -Z
	FaceFront              // +Z

	numFaces = 6
)

// NumFaces is the number of distinct Face values.
const NumFaces = numFaces

func (f Face) String() string {
	switch f {
	case FaceLeft:
		return "Left"
	case FaceRight:
		return "Right"
	case FaceBottom:
		return "Bottom"
	case FaceTop:
		return "Top"
	case FaceBack:
		return "Back"
	case FaceFront:
		return "Front"
	default:
		return "InvalidFace"
	}
}

// Axis returns the coordinate axis (0=X, 1=Y, 2=Z) that f is
// perpendicular to.
func (f Face) Axis() int {
	return int(f) / 2
}

// Sign returns +1 for the positive-facing member of f's axis pair
// (Right, Top, Front) and -1 for the negative-facing member (Left,
// Bottom, Back).
func (f Face) Sign() int32 {
	if f%2 == 1 {
		return 1
	}
	return -1
}

// Opposite returns the face with the same axis and opposite sign.
func (f Face) Opposite() Face {
	return f ^ 1
}

// Normal returns the outward unit normal vector for f.
func (f Face) Normal() mgl32.Vec3 {
	var n mgl32.Vec3
	n[f.Axis()] = float32(f.Sign())
	return n
}

// FaceFromAxisSign returns the Face on the given axis (0,1,2) whose
// sign matches sign (negative sign -> sign<0).
func FaceFromAxisSign(axis int, sign float32) Face {
	base := Face(axis * 2)
	if sign < 0 {
		return base
	}
	return base + 1
}

// CubeCoord identifies a sub-cube by its integer lattice position at
// resolution 2^Depth. It is valid when 0 <= Pos.{X,Y,Z} < 2^Depth.
type CubeCoord struct {
	Pos   IVec3
	Depth uint32
}

// Root is the CubeCoord of the whole cube (depth 0).
var Root = CubeCoord{}

// resolution returns 2^Depth.
func (c CubeCoord) resolution() int32 {
	return int32(1) << c.Depth
}

// Valid reports whether c's position is in range for its depth.
func (c CubeCoord) Valid() bool {
	n := c.resolution()
	return c.Pos.X >= 0 && c.Pos.X < n &&
		c.Pos.Y >= 0 && c.Pos.Y < n &&
		c.Pos.Z >= 0 && c.Pos.Z < n
}

// Child appends octant (0..8, see Index) to c, returning the
// CubeCoord of that octant at depth+1.
func (c CubeCoord) Child(octant int) CubeCoord {
	return CubeCoord{
		Pos: IVec3{
			X: c.Pos.X<<1 | int32(octant&1),
			Y: c.Pos.Y<<1 | int32((octant>>1)&1),
			Z: c.Pos.Z<<1 | int32((octant>>2)&1),
		},
		Depth: c.Depth + 1,
	}
}

// Octant returns the 0..8 octant index of c relative to its parent,
// and the parent's CubeCoord. Calling it on Root is a programming
// error and panics: the root has no parent.
func (c CubeCoord) Octant() (octant int, parent CubeCoord) {
	if c.Depth == 0 {
		panic("coord: Octant called on the root CubeCoord")
	}
	octant = int(c.Pos.X&1) | int(c.Pos.Y&1)<<1 | int(c.Pos.Z&1)<<2
	parent = CubeCoord{
		Pos:   IVec3{X: c.Pos.X >> 1, Y: c.Pos.Y >> 1, Z: c.Pos.Z >> 1},
		Depth: c.Depth - 1,
	}
	return octant, parent
}

// Neighbor returns the CubeCoord adjacent to c across face f at the
// same depth, and false if that neighbor would fall outside the root.
func (c CubeCoord) Neighbor(f Face) (CubeCoord, bool) {
	n := c.resolution()
	p := c.Pos
	switch f.Axis() {
	case 0:
		p.X += f.Sign()
	case 1:
		p.Y += f.Sign()
	case 2:
		p.Z += f.Sign()
	}
	if p.X < 0 || p.X >= n || p.Y < 0 || p.Y >= n || p.Z < 0 || p.Z >= n {
		return CubeCoord{}, false
	}
	return CubeCoord{Pos: p, Depth: c.Depth}, true
}

// ToAABBNormalized returns the [0,1]^3-space box c denotes: a cube of
// side 2^-Depth with min corner Pos * 2^-Depth.
func (c CubeCoord) ToAABBNormalized() (min, max mgl32.Vec3) {
	size := float32(1) / float32(uint64(1)<<c.Depth)
	min = mgl32.Vec3{float32(c.Pos.X) * size, float32(c.Pos.Y) * size, float32(c.Pos.Z) * size}
	max = mgl32.Vec3{min.X() + size, min.Y() + size, min.Z() + size}
	return min, max
}

// ToAABBCentered returns the [-1,1]^3-space box c denotes — the
// convention the raycaster uses (Q1). It is ToAABBNormalized rescaled
// and re-centered.
func (c CubeCoord) ToAABBCentered() (min, max mgl32.Vec3) {
	nmin, nmax := c.ToAABBNormalized()
	return NormalizedToCentered(nmin), NormalizedToCentered(nmax)
}

// Size returns the side length of the box c denotes, 2^-Depth.
func (c CubeCoord) Size() float32 {
	return float32(1) / float32(uint64(1)<<c.Depth)
}

// NormalizedToCentered maps a point from [0,1]^3 to [-1,1]^3.
func NormalizedToCentered(p mgl32.Vec3) mgl32.Vec3 {
	return p.Mul(2).Sub(mgl32.Vec3{1, 1, 1})
}

// CenteredToNormalized maps a point from [-1,1]^3 to [0,1]^3, the
// inverse of NormalizedToCentered.
func CenteredToNormalized(p mgl32.Vec3) mgl32.Vec3 {
	return p.Add(mgl32.Vec3{1, 1, 1}).Mul(0.5)
}

// NormalizedToWorld maps a point in normalized cube space (whichever
// convention the caller is using) to world space under the
// consumer-supplied affine (center, scale): world = center + p*scale.
func NormalizedToWorld(p, center mgl32.Vec3, scale float32) mgl32.Vec3 {
	return center.Add(p.Mul(scale))
}

// WorldToNormalized is the inverse of NormalizedToWorld.
func WorldToNormalized(p, center mgl32.Vec3, scale float32) mgl32.Vec3 {
	return p.Sub(center).Mul(1 / scale)
}

// Index returns the 0..8 octant index for a point within a parent
// cube occupying [0,1]^3, using the sign rule: bit0 = x>=0.5,
// bit1 = y>=0.5, bit2 = z>=0.5.
func Index(posInParentUnit mgl32.Vec3) int {
	idx := 0
	if posInParentUnit.X() >= 0.5 {
		idx |= 1
	}
	if posInParentUnit.Y() >= 0.5 {
		idx |= 2
	}
	if posInParentUnit.Z() >= 0.5 {
		idx |= 4
	}
	return idx
}

// IndexCentered returns the 0..8 octant index for a point within a
// parent cube occupying [-1,1]^3 (the raycaster's convention), with
// a tie-break for the boundary case: a coordinate exactly on the
// midplane (0) resolves by the sign of the corresponding ray-direction
// component instead of defaulting to a fixed side.
func IndexCentered(posInParentCentered, rayDir mgl32.Vec3) int {
	idx := 0
	if bit(posInParentCentered.X(), rayDir.X()) {
		idx |= 1
	}
	if bit(posInParentCentered.Y(), rayDir.Y()) {
		idx |= 2
	}
	if bit(posInParentCentered.Z(), rayDir.Z()) {
		idx |= 4
	}
	return idx
}

func bit(p, dir float32) bool {
	if p > 0 {
		return true
	}
	if p < 0 {
		return false
	}
	return dir >= 0
}

// OctantOffset returns the per-axis sign (-1 or +1) of octant's
// position within its parent's centered [-1,1]^3 frame.
func OctantOffset(octant int) mgl32.Vec3 {
	sign := func(bitSet bool) float32 {
		if bitSet {
			return 1
		}
		return -1
	}
	return mgl32.Vec3{
		sign(octant&1 != 0),
		sign(octant&2 != 0),
		sign(octant&4 != 0),
	}
}

// FloorDiv performs integer division that rounds toward negative
// infinity, unlike Go's built-in truncating division.
func FloorDiv(a, b int32) int32 {
	if (a < 0) != (b < 0) && a%b != 0 {
		return a/b - 1
	}
	return a / b
}

// Mod returns the remainder of a/b, always in [0, b).
func Mod(a, b int32) int32 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

// ApproxAxisAligned reports whether dir is within angleEpsilon
// (radians, small-angle approximation via sin) of one of the three
// coordinate axes. Used by the raycaster's axis-aligned shortcut.
func ApproxAxisAligned(dir mgl32.Vec3, angleEpsilon float32) (axis int, aligned bool) {
	length := dir.Len()
	if length == 0 {
		return 0, false
	}
	n := dir.Mul(1 / length)
	best := 0
	bestAbs := math32.Abs(n[0])
	for i := 1; i < 3; i++ {
		if a := math32.Abs(n[i]); a > bestAbs {
			bestAbs = a
			best = i
		}
	}
	// sin(angle) ~= sqrt(1 - bestAbs^2) for the deviation from the axis.
	off := math32.Sqrt(math32.Max(0, 1-bestAbs*bestAbs))
	return best, off <= angleEpsilon
}
