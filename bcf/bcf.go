// Package bcf implements the Binary Cube Format v1 codec: a
// deterministic, byte-aligned encoding of a *cube.Cube[uint8] such
// that decode(encode(c)) is structurally equal to c, and
// encode(decode(encode(c))) reproduces the same bytes. The codec is
// monomorphized to uint8 materials, matching the wire format's
// one-byte-per-value leaves.
package bcf

import "cubecore/cube"

// Magic is the fixed 4-byte file signature, "BCF1".
var Magic = [4]byte{'B', 'C', 'F', '1'}

// Version is the only version this package writes or accepts.
const Version uint8 = 1

// MaxDepth is the recursion depth limit enforced on both encode and
// decode.
const MaxDepth = 64

const headerSize = 12

const (
	typeExtendedLeaf  = 0x80
	typeOctaLeaves    = 0x90
	typeOctaPointers  = 0xA0
	typeHighNibbleBit = 0x80
)

// Encode serializes root to the BCF1 byte format. Shared subtrees are
// serialized once per reference (no deduplication); use EncodeDeduped
// for byte-for-byte subtree sharing. Encode rejects trees deeper than
// MaxDepth with RecursionLimit.
func Encode(root *cube.Cube[uint8]) ([]byte, error) {
	return encode(root, false)
}

// EncodeDeduped is Encode with an optional subtree-deduplication pass
// enabled: structurally identical subtrees are written once and
// referenced by multiple pointers.
func EncodeDeduped(root *cube.Cube[uint8]) ([]byte, error) {
	return encode(root, true)
}

func encode(root *cube.Cube[uint8], dedupe bool) ([]byte, error) {
	if cube.Depth(root) > MaxDepth {
		return nil, RecursionLimit{}
	}

	buf := make([]byte, headerSize)
	var seen map[*cube.Cube[uint8]]uint32
	if dedupe {
		seen = make(map[*cube.Cube[uint8]]uint32)
	}

	var encodeNode func(node *cube.Cube[uint8], depth int) (uint32, error)
	encodeNode = func(node *cube.Cube[uint8], depth int) (uint32, error) {
		if depth > MaxDepth {
			return 0, RecursionLimit{}
		}
		if dedupe {
			if off, ok := seen[node]; ok {
				return off, nil
			}
		}

		var offset uint32
		switch {
		case node.Kind() == cube.KindSolid:
			v := node.Value()
			offset = uint32(len(buf))
			if v < 128 {
				buf = append(buf, v)
			} else {
				buf = append(buf, typeExtendedLeaf, v)
			}

		case allChildrenSolid(node):
			offset = uint32(len(buf))
			buf = append(buf, typeOctaLeaves)
			for i := 0; i < cube.NumOctants; i++ {
				buf = append(buf, node.Child(i).Value())
			}

		default:
			var childOffsets [cube.NumOctants]uint32
			for i := 0; i < cube.NumOctants; i++ {
				co, err := encodeNode(node.Child(i), depth+1)
				if err != nil {
					return 0, err
				}
				childOffsets[i] = co
			}
			var maxOff uint32
			for _, o := range childOffsets {
				if o > maxOff {
					maxOff = o
				}
			}
			ssss, size := pointerSizeFor(maxOff)
			offset = uint32(len(buf))
			buf = append(buf, typeOctaPointers|byte(ssss))
			for _, o := range childOffsets {
				buf = appendUintLE(buf, o, size)
			}
		}

		if dedupe {
			seen[node] = offset
		}
		return offset, nil
	}

	rootOffset, err := encodeNode(root, 0)
	if err != nil {
		return nil, err
	}
	copy(buf[0:4], Magic[:])
	buf[4] = Version
	buf[5], buf[6], buf[7] = 0, 0, 0
	putUint32LE(buf[8:12], rootOffset)
	return buf, nil
}

func allChildrenSolid(node *cube.Cube[uint8]) bool {
	for i := 0; i < cube.NumOctants; i++ {
		if node.Child(i).Kind() != cube.KindSolid {
			return false
		}
	}
	return true
}

// pointerSizeFor returns the smallest SSSS code (and its byte size)
// whose representable range covers maxOffset.
func pointerSizeFor(maxOffset uint32) (ssss int, size int) {
	switch {
	case maxOffset < 1<<8:
		return 0, 1
	case maxOffset < 1<<16:
		return 1, 2
	default:
		return 2, 4
	}
}

func appendUintLE(buf []byte, v uint32, size int) []byte {
	for i := 0; i < size; i++ {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func readUintLE(b []byte) uint64 {
	var v uint64
	for i, bb := range b {
		v |= uint64(bb) << (8 * uint(i))
	}
	return v
}

// Decode parses a BCF1 buffer into a *cube.Cube[uint8], rejecting any
// malformed input. It never returns a partial cube: any error means
// the whole call failed.
func Decode(data []byte) (*cube.Cube[uint8], error) {
	if len(data) < headerSize {
		return nil, TruncatedData{Expected: headerSize, Actual: len(data)}
	}
	var found [4]byte
	copy(found[:], data[0:4])
	if found != Magic {
		return nil, InvalidMagic{Found: found}
	}
	version := data[4]
	if version != Version {
		return nil, UnsupportedVersion{Version: version}
	}
	rootOffset := uint32(readUintLE(data[8:12]))
	if uint64(rootOffset) >= uint64(len(data)) {
		return nil, InvalidOffset{Offset: uint64(rootOffset), FileSize: uint64(len(data))}
	}
	return decodeNode(data, rootOffset, 0)
}

func decodeNode(data []byte, offset uint32, depth int) (*cube.Cube[uint8], error) {
	if depth > MaxDepth {
		return nil, RecursionLimit{}
	}
	if uint64(offset) >= uint64(len(data)) {
		return nil, InvalidOffset{Offset: uint64(offset), FileSize: uint64(len(data))}
	}
	b := data[offset]

	if b&typeHighNibbleBit == 0 {
		return cube.Solid(b), nil
	}

	switch b & 0xF0 {
	case typeExtendedLeaf:
		need := int(offset) + 2
		if need > len(data) {
			return nil, TruncatedData{Expected: need, Actual: len(data)}
		}
		return cube.Solid(data[offset+1]), nil

	case typeOctaLeaves:
		need := int(offset) + 1 + cube.NumOctants
		if need > len(data) {
			return nil, TruncatedData{Expected: need, Actual: len(data)}
		}
		var children [cube.NumOctants]*cube.Cube[uint8]
		for i := 0; i < cube.NumOctants; i++ {
			children[i] = cube.Solid(data[int(offset)+1+i])
		}
		return cube.Subdivide(children), nil

	case typeOctaPointers:
		ssss := b & 0x0F
		if ssss > 3 {
			return nil, InvalidPointerSize{SSSS: ssss, Offset: int(offset)}
		}
		size := 1 << ssss
		need := int(offset) + 1 + cube.NumOctants*size
		if need > len(data) {
			return nil, TruncatedData{Expected: need, Actual: len(data)}
		}
		var children [cube.NumOctants]*cube.Cube[uint8]
		for i := 0; i < cube.NumOctants; i++ {
			fieldOffset := int(offset) + 1 + i*size
			childOffset := uint32(readUintLE(data[fieldOffset : fieldOffset+size]))
			if uint64(childOffset) >= uint64(len(data)) || uint64(childOffset) >= uint64(offset) {
				return nil, InvalidOffset{Offset: uint64(childOffset), FileSize: uint64(len(data))}
			}
			child, err := decodeNode(data, childOffset, depth+1)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		return cube.Subdivide(children), nil

	default:
		return nil, InvalidTypeId{Byte: b, Offset: int(offset)}
	}
}
