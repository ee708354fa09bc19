package progmesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// positionSize is the byte size of an x/y/z float32 position element.
const positionSize = 12

// IndexWidth is the element size of an index buffer in bits.
type IndexWidth int

const (
	Index16 IndexWidth = 16
	Index32 IndexWidth = 32
)

// String returns "uint16" or "uint32".
func (w IndexWidth) String() string {
	switch w {
	case Index16:
		return "uint16"
	case Index32:
		return "uint32"
	default:
		return fmt.Sprintf("Unknown(%d)", int(w))
	}
}

// Size returns the element size in bytes.
func (w IndexWidth) Size() int {
	return int(w) / 8
}

func (w IndexWidth) valid() bool {
	return w == Index16 || w == Index32
}

// IndexBuffer is a triangle list. Indices are widened to uint32 in memory;
// Width records the element size used on the wire.
type IndexBuffer struct {
	Width   IndexWidth
	Indices []uint32
}

// NewIndexBuffer checks that every index fits the given width.
func NewIndexBuffer(width IndexWidth, indices []uint32) (*IndexBuffer, error) {
	if !width.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndexWidth, int(width))
	}
	if width == Index16 {
		for i, idx := range indices {
			if idx > math.MaxUint16 {
				return nil, fmt.Errorf("%w: index %d at %d does not fit uint16", ErrIndexOutOfRange, idx, i)
			}
		}
	}
	return &IndexBuffer{Width: width, Indices: indices}, nil
}

// ParseIndexBuffer decodes little-endian index data.
func ParseIndexBuffer(width IndexWidth, data []byte) (*IndexBuffer, error) {
	if !width.valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIndexWidth, int(width))
	}
	size := width.Size()
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrIndexCount, len(data), size)
	}

	indices := make([]uint32, len(data)/size)
	for i := range indices {
		if width == Index16 {
			indices[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		} else {
			indices[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return &IndexBuffer{Width: width, Indices: indices}, nil
}

// Bytes encodes the indices little-endian at the buffer's width.
func (b *IndexBuffer) Bytes() []byte {
	size := b.Width.Size()
	out := make([]byte, len(b.Indices)*size)
	for i, idx := range b.Indices {
		if b.Width == Index16 {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(idx))
		} else {
			binary.LittleEndian.PutUint32(out[i*4:], idx)
		}
	}
	return out
}

// Count returns the number of indices.
func (b *IndexBuffer) Count() int {
	return len(b.Indices)
}

// TriangleCount returns the number of whole triangles.
func (b *IndexBuffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// Triangle returns the index triple of triangle t.
func (b *IndexBuffer) Triangle(t int) [3]uint32 {
	return [3]uint32{b.Indices[t*3], b.Indices[t*3+1], b.Indices[t*3+2]}
}

// VertexBuffer is an interleaved vertex stream. Only the position element
// is read: three little-endian float32 values at Offset inside each
// Stride-byte vertex.
type VertexBuffer struct {
	Data   []byte
	Stride int
	Offset int
	Count  int
}

// NewPositionBuffer packs positions into a tightly packed buffer.
func NewPositionBuffer(positions [][3]float32) *VertexBuffer {
	data := make([]byte, len(positions)*positionSize)
	for i, p := range positions {
		for k := 0; k < 3; k++ {
			binary.LittleEndian.PutUint32(data[i*positionSize+k*4:], math.Float32bits(p[k]))
		}
	}
	return &VertexBuffer{
		Data:   data,
		Stride: positionSize,
		Offset: 0,
		Count:  len(positions),
	}
}

// Validate checks the layout against the data length and rejects
// non-finite positions.
func (vb *VertexBuffer) Validate() error {
	if vb == nil {
		return fmt.Errorf("%w: nil buffer", ErrInvalidVertexBuffer)
	}
	if vb.Count <= 0 {
		return fmt.Errorf("%w: vertex count %d", ErrInvalidVertexBuffer, vb.Count)
	}
	if vb.Offset < 0 || vb.Stride < vb.Offset+positionSize {
		return fmt.Errorf("%w: stride %d cannot hold a position at offset %d",
			ErrInvalidVertexBuffer, vb.Stride, vb.Offset)
	}
	need := (vb.Count-1)*vb.Stride + vb.Offset + positionSize
	if len(vb.Data) < need {
		return fmt.Errorf("%w: need %d bytes for %d vertices, have %d",
			ErrInvalidVertexBuffer, need, vb.Count, len(vb.Data))
	}
	for i := 0; i < vb.Count; i++ {
		p := vb.Position(i)
		for k := 0; k < 3; k++ {
			f := float64(p[k])
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: vertex %d has non-finite position %v", ErrInvalidVertexBuffer, i, p)
			}
		}
	}
	return nil
}

// Position reads the position of vertex i.
func (vb *VertexBuffer) Position(i int) mgl32.Vec3 {
	base := i*vb.Stride + vb.Offset
	return mgl32.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(vb.Data[base:])),
		math.Float32frombits(binary.LittleEndian.Uint32(vb.Data[base+4:])),
		math.Float32frombits(binary.LittleEndian.Uint32(vb.Data[base+8:])),
	}
}

// validateTopology checks the index buffer against a vertex count.
func validateTopology(ib *IndexBuffer, vertexCount int) error {
	if ib == nil || ib.Count() == 0 {
		return ErrEmptyIndexBuffer
	}
	if !ib.Width.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidIndexWidth, int(ib.Width))
	}
	if ib.Count()%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrIndexCount, ib.Count())
	}
	for i, idx := range ib.Indices {
		if int(idx) >= vertexCount {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrIndexOutOfRange, idx, i, vertexCount)
		}
		if ib.Width == Index16 && idx > math.MaxUint16 {
			return fmt.Errorf("%w: index %d at %d does not fit uint16", ErrIndexOutOfRange, idx, i)
		}
	}
	return nil
}
