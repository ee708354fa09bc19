package progmesh

import (
	"errors"
	"fmt"
)

// Input contract errors. They are returned before any simplification work starts.
var (
	ErrInvalidVertexBuffer = errors.New("invalid vertex buffer")
	ErrInvalidIndexWidth   = errors.New("invalid index width")
	ErrEmptyIndexBuffer    = errors.New("index buffer is empty")
	ErrIndexCount          = errors.New("index count is not a multiple of 3")
	ErrIndexOutOfRange     = errors.New("index out of vertex range")
	ErrDegenerateTriangle  = errors.New("degenerate triangle")
	ErrFrameMismatch       = errors.New("frame vertex count mismatch")
	ErrInvalidQuota        = errors.New("invalid reduction quota")
	ErrInvalidLevelCount   = errors.New("invalid LOD level count")
	ErrAlreadyBuilt        = errors.New("progressive mesh already built")
)

// InvariantError describes a corrupted vertex/face graph. It is never
// returned; the collapse engine panics with it because there is no defined
// behaviour once adjacency is out of sync.
type InvariantError struct {
	Op       string
	Vertex   int
	Triangle int
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("progmesh: %s invariant violated (vertex %d, triangle %d): %s",
		e.Op, e.Vertex, e.Triangle, e.Detail)
}

func invariant(op string, vertex, triangle int, format string, args ...any) {
	panic(&InvariantError{
		Op:       op,
		Vertex:   vertex,
		Triangle: triangle,
		Detail:   fmt.Sprintf(format, args...),
	})
}
