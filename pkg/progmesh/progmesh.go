// Package progmesh builds progressive level-of-detail index buffers for
// triangle meshes by incremental edge collapse.
//
// The algorithm follows Stan Melax's progressive mesh reduction: every
// vertex caches its cheapest collapse, the globally cheapest vertex is
// merged into its target, and costs are recomputed around the change.
// Positions duplicated across texture seams are evaluated as one common
// vertex while baked LODs keep the original buffer indices. Extra position
// buffers (animation poses) can be added; a vertex is only collapsed when
// it is cheap in every one of them.
//
// A ProgressiveMesh is not safe for concurrent use. Independent meshes may
// be simplified in parallel.
package progmesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ProgressiveMesh holds the working state of one simplification run.
type ProgressiveMesh struct {
	indices    *IndexBuffer
	frames     []*frame // frames[0] is the reference frame used for baking
	origins    []int    // first buffer index of each common vertex
	worstCosts []float32
	indexCount int
	numCommon  int
	built      bool
	abandoned  bool
	log        *zap.Logger
}

// Option configures a ProgressiveMesh.
type Option func(*ProgressiveMesh)

// WithLogger sets the logger used for per-level summaries.
func WithLogger(l *zap.Logger) Option {
	return func(pm *ProgressiveMesh) {
		if l != nil {
			pm.log = l
		}
	}
}

// New ingests a vertex buffer and triangle list. Positions are merged by
// exact equality; a triangle using the same position twice is rejected.
func New(vb *VertexBuffer, ib *IndexBuffer, opts ...Option) (*ProgressiveMesh, error) {
	if err := vb.Validate(); err != nil {
		return nil, err
	}
	if err := validateTopology(ib, vb.Count); err != nil {
		return nil, err
	}

	pm := &ProgressiveMesh{
		indices: ib,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(pm)
	}

	fr := &frame{faceVerts: make([]faceVertex, vb.Count)}
	lookup := make(map[mgl32.Vec3]int)
	for i := 0; i < vb.Count; i++ {
		pos := vb.Position(i)
		c, ok := lookup[pos]
		if ok {
			fr.verts[c].seam = true
		} else {
			c = len(fr.verts)
			lookup[pos] = c
			fr.verts = append(fr.verts, newCommonVertex(pos, c))
			pm.origins = append(pm.origins, i)
		}
		fr.faceVerts[i] = faceVertex{realIndex: uint32(i), common: c}
	}
	pm.numCommon = len(fr.verts)

	if err := checkDistinctCorners(fr, ib); err != nil {
		return nil, err
	}
	buildTriangles(fr, ib)

	pm.frames = append(pm.frames, fr)
	pm.indexCount = ib.Count()

	pm.log.Debug("mesh ingested",
		zap.Int("vertices", vb.Count),
		zap.Int("commonVertices", pm.numCommon),
		zap.Int("triangles", ib.TriangleCount()))
	return pm, nil
}

// AddFrame adds an extra position buffer, such as an animation pose, that
// shares the reference topology. The buffer must have the same vertex
// count. Common vertices keep the grouping of the reference frame and take
// their position from the buffer entry that first introduced them.
func (pm *ProgressiveMesh) AddFrame(vb *VertexBuffer) error {
	if pm.built {
		return ErrAlreadyBuilt
	}
	if err := vb.Validate(); err != nil {
		return err
	}
	ref := pm.frames[0]
	if vb.Count != len(ref.faceVerts) {
		return fmt.Errorf("%w: frame has %d vertices, reference has %d",
			ErrFrameMismatch, vb.Count, len(ref.faceVerts))
	}

	fr := &frame{
		faceVerts: make([]faceVertex, len(ref.faceVerts)),
		verts:     make([]commonVertex, len(ref.verts)),
	}
	copy(fr.faceVerts, ref.faceVerts)
	for c := range fr.verts {
		fr.verts[c] = newCommonVertex(vb.Position(pm.origins[c]), c)
		fr.verts[c].seam = ref.verts[c].seam
	}
	buildTriangles(fr, pm.indices)

	pm.frames = append(pm.frames, fr)
	return nil
}

func newCommonVertex(pos mgl32.Vec3, index int) commonVertex {
	return commonVertex{
		pos:          pos,
		index:        index,
		collapseTo:   noVertex,
		collapseCost: inf,
	}
}

func checkDistinctCorners(fr *frame, ib *IndexBuffer) error {
	for t := 0; t < ib.TriangleCount(); t++ {
		tri := ib.Triangle(t)
		a := fr.faceVerts[tri[0]].common
		b := fr.faceVerts[tri[1]].common
		c := fr.faceVerts[tri[2]].common
		if a == b || b == c || c == a {
			return fmt.Errorf("triangle %d (%d, %d, %d): %w", t, tri[0], tri[1], tri[2], ErrDegenerateTriangle)
		}
	}
	return nil
}

func buildTriangles(fr *frame, ib *IndexBuffer) {
	fr.tris = make([]triangle, ib.TriangleCount())
	for t := range fr.tris {
		tri := ib.Triangle(t)
		fr.setTriangle(t, [3]int{int(tri[0]), int(tri[1]), int(tri[2])})
	}
}

// Stats is a snapshot of the reduction state.
type Stats struct {
	Frames         int
	CommonVertices int
	LiveVertices   int
	Triangles      int
	LiveTriangles  int
	IndexCount     int
	Abandoned      bool
}

// Stats reports the current state of the reference frame.
func (pm *ProgressiveMesh) Stats() Stats {
	ref := pm.frames[0]
	st := Stats{
		Frames:         len(pm.frames),
		CommonVertices: pm.numCommon,
		Triangles:      len(ref.tris),
		IndexCount:     pm.indexCount,
		LiveVertices:   pm.liveVertices(),
		Abandoned:      pm.abandoned,
	}
	for i := range ref.tris {
		if !ref.tris[i].removed {
			st.LiveTriangles++
		}
	}
	return st
}
