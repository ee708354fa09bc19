package progmesh

import (
	"errors"
	"slices"
	"testing"
)

func TestNew_MergesDuplicatePositions(t *testing.T) {
	// Center of a fan duplicated at indices 4 and 5.
	positions := [][3]float32{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}, {1, 1, 0}, {1, 1, 0}}
	indices := []uint32{4, 0, 1, 4, 1, 2, 5, 2, 3, 5, 3, 0}
	pm := mustMesh(t, positions, indices)

	fr := pm.frames[0]
	if pm.numCommon != 5 {
		t.Fatalf("common vertices = %d, want 5", pm.numCommon)
	}
	if fr.faceVerts[4].common != fr.faceVerts[5].common {
		t.Error("duplicated positions should share a common vertex")
	}
	if fr.faceVerts[5].realIndex != 5 {
		t.Errorf("face vertex keeps real index: got %d, want 5", fr.faceVerts[5].realIndex)
	}
	center := fr.faceVerts[4].common
	if !fr.verts[center].seam {
		t.Error("duplicated vertex should be marked as seam")
	}
	for i := 0; i < 4; i++ {
		if fr.verts[i].seam {
			t.Errorf("vertex %d should not be a seam", i)
		}
	}
	if len(fr.verts[center].faces) != 4 {
		t.Errorf("center faces = %d, want 4", len(fr.verts[center].faces))
	}
}

func TestNew_RejectsDegenerateTriangle(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	ib, _ := NewIndexBuffer(Index16, []uint32{0, 1, 3})
	_, err := New(NewPositionBuffer(positions), ib)
	if !errors.Is(err, ErrDegenerateTriangle) {
		t.Fatalf("expected ErrDegenerateTriangle, got %v", err)
	}
}

func TestNew_TopologyErrors(t *testing.T) {
	vb := NewPositionBuffer([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	tests := []struct {
		name    string
		ib      *IndexBuffer
		wantErr error
	}{
		{"nil", nil, ErrEmptyIndexBuffer},
		{"empty", &IndexBuffer{Width: Index32}, ErrEmptyIndexBuffer},
		{"ragged", &IndexBuffer{Width: Index32, Indices: []uint32{0, 1}}, ErrIndexCount},
		{"out of range", &IndexBuffer{Width: Index32, Indices: []uint32{0, 1, 3}}, ErrIndexOutOfRange},
		{"bad width", &IndexBuffer{Width: IndexWidth(24), Indices: []uint32{0, 1, 2}}, ErrInvalidIndexWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(vb, tt.ib)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAdjacency_IsSymmetric(t *testing.T) {
	positions, indices := uvSphere(6, 8)
	pm := mustMesh(t, positions, indices)
	fr := pm.frames[0]
	for v := range fr.verts {
		for _, n := range fr.verts[v].neighbors {
			if !slices.Contains(fr.verts[n].neighbors, v) {
				t.Fatalf("vertex %d lists %d but not the reverse", v, n)
			}
			if fr.sharedFaceCount(v, n) == 0 {
				t.Fatalf("neighbours %d and %d share no face", v, n)
			}
		}
	}
}

func TestBorderDetection(t *testing.T) {
	pm := meshFrom(t, quadStrip)
	fr := pm.frames[0]

	for v := range fr.verts {
		if !fr.isBorder(v) {
			t.Errorf("strip vertex %d should be on the border", v)
		}
	}
	if !fr.isManifoldEdgeWith(1, 0) {
		t.Error("edge 1-0 has a single face")
	}
	if fr.isManifoldEdgeWith(1, 4) {
		t.Error("edge 1-4 is shared by two faces")
	}

	closed := meshFrom(t, unitCube)
	for v := range closed.frames[0].verts {
		if closed.frames[0].isBorder(v) {
			t.Errorf("cube vertex %d should not be on a border", v)
		}
	}
}

func TestTriangleNormal(t *testing.T) {
	pm := meshFrom(t, unitCube)
	fr := pm.frames[0]
	// Top faces point up, bottom faces down.
	if n := fr.tris[2].normal; !approxEqual(n.Z(), 1, 1e-6) {
		t.Errorf("top normal = %v, want +Z", n)
	}
	if n := fr.tris[0].normal; !approxEqual(n.Z(), -1, 1e-6) {
		t.Errorf("bottom normal = %v, want -Z", n)
	}
}

func TestNotifyTriangleRemoved_PrunesAndIsolates(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	pm := mustMesh(t, positions, []uint32{0, 1, 2, 1, 3, 2})
	fr := pm.frames[0]

	fr.notifyTriangleRemoved(1)

	if !fr.tris[1].removed {
		t.Error("triangle should be flagged removed")
	}
	// Edge 1-2 survives through triangle 0.
	if !slices.Contains(fr.verts[1].neighbors, 2) {
		t.Error("vertices 1 and 2 still share triangle 0")
	}
	if slices.Contains(fr.verts[1].neighbors, 3) {
		t.Error("vertex 3 should no longer neighbour vertex 1")
	}
	if !fr.verts[3].removed {
		t.Error("vertex 3 lost its last neighbour and should be removed")
	}
	if fr.verts[3].collapseCost != inf {
		t.Errorf("isolated vertex cost = %v, want +Inf", fr.verts[3].collapseCost)
	}
}

func TestReplaceCorner(t *testing.T) {
	pm := meshFrom(t, quadStrip)
	fr := pm.frames[0]

	// Move corner 0 of triangle 1 (0, 4, 3) onto vertex 1.
	fr.replaceCorner(1, 0, 1)

	if got := fr.tris[1].corners; got != [3]int{1, 4, 3} {
		t.Fatalf("corners = %v, want [1 4 3]", got)
	}
	if slices.Contains(fr.verts[0].faces, 1) {
		t.Error("vertex 0 should no longer list triangle 1")
	}
	if !slices.Contains(fr.verts[1].faces, 1) {
		t.Error("vertex 1 should list triangle 1")
	}
	if !slices.Contains(fr.verts[1].neighbors, 3) || !slices.Contains(fr.verts[3].neighbors, 1) {
		t.Error("vertices 1 and 3 should now be neighbours")
	}
	// 0 and 3 no longer share a face.
	if slices.Contains(fr.verts[0].neighbors, 3) || slices.Contains(fr.verts[3].neighbors, 0) {
		t.Error("vertices 0 and 3 should have dropped each other")
	}
	if n := fr.tris[1].normal; !approxEqual(n.Z(), 1, 1e-6) {
		t.Errorf("normal = %v, want +Z", n)
	}
}

func TestReplaceCorner_PanicsOnDegenerateResult(t *testing.T) {
	pm := meshFrom(t, quadStrip)
	fr := pm.frames[0]

	defer func() {
		r := recover()
		if _, ok := r.(*InvariantError); !ok {
			t.Fatalf("expected *InvariantError panic, got %v", r)
		}
	}()
	// Triangle 0 is (0, 1, 4); moving 0 onto 4 would repeat a corner.
	fr.replaceCorner(0, 0, 4)
}

func TestAddFrame(t *testing.T) {
	positions, indices := quadStrip()
	pm := mustMesh(t, positions, indices)

	lifted := make([][3]float32, len(positions))
	for i, p := range positions {
		lifted[i] = [3]float32{p[0], p[1], p[0] * p[0]}
	}
	if err := pm.AddFrame(NewPositionBuffer(lifted)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	if pm.Stats().Frames != 2 {
		t.Fatalf("frames = %d, want 2", pm.Stats().Frames)
	}

	fr := pm.frames[1]
	if got := fr.verts[2].pos.Z(); got != 4 {
		t.Errorf("frame position z = %v, want 4", got)
	}
	if len(fr.tris) != len(pm.frames[0].tris) {
		t.Errorf("frame triangles = %d, want %d", len(fr.tris), len(pm.frames[0].tris))
	}

	err := pm.AddFrame(NewPositionBuffer(lifted[:4]))
	if !errors.Is(err, ErrFrameMismatch) {
		t.Errorf("expected ErrFrameMismatch, got %v", err)
	}
}
