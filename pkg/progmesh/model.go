package progmesh

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// noVertex marks an absent collapse target or corner.
const noVertex = -1

var inf = float32(math.Inf(1))

// faceVertex is one corner use of a vertex buffer entry. Several face
// vertices may share a common vertex when the buffer duplicates a position
// across a texture or normal seam.
type faceVertex struct {
	realIndex uint32 // index in the source vertex buffer
	common    int    // index into frame.verts
}

// commonVertex is one geometrically unique position. Surface evaluation
// happens on common vertices; faces keep the duplicated face vertices.
type commonVertex struct {
	pos          mgl32.Vec3
	index        int
	neighbors    []int // adjacent common vertices
	faces        []int // incident triangles
	collapseCost float32
	collapseTo   int
	removed      bool
	toBeRemoved  bool
	seam         bool // position is duplicated in the source buffer
}

// triangle is one face. corners hold face vertex indices in winding order.
type triangle struct {
	corners [3]int
	normal  mgl32.Vec3
	index   int
	removed bool
}

// frame is the working copy of one vertex position buffer. All frames of a
// mesh share the same common vertex and triangle index space.
type frame struct {
	faceVerts []faceVertex
	verts     []commonVertex
	tris      []triangle
}

// cornerCommon returns the common vertex behind corner k of triangle t.
func (fr *frame) cornerCommon(t, k int) int {
	return fr.faceVerts[fr.tris[t].corners[k]].common
}

func (fr *frame) hasCommon(t, v int) bool {
	return fr.cornerCommon(t, 0) == v || fr.cornerCommon(t, 1) == v || fr.cornerCommon(t, 2) == v
}

// cornerFor returns the face vertex of triangle t that uses common vertex v.
func (fr *frame) cornerFor(t, v int) int {
	for k := 0; k < 3; k++ {
		if fr.cornerCommon(t, k) == v {
			return fr.tris[t].corners[k]
		}
	}
	return noVertex
}

func (fr *frame) addIfNonNeighbor(v, n int) {
	vert := &fr.verts[v]
	if slices.Contains(vert.neighbors, n) {
		return
	}
	vert.neighbors = append(vert.neighbors, n)
}

// removeIfNonNeighbor drops n from v's neighbours unless a remaining face
// of v still spans both. A vertex left without neighbours is isolated and
// removed, unless it is the vertex being collapsed.
func (fr *frame) removeIfNonNeighbor(v, n int) {
	vert := &fr.verts[v]
	if !slices.Contains(vert.neighbors, n) {
		return
	}
	for _, f := range vert.faces {
		if fr.hasCommon(f, n) {
			return
		}
	}
	vert.neighbors = removeIndex(vert.neighbors, n)

	if len(vert.neighbors) == 0 && !vert.toBeRemoved {
		fr.notifyVertexRemoved(v)
	}
}

func (fr *frame) notifyVertexRemoved(v int) {
	vert := &fr.verts[v]
	for _, n := range vert.neighbors {
		fr.verts[n].neighbors = removeIndex(fr.verts[n].neighbors, v)
	}
	vert.removed = true
	vert.collapseTo = noVertex
	vert.collapseCost = inf
}

// sharedFaceCount counts the faces of v that also use n.
func (fr *frame) sharedFaceCount(v, n int) int {
	count := 0
	for _, f := range fr.verts[v].faces {
		if fr.hasCommon(f, n) {
			count++
		}
	}
	return count
}

// isBorder reports whether v sits on the edge of an open patch, i.e. one
// of its edges is used by a single triangle.
func (fr *frame) isBorder(v int) bool {
	for _, n := range fr.verts[v].neighbors {
		if fr.sharedFaceCount(v, n) == 1 {
			return true
		}
	}
	return false
}

// isManifoldEdgeWith reports whether edge v-n is used by exactly one face.
func (fr *frame) isManifoldEdgeWith(v, n int) bool {
	return fr.sharedFaceCount(v, n) == 1
}

// setTriangle initialises triangle t, registers it with its corners and
// makes the corners neighbours of each other.
func (fr *frame) setTriangle(t int, corners [3]int) {
	tri := &fr.tris[t]
	tri.index = t
	tri.corners = corners
	tri.removed = false

	a, b, c := fr.cornerCommon(t, 0), fr.cornerCommon(t, 1), fr.cornerCommon(t, 2)
	if a == b || b == c || c == a {
		invariant("setTriangle", a, t, "corners %d, %d, %d are not distinct", a, b, c)
	}
	fr.computeNormal(t)

	commons := [3]int{a, b, c}
	for i := 0; i < 3; i++ {
		fr.verts[commons[i]].faces = append(fr.verts[commons[i]].faces, t)
		for j := 0; j < 3; j++ {
			if i != j {
				fr.addIfNonNeighbor(commons[i], commons[j])
			}
		}
	}
}

func (fr *frame) computeNormal(t int) {
	fr.tris[t].normal = faceNormal(
		fr.verts[fr.cornerCommon(t, 0)].pos,
		fr.verts[fr.cornerCommon(t, 1)].pos,
		fr.verts[fr.cornerCommon(t, 2)].pos,
	)
}

// replaceCorner swaps face vertex oldFV for newFV in triangle t and
// refreshes the adjacency of every vertex involved.
func (fr *frame) replaceCorner(t, oldFV, newFV int) {
	tri := &fr.tris[t]
	slot := slices.Index(tri.corners[:], oldFV)
	if slot < 0 {
		invariant("replaceCorner", fr.faceVerts[oldFV].common, t, "face vertex %d is not a corner", oldFV)
	}
	oldC := fr.faceVerts[oldFV].common
	newC := fr.faceVerts[newFV].common
	if fr.hasCommon(t, newC) {
		invariant("replaceCorner", newC, t, "vertex %d is already a corner", newC)
	}

	tri.corners[slot] = newFV
	fr.verts[oldC].faces = removeIndex(fr.verts[oldC].faces, t)
	fr.verts[newC].faces = append(fr.verts[newC].faces, t)

	for k := 0; k < 3; k++ {
		c := fr.cornerCommon(t, k)
		fr.removeIfNonNeighbor(oldC, c)
		fr.removeIfNonNeighbor(c, oldC)
	}
	for i := 0; i < 3; i++ {
		ci := fr.cornerCommon(t, i)
		if !slices.Contains(fr.verts[ci].faces, t) {
			invariant("replaceCorner", ci, t, "corner does not list the triangle")
		}
		for j := 0; j < 3; j++ {
			if i != j {
				fr.addIfNonNeighbor(ci, fr.cornerCommon(t, j))
			}
		}
	}
	fr.computeNormal(t)
}

// notifyTriangleRemoved unregisters t from its corners. Edges stay
// adjacent when another face still spans them.
func (fr *frame) notifyTriangleRemoved(t int) {
	var commons [3]int
	for k := 0; k < 3; k++ {
		commons[k] = fr.cornerCommon(t, k)
		fr.verts[commons[k]].faces = removeIndex(fr.verts[commons[k]].faces, t)
	}
	for k := 0; k < 3; k++ {
		a, b := commons[k], commons[(k+1)%3]
		fr.removeIfNonNeighbor(a, b)
		fr.removeIfNonNeighbor(b, a)
	}
	fr.tris[t].removed = true
}

// faceNormal returns the unit normal of (b-a)x(c-b). Degenerate faces get
// the zero vector.
func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	return normalize(b.Sub(a).Cross(c.Sub(b)))
}

func normalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// removeIndex deletes the first occurrence of x, keeping order.
func removeIndex(s []int, x int) []int {
	if i := slices.Index(s, x); i >= 0 {
		return slices.Delete(s, i, i+1)
	}
	return s
}
