package progmesh

import "github.com/go-gl/mathgl/mgl32"

// Cost model constants.
const (
	curvatureFloor  = float32(0.001)
	dotBias         = float32(1.002) // keeps (bias - dot) * 0.5 strictly positive
	inwardEdgeCost  = float32(1.0)
	seamRippingCost = float32(1.0)
	initialWorst    = float32(-0.01)
)

// edgeCollapseCost estimates the error of moving src onto dest. Small,
// coplanar regions are cheap; borders, seams and collapses that would
// flip a neighbouring face are expensive or forbidden (+Inf).
func (fr *frame) edgeCollapseCost(src, dest int) float32 {
	s := &fr.verts[src]
	d := &fr.verts[dest]

	// Faces on the src-dest edge
	var sides []int
	for _, f := range s.faces {
		if fr.hasCommon(f, dest) {
			sides = append(sides, f)
		}
	}

	var cost float32
	if fr.isBorder(src) {
		if len(sides) > 1 {
			// Border vertex collapsing inwards.
			cost = inwardEdgeCost
		} else {
			// Collapsing along the border: the more colinear the other
			// border edges, the less the outline is pulled.
			collapseEdge := normalize(s.pos.Sub(d.pos))
			var maxKink float32
			for _, n := range s.neighbors {
				if n == dest || !fr.isManifoldEdgeWith(n, src) {
					continue
				}
				otherEdge := normalize(s.pos.Sub(fr.verts[n].pos))
				kink := (otherEdge.Dot(collapseEdge) + dotBias) * 0.5
				maxKink = max(maxKink, kink)
			}
			cost = maxKink
		}
	} else {
		// Use the face turned furthest away from the sides as curvature.
		curvature := curvatureFloor
		for _, f := range s.faces {
			minCurv := float32(1)
			for _, side := range sides {
				dot := fr.tris[f].normal.Dot(fr.tris[side].normal)
				minCurv = min(minCurv, (dotBias-dot)*0.5)
			}
			curvature = max(curvature, minCurv)
		}
		cost = curvature
	}

	if s.seam && !d.seam {
		cost = seamRippingCost
	}

	// Both ends hold only the shared face: collapsing destroys it.
	if len(s.faces) == 1 && len(d.faces) == 1 {
		cost = inf
	}

	// Any surviving face turning by more than 90 degrees is an inversion.
	for _, f := range s.faces {
		if fr.hasCommon(f, dest) {
			continue
		}
		var p [3]mgl32.Vec3
		for k := 0; k < 3; k++ {
			c := fr.cornerCommon(f, k)
			if c == src {
				c = dest
			}
			p[k] = fr.verts[c].pos
		}
		if faceNormal(p[0], p[1], p[2]).Dot(fr.tris[f].normal) < 0 {
			cost = inf
			break
		}
	}

	if !(cost >= 0) {
		invariant("edgeCollapseCost", src, noVertex, "cost %v towards %d", cost, dest)
	}
	return cost
}

// edgeCostAtVertexForFrame caches the cheapest collapse from v within one
// frame and returns its cost.
func (fr *frame) edgeCostAtVertexForFrame(v int) float32 {
	vert := &fr.verts[v]
	if vert.removed {
		return inf
	}
	if len(vert.neighbors) == 0 {
		fr.notifyVertexRemoved(v)
		return vert.collapseCost
	}

	vert.collapseCost = inf
	vert.collapseTo = noVertex
	for _, n := range vert.neighbors {
		cost := fr.edgeCollapseCost(v, n)
		if vert.collapseTo == noVertex || cost < vert.collapseCost {
			vert.collapseTo = n
			vert.collapseCost = cost
		}
	}
	return vert.collapseCost
}

// edgeCostAtVertex records the worst per-frame cost of v. A vertex is only
// cheap when it is cheap in every frame.
func (pm *ProgressiveMesh) edgeCostAtVertex(v int) {
	worst := initialWorst
	for _, fr := range pm.frames {
		worst = max(worst, fr.edgeCostAtVertexForFrame(v))
	}
	pm.worstCosts[v] = worst
}

// computeAllCosts resets every cached target and evaluates all vertices.
func (pm *ProgressiveMesh) computeAllCosts() {
	pm.worstCosts = make([]float32, pm.numCommon)
	for _, fr := range pm.frames {
		for i := range fr.verts {
			fr.verts[i].collapseTo = noVertex
			fr.verts[i].collapseCost = inf
		}
	}
	for v := 0; v < pm.numCommon; v++ {
		pm.edgeCostAtVertex(v)
	}
}

// WorstCost returns the cached worst-frame cost of common vertex v, or +Inf
// before Build or after v was collapsed.
func (pm *ProgressiveMesh) WorstCost(v int) float32 {
	if v < 0 || v >= len(pm.worstCosts) {
		return inf
	}
	return pm.worstCosts[v]
}

// CollapseTarget returns the vertex the reference frame would merge v into,
// or -1 when there is none.
func (pm *ProgressiveMesh) CollapseTarget(v int) int {
	if v < 0 || v >= pm.numCommon {
		return noVertex
	}
	return pm.frames[0].verts[v].collapseTo
}
