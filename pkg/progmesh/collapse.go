package progmesh

import "slices"

// nextCollapser returns the vertex with the lowest worst-case cost. Ties go
// to the lowest index.
func (pm *ProgressiveMesh) nextCollapser() int {
	best := inf
	bestIndex := 0
	for i, cost := range pm.worstCosts {
		if cost < best {
			best = cost
			bestIndex = i
		}
	}
	return bestIndex
}

// collapse merges src into the target cached by the reference frame. The
// same edge is collapsed in every frame so all frames keep one topology.
func (pm *ProgressiveMesh) collapse(src int) {
	ref := pm.frames[0]
	if ref.verts[src].collapseCost == inf {
		return
	}
	dest := ref.verts[src].collapseTo

	for _, fr := range pm.frames {
		fr.verts[src].collapseTo = noVertex
		fr.verts[src].collapseCost = inf
	}
	pm.worstCosts[src] = inf

	if dest == noVertex {
		return
	}

	recompute := []int{dest}
	for _, n := range ref.verts[src].neighbors {
		if !slices.Contains(recompute, n) {
			recompute = append(recompute, n)
		}
	}
	for _, n := range ref.verts[dest].neighbors {
		if !slices.Contains(recompute, n) {
			recompute = append(recompute, n)
		}
	}

	for i, fr := range pm.frames {
		removed := fr.collapseEdge(src, dest)
		if i == 0 {
			pm.indexCount -= 3 * removed
		}
	}

	for _, v := range recompute {
		pm.edgeCostAtVertex(v)
	}
}

// collapseEdge moves src onto dest within one frame. Faces on the edge are
// removed, the other faces of src are rewired to dest. It returns the
// number of removed faces.
func (fr *frame) collapseEdge(src, dest int) int {
	if !slices.Contains(fr.verts[src].neighbors, dest) {
		invariant("collapse", src, noVertex, "target %d is not a neighbour", dest)
	}

	var removals, replacements []int
	for _, f := range fr.verts[src].faces {
		if fr.hasCommon(f, dest) {
			removals = append(removals, f)
		} else {
			replacements = append(replacements, f)
		}
	}

	fr.verts[src].toBeRemoved = true

	for _, f := range replacements {
		srcFV := fr.cornerFor(f, src)
		// Take dest's face vertex from a removed face, preferring one that
		// shares src's face vertex so seam duplicates stay paired.
		destFV := noVertex
		for _, r := range removals {
			destFV = fr.cornerFor(r, dest)
			if fr.cornerFor(r, src) == srcFV {
				break
			}
		}
		if destFV == noVertex {
			invariant("collapse", src, f, "no face vertex for target %d", dest)
		}
		fr.replaceCorner(f, srcFV, destFV)
	}

	for _, f := range removals {
		fr.notifyTriangleRemoved(f)
	}

	fr.notifyVertexRemoved(src)
	return len(removals)
}
