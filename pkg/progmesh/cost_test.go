package progmesh

import "testing"

func TestEdgeCollapseCost_BorderKink(t *testing.T) {
	pm := meshFrom(t, quadStrip)
	fr := pm.frames[0]

	// Vertex 1 sits mid-border; its border edges to 0 and 2 are colinear.
	straight := fr.edgeCollapseCost(1, 0)
	if !approxEqual(straight, 0.001, 1e-5) {
		t.Errorf("straight border cost = %v, want ~0.001", straight)
	}

	// Vertex 0 is a right-angle corner of the outline.
	corner := fr.edgeCollapseCost(0, 1)
	if !approxEqual(corner, 0.501, 1e-5) {
		t.Errorf("corner cost = %v, want ~0.501", corner)
	}
	if corner <= straight {
		t.Errorf("corner cost %v should exceed straight cost %v", corner, straight)
	}

	// Edge 1-4 has two faces: collapsing inwards from the border.
	if inward := fr.edgeCollapseCost(1, 4); inward != 1 {
		t.Errorf("inward border cost = %v, want 1", inward)
	}
}

func TestEdgeCollapseCost_SeamProtection(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}, {1, 1, 0}, {1, 1, 0}}

	seamed := mustMesh(t, positions, []uint32{4, 0, 1, 4, 1, 2, 5, 2, 3, 5, 3, 0})
	if got := seamed.frames[0].edgeCollapseCost(4, 0); got != 1 {
		t.Errorf("seam vertex cost = %v, want 1", got)
	}

	plain := mustMesh(t, positions[:5], []uint32{4, 0, 1, 4, 1, 2, 4, 2, 3, 4, 3, 0})
	if got := plain.frames[0].edgeCollapseCost(4, 0); !approxEqual(got, 0.001, 1e-6) {
		t.Errorf("flat interior cost = %v, want ~0.001", got)
	}
}

func TestEdgeCollapseCost_SingleTriangleIsForbidden(t *testing.T) {
	pm := mustMesh(t, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, []uint32{0, 1, 2})
	if got := pm.frames[0].edgeCollapseCost(0, 1); got != inf {
		t.Errorf("cost = %v, want +Inf", got)
	}
}

func TestEdgeCollapseCost_NormalFlip(t *testing.T) {
	// Closed fan around vertex 0 with a concave notch at vertex 5.
	positions := [][3]float32{
		{0, 0, 0},
		{1, 0, 0}, {1, 1, 0}, {-1, 1, 0}, {-1, -1, 0}, {0.1, -0.1, 0},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4, 0, 4, 5, 0, 5, 1}
	pm := mustMesh(t, positions, indices)
	fr := pm.frames[0]

	if fr.isBorder(0) {
		t.Fatal("fan center should be interior")
	}
	// Moving 0 onto 1 turns triangle (0, 4, 5) inside out.
	if got := fr.edgeCollapseCost(0, 1); got != inf {
		t.Errorf("flipping collapse cost = %v, want +Inf", got)
	}
	if got := fr.edgeCollapseCost(0, 2); !approxEqual(got, 0.001, 1e-6) {
		t.Errorf("safe collapse cost = %v, want ~0.001", got)
	}
}

func TestEdgeCostAtVertexForFrame_PicksCheapest(t *testing.T) {
	pm := meshFrom(t, quadStrip)
	fr := pm.frames[0]

	cost := fr.edgeCostAtVertexForFrame(1)
	if !approxEqual(cost, 0.001, 1e-5) {
		t.Errorf("cost = %v, want ~0.001", cost)
	}
	if to := fr.verts[1].collapseTo; to != 0 && to != 2 {
		t.Errorf("collapse target = %d, want a border neighbour (0 or 2)", to)
	}
}

func TestComputeAllCosts_Cube(t *testing.T) {
	pm := meshFrom(t, unitCube)
	pm.computeAllCosts()

	for v, cost := range pm.worstCosts {
		if !approxEqual(cost, 0.501, 1e-5) {
			t.Errorf("vertex %d cost = %v, want ~0.501", v, cost)
		}
		if pm.frames[0].verts[v].collapseTo == noVertex {
			t.Errorf("vertex %d has no collapse target", v)
		}
	}
}

// bipyramid has an apex (4) over a square and a second apex (5) below it.
func bipyramid(apexHeight float32) [][3]float32 {
	return [][3]float32{
		{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0},
		{1, 1, apexHeight}, {1, 1, -1},
	}
}

func TestEdgeCostAtVertex_WorstFrameWins(t *testing.T) {
	indices := []uint32{
		4, 0, 1, 4, 1, 2, 4, 2, 3, 4, 3, 0,
		5, 1, 0, 5, 2, 1, 5, 3, 2, 5, 0, 3,
	}
	pm := mustMesh(t, bipyramid(0.01), indices)
	if err := pm.AddFrame(NewPositionBuffer(bipyramid(1.5))); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	pm.computeAllCosts()

	low := pm.frames[0].edgeCostAtVertexForFrame(4)
	high := pm.frames[1].edgeCostAtVertexForFrame(4)
	if high <= low {
		t.Fatalf("raised apex should cost more: flat %v, raised %v", low, high)
	}
	if pm.worstCosts[4] != high {
		t.Errorf("worst cost = %v, want %v (max of %v, %v)", pm.worstCosts[4], high, low, high)
	}
}

func TestWorstCostAndCollapseTarget(t *testing.T) {
	pm := meshFrom(t, unitCube)
	if got := pm.WorstCost(0); got != inf {
		t.Errorf("WorstCost before costing = %v, want +Inf", got)
	}
	if got := pm.CollapseTarget(0); got != -1 {
		t.Errorf("CollapseTarget before costing = %d, want -1", got)
	}

	pm.computeAllCosts()
	if got := pm.WorstCost(3); !approxEqual(got, 0.501, 1e-5) {
		t.Errorf("WorstCost(3) = %v, want ~0.501", got)
	}
	if got := pm.CollapseTarget(3); got < 0 || got >= 8 {
		t.Errorf("CollapseTarget(3) = %d, want a cube corner", got)
	}
	if got := pm.WorstCost(99); got != inf {
		t.Errorf("WorstCost out of range = %v, want +Inf", got)
	}
}
