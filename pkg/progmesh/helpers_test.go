package progmesh

import (
	"math"
	"testing"
)

// mustMesh builds a progressive mesh from positions and a 32-bit triangle list.
func mustMesh(t *testing.T, positions [][3]float32, indices []uint32) *ProgressiveMesh {
	t.Helper()
	ib, err := NewIndexBuffer(Index32, indices)
	if err != nil {
		t.Fatalf("NewIndexBuffer: %v", err)
	}
	pm, err := New(NewPositionBuffer(positions), ib)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return pm
}

// meshFrom builds a progressive mesh from one of the fixtures below.
func meshFrom(t *testing.T, fixture func() ([][3]float32, []uint32)) *ProgressiveMesh {
	t.Helper()
	positions, indices := fixture()
	return mustMesh(t, positions, indices)
}

// quadStrip is two quads side by side in the z=0 plane:
//
//	3---4---5
//	| / | / |
//	0---1---2
func quadStrip() ([][3]float32, []uint32) {
	positions := [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {2, 0, 0},
		{0, 1, 0}, {1, 1, 0}, {2, 1, 0},
	}
	indices := []uint32{
		0, 1, 4, 0, 4, 3,
		1, 2, 5, 1, 5, 4,
	}
	return positions, indices
}

// unitCube is a closed cube with outward winding, two triangles per side.
func unitCube() ([][3]float32, []uint32) {
	positions := [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // bottom
		4, 5, 6, 4, 6, 7, // top
		0, 1, 5, 0, 5, 4, // front
		3, 7, 6, 3, 6, 2, // back
		0, 4, 7, 0, 7, 3, // left
		1, 2, 6, 1, 6, 5, // right
	}
	return positions, indices
}

// bumpyGrid is an n x n height field with 2n^2 triangles.
func bumpyGrid(n int) ([][3]float32, []uint32) {
	var positions [][3]float32
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			h := 0.3 * math.Sin(float64(x)) * math.Cos(float64(y))
			positions = append(positions, [3]float32{float32(x), float32(y), float32(h)})
		}
	}
	var indices []uint32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a := uint32(y*(n+1) + x)
			b := a + 1
			c := a + uint32(n+1)
			d := c + 1
			indices = append(indices, a, b, d, a, d, c)
		}
	}
	return positions, indices
}

// uvSphere is a sphere whose last column duplicates the first, giving a
// texture seam of duplicated positions.
func uvSphere(stacks, slices int) ([][3]float32, []uint32) {
	cols := slices + 1
	var positions [][3]float32
	for i := 0; i <= stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		for j := 0; j < cols; j++ {
			phi := 2 * math.Pi * float64(j%slices) / float64(slices)
			positions = append(positions, [3]float32{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Cos(theta)),
				float32(math.Sin(theta) * math.Sin(phi)),
			})
		}
	}
	var indices []uint32
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := uint32(i*cols + j)
			b := a + 1
			c := a + uint32(cols)
			d := b + uint32(cols)
			if i != 0 {
				indices = append(indices, a, b, c)
			}
			if i != stacks-1 {
				indices = append(indices, b, d, c)
			}
		}
	}
	return positions, indices
}

// subdividedBox is a closed n x n x n cube whose sides are split into unit
// quads sharing welded corners.
func subdividedBox(n int) ([][3]float32, []uint32) {
	var positions [][3]float32
	lookup := make(map[[3]float32]uint32)
	vertex := func(p [3]float32) uint32 {
		if idx, ok := lookup[p]; ok {
			return idx
		}
		idx := uint32(len(positions))
		lookup[p] = idx
		positions = append(positions, p)
		return idx
	}

	var indices []uint32
	for axis := 0; axis < 3; axis++ {
		u, w := (axis+1)%3, (axis+2)%3
		for _, side := range []int{0, n} {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					corner := func(a, b int) uint32 {
						var p [3]float32
						p[axis], p[u], p[w] = float32(side), float32(a), float32(b)
						return vertex(p)
					}
					q := [4]uint32{corner(i, j), corner(i+1, j), corner(i+1, j+1), corner(i, j+1)}
					if side == 0 {
						q[1], q[3] = q[3], q[1]
					}
					indices = append(indices, q[0], q[1], q[2], q[0], q[2], q[3])
				}
			}
		}
	}
	return positions, indices
}

// cappedCylinder is a closed tube of the given segments and rings with a fan
// on each end.
func cappedCylinder(segments, rings int) ([][3]float32, []uint32) {
	var positions [][3]float32
	for r := 0; r <= rings; r++ {
		for k := 0; k < segments; k++ {
			a := 2 * math.Pi * float64(k) / float64(segments)
			positions = append(positions, [3]float32{
				float32(math.Cos(a)), float32(math.Sin(a)), float32(2 * float64(r) / float64(rings)),
			})
		}
	}
	var indices []uint32
	ring := func(r, k int) uint32 { return uint32(r*segments + k%segments) }
	for r := 0; r < rings; r++ {
		for k := 0; k < segments; k++ {
			a, b := ring(r, k), ring(r, k+1)
			c, d := ring(r+1, k), ring(r+1, k+1)
			indices = append(indices, a, b, d, a, d, c)
		}
	}
	bottom := uint32(len(positions))
	top := bottom + 1
	positions = append(positions, [3]float32{0, 0, 0}, [3]float32{0, 0, 2})
	for k := 0; k < segments; k++ {
		indices = append(indices, bottom, ring(0, k+1), ring(0, k))
		indices = append(indices, top, ring(rings, k), ring(rings, k+1))
	}
	return positions, indices
}

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
