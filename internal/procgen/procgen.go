// Package procgen renders signed distance field solids into welded,
// indexed triangle meshes for demos and tests.
package procgen

import (
	"fmt"
	"math"
	"slices"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Mesh is an indexed triangle list with unique positions.
type Mesh struct {
	Positions [][3]float32
	Indices   []uint32
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IndexBuffer returns the indices using 16-bit storage when every vertex
// fits.
func (m *Mesh) IndexBuffer() (*progmesh.IndexBuffer, error) {
	width := progmesh.Index32
	if len(m.Positions) <= math.MaxUint16+1 {
		width = progmesh.Index16
	}
	return progmesh.NewIndexBuffer(width, m.Indices)
}

// Shapes lists the names accepted by Solid.
var Shapes = []string{"sphere", "box", "cylinder", "capsule", "notched"}

// Solid builds a named solid roughly two units across.
func Solid(shape string) (sdf.SDF3, error) {
	switch shape {
	case "sphere":
		return sdf.Sphere3D(1)
	case "box":
		return sdf.Box3D(v3.Vec{X: 2, Y: 1.5, Z: 1}, 0.2)
	case "cylinder":
		return sdf.Cylinder3D(2, 0.75, 0.1)
	case "capsule":
		body, err := sdf.Cylinder3D(1.5, 0.5, 0)
		if err != nil {
			return nil, err
		}
		cap0, err := sdf.Sphere3D(0.5)
		if err != nil {
			return nil, err
		}
		top := sdf.Transform3D(cap0, sdf.Translate3d(v3.Vec{Z: 0.75}))
		bottom := sdf.Transform3D(cap0, sdf.Translate3d(v3.Vec{Z: -0.75}))
		return sdf.Union3D(body, top, bottom), nil
	case "notched":
		box, err := sdf.Box3D(v3.Vec{X: 2, Y: 2, Z: 2}, 0)
		if err != nil {
			return nil, err
		}
		bite, err := sdf.Sphere3D(0.9)
		if err != nil {
			return nil, err
		}
		return sdf.Difference3D(box, sdf.Transform3D(bite, sdf.Translate3d(v3.Vec{X: 1, Y: 1, Z: 1}))), nil
	default:
		return nil, fmt.Errorf("unknown shape %q (want one of %v)", shape, Shapes)
	}
}

// Generate renders a named shape with cells marching cubes cells along its
// longest axis.
func Generate(shape string, cells int) (*Mesh, error) {
	s, err := Solid(shape)
	if err != nil {
		return nil, err
	}
	return Render(s, cells)
}

// Render tessellates s and welds the resulting triangle soup.
func Render(s sdf.SDF3, cells int) (*Mesh, error) {
	if cells < 4 {
		return nil, fmt.Errorf("cells must be at least 4, got %d", cells)
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	soup := make([][3][3]float32, 0, len(triangles))
	for _, tri := range triangles {
		var t [3][3]float32
		for j := 0; j < 3; j++ {
			v := tri[j]
			t[j] = [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
		}
		soup = append(soup, t)
	}
	m := Weld(soup)
	if m.TriangleCount() == 0 {
		return nil, fmt.Errorf("solid produced no triangles at %d cells", cells)
	}
	return m, nil
}

// Weld merges corners with identical positions and drops triangles that
// collapse to a line or point.
func Weld(soup [][3][3]float32) *Mesh {
	m := &Mesh{}
	lookup := make(map[[3]float32]uint32)
	for _, tri := range soup {
		var idx [3]uint32
		for j, p := range tri {
			i, ok := lookup[p]
			if !ok {
				i = uint32(len(m.Positions))
				lookup[p] = i
				m.Positions = append(m.Positions, p)
			}
			idx[j] = i
		}
		if idx[0] == idx[1] || idx[1] == idx[2] || idx[2] == idx[0] {
			continue
		}
		m.Indices = append(m.Indices, idx[:]...)
	}
	return m
}

// Twist returns a copy of positions rotated about the Z axis by angle
// radians per unit of height, a cheap stand-in for an animation pose.
func Twist(positions [][3]float32, angle float64) [][3]float32 {
	out := slices.Clone(positions)
	for i, p := range out {
		sin, cos := math.Sincos(angle * float64(p[2]))
		x, y := float64(p[0]), float64(p[1])
		out[i][0] = float32(x*cos - y*sin)
		out[i][1] = float32(x*sin + y*cos)
	}
	return out
}
