package asset

import (
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Primitive is one indexed triangle list ready for simplification.
type Primitive struct {
	Mesh      int // index into the document meshes
	Index     int // index into the mesh primitives
	Name      string
	Positions [][3]float32
	// Poses holds one absolute position set per morph target, each target
	// applied at full weight.
	Poses   [][][3]float32
	Indices *progmesh.IndexBuffer
}

// Skipped names a primitive that cannot be simplified and why.
type Skipped struct {
	Mesh   int
	Index  int
	Name   string
	Reason error
}

// Primitives extracts every simplifiable primitive in mesh order. Primitives
// without indices, positions or triangle topology are reported as skipped.
// Morph targets are only read when withPoses is set.
func (d *Document) Primitives(withPoses bool) ([]*Primitive, []Skipped, error) {
	var prims []*Primitive
	var skipped []Skipped
	for mi, m := range d.doc.Meshes {
		for pi, p := range m.Primitives {
			name := fmt.Sprintf("%s/%d", meshName(m, mi), pi)
			prim, err := d.readPrimitive(p, withPoses)
			if err == nil {
				prim.Mesh, prim.Index, prim.Name = mi, pi, name
				prims = append(prims, prim)
				continue
			}
			if isSkippable(err) {
				skipped = append(skipped, Skipped{Mesh: mi, Index: pi, Name: name, Reason: err})
				continue
			}
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	return prims, skipped, nil
}

func isSkippable(err error) bool {
	return errors.Is(err, ErrNoPosition) || errors.Is(err, ErrNotTriangles) || errors.Is(err, ErrNoIndices)
}

func (d *Document) readPrimitive(p *gltf.Primitive, withPoses bool) (*Primitive, error) {
	if p.Mode != gltf.PrimitiveTriangles {
		return nil, ErrNotTriangles
	}
	posIndex, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrNoPosition
	}
	if p.Indices == nil {
		return nil, ErrNoIndices
	}

	posAccessor, err := d.accessor(posIndex)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(d.doc, posAccessor, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	idxAccessor, err := d.accessor(*p.Indices)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	indices, err := modeler.ReadIndices(d.doc, idxAccessor, nil)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	ib, err := progmesh.NewIndexBuffer(indexWidth(idxAccessor.ComponentType), indices)
	if err != nil {
		return nil, err
	}

	prim := &Primitive{Positions: positions, Indices: ib}
	if !withPoses {
		return prim, nil
	}
	for ti, target := range p.Targets {
		deltaIndex, ok := target[gltf.POSITION]
		if !ok {
			continue
		}
		deltaAccessor, err := d.accessor(deltaIndex)
		if err != nil {
			return nil, fmt.Errorf("morph target %d: %w", ti, err)
		}
		delta, err := modeler.ReadPosition(d.doc, deltaAccessor, nil)
		if err != nil {
			return nil, fmt.Errorf("morph target %d: %w", ti, err)
		}
		if len(delta) != len(positions) {
			return nil, fmt.Errorf("morph target %d has %d positions, want %d", ti, len(delta), len(positions))
		}
		pose := make([][3]float32, len(positions))
		for i := range positions {
			pose[i] = [3]float32{
				positions[i][0] + delta[i][0],
				positions[i][1] + delta[i][1],
				positions[i][2] + delta[i][2],
			}
		}
		prim.Poses = append(prim.Poses, pose)
	}
	return prim, nil
}

// indexWidth maps an accessor component type to a progmesh index width.
// Byte indices are widened to 16 bits.
func indexWidth(ct gltf.ComponentType) progmesh.IndexWidth {
	if ct == gltf.ComponentUint {
		return progmesh.Index32
	}
	return progmesh.Index16
}
