// Package asset reads triangle primitives from glTF 2.0 files and writes
// generated LOD levels back into them.
package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Errors returned while reading primitives.
var (
	ErrNoPosition   = errors.New("primitive has no POSITION attribute")
	ErrNotTriangles = errors.New("primitive is not a triangle list")
	ErrNoIndices    = errors.New("primitive has no index accessor")
	ErrNoAccessor   = errors.New("accessor index out of range")
)

// Document wraps a glTF document loaded from or destined for disk.
type Document struct {
	doc *gltf.Document
}

// Load opens a .gltf or .glb file.
func Load(path string) (*Document, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Document{doc: doc}, nil
}

// NewDocument returns an empty document with a single root scene.
func NewDocument() *Document {
	return &Document{doc: gltf.NewDocument()}
}

// Save writes the document. A .glb extension selects the binary container.
func (d *Document) Save(path string) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(d.doc, path)
	} else {
		// Buffers built in memory have no URI; embed them in the JSON.
		for _, b := range d.doc.Buffers {
			if b.URI == "" && len(b.Data) > 0 {
				b.EmbeddedResource()
			}
		}
		err = gltf.Save(d.doc, path)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// AddMesh appends an indexed triangle mesh and a scene node that shows it.
// Each entry of targets is an absolute morph pose with one position per
// vertex; it is stored as a glTF morph target delta.
func (d *Document) AddMesh(name string, positions [][3]float32, ib *progmesh.IndexBuffer, targets ...[][3]float32) (int, error) {
	for i, pose := range targets {
		if len(pose) != len(positions) {
			return 0, fmt.Errorf("morph target %d has %d positions, mesh has %d", i, len(pose), len(positions))
		}
	}

	prim := &gltf.Primitive{
		Attributes: gltf.Attribute{
			gltf.POSITION: modeler.WritePosition(d.doc, positions),
		},
		Indices: gltf.Index(d.writeIndices(ib)),
		Mode:    gltf.PrimitiveTriangles,
	}
	for _, pose := range targets {
		delta := make([][3]float32, len(pose))
		for i := range pose {
			delta[i] = [3]float32{
				pose[i][0] - positions[i][0],
				pose[i][1] - positions[i][1],
				pose[i][2] - positions[i][2],
			}
		}
		prim.Targets = append(prim.Targets, gltf.Attribute{
			gltf.POSITION: modeler.WritePosition(d.doc, delta),
		})
	}

	meshIndex := len(d.doc.Meshes)
	d.doc.Meshes = append(d.doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})

	nodeIndex := uint32(len(d.doc.Nodes))
	d.doc.Nodes = append(d.doc.Nodes, &gltf.Node{Name: name, Mesh: gltf.Index(uint32(meshIndex))})
	if len(d.doc.Scenes) > 0 {
		d.doc.Scenes[0].Nodes = append(d.doc.Scenes[0].Nodes, nodeIndex)
	}
	return meshIndex, nil
}

// Summary describes the contents of a document.
type Summary struct {
	Meshes     []MeshSummary
	Nodes      int
	LODNodes   int // nodes carrying an MSFT_lod extension
	Extensions []string
}

// MeshSummary describes one mesh.
type MeshSummary struct {
	Name       string
	Primitives int
	Triangles  int
	Targets    int
}

// Summarize counts meshes, triangles and LOD nodes without decoding vertex
// data.
func (d *Document) Summarize() Summary {
	s := Summary{
		Nodes:      len(d.doc.Nodes),
		Extensions: append([]string(nil), d.doc.ExtensionsUsed...),
	}
	for i, m := range d.doc.Meshes {
		ms := MeshSummary{Name: meshName(m, i), Primitives: len(m.Primitives)}
		for _, p := range m.Primitives {
			ms.Targets = max(ms.Targets, len(p.Targets))
			if p.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if p.Indices != nil {
				if acr, err := d.accessor(*p.Indices); err == nil {
					ms.Triangles += int(acr.Count) / 3
				}
			} else if pos, ok := p.Attributes[gltf.POSITION]; ok {
				if acr, err := d.accessor(pos); err == nil {
					ms.Triangles += int(acr.Count) / 3
				}
			}
		}
		s.Meshes = append(s.Meshes, ms)
	}
	for _, n := range d.doc.Nodes {
		if _, ok := n.Extensions[ExtensionLOD]; ok {
			s.LODNodes++
		}
	}
	return s
}

func (d *Document) accessor(i uint32) (*gltf.Accessor, error) {
	if int(i) >= len(d.doc.Accessors) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoAccessor, i, len(d.doc.Accessors))
	}
	return d.doc.Accessors[i], nil
}

func meshName(m *gltf.Mesh, index int) string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("mesh%d", index)
}
