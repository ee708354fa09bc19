package asset

import (
	"fmt"
	"slices"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// ExtensionLOD is the glTF vendor extension listing a node's LOD nodes.
const ExtensionLOD = "MSFT_lod"

// LODSet holds the generated levels of one primitive, finest first.
type LODSet struct {
	Mesh   int
	Index  int
	Levels []*progmesh.IndexBuffer
}

// AddLODs writes the given levels into the document. For every mesh with
// at least one set and every level k, a mesh named <name>_LOD<k> is added
// whose primitives share the attributes of the original and use the level's
// indices; primitives without a set keep their original indices. Every node
// showing the mesh gets one LOD node per level, listed in its MSFT_lod
// extension. It returns the number of LOD meshes added.
func (d *Document) AddLODs(sets []LODSet) (int, error) {
	byMesh := make(map[int][]LODSet)
	for _, s := range sets {
		if s.Mesh < 0 || s.Mesh >= len(d.doc.Meshes) {
			return 0, fmt.Errorf("mesh %d out of range", s.Mesh)
		}
		if s.Index < 0 || s.Index >= len(d.doc.Meshes[s.Mesh].Primitives) {
			return 0, fmt.Errorf("mesh %d has no primitive %d", s.Mesh, s.Index)
		}
		byMesh[s.Mesh] = append(byMesh[s.Mesh], s)
	}

	meshIDs := make([]int, 0, len(byMesh))
	for mi := range byMesh {
		meshIDs = append(meshIDs, mi)
	}
	slices.Sort(meshIDs)

	added := 0
	for _, mi := range meshIDs {
		lodMeshes, err := d.addMeshLODs(mi, byMesh[mi])
		if err != nil {
			return added, err
		}
		added += len(lodMeshes)
		d.linkLODNodes(mi, lodMeshes)
	}
	if added > 0 && !slices.Contains(d.doc.ExtensionsUsed, ExtensionLOD) {
		d.doc.ExtensionsUsed = append(d.doc.ExtensionsUsed, ExtensionLOD)
	}
	return added, nil
}

func (d *Document) addMeshLODs(mi int, sets []LODSet) ([]uint32, error) {
	src := d.doc.Meshes[mi]
	levels := 0
	for _, s := range sets {
		if levels != 0 && len(s.Levels) != levels {
			return nil, fmt.Errorf("mesh %d: primitives disagree on level count (%d and %d)", mi, levels, len(s.Levels))
		}
		levels = len(s.Levels)
	}

	var meshes []uint32
	for k := 1; k <= levels; k++ {
		lod := &gltf.Mesh{
			Name:    fmt.Sprintf("%s_LOD%d", meshName(src, mi), k),
			Weights: src.Weights,
		}
		for pi, p := range src.Primitives {
			np := *p
			for _, s := range sets {
				if s.Index == pi {
					np.Indices = gltf.Index(d.writeIndices(s.Levels[k-1]))
				}
			}
			lod.Primitives = append(lod.Primitives, &np)
		}
		meshes = append(meshes, uint32(len(d.doc.Meshes)))
		d.doc.Meshes = append(d.doc.Meshes, lod)
	}
	return meshes, nil
}

func (d *Document) writeIndices(ib *progmesh.IndexBuffer) uint32 {
	if ib.Width == progmesh.Index16 {
		narrow := make([]uint16, len(ib.Indices))
		for i, v := range ib.Indices {
			narrow[i] = uint16(v)
		}
		return modeler.WriteIndices(d.doc, narrow)
	}
	return modeler.WriteIndices(d.doc, ib.Indices)
}

// linkLODNodes adds one LOD node per level for every node showing mesh mi.
// LOD nodes are not part of any scene; MSFT_lod references them by index.
func (d *Document) linkLODNodes(mi int, lodMeshes []uint32) {
	count := len(d.doc.Nodes)
	for ni := 0; ni < count; ni++ {
		node := d.doc.Nodes[ni]
		if node.Mesh == nil || int(*node.Mesh) != mi {
			continue
		}
		ids := make([]uint32, 0, len(lodMeshes))
		for k, m := range lodMeshes {
			ids = append(ids, uint32(len(d.doc.Nodes)))
			d.doc.Nodes = append(d.doc.Nodes, &gltf.Node{
				Name: fmt.Sprintf("%s_LOD%d", nodeName(node, ni), k+1),
				Mesh: gltf.Index(m),
				Skin: node.Skin,
			})
		}
		if node.Extensions == nil {
			node.Extensions = make(gltf.Extensions)
		}
		node.Extensions[ExtensionLOD] = map[string]any{"ids": ids}
	}
}

func nodeName(n *gltf.Node, index int) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("node%d", index)
}
