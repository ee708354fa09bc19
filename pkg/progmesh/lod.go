package progmesh

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// minVertices is the smallest common vertex count a level may reduce to.
const minVertices = 3

// maxConstantQuota bounds a constant reduction so it converts to int safely.
const maxConstantQuota = math.MaxInt32

// QuotaKind selects how many vertices each LOD level removes.
type QuotaKind int

const (
	// QuotaProportional removes a fraction of the remaining vertices.
	QuotaProportional QuotaKind = iota
	// QuotaConstant removes a fixed number of vertices.
	QuotaConstant
)

// String returns "proportional" or "constant".
func (k QuotaKind) String() string {
	switch k {
	case QuotaProportional:
		return "proportional"
	case QuotaConstant:
		return "constant"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Quota is the per-level vertex reduction.
type Quota struct {
	Kind  QuotaKind
	Value float64
}

// DefaultQuota halves the vertex count at every level.
var DefaultQuota = Proportional(0.5)

// Proportional removes fraction of the remaining vertices per level.
func Proportional(fraction float64) Quota {
	return Quota{Kind: QuotaProportional, Value: fraction}
}

// Constant removes count vertices per level.
func Constant(count int) Quota {
	return Quota{Kind: QuotaConstant, Value: float64(count)}
}

// Validate checks the quota value against its kind.
func (q Quota) Validate() error {
	switch q.Kind {
	case QuotaProportional:
		if math.IsNaN(q.Value) || q.Value < 0 || q.Value > 1 {
			return fmt.Errorf("%w: proportional reduction %v outside [0, 1]", ErrInvalidQuota, q.Value)
		}
	case QuotaConstant:
		if math.IsNaN(q.Value) || q.Value < 0 || q.Value != math.Trunc(q.Value) {
			return fmt.Errorf("%w: constant reduction %v is not a non-negative integer", ErrInvalidQuota, q.Value)
		}
		if q.Value > maxConstantQuota {
			return fmt.Errorf("%w: constant reduction %v exceeds %d", ErrInvalidQuota, q.Value, maxConstantQuota)
		}
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidQuota, q.Kind)
	}
	return nil
}

// collapses returns the planned collapse count for a level, clamped so at
// least minVertices remain.
func (q Quota) collapses(numVerts int) int {
	var n int
	if q.Kind == QuotaProportional {
		n = int(math.Round(float64(numVerts) * q.Value))
	} else {
		n = int(q.Value)
	}
	if numVerts-n < minVertices {
		n = max(numVerts-minVertices, 0)
	}
	return n
}

// Build reduces the mesh numLevels times and bakes one index buffer per
// level, each using the width of the source index buffer. When no valid
// collapse remains the reduction stops and the remaining levels repeat
// the last result. Build can only run once per ProgressiveMesh.
func (pm *ProgressiveMesh) Build(numLevels int, quota Quota) ([]*IndexBuffer, error) {
	if pm.built {
		return nil, ErrAlreadyBuilt
	}
	if numLevels < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevelCount, numLevels)
	}
	if err := quota.Validate(); err != nil {
		return nil, err
	}
	pm.built = true

	pm.computeAllCosts()
	pm.indexCount = pm.indices.Count()

	lods := make([]*IndexBuffer, 0, numLevels)
	for level := 1; level <= numLevels; level++ {
		performed := 0
		if !pm.abandoned {
			// A collapse can also isolate neighbours; plan from the live count.
			planned := quota.collapses(pm.liveVertices())

			for ; performed < planned; performed++ {
				if pm.liveVertices() <= minVertices {
					break
				}
				next := pm.nextCollapser()
				if !pm.collapsible(next) {
					pm.abandoned = true
					pm.log.Debug("no collapsible vertex left",
						zap.Int("level", level),
						zap.Int("planned", planned),
						zap.Int("performed", performed))
					break
				}
				pm.collapse(next)
			}
		}

		lod := pm.bake()
		lods = append(lods, lod)
		pm.log.Debug("LOD baked",
			zap.Int("level", level),
			zap.Int("collapses", performed),
			zap.Int("triangles", lod.TriangleCount()),
			zap.Bool("abandoned", pm.abandoned))
	}
	return lods, nil
}

// collapsible reports whether collapsing v is allowed. The collapse must
// have a finite cost and leave at least one triangle standing.
func (pm *ProgressiveMesh) collapsible(v int) bool {
	ref := pm.frames[0]
	dest := ref.verts[v].collapseTo
	if pm.worstCosts[v] == inf || dest == noVertex {
		return false
	}
	return 3*ref.sharedFaceCount(v, dest) < pm.indexCount
}

// liveVertices counts common vertices of the reference frame not yet removed.
func (pm *ProgressiveMesh) liveVertices() int {
	n := 0
	for i := range pm.frames[0].verts {
		if !pm.frames[0].verts[i].removed {
			n++
		}
	}
	return n
}

// bake emits the surviving triangles of the reference frame in original
// order, using the face vertex indices so seams are kept.
func (pm *ProgressiveMesh) bake() *IndexBuffer {
	if pm.indexCount <= 0 {
		invariant("bake", noVertex, noVertex, "no triangles to bake")
	}
	ref := pm.frames[0]
	out := make([]uint32, 0, pm.indexCount)
	for t := range ref.tris {
		if ref.tris[t].removed {
			continue
		}
		for _, fv := range ref.tris[t].corners {
			out = append(out, ref.faceVerts[fv].realIndex)
		}
	}
	if len(out) != pm.indexCount {
		invariant("bake", noVertex, noVertex, "baked %d indices, expected %d", len(out), pm.indexCount)
	}
	return &IndexBuffer{Width: pm.indices.Width, Indices: out}
}
