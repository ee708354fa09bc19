package pipeline

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Report summarizes a run for humans and CI.
type Report struct {
	Source     string       `yaml:"source"`
	Levels     int          `yaml:"levels"`
	Quota      string       `yaml:"quota"`
	Reduction  float64      `yaml:"reduction"`
	Meshes     []MeshReport `yaml:"meshes"`
	Failed     int          `yaml:"failed"`
	Skipped    int          `yaml:"skipped"`
	Simplified int          `yaml:"simplified"`
}

// MeshReport is the report entry of one job.
type MeshReport struct {
	Name           string  `yaml:"name"`
	Vertices       int     `yaml:"vertices"`
	CommonVertices int     `yaml:"common_vertices,omitempty"`
	Frames         int     `yaml:"frames,omitempty"`
	Triangles      int     `yaml:"triangles"`
	LODTriangles   []int   `yaml:"lod_triangles,omitempty"`
	Abandoned      bool    `yaml:"abandoned,omitempty"`
	Skipped        bool    `yaml:"skipped,omitempty"`
	Error          string  `yaml:"error,omitempty"`
	Millis         float64 `yaml:"millis,omitempty"`
}

// NewReport builds a report from jobs and their results.
func NewReport(source string, opts Options, jobs []Job, results []Result) *Report {
	r := &Report{
		Source:    source,
		Levels:    opts.Levels,
		Quota:     opts.Quota.Kind.String(),
		Reduction: opts.Quota.Value,
	}
	for i, res := range results {
		job := jobs[i]
		mr := MeshReport{
			Name:     res.Name,
			Vertices: len(job.Positions),
			Skipped:  res.Skipped,
			Millis:   float64(res.Elapsed.Microseconds()) / 1000,
		}
		if job.Indices != nil {
			mr.Triangles = job.Indices.TriangleCount()
		}
		switch {
		case res.Err != nil:
			mr.Error = res.Err.Error()
			r.Failed++
		case res.Skipped:
			r.Skipped++
		default:
			r.Simplified++
			mr.CommonVertices = res.Stats.CommonVertices
			mr.Frames = res.Stats.Frames
			mr.Abandoned = res.Stats.Abandoned
			mr.LODTriangles = triangleCounts(res.Levels)
		}
		r.Meshes = append(r.Meshes, mr)
	}
	return r
}

func triangleCounts(levels []*progmesh.IndexBuffer) []int {
	counts := make([]int, len(levels))
	for i, l := range levels {
		counts[i] = l.TriangleCount()
	}
	return counts
}

// WriteFile writes the report as YAML, creating parent directories.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
