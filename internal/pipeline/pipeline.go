// Package pipeline simplifies many independent meshes concurrently. Each
// job owns its own progressive mesh; jobs never share state.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Job is one mesh to simplify.
type Job struct {
	Name      string
	Positions [][3]float32
	// Poses are extra position sets (morph targets, animation frames) that
	// must stay valid while collapsing.
	Poses   [][][3]float32
	Indices *progmesh.IndexBuffer
}

// Result is the outcome of one job. Results keep the order of the jobs.
type Result struct {
	Name    string
	Levels  []*progmesh.IndexBuffer
	Stats   progmesh.Stats
	Elapsed time.Duration
	// Skipped is set when the job was below the triangle threshold.
	Skipped bool
	// Err holds input errors; one bad mesh does not stop the batch.
	Err error
}

// Options controls a run.
type Options struct {
	Levels       int
	Quota        progmesh.Quota
	Workers      int
	MinTriangles int
	Logger       *zap.Logger
}

// Run simplifies all jobs with at most opts.Workers goroutines. It only
// fails when ctx is cancelled; per-job problems are reported in the result.
func Run(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	if err := opts.Quota.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))

	for i := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = simplify(jobs[i], opts, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func simplify(job Job, opts Options, log *zap.Logger) Result {
	res := Result{Name: job.Name}
	log = log.With(zap.String("mesh", job.Name))

	if job.Indices == nil {
		res.Err = fmt.Errorf("%s: no indices", job.Name)
		return res
	}
	if job.Indices.TriangleCount() < opts.MinTriangles {
		res.Skipped = true
		log.Debug("below triangle threshold", zap.Int("triangles", job.Indices.TriangleCount()))
		return res
	}

	start := time.Now()
	pm, err := progmesh.New(progmesh.NewPositionBuffer(job.Positions), job.Indices,
		progmesh.WithLogger(log))
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
		return res
	}
	for i, pose := range job.Poses {
		if err := pm.AddFrame(progmesh.NewPositionBuffer(pose)); err != nil {
			res.Err = fmt.Errorf("%s: pose %d: %w", job.Name, i, err)
			return res
		}
	}

	levels, err := pm.Build(opts.Levels, opts.Quota)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", job.Name, err)
		return res
	}
	res.Levels = levels
	res.Stats = pm.Stats()
	res.Elapsed = time.Since(start)

	log.Info("mesh simplified",
		zap.Int("triangles", job.Indices.TriangleCount()),
		zap.Int("levels", len(levels)),
		zap.Int("frames", res.Stats.Frames),
		zap.Bool("abandoned", res.Stats.Abandoned),
		zap.Duration("elapsed", res.Elapsed))
	return res
}
