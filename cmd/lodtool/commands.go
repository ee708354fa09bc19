package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-lod/internal/asset"
	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/pipeline"
	"github.com/Faultbox/midgard-lod/internal/procgen"
)

// setup parses the shared flags, loads the config and starts logging.
func setup(name string, args []string) (*config.Config, *flag.FlagSet, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.Logging.LoggerOptions()
	opts.Console = os.Stderr
	opts.Color = true
	if err := logger.Init(opts); err != nil {
		return nil, nil, err
	}
	return cfg, fs, nil
}

func cmdBuild(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, fs, err := setup("build", args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool build [options] <in.glb> <out.glb>")
		return errUsage
	}
	in, out := fs.Arg(0), fs.Arg(1)

	doc, err := asset.Load(in)
	if err != nil {
		return err
	}
	report, err := simplifyDocument(ctx, doc, cfg, in)
	if err != nil {
		return err
	}
	if err := doc.Save(out); err != nil {
		return err
	}

	printReport(stdout, report)
	fmt.Fprintf(stdout, "Wrote %s\n", out)
	return nil
}

func cmdDemo(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, fs, err := setup("demo", args)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Usage: lodtool demo [options] <%s> <out.glb>\n", strings.Join(procgen.Shapes, "|"))
		return errUsage
	}
	shape, out := fs.Arg(0), fs.Arg(1)

	mesh, err := procgen.Generate(shape, cfg.Procgen.Cells)
	if err != nil {
		return err
	}
	logger.Info("shape rendered",
		zap.String("shape", shape),
		zap.Int("vertices", len(mesh.Positions)),
		zap.Int("triangles", mesh.TriangleCount()))

	ib, err := mesh.IndexBuffer()
	if err != nil {
		return err
	}
	doc := asset.NewDocument()
	if _, err := doc.AddMesh(shape, mesh.Positions, ib, procgen.Twist(mesh.Positions, 0.6)); err != nil {
		return err
	}
	report, err := simplifyDocument(ctx, doc, cfg, shape)
	if err != nil {
		return err
	}
	if err := doc.Save(out); err != nil {
		return err
	}

	printReport(stdout, report)
	fmt.Fprintf(stdout, "Wrote %s\n", out)
	return nil
}

// simplifyDocument runs every primitive of doc through the pipeline and
// writes the levels back into doc.
func simplifyDocument(ctx context.Context, doc *asset.Document, cfg *config.Config, source string) (*pipeline.Report, error) {
	quota, err := cfg.LOD.ToQuota()
	if err != nil {
		return nil, err
	}

	prims, skipped, err := doc.Primitives(cfg.Pipeline.UseMorphTargets)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		logger.Warn("primitive skipped", zap.String("primitive", s.Name), zap.Error(s.Reason))
	}

	jobs := make([]pipeline.Job, len(prims))
	for i, p := range prims {
		jobs[i] = pipeline.Job{Name: p.Name, Positions: p.Positions, Poses: p.Poses, Indices: p.Indices}
	}

	opts := pipeline.Options{
		Levels:       cfg.LOD.Levels,
		Quota:        quota,
		Workers:      cfg.Pipeline.Workers,
		MinTriangles: cfg.Pipeline.MinTriangles,
		Logger:       logger.Named("pipeline"),
	}
	results, err := pipeline.Run(ctx, jobs, opts)
	if err != nil {
		return nil, err
	}

	var sets []asset.LODSet
	for i, res := range results {
		if res.Err != nil {
			logger.Error("primitive failed", zap.Error(res.Err))
			continue
		}
		if res.Skipped || len(res.Levels) == 0 {
			continue
		}
		sets = append(sets, asset.LODSet{Mesh: prims[i].Mesh, Index: prims[i].Index, Levels: res.Levels})
	}
	added, err := doc.AddLODs(sets)
	if err != nil {
		return nil, err
	}
	logger.Info("LOD meshes added", zap.Int("meshes", added), zap.Int("primitives", len(sets)))

	report := pipeline.NewReport(source, opts, jobs, results)
	if cfg.Pipeline.Report != "" {
		if err := report.WriteFile(cfg.Pipeline.Report); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
	}
	return report, nil
}

func printReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintf(w, "Source:     %s\n", r.Source)
	fmt.Fprintf(w, "Levels:     %d (%s %g)\n", r.Levels, r.Quota, r.Reduction)
	fmt.Fprintf(w, "Primitives: %d simplified, %d skipped, %d failed\n", r.Simplified, r.Skipped, r.Failed)
	for _, m := range r.Meshes {
		switch {
		case m.Error != "":
			fmt.Fprintf(w, "  %-24s error: %s\n", m.Name, m.Error)
		case m.Skipped:
			fmt.Fprintf(w, "  %-24s %6d tris  skipped\n", m.Name, m.Triangles)
		default:
			note := ""
			if m.Abandoned {
				note = "  (no further safe collapses)"
			}
			fmt.Fprintf(w, "  %-24s %6d tris -> %v%s\n", m.Name, m.Triangles, m.LODTriangles, note)
		}
	}
}

func cmdInfo(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool info <file.glb>")
		return errUsage
	}

	doc, err := asset.Load(args[0])
	if err != nil {
		return err
	}
	s := doc.Summarize()

	fmt.Fprintf(stdout, "File:       %s\n", args[0])
	fmt.Fprintf(stdout, "Meshes:     %d\n", len(s.Meshes))
	fmt.Fprintf(stdout, "Nodes:      %d (%d with LODs)\n", s.Nodes, s.LODNodes)
	if len(s.Extensions) > 0 {
		fmt.Fprintf(stdout, "Extensions: %s\n", strings.Join(s.Extensions, ", "))
	}
	fmt.Fprintln(stdout)
	for _, m := range s.Meshes {
		fmt.Fprintf(stdout, "  %-24s %2d prims %8d tris", m.Name, m.Primitives, m.Triangles)
		if m.Targets > 0 {
			fmt.Fprintf(stdout, "  %d morph targets", m.Targets)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func cmdConfig(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lodtool config <init|show> [options]")
		return errUsage
	}

	switch args[0] {
	case "init":
		path := config.FileName
		if len(args) > 1 {
			path = args[1]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().SaveTo(path); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		return nil
	case "show":
		cfg, _, err := setup("config show", args[1:])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return errUsage
	}
}
