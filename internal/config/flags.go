package config

import "flag"

// Flags holds command-line overrides bound to one flag set.
type Flags struct {
	fs *flag.FlagSet

	config    *string
	debug     *bool
	levels    *int
	quota     *string
	reduction *float64
	workers   *int
	noMorph   *bool
	report    *string
	cells     *int
	logFile   *string
}

// BindFlags registers the shared lodtool flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:        fs,
		config:    fs.String("config", "", "Path to config file"),
		debug:     fs.Bool("debug", false, "Enable debug logging"),
		levels:    fs.Int("levels", 0, "Number of LOD levels to generate"),
		quota:     fs.String("quota", "", "Reduction quota: proportional or constant"),
		reduction: fs.Float64("reduction", 0, "Fraction (proportional) or vertex count (constant) removed per level"),
		workers:   fs.Int("workers", 0, "Primitives simplified in parallel"),
		noMorph:   fs.Bool("no-morph", false, "Ignore morph targets when costing collapses"),
		report:    fs.String("report", "", "Write a YAML report to this path"),
		cells:     fs.Int("cells", 0, "Marching cubes resolution for procedural meshes"),
		logFile:   fs.String("log-file", "", "Also log to this rotating file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return *f.config
}

// apply copies every flag that was set on the command line into cfg.
func (f *Flags) apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "debug":
			if *f.debug {
				cfg.Logging.Level = "debug"
			}
		case "levels":
			cfg.LOD.Levels = *f.levels
		case "quota":
			cfg.LOD.Quota = *f.quota
		case "reduction":
			cfg.LOD.Reduction = *f.reduction
		case "workers":
			cfg.Pipeline.Workers = *f.workers
		case "no-morph":
			cfg.Pipeline.UseMorphTargets = !*f.noMorph
		case "report":
			cfg.Pipeline.Report = *f.report
		case "cells":
			cfg.Procgen.Cells = *f.cells
		case "log-file":
			cfg.Logging.LogFile = *f.logFile
		}
	})
}
