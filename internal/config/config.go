// Package config handles lodtool configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"go.uber.org/multierr"

	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/pkg/progmesh"
)

// Config holds all lodtool settings.
type Config struct {
	LOD      LODConfig      `yaml:"lod"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Procgen  ProcgenConfig  `yaml:"procgen"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LODConfig controls how many levels are generated and how aggressive
// each one is.
type LODConfig struct {
	Levels    int     `yaml:"levels"`
	Quota     string  `yaml:"quota"`     // "proportional" or "constant"
	Reduction float64 `yaml:"reduction"` // fraction or vertex count, per quota
}

// PipelineConfig holds batch processing settings.
type PipelineConfig struct {
	Workers         int    `yaml:"workers"`
	UseMorphTargets bool   `yaml:"use_morph_targets"`
	MinTriangles    int    `yaml:"min_triangles"` // smaller primitives are copied as-is
	Report          string `yaml:"report"`        // optional YAML report path
}

// ProcgenConfig holds procedural mesh settings.
type ProcgenConfig struct {
	Cells int `yaml:"cells"` // marching cubes cells along the longest axis
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	file := logger.DefaultFileConfig("")
	return &Config{
		LOD: LODConfig{
			Levels:    3,
			Quota:     progmesh.QuotaProportional.String(),
			Reduction: 0.5,
		},
		Pipeline: PipelineConfig{
			Workers:         runtime.NumCPU(),
			UseMorphTargets: true,
			MinTriangles:    4,
		},
		Procgen: ProcgenConfig{
			Cells: 24,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAgeDays: file.MaxAgeDays,
		},
	}
}

// ToQuota converts the LOD section to a progmesh quota.
func (c LODConfig) ToQuota() (progmesh.Quota, error) {
	var q progmesh.Quota
	switch c.Quota {
	case progmesh.QuotaProportional.String():
		q = progmesh.Proportional(c.Reduction)
	case progmesh.QuotaConstant.String():
		q = progmesh.Quota{Kind: progmesh.QuotaConstant, Value: c.Reduction}
	default:
		return q, fmt.Errorf("lod.quota: unknown quota %q", c.Quota)
	}
	if err := q.Validate(); err != nil {
		return q, fmt.Errorf("lod.reduction: %w", err)
	}
	return q, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.LOD.Levels < 0 {
		err = multierr.Append(err, fmt.Errorf("lod.levels: must not be negative, got %d", c.LOD.Levels))
	}
	if _, qerr := c.LOD.ToQuota(); qerr != nil {
		err = multierr.Append(err, qerr)
	}
	if c.Pipeline.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("pipeline.workers: must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.MinTriangles < 1 {
		err = multierr.Append(err, fmt.Errorf("pipeline.min_triangles: must be at least 1, got %d", c.Pipeline.MinTriangles))
	}
	if c.Procgen.Cells < 4 {
		err = multierr.Append(err, fmt.Errorf("procgen.cells: must be at least 4, got %d", c.Procgen.Cells))
	}
	if _, lerr := logger.ParseLevel(c.Logging.Level); lerr != nil {
		err = multierr.Append(err, fmt.Errorf("logging.level: %w", lerr))
	}
	return err
}

// LoggerOptions builds logger options from the logging section.
func (c LoggingConfig) LoggerOptions() logger.Options {
	opts := logger.Options{Level: c.Level}
	if c.LogFile != "" {
		opts.File = logger.FileConfig{
			Path:       c.LogFile,
			MaxSizeMB:  c.MaxSizeMB,
			MaxBackups: c.MaxBackups,
			MaxAgeDays: c.MaxAgeDays,
			Compress:   true,
		}
	}
	return opts
}
