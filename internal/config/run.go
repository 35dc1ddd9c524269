package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/blokk.defaults.json"

// RunConfig holds the settings of a sampling and solving run. Every field
// is optional; the Get* methods supply the default for unset ones, so
// partial files are safe.
type RunConfig struct {
	// Sampling
	TargetVolume   *int  `json:"target_volume,omitempty" toml:"target_volume"`
	MaxPieceVolume *int  `json:"max_piece_volume,omitempty" toml:"max_piece_volume"`
	FilterByExtent *bool `json:"filter_by_extent,omitempty" toml:"filter_by_extent"`

	// Solving
	Workers          *int    `json:"workers,omitempty" toml:"workers"`
	Strategy         *string `json:"strategy,omitempty" toml:"strategy"`
	ProgressInterval *string `json:"progress_interval,omitempty" toml:"progress_interval"` // duration string like "5s"

	// Storage
	BatchSize    *int    `json:"batch_size,omitempty" toml:"batch_size"`
	CatalogPath  *string `json:"catalog_path,omitempty" toml:"catalog_path"` // empty means the built-in set
	DatabasePath *string `json:"database_path,omitempty" toml:"database_path"`
	LogFile      *string `json:"log_file,omitempty" toml:"log_file"` // empty means stderr only
}

func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// EmptyRunConfig returns a RunConfig with every field unset.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// DefaultRunConfig returns a RunConfig with every field set to its default.
func DefaultRunConfig() *RunConfig {
	var c RunConfig
	return &RunConfig{
		TargetVolume:     ptrInt(c.GetTargetVolume()),
		MaxPieceVolume:   ptrInt(c.GetMaxPieceVolume()),
		FilterByExtent:   ptrBool(c.GetFilterByExtent()),
		Workers:          ptrInt(c.GetWorkers()),
		Strategy:         ptrString(c.GetStrategy()),
		ProgressInterval: ptrString(c.GetProgressInterval().String()),
		BatchSize:        ptrInt(c.GetBatchSize()),
		CatalogPath:      ptrString(c.GetCatalogPath()),
		DatabasePath:     ptrString(c.GetDatabasePath()),
		LogFile:          ptrString(c.GetLogFile()),
	}
}

// LoadRunConfig loads a RunConfig from a .json or .toml file of at most
// 1MB and validates it.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".toml" {
		return nil, fmt.Errorf("config file must have .json or .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/blokk/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the set values are usable.
func (c *RunConfig) Validate() error {
	if c.TargetVolume != nil && *c.TargetVolume < 0 {
		return fmt.Errorf("target_volume must be non-negative, got %d", *c.TargetVolume)
	}
	if c.MaxPieceVolume != nil && *c.MaxPieceVolume < 0 {
		return fmt.Errorf("max_piece_volume must be non-negative, got %d", *c.MaxPieceVolume)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.BatchSize != nil && *c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", *c.BatchSize)
	}
	if c.Strategy != nil {
		switch *c.Strategy {
		case "pruned", "exhaustive":
		default:
			return fmt.Errorf("strategy must be \"pruned\" or \"exhaustive\", got %q", *c.Strategy)
		}
	}
	if c.ProgressInterval != nil && *c.ProgressInterval != "" {
		d, err := time.ParseDuration(*c.ProgressInterval)
		if err != nil {
			return fmt.Errorf("invalid progress_interval '%s': %w", *c.ProgressInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("progress_interval must be non-negative, got %s", d)
		}
	}
	if c.CatalogPath != nil && *c.CatalogPath != "" && filepath.Ext(*c.CatalogPath) != ".json" {
		return fmt.Errorf("catalog_path must be a .json file, got %q", *c.CatalogPath)
	}
	return nil
}

// GetTargetVolume returns target_volume, 27 by default.
func (c *RunConfig) GetTargetVolume() int {
	if c.TargetVolume == nil {
		return 27
	}
	return *c.TargetVolume
}

// GetMaxPieceVolume returns max_piece_volume. 0, the default, means no cap.
func (c *RunConfig) GetMaxPieceVolume() int {
	if c.MaxPieceVolume == nil {
		return 0
	}
	return *c.MaxPieceVolume
}

func (c *RunConfig) GetFilterByExtent() bool {
	if c.FilterByExtent == nil {
		return false
	}
	return *c.FilterByExtent
}

// GetWorkers returns workers, or the CPU count when unset or zero.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.NumCPU()
	}
	return *c.Workers
}

func (c *RunConfig) GetStrategy() string {
	if c.Strategy == nil {
		return "pruned"
	}
	return *c.Strategy
}

// GetProgressInterval parses progress_interval, 5s by default. Zero turns
// progress reports off.
func (c *RunConfig) GetProgressInterval() time.Duration {
	if c.ProgressInterval == nil || *c.ProgressInterval == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(*c.ProgressInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func (c *RunConfig) GetBatchSize() int {
	if c.BatchSize == nil {
		return 10000
	}
	return *c.BatchSize
}

func (c *RunConfig) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

func (c *RunConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "blokk.db"
	}
	return *c.DatabasePath
}

func (c *RunConfig) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

// Merge overwrites the fields of c that are set in o.
func (c *RunConfig) Merge(o *RunConfig) {
	if o == nil {
		return
	}
	if o.TargetVolume != nil {
		c.TargetVolume = o.TargetVolume
	}
	if o.MaxPieceVolume != nil {
		c.MaxPieceVolume = o.MaxPieceVolume
	}
	if o.FilterByExtent != nil {
		c.FilterByExtent = o.FilterByExtent
	}
	if o.Workers != nil {
		c.Workers = o.Workers
	}
	if o.Strategy != nil {
		c.Strategy = o.Strategy
	}
	if o.ProgressInterval != nil {
		c.ProgressInterval = o.ProgressInterval
	}
	if o.BatchSize != nil {
		c.BatchSize = o.BatchSize
	}
	if o.CatalogPath != nil {
		c.CatalogPath = o.CatalogPath
	}
	if o.DatabasePath != nil {
		c.DatabasePath = o.DatabasePath
	}
	if o.LogFile != nil {
		c.LogFile = o.LogFile
	}
}
