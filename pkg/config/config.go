package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml"
)

// Config holds all configuration options for codesim.
type Config struct {
	// Aggregation weights for the overall score
	Weights WeightsConfig `koanf:"weights" toml:"weights" yaml:"weights" json:"weights"`

	// Segment matching thresholds
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds" yaml:"thresholds" json:"thresholds"`

	Token    TokenConfig   `koanf:"token" toml:"token" yaml:"token" json:"token"`
	AST      ASTConfig     `koanf:"ast" toml:"ast" yaml:"ast" json:"ast"`
	Timeouts TimeoutConfig `koanf:"timeouts" toml:"timeouts" yaml:"timeouts" json:"timeouts"`
	ML       MLConfig      `koanf:"ml" toml:"ml" yaml:"ml" json:"ml"`
	Batch    BatchConfig   `koanf:"batch" toml:"batch" yaml:"batch" json:"batch"`
	Cache    CacheConfig   `koanf:"cache" toml:"cache" yaml:"cache" json:"cache"`
	Exclude  ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude" json:"exclude"`
	Output   OutputConfig  `koanf:"output" toml:"output" yaml:"output" json:"output"`
	Log      LogConfig     `koanf:"log" toml:"log" yaml:"log" json:"log"`
}

// WeightsConfig weights the three required scores.
type WeightsConfig struct {
	Token      float64 `koanf:"token" toml:"token" yaml:"token" json:"token"`
	Structural float64 `koanf:"structural" toml:"structural" yaml:"structural" json:"structural"`
	AST        float64 `koanf:"ast" toml:"ast" yaml:"ast" json:"ast"`
}

// ThresholdConfig controls segment reporting.
type ThresholdConfig struct {
	NearIdentical   float64 `koanf:"near_identical" toml:"near_identical" yaml:"near_identical" json:"near_identical"`
	MinSegmentLines int     `koanf:"min_segment_lines" toml:"min_segment_lines" yaml:"min_segment_lines" json:"min_segment_lines"`
}

// TokenConfig controls the token vectorizer.
type TokenConfig struct {
	MaxFeatures int `koanf:"max_features" toml:"max_features" yaml:"max_features" json:"max_features"`
}

// ASTConfig selects languages compared node-by-node.
type ASTConfig struct {
	NativeLanguages []string `koanf:"native_languages" toml:"native_languages" yaml:"native_languages" json:"native_languages"`
}

// TimeoutConfig bounds each scorer.
type TimeoutConfig struct {
	ScorerMS int `koanf:"scorer_ms" toml:"scorer_ms" yaml:"scorer_ms" json:"scorer_ms"` // 0 disables the bound
}

// MLConfig points at an optional model document.
type MLConfig struct {
	ModelPath string `koanf:"model_path" toml:"model_path" yaml:"model_path" json:"model_path"`
}

// BatchConfig controls matrix comparisons.
type BatchConfig struct {
	Workers       int     `koanf:"workers" toml:"workers" yaml:"workers" json:"workers"` // 0 = 2x NumCPU
	MinSimilarity float64 `koanf:"min_similarity" toml:"min_similarity" yaml:"min_similarity" json:"min_similarity"`
	MaxFileSize   int64   `koanf:"max_file_size" toml:"max_file_size" yaml:"max_file_size" json:"max_file_size"` // bytes, 0 = no limit
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled       bool   `koanf:"enabled" toml:"enabled" yaml:"enabled" json:"enabled"`
	Dir           string `koanf:"dir" toml:"dir" yaml:"dir" json:"dir"`
	TTL           int    `koanf:"ttl" toml:"ttl" yaml:"ttl" json:"ttl"` // TTL in hours
	MemoryEntries int    `koanf:"memory_entries" toml:"memory_entries" yaml:"memory_entries" json:"memory_entries"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore" json:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format" json:"format"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color" yaml:"color" json:"color"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `koanf:"level" toml:"level" yaml:"level" json:"level"` // debug, info, warn, error
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: WeightsConfig{
			Token:      0.3,
			Structural: 0.3,
			AST:        0.4,
		},
		Thresholds: ThresholdConfig{
			NearIdentical:   0.9,
			MinSegmentLines: 3,
		},
		Token: TokenConfig{
			MaxFeatures: 1000,
		},
		AST: ASTConfig{
			NativeLanguages: []string{"python"},
		},
		Timeouts: TimeoutConfig{
			ScorerMS: 5000,
		},
		Batch: BatchConfig{
			MinSimilarity: 0.7,
			MaxFileSize:   1 << 20,
		},
		Cache: CacheConfig{
			Enabled:       true,
			Dir:           ".codesim/cache",
			TTL:           24,
			MemoryEntries: 256,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*.min.js",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".codesim",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	case ".json":
		return json.Parser()
	default:
		return toml.Parser()
	}
}

// configNames are searched in order by Find.
var configNames = []string{
	"codesim.toml",
	"codesim.yaml",
	"codesim.yml",
	"codesim.json",
	".codesim.toml",
	".codesim.yaml",
	".codesim.yml",
	".codesim.json",
}

// Find returns the first config file found under dir or dir/.codesim.
func Find(dir string) (string, bool) {
	for _, sub := range []string{"", ".codesim"} {
		for _, name := range configNames {
			path := filepath.Join(dir, sub, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path, ok := Find("."); ok {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// ScorerTimeout returns the per-scorer bound, zero when disabled.
func (c *Config) ScorerTimeout() time.Duration {
	if c.Timeouts.ScorerMS <= 0 {
		return 0
	}
	return time.Duration(c.Timeouts.ScorerMS) * time.Millisecond
}

// CacheTTL returns the cache entry lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTL) * time.Hour
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	w := c.Weights
	if w.Token < 0 || w.Structural < 0 || w.AST < 0 {
		errs = append(errs, errors.New("weights must be non-negative"))
	} else if w.Token+w.Structural+w.AST <= 0 {
		errs = append(errs, errors.New("weights must not sum to zero"))
	}
	if t := c.Thresholds.NearIdentical; t < 0 || t > 1 {
		errs = append(errs, fmt.Errorf("thresholds.near_identical %v outside [0,1]", t))
	}
	if c.Thresholds.MinSegmentLines < 1 {
		errs = append(errs, fmt.Errorf("thresholds.min_segment_lines must be at least 1, got %d", c.Thresholds.MinSegmentLines))
	}
	if c.Token.MaxFeatures < 1 {
		errs = append(errs, fmt.Errorf("token.max_features must be at least 1, got %d", c.Token.MaxFeatures))
	}
	if m := c.Batch.MinSimilarity; m < 0 || m > 1 {
		errs = append(errs, fmt.Errorf("batch.min_similarity %v outside [0,1]", m))
	}
	if c.Timeouts.ScorerMS < 0 {
		errs = append(errs, errors.New("timeouts.scorer_ms must not be negative"))
	}
	switch c.Output.Format {
	case "text", "json", "markdown", "toon", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output.format %q is not one of text, json, markdown, toon, yaml", c.Output.Format))
	}
	return errors.Join(errs...)
}

// MarshalTOML renders the config as a TOML document.
func (c *Config) MarshalTOML() ([]byte, error) {
	return gotoml.Marshal(*c)
}
