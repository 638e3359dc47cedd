package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"ctxmap/internal/slogutil"
)

const (
	// Dir is the per-repository directory holding configuration and state.
	Dir = ".ctxmap"
	// FileName is the configuration file name under Dir.
	FileName = "config.json"
	// CurrentVersion is the configuration schema version written by Save.
	CurrentVersion = 1
)

// SupportedConfigVersions lists the schema versions Validate accepts.
var SupportedConfigVersions = []int{1}

// Config represents the complete ctxmap configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Metrics   MetricsConfig   `json:"metrics" mapstructure:"metrics"`
	Community CommunityConfig `json:"community" mapstructure:"community"`
	Scoring   ScoringConfig   `json:"scoring" mapstructure:"scoring"`
	Budget    BudgetConfig    `json:"budget" mapstructure:"budget"`
	Outline   OutlineConfig   `json:"outline" mapstructure:"outline"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// MetricsConfig contains importance and betweenness settings
type MetricsConfig struct {
	Damping                    float64 `json:"damping" mapstructure:"damping"`
	MaxIterations              int     `json:"maxIterations" mapstructure:"maxIterations"`
	Tolerance                  float64 `json:"tolerance" mapstructure:"tolerance"`
	BetweennessSampleThreshold int     `json:"betweennessSampleThreshold" mapstructure:"betweennessSampleThreshold"`
	BetweennessSamples         int     `json:"betweennessSamples" mapstructure:"betweennessSamples"`
}

// CommunityConfig contains Louvain and affinity settings
type CommunityConfig struct {
	Resolution         float64 `json:"resolution" mapstructure:"resolution"`
	MaxPasses          int     `json:"maxPasses" mapstructure:"maxPasses"`
	MaxLevels          int     `json:"maxLevels" mapstructure:"maxLevels"`
	SameDirectoryBonus float64 `json:"sameDirectoryBonus" mapstructure:"sameDirectoryBonus"`
	SharedPatternBonus float64 `json:"sharedPatternBonus" mapstructure:"sharedPatternBonus"`
	BidirectionalBonus float64 `json:"bidirectionalBonus" mapstructure:"bidirectionalBonus"`
}

// ScoringConfig points at the optional scoring rules file
type ScoringConfig struct {
	// RulesPath is relative to the repository root. A missing file means
	// the built-in rules.
	RulesPath string `json:"rulesPath" mapstructure:"rulesPath"`
}

// BudgetConfig contains context selection settings
type BudgetConfig struct {
	TokenBudget     int  `json:"tokenBudget" mapstructure:"tokenBudget"`
	AllowTruncation bool `json:"allowTruncation" mapstructure:"allowTruncation"`
	CharsPerToken   int  `json:"charsPerToken" mapstructure:"charsPerToken"`
}

// OutlineConfig contains outline extraction settings
type OutlineConfig struct {
	CacheSize  int  `json:"cacheSize" mapstructure:"cacheSize"`
	Heuristics bool `json:"heuristics" mapstructure:"heuristics"`
}

// StorageConfig contains snapshot store settings
type StorageConfig struct {
	// Path is relative to the repository root.
	Path             string `json:"path" mapstructure:"path"`
	CompressionLevel string `json:"compressionLevel" mapstructure:"compressionLevel"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file,omitempty" mapstructure:"file"`

	// MaxSize rotates File once it exceeds this size ("10MB"); empty
	// disables rotation
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Metrics: MetricsConfig{
			Damping:                    0.85,
			MaxIterations:              20,
			Tolerance:                  1e-6,
			BetweennessSampleThreshold: 2000,
			BetweennessSamples:         256,
		},
		Community: CommunityConfig{
			Resolution:         1.0,
			MaxPasses:          100,
			MaxLevels:          20,
			SameDirectoryBonus: 0.5,
			SharedPatternBonus: 0.3,
			BidirectionalBonus: 0.5,
		},
		Scoring: ScoringConfig{
			RulesPath: Dir + "/scoring.toml",
		},
		Budget: BudgetConfig{
			TokenBudget:     8000,
			AllowTruncation: true,
			CharsPerToken:   4,
		},
		Outline: OutlineConfig{
			CacheSize: 1024,
		},
		Storage: StorageConfig{
			Path:             Dir + "/ctxmap.db",
			CompressionLevel: "default",
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			MaxBackups: 3,
		},
	}
}

// LoadResult describes where a configuration came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string // empty when defaults were used
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from .ctxmap/config.json and applies
// environment overrides
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its source.
// CTXMAP_CONFIG_PATH replaces the standard location.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	var (
		cfg  *Config
		path string
		err  error
	)
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		cfg, err = LoadConfigFromPath(envPath)
		path = envPath
	} else {
		cfg, path, err = loadStandard(repoRoot)
	}
	if err != nil {
		return nil, err
	}

	result := &LoadResult{
		Config:       cfg,
		ConfigPath:   path,
		UsedDefaults: path == "",
	}
	result.EnvOverrides, err = ApplyEnvOverrides(cfg)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func loadStandard(repoRoot string) (*Config, string, error) {
	v := newViper()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, Dir))

	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), "", nil
		}
		return nil, "", fmt.Errorf("read config: %w", err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, v.ConfigFileUsed(), nil
}

// LoadConfigFromPath loads configuration from an explicit file
func LoadConfigFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return unmarshal(v)
}

// newViper returns a viper instance seeded with every default so that a
// partial file only replaces the keys it names.
func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("metrics.damping", d.Metrics.Damping)
	v.SetDefault("metrics.maxIterations", d.Metrics.MaxIterations)
	v.SetDefault("metrics.tolerance", d.Metrics.Tolerance)
	v.SetDefault("metrics.betweennessSampleThreshold", d.Metrics.BetweennessSampleThreshold)
	v.SetDefault("metrics.betweennessSamples", d.Metrics.BetweennessSamples)

	v.SetDefault("community.resolution", d.Community.Resolution)
	v.SetDefault("community.maxPasses", d.Community.MaxPasses)
	v.SetDefault("community.maxLevels", d.Community.MaxLevels)
	v.SetDefault("community.sameDirectoryBonus", d.Community.SameDirectoryBonus)
	v.SetDefault("community.sharedPatternBonus", d.Community.SharedPatternBonus)
	v.SetDefault("community.bidirectionalBonus", d.Community.BidirectionalBonus)

	v.SetDefault("scoring.rulesPath", d.Scoring.RulesPath)

	v.SetDefault("budget.tokenBudget", d.Budget.TokenBudget)
	v.SetDefault("budget.allowTruncation", d.Budget.AllowTruncation)
	v.SetDefault("budget.charsPerToken", d.Budget.CharsPerToken)

	v.SetDefault("outline.cacheSize", d.Outline.CacheSize)
	v.SetDefault("outline.heuristics", d.Outline.Heuristics)

	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("storage.compressionLevel", d.Storage.CompressionLevel)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to .ctxmap/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	m := c.Metrics
	switch {
	case m.Damping <= 0 || m.Damping >= 1:
		return &ConfigError{Field: "metrics.damping", Message: "must be between 0 and 1 (exclusive)"}
	case m.MaxIterations <= 0:
		return &ConfigError{Field: "metrics.maxIterations", Message: "must be positive"}
	case m.Tolerance <= 0:
		return &ConfigError{Field: "metrics.tolerance", Message: "must be positive"}
	case m.BetweennessSampleThreshold <= 0:
		return &ConfigError{Field: "metrics.betweennessSampleThreshold", Message: "must be positive"}
	case m.BetweennessSamples <= 0:
		return &ConfigError{Field: "metrics.betweennessSamples", Message: "must be positive"}
	}

	cm := c.Community
	switch {
	case cm.Resolution <= 0:
		return &ConfigError{Field: "community.resolution", Message: "must be positive"}
	case cm.MaxPasses <= 0:
		return &ConfigError{Field: "community.maxPasses", Message: "must be positive"}
	case cm.MaxLevels <= 0:
		return &ConfigError{Field: "community.maxLevels", Message: "must be positive"}
	case cm.SameDirectoryBonus < 0 || cm.SharedPatternBonus < 0 || cm.BidirectionalBonus < 0:
		return &ConfigError{Field: "community", Message: "affinity bonuses must not be negative"}
	}

	switch {
	case c.Budget.TokenBudget < 0:
		return &ConfigError{Field: "budget.tokenBudget", Message: "must not be negative"}
	case c.Budget.CharsPerToken <= 0:
		return &ConfigError{Field: "budget.charsPerToken", Message: "must be positive"}
	case c.Outline.CacheSize <= 0:
		return &ConfigError{Field: "outline.cacheSize", Message: "must be positive"}
	case c.Storage.Path == "":
		return &ConfigError{Field: "storage.path", Message: "must not be empty"}
	}

	switch strings.ToLower(c.Storage.CompressionLevel) {
	case "fastest", "default", "better", "best":
	default:
		return &ConfigError{Field: "storage.compressionLevel", Message: "must be fastest, default, better or best"}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	if c.Logging.MaxSize != "" {
		if _, err := slogutil.ParseSize(c.Logging.MaxSize); err != nil {
			return &ConfigError{Field: "logging.maxSize", Message: err.Error()}
		}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
