package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	cfgDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", Dir, err)
	}
	path := filepath.Join(cfgDir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range GetSupportedEnvVars() {
		t.Setenv(name, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Metrics.Damping != 0.85 || cfg.Metrics.MaxIterations != 20 || cfg.Metrics.Tolerance != 1e-6 {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Budget.TokenBudget != 8000 || !cfg.Budget.AllowTruncation {
		t.Errorf("Budget = %+v", cfg.Budget)
	}
	if cfg.Community.SameDirectoryBonus != 0.5 || cfg.Community.SharedPatternBonus != 0.3 || cfg.Community.BidirectionalBonus != 0.5 {
		t.Errorf("Community = %+v", cfg.Community)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string // empty when valid
	}{
		{"defaults", func(*Config) {}, ""},
		{"version 0 unsupported", func(c *Config) { c.Version = 0 }, "version"},
		{"version 9 unsupported", func(c *Config) { c.Version = 9 }, "version"},
		{"damping one", func(c *Config) { c.Metrics.Damping = 1 }, "metrics.damping"},
		{"damping zero", func(c *Config) { c.Metrics.Damping = 0 }, "metrics.damping"},
		{"no iterations", func(c *Config) { c.Metrics.MaxIterations = 0 }, "metrics.maxIterations"},
		{"negative tolerance", func(c *Config) { c.Metrics.Tolerance = -1 }, "metrics.tolerance"},
		{"no samples", func(c *Config) { c.Metrics.BetweennessSamples = 0 }, "metrics.betweennessSamples"},
		{"zero resolution", func(c *Config) { c.Community.Resolution = 0 }, "community.resolution"},
		{"negative bonus", func(c *Config) { c.Community.SharedPatternBonus = -0.1 }, "community"},
		{"zero bonuses allowed", func(c *Config) {
			c.Community.SameDirectoryBonus, c.Community.SharedPatternBonus, c.Community.BidirectionalBonus = 0, 0, 0
		}, ""},
		{"negative budget", func(c *Config) { c.Budget.TokenBudget = -1 }, "budget.tokenBudget"},
		{"zero budget allowed", func(c *Config) { c.Budget.TokenBudget = 0 }, ""},
		{"zero chars per token", func(c *Config) { c.Budget.CharsPerToken = 0 }, "budget.charsPerToken"},
		{"zero cache", func(c *Config) { c.Outline.CacheSize = 0 }, "outline.cacheSize"},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"bad compression", func(c *Config) { c.Storage.CompressionLevel = "max" }, "storage.compressionLevel"},
		{"compression case-insensitive", func(c *Config) { c.Storage.CompressionLevel = "Best" }, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"rotation size", func(c *Config) { c.Logging.MaxSize = "10MB" }, ""},
		{"bad rotation size", func(c *Config) { c.Logging.MaxSize = "lots" }, "logging.maxSize"},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.maxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() returned unexpected error: %v", err)
				}
				return
			}
			cerr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() error type = %T, want *ConfigError", err)
			}
			if cerr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "version",
		Message: "unsupported config version 99",
	}

	got := err.Error()
	want := "config error in field 'version': unsupported config version 99"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !result.UsedDefaults || result.ConfigPath != "" {
		t.Errorf("UsedDefaults = %v, ConfigPath = %q; want defaults", result.UsedDefaults, result.ConfigPath)
	}
	if result.Config.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", result.Config.Version, CurrentVersion)
	}
}

func TestLoadConfig_PartialFile(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{
		"version": 1,
		"budget": {"tokenBudget": 1200},
		"community": {"resolution": 1.5}
	}`)

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	cfg := result.Config

	if result.UsedDefaults {
		t.Error("UsedDefaults should be false when a file exists")
	}
	if cfg.Budget.TokenBudget != 1200 {
		t.Errorf("Budget.TokenBudget = %d, want 1200", cfg.Budget.TokenBudget)
	}
	if !cfg.Budget.AllowTruncation || cfg.Budget.CharsPerToken != 4 {
		t.Errorf("unset budget keys should keep defaults: %+v", cfg.Budget)
	}
	if cfg.Community.Resolution != 1.5 || cfg.Community.MaxPasses != 100 {
		t.Errorf("Community = %+v", cfg.Community)
	}
	if cfg.Metrics.Damping != 0.85 {
		t.Errorf("Metrics.Damping = %v, want default 0.85", cfg.Metrics.Damping)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"version": 1,`)

	if _, err := LoadConfig(tmpDir); err == nil {
		t.Error("LoadConfig() should fail on invalid JSON")
	}
}

func TestLoadConfigFromPath_NotFound(t *testing.T) {
	if _, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadConfigFromPath() should fail for a missing file")
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1, "budget": {"tokenBudget": 99}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv(EnvConfigPath, configPath)

	result, err := LoadConfigWithDetails(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if result.Config.Budget.TokenBudget != 99 {
		t.Errorf("Budget.TokenBudget = %d, want 99", result.Config.Budget.TokenBudget)
	}
}

func TestConfig_Save(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Budget.TokenBudget = 4242
	cfg.Outline.Heuristics = true
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, Dir, FileName)); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}
	if loaded.Budget.TokenBudget != 4242 || !loaded.Outline.Heuristics {
		t.Errorf("loaded = %+v / %+v", loaded.Budget, loaded.Outline)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "logging level",
			envVars: map[string]string{"CTXMAP_LOG_LEVEL": "debug"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
				}
			},
		},
		{
			name:    "budget int",
			envVars: map[string]string{"CTXMAP_BUDGET_TOKENS": "512"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Budget.TokenBudget != 512 {
					t.Errorf("Budget.TokenBudget = %d, want 512", cfg.Budget.TokenBudget)
				}
			},
		},
		{
			name:    "truncation bool",
			envVars: map[string]string{"CTXMAP_BUDGET_ALLOW_TRUNCATION": "false"},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Budget.AllowTruncation {
					t.Error("Budget.AllowTruncation should be false")
				}
			},
		},
		{
			name: "multiple",
			envVars: map[string]string{
				"CTXMAP_METRICS_DAMPING":      "0.9",
				"CTXMAP_COMMUNITY_RESOLUTION": "2",
				"CTXMAP_STORAGE_PATH":         "/tmp/runs.db",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Metrics.Damping != 0.9 || cfg.Community.Resolution != 2 || cfg.Storage.Path != "/tmp/runs.db" {
					t.Errorf("cfg = %+v / %+v / %+v", cfg.Metrics, cfg.Community, cfg.Storage)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			overrides, err := ApplyEnvOverrides(cfg)
			if err != nil {
				t.Fatalf("ApplyEnvOverrides() error = %v", err)
			}
			if len(overrides) != len(tt.envVars) {
				t.Errorf("len(overrides) = %d, want %d", len(overrides), len(tt.envVars))
			}
			tt.validate(t, cfg)
		})
	}
}

func TestApplyEnvOverrides_Invalid(t *testing.T) {
	tests := map[string]string{
		"CTXMAP_BUDGET_TOKENS":           "lots",
		"CTXMAP_METRICS_DAMPING":         "high",
		"CTXMAP_OUTLINE_HEURISTICS":      "maybe",
		"CTXMAP_BUDGET_ALLOW_TRUNCATION": "sometimes",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(name, value)

			_, err := ApplyEnvOverrides(DefaultConfig())
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Errorf("ApplyEnvOverrides() error = %v, want error naming %s", err, name)
			}
		})
	}
}

func TestApplyOverride_AllPaths(t *testing.T) {
	for env, path := range envVarMappings {
		if err := applyOverride(DefaultConfig(), path, "1"); err != nil {
			t.Errorf("%s -> %s: %v", env, path, err)
		}
	}
	if err := applyOverride(DefaultConfig(), "budget.unknown", "1"); err == nil {
		t.Error("unknown path should fail")
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()

	if len(vars) != len(envVarMappings)+1 {
		t.Errorf("len = %d, want %d", len(vars), len(envVarMappings)+1)
	}
	for i := 1; i < len(vars); i++ {
		if vars[i-1] >= vars[i] {
			t.Errorf("not sorted at %d: %s >= %s", i, vars[i-1], vars[i])
		}
	}
	for _, v := range vars {
		if !strings.HasPrefix(v, "CTXMAP_") {
			t.Errorf("%s lacks the CTXMAP_ prefix", v)
		}
	}
}
