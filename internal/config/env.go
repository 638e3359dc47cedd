package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// EnvConfigPath names an explicit configuration file.
const EnvConfigPath = "CTXMAP_CONFIG_PATH"

// EnvOverride records one applied environment override
type EnvOverride struct {
	EnvVar string `json:"envVar"`
	Path   string `json:"path"`
	Value  string `json:"value"`
}

// envVarMappings maps environment variables to configuration paths
var envVarMappings = map[string]string{
	"CTXMAP_LOG_LEVEL":                     "logging.level",
	"CTXMAP_LOG_FORMAT":                    "logging.format",
	"CTXMAP_LOG_FILE":                      "logging.file",
	"CTXMAP_LOG_MAX_SIZE":                  "logging.maxSize",
	"CTXMAP_LOG_MAX_BACKUPS":               "logging.maxBackups",
	"CTXMAP_METRICS_DAMPING":               "metrics.damping",
	"CTXMAP_METRICS_MAX_ITERATIONS":        "metrics.maxIterations",
	"CTXMAP_METRICS_TOLERANCE":             "metrics.tolerance",
	"CTXMAP_METRICS_BETWEENNESS_THRESHOLD": "metrics.betweennessSampleThreshold",
	"CTXMAP_METRICS_BETWEENNESS_SAMPLES":   "metrics.betweennessSamples",
	"CTXMAP_COMMUNITY_RESOLUTION":          "community.resolution",
	"CTXMAP_COMMUNITY_MAX_LEVELS":          "community.maxLevels",
	"CTXMAP_SCORING_RULES_PATH":            "scoring.rulesPath",
	"CTXMAP_BUDGET_TOKENS":                 "budget.tokenBudget",
	"CTXMAP_BUDGET_ALLOW_TRUNCATION":       "budget.allowTruncation",
	"CTXMAP_BUDGET_CHARS_PER_TOKEN":        "budget.charsPerToken",
	"CTXMAP_OUTLINE_CACHE_SIZE":            "outline.cacheSize",
	"CTXMAP_OUTLINE_HEURISTICS":            "outline.heuristics",
	"CTXMAP_STORAGE_PATH":                  "storage.path",
	"CTXMAP_STORAGE_COMPRESSION":           "storage.compressionLevel",
}

// GetSupportedEnvVars returns the supported override variables, sorted
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings)+1)
	for k := range envVarMappings {
		vars = append(vars, k)
	}
	vars = append(vars, EnvConfigPath)
	sort.Strings(vars)
	return vars
}

// ApplyEnvOverrides applies every set CTXMAP_* variable to cfg, in sorted
// variable order, and returns what was applied
func ApplyEnvOverrides(cfg *Config) ([]EnvOverride, error) {
	names := make([]string, 0, len(envVarMappings))
	for k := range envVarMappings {
		names = append(names, k)
	}
	sort.Strings(names)

	var applied []EnvOverride
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		path := envVarMappings[name]
		if err := applyOverride(cfg, path, value); err != nil {
			return applied, fmt.Errorf("%s: %w", name, err)
		}
		applied = append(applied, EnvOverride{EnvVar: name, Path: path, Value: value})
	}
	return applied, nil
}

// applyOverride sets one configuration path from its string form
func applyOverride(cfg *Config, path, value string) error {
	value = strings.TrimSpace(value)
	switch path {
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.format":
		cfg.Logging.Format = value
	case "logging.file":
		cfg.Logging.File = value
	case "logging.maxSize":
		cfg.Logging.MaxSize = value
	case "scoring.rulesPath":
		cfg.Scoring.RulesPath = value
	case "storage.path":
		cfg.Storage.Path = value
	case "storage.compressionLevel":
		cfg.Storage.CompressionLevel = value

	case "metrics.damping":
		return setFloat(&cfg.Metrics.Damping, value)
	case "metrics.tolerance":
		return setFloat(&cfg.Metrics.Tolerance, value)
	case "community.resolution":
		return setFloat(&cfg.Community.Resolution, value)

	case "metrics.maxIterations":
		return setInt(&cfg.Metrics.MaxIterations, value)
	case "metrics.betweennessSampleThreshold":
		return setInt(&cfg.Metrics.BetweennessSampleThreshold, value)
	case "metrics.betweennessSamples":
		return setInt(&cfg.Metrics.BetweennessSamples, value)
	case "community.maxLevels":
		return setInt(&cfg.Community.MaxLevels, value)
	case "budget.tokenBudget":
		return setInt(&cfg.Budget.TokenBudget, value)
	case "budget.charsPerToken":
		return setInt(&cfg.Budget.CharsPerToken, value)
	case "outline.cacheSize":
		return setInt(&cfg.Outline.CacheSize, value)
	case "logging.maxBackups":
		return setInt(&cfg.Logging.MaxBackups, value)

	case "budget.allowTruncation":
		return setBool(&cfg.Budget.AllowTruncation, value)
	case "outline.heuristics":
		return setBool(&cfg.Outline.Heuristics, value)

	default:
		return fmt.Errorf("unknown config path %q", path)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer %q", value)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", value)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", value)
	}
	*dst = b
	return nil
}
