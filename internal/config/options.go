package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"ctxmap/internal/analysis"
	"ctxmap/internal/community"
	"ctxmap/internal/compression"
	"ctxmap/internal/metrics"
	"ctxmap/internal/outline"
	"ctxmap/internal/significance"
	"ctxmap/internal/slogutil"
)

// MetricsOptions converts the metrics section.
func (c *Config) MetricsOptions(logger *slog.Logger) metrics.Options {
	return metrics.Options{
		Damping:                    c.Metrics.Damping,
		MaxIterations:              c.Metrics.MaxIterations,
		Tolerance:                  c.Metrics.Tolerance,
		BetweennessSampleThreshold: c.Metrics.BetweennessSampleThreshold,
		BetweennessSamples:         c.Metrics.BetweennessSamples,
		Logger:                     logger,
	}
}

// CommunityOptions converts the community section.
func (c *Config) CommunityOptions(logger *slog.Logger) community.Options {
	return community.Options{
		Resolution: c.Community.Resolution,
		Affinity: community.Affinity{
			SameDirectory: c.Community.SameDirectoryBonus,
			SharedPattern: c.Community.SharedPatternBonus,
			Bidirectional: c.Community.BidirectionalBonus,
		},
		MaxPasses: c.Community.MaxPasses,
		MaxLevels: c.Community.MaxLevels,
		Logger:    logger,
	}
}

// Counter returns the token counter described by the budget section.
func (c *Config) Counter() compression.EstimateCounter {
	return compression.EstimateCounter{CharsPerToken: c.Budget.CharsPerToken}
}

// OutlineOptions converts the outline section.
func (c *Config) OutlineOptions(logger *slog.Logger) outline.Options {
	return outline.Options{
		CacheSize:  c.Outline.CacheSize,
		Heuristics: c.Outline.Heuristics,
		Logger:     logger,
	}
}

// Resolve returns p joined to repoRoot unless it is absolute.
func Resolve(repoRoot, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(repoRoot, filepath.FromSlash(p))
}

// Rules loads the scoring rules file, or returns the built-in rules when
// the file does not exist.
func (c *Config) Rules(repoRoot string) (significance.Rules, error) {
	if c.Scoring.RulesPath == "" {
		return significance.DefaultRules(), nil
	}
	path := Resolve(repoRoot, c.Scoring.RulesPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return significance.DefaultRules(), nil
	}
	return significance.LoadRules(path)
}

// AnalysisOptions builds the pipeline options. The caller supplies the
// truncator, usually an outline.Extractor.
func (c *Config) AnalysisOptions(repoRoot string, truncator compression.Truncator, logger *slog.Logger) (analysis.Options, error) {
	rules, err := c.Rules(repoRoot)
	if err != nil {
		return analysis.Options{}, err
	}
	return analysis.Options{
		Metrics:           c.MetricsOptions(logger),
		Community:         c.CommunityOptions(logger),
		Rules:             &rules,
		DisableTruncation: !c.Budget.AllowTruncation,
		Counter:           c.Counter(),
		Truncator:         truncator,
		Logger:            logger,
	}, nil
}

// LoggerSettings converts the logging section. File resolves against
// repoRoot.
func (c *Config) LoggerSettings(repoRoot string) slogutil.Settings {
	s := slogutil.Settings{
		Format:     c.Logging.Format,
		Level:      c.Logging.Level,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
	}
	if c.Logging.File != "" {
		s.File = Resolve(repoRoot, c.Logging.File)
	}
	return s
}
