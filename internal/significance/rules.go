package significance

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"ctxmap/internal/errors"
)

// RulesFile is the default scoring rules file name under .ctxmap/.
const RulesFile = "scoring.toml"

// NameRule scores a file whose name contains one of Keywords.
type NameRule struct {
	Keywords []string `toml:"keywords"`
	Score    float64  `toml:"score"`
}

// PathRule scores a file whose directory contains one of Patterns. A pattern
// may span several segments ("app/models").
type PathRule struct {
	Patterns []string `toml:"patterns"`
	Score    float64  `toml:"score"`
}

// StructureRule weights the content signals of a file.
type StructureRule struct {
	ClassWeight     float64 `toml:"class_weight"`
	ClassCap        float64 `toml:"class_cap"`
	InterfaceWeight float64 `toml:"interface_weight"`
	InterfaceCap    float64 `toml:"interface_cap"`
	FunctionWeight  float64 `toml:"function_weight"`
	FunctionCap     float64 `toml:"function_cap"`
	Cap             float64 `toml:"cap"`
}

// Rules are the ordered scoring tables. Earlier rules win ties.
type Rules struct {
	Name            []NameRule    `toml:"name"`
	Path            []PathRule    `toml:"path"`
	Structure       StructureRule `toml:"structure"`
	ConnectivityMax float64       `toml:"connectivity_max"`
	MaxTotal        float64       `toml:"max_total"`
}

// rulesFile is the on-disk form; nil fields keep the defaults.
type rulesFile struct {
	Name            []NameRule     `toml:"name"`
	Path            []PathRule     `toml:"path"`
	Structure       *StructureRule `toml:"structure"`
	ConnectivityMax *float64       `toml:"connectivity_max"`
	MaxTotal        *float64       `toml:"max_total"`
}

// DefaultRules returns the built-in scoring tables.
func DefaultRules() Rules {
	return Rules{
		Name: []NameRule{
			{Keywords: []string{"schema", "model", "entity"}, Score: 30},
			{Keywords: []string{"service", "controller", "handler"}, Score: 28},
			{Keywords: []string{"api", "route", "router", "endpoint"}, Score: 25},
			{Keywords: []string{"store", "reducer", "action", "slice"}, Score: 22},
			{Keywords: []string{"main", "app", "server"}, Score: 20},
			{Keywords: []string{"component", "view", "page", "hook"}, Score: 18},
			{Keywords: []string{"index"}, Score: 15},
			{Keywords: []string{"config", "settings"}, Score: 12},
			{Keywords: []string{"util", "helper", "constant"}, Score: 10},
			{Keywords: []string{"test", "spec", "mock"}, Score: 5},
		},
		Path: []PathRule{
			{Patterns: []string{"models", "entities", "schemas"}, Score: 25},
			{Patterns: []string{"services", "core", "domain"}, Score: 23},
			{Patterns: []string{"api", "routes", "controllers", "handlers"}, Score: 20},
			{Patterns: []string{"components", "views", "pages"}, Score: 18},
			{Patterns: []string{"lib", "packages", "pkg", "internal"}, Score: 15},
			{Patterns: []string{"utils", "helpers", "shared", "common"}, Score: 10},
			{Patterns: []string{"test", "tests", "__tests__", "mocks", "fixtures"}, Score: 5},
		},
		Structure: StructureRule{
			ClassWeight:     5,
			ClassCap:        15,
			InterfaceWeight: 3,
			InterfaceCap:    12,
			FunctionWeight:  2,
			FunctionCap:     10,
			Cap:             25,
		},
		ConnectivityMax: 20,
		MaxTotal:        100,
	}
}

// Validate checks that every score and cap is non-negative.
func (r Rules) Validate() error {
	for i, rule := range r.Name {
		if rule.Score < 0 || len(rule.Keywords) == 0 {
			return fmt.Errorf("name rule %d: needs keywords and a non-negative score", i)
		}
	}
	for i, rule := range r.Path {
		if rule.Score < 0 || len(rule.Patterns) == 0 {
			return fmt.Errorf("path rule %d: needs patterns and a non-negative score", i)
		}
	}
	s := r.Structure
	for _, v := range []float64{s.ClassWeight, s.ClassCap, s.InterfaceWeight, s.InterfaceCap, s.FunctionWeight, s.FunctionCap, s.Cap} {
		if v < 0 {
			return fmt.Errorf("structure weights and caps must be non-negative")
		}
	}
	if r.ConnectivityMax < 0 || r.MaxTotal <= 0 {
		return fmt.Errorf("connectivity_max must be >= 0 and max_total > 0")
	}
	return nil
}

// LoadRules reads a TOML rules file. Tables present in the file replace the
// defaults; absent tables keep them.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, errors.NewAnalysisError(errors.InvalidConfig, "failed to read scoring rules", err, nil)
	}
	var file rulesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return rules, errors.NewAnalysisError(errors.InvalidConfig, "failed to parse scoring rules", err, nil).
			WithDetails(map[string]string{"path": path})
	}
	if file.Name != nil {
		rules.Name = file.Name
	}
	if file.Path != nil {
		rules.Path = file.Path
	}
	if file.Structure != nil {
		rules.Structure = *file.Structure
	}
	if file.ConnectivityMax != nil {
		rules.ConnectivityMax = *file.ConnectivityMax
	}
	if file.MaxTotal != nil {
		rules.MaxTotal = *file.MaxTotal
	}
	if err := rules.Validate(); err != nil {
		return rules, errors.NewAnalysisError(errors.InvalidConfig, "invalid scoring rules", err, nil).
			WithDetails(map[string]string{"path": path})
	}
	return rules, nil
}

// SaveRules writes r as TOML, creating parent directories.
func SaveRules(path string, r Rules) error {
	data, err := toml.Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
