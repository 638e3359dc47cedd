package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ctxmap/internal/config"
	"ctxmap/internal/significance"
)

var (
	configFormat   string
	configShowDiff bool
	configForce    bool
	configRules    bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ctxmap configuration",
	Long:  "View and manage ctxmap configuration stored in .ctxmap/config.json",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write .ctxmap/config.json with the default settings.

An existing file is left alone unless --force is given. With --rules the
built-in scoring tables are also written to .ctxmap/scoring.toml so they
can be edited.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective ctxmap configuration.

Examples:
  ctxmap config show                # Pretty-print current config
  ctxmap config show --format json  # Raw JSON output
  ctxmap config show --diff         # Only show non-default values`,
	Run: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run:   runConfigEnv,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing files")
	configInitCmd.Flags().BoolVar(&configRules, "rules", false, "Also write the default scoring rules")

	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, human)")
	configShowCmd.Flags().BoolVar(&configShowDiff, "diff", false, "Only show non-default values")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func runConfigInit(cmd *cobra.Command, args []string) {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fail(err)
	}

	written, err := initConfig(repoRoot, configForce, configRules)
	if err != nil {
		fail(err)
	}
	if len(written) == 0 {
		fmt.Println("Configuration already exists (use --force to overwrite)")
		return
	}
	for _, p := range written {
		fmt.Printf("Wrote %s\n", p)
	}
}

// initConfig writes the default files and returns the paths it wrote.
func initConfig(repoRoot string, force, rules bool) ([]string, error) {
	var written []string

	cfgPath := filepath.Join(repoRoot, config.Dir, config.FileName)
	if force || !fileExists(cfgPath) {
		if err := config.DefaultConfig().Save(repoRoot); err != nil {
			return nil, fmt.Errorf("failed to write config: %w", err)
		}
		written = append(written, cfgPath)
	}

	if rules {
		rulesPath := filepath.Join(repoRoot, config.Dir, significance.RulesFile)
		if force || !fileExists(rulesPath) {
			if err := significance.SaveRules(rulesPath, significance.DefaultRules()); err != nil {
				return nil, fmt.Errorf("failed to write scoring rules: %w", err)
			}
			written = append(written, rulesPath)
		}
	}
	return written, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func runConfigShow(cmd *cobra.Command, args []string) {
	repoRoot, err := getRepoRoot()
	if err != nil {
		fail(err)
	}

	result, err := config.LoadConfigWithDetails(repoRoot)
	if err != nil {
		fail(err)
	}

	current, err := configMap(result.Config)
	if err != nil {
		fail(err)
	}
	defaults, err := configMap(config.DefaultConfig())
	if err != nil {
		fail(err)
	}

	if configFormat == "json" {
		if configShowDiff {
			current = computeDiff(current, defaults)
		}
		writeOutput(&ConfigShowResponse{
			ConfigPath:   result.ConfigPath,
			UsedDefaults: result.UsedDefaults,
			EnvOverrides: result.EnvOverrides,
			Config:       current,
		}, "json")
		return
	}

	fmt.Print(formatConfigHuman(result, current, defaults, configShowDiff))
}

// configMap converts cfg to its JSON object form.
func configMap(cfg *config.Config) (map[string]interface{}, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func formatConfigHuman(result *config.LoadResult, current, defaults map[string]interface{}, diffOnly bool) string {
	var b strings.Builder

	b.WriteString("ctxmap Configuration\n")
	b.WriteString(strings.Repeat("─", 50) + "\n")

	if result.UsedDefaults {
		b.WriteString("Source: defaults (no config file found)\n")
	} else if result.ConfigPath != "" {
		b.WriteString(fmt.Sprintf("Source: %s\n", result.ConfigPath))
	}

	if len(result.EnvOverrides) > 0 {
		b.WriteString("\nEnvironment Overrides:\n")
		for _, ov := range result.EnvOverrides {
			b.WriteString(fmt.Sprintf("  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.Path))
		}
	}
	b.WriteString("\n")

	flatCurrent := flatten(current, "")
	flatDefaults := flatten(defaults, "")
	keys := make([]string, 0, len(flatCurrent))
	for k := range flatCurrent {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if diffOnly {
		b.WriteString("Modified Settings (differs from defaults):\n\n")
	}
	modified := 0
	for _, k := range keys {
		value := flatCurrent[k]
		def, hasDefault := flatDefaults[k]
		changed := !hasDefault || !isEqual(value, def)
		if diffOnly && !changed {
			continue
		}
		line := fmt.Sprintf("  %s: %v", k, value)
		if changed && hasDefault {
			line += fmt.Sprintf(" (default: %v)", def)
		}
		b.WriteString(line + "\n")
		if changed {
			modified++
		}
	}
	if diffOnly && modified == 0 {
		b.WriteString("  (no modifications - using all defaults)\n")
	}

	b.WriteString("\nUse 'ctxmap config show --format json' for full configuration\n")
	b.WriteString("Use 'ctxmap config env' to see supported environment variables\n")
	return b.String()
}

// flatten turns nested maps into dotted keys.
func flatten(m map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{})
	for k, v := range m {
		key := prefix + k
		if nested, ok := v.(map[string]interface{}); ok {
			for nk, nv := range flatten(nested, key+".") {
				out[nk] = nv
			}
			continue
		}
		out[key] = v
	}
	return out
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	fmt.Println("Supported ctxmap Environment Variables")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Println()
	for _, name := range config.GetSupportedEnvVars() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println()
	fmt.Println("Example usage:")
	fmt.Println("  CTXMAP_BUDGET_TOKENS=4000 ctxmap select --manifest files.yaml")
	fmt.Println("  CTXMAP_LOG_LEVEL=debug ctxmap analyze --scip index.scip")
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func computeDiff(current, defaults map[string]interface{}) map[string]interface{} {
	diff := make(map[string]interface{})
	computeDiffRecursive(current, defaults, diff)
	return diff
}

func computeDiffRecursive(current, defaults map[string]interface{}, diff map[string]interface{}) {
	for key, currentVal := range current {
		defaultVal, exists := defaults[key]
		if !exists {
			diff[key] = currentVal
			continue
		}

		currentMap, currentIsMap := currentVal.(map[string]interface{})
		defaultMap, defaultIsMap := defaultVal.(map[string]interface{})

		if currentIsMap && defaultIsMap {
			nestedDiff := make(map[string]interface{})
			computeDiffRecursive(currentMap, defaultMap, nestedDiff)
			if len(nestedDiff) > 0 {
				diff[key] = nestedDiff
			}
		} else if !isEqual(currentVal, defaultVal) {
			diff[key] = currentVal
		}
	}
}
