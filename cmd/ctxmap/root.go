package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"ctxmap/internal/slogutil"
	"ctxmap/internal/version"
)

var (
	// verbosity is the -v count
	verbosity int
	quiet     bool
	repoFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "ctxmap",
	Short: "ctxmap - dependency graph and context budgeting",
	Long: `ctxmap builds a file-level dependency graph from an import manifest or a
SCIP index, computes importance and centrality, finds import cycles and
domain communities, scores file significance and selects the files that fit
a token budget.`,
	Version: version.Info(),
}

func init() {
	rootCmd.SetVersionTemplate("ctxmap version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log output (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Repository root (default: current directory)")
}

// cliLevel returns the level requested by flags, or nil when the
// configured level applies.
func cliLevel() *slog.Level {
	if !quiet && verbosity == 0 {
		return nil
	}
	level := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &level
}
