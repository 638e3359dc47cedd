package main

import (
	"github.com/spf13/cobra"
)

var analyzeFlags inputFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis",
	Long: `Build the dependency graph and run every stage: importance and
betweenness, cycle detection, community partitioning, significance scoring
and budgeted selection.

Edges come from a manifest, a SCIP index or both. With --save the run is
stored in the snapshot database and reported together with the newest
earlier run of the same input.

Examples:
  ctxmap analyze --manifest ctxmap.yaml
  ctxmap analyze --scip index.scip --budget 4000 --format human
  ctxmap analyze --manifest ctxmap.json --scip index.scip --save`,
	Run: runAnalyze,
}

func init() {
	addInputFlags(analyzeCmd, &analyzeFlags)
	analyzeCmd.Flags().BoolVar(&analyzeFlags.save, "save", false, "Store the run in the snapshot database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	out, err := runPipeline(ctx, s, analyzeFlags)
	if err != nil {
		fail(err)
	}
	writeOutput(buildAnalyzeResponse(out), analyzeFlags.format)
}
