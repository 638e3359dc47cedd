package main

import (
	"github.com/spf13/cobra"
)

var (
	rankFlags inputFlags
	rankLimit int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "List files by significance",
	Long: `List files in rank order with their score breakdown, importance,
betweenness, degree, community and cycle membership.

Examples:
  ctxmap rank --manifest ctxmap.yaml
  ctxmap rank --scip index.scip --limit 10 --format human`,
	Run: runRank,
}

func init() {
	addInputFlags(rankCmd, &rankFlags)
	rankCmd.Flags().IntVar(&rankLimit, "limit", 20, "Maximum files to list (0 for all)")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	out, err := runPipeline(ctx, s, rankFlags)
	if err != nil {
		fail(err)
	}
	writeOutput(buildRankResponse(out.Result, rankLimit), rankFlags.format)
}
