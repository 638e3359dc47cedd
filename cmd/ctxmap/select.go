package main

import (
	"github.com/spf13/cobra"
)

var (
	selectFlags       inputFlags
	selectWithContent bool
)

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the files that fit a token budget",
	Long: `Walk files in rank order and include each one whole, truncated to its
outline, or not at all, without exceeding the token budget.

Examples:
  ctxmap select --manifest ctxmap.yaml --budget 8000
  ctxmap select --scip index.scip --budget 2000 --content`,
	Run: runSelect,
}

func init() {
	addInputFlags(selectCmd, &selectFlags)
	selectCmd.Flags().BoolVar(&selectWithContent, "content", false, "Include selected (possibly truncated) content")
	rootCmd.AddCommand(selectCmd)
}

func runSelect(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	out, err := runPipeline(ctx, s, selectFlags)
	if err != nil {
		fail(err)
	}
	writeOutput(buildSelectResponse(out.Result, selectWithContent), selectFlags.format)
}
