package main

import (
	"github.com/spf13/cobra"
)

var cyclesFlags inputFlags

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Find import cycles",
	Long: `Find groups of files that import each other directly or transitively,
including files that import themselves.

Examples:
  ctxmap cycles --manifest ctxmap.yaml
  ctxmap cycles --scip index.scip --format human`,
	Run: runCycles,
}

func init() {
	addInputFlags(cyclesCmd, &cyclesFlags)
	rootCmd.AddCommand(cyclesCmd)
}

func runCycles(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	out, err := runPipeline(ctx, s, cyclesFlags)
	if err != nil {
		fail(err)
	}
	writeOutput(buildCyclesResponse(out.Result), cyclesFlags.format)
}
