package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runsFormat string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage stored analysis runs",
	Long:  "List, show and delete runs saved with 'ctxmap analyze --save'.",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	Run:   runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a stored run with its full result",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsDelete,
}

func init() {
	runsCmd.PersistentFlags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum runs to list (0 for all)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	db, err := s.openStore()
	if err != nil {
		fail(err)
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, runsLimit)
	if err != nil {
		fail(err)
	}
	writeOutput(&RunsListResponseCLI{Runs: runs}, runsFormat)
}

func runRunsShow(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	db, err := s.openStore()
	if err != nil {
		fail(err)
	}
	defer db.Close()

	run, err := db.GetRun(ctx, args[0])
	if err != nil {
		fail(err)
	}
	writeOutput(run, runsFormat)
}

func runRunsDelete(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	db, err := s.openStore()
	if err != nil {
		fail(err)
	}
	defer db.Close()

	if err := db.DeleteRun(ctx, args[0]); err != nil {
		fail(err)
	}
	fmt.Printf("Deleted run %s\n", args[0])
}
