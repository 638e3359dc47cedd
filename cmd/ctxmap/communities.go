package main

import (
	"github.com/spf13/cobra"
)

var communitiesFlags inputFlags

var communitiesCmd = &cobra.Command{
	Use:   "communities",
	Short: "Partition files into domain communities",
	Long: `Partition the graph into communities of tightly connected files and
report their labels, members, cohesion and the partition's modularity.

Examples:
  ctxmap communities --manifest ctxmap.yaml --format human`,
	Run: runCommunities,
}

func init() {
	addInputFlags(communitiesCmd, &communitiesFlags)
	rootCmd.AddCommand(communitiesCmd)
}

func runCommunities(cmd *cobra.Command, args []string) {
	s := mustSession()
	defer s.Close()
	ctx, cancel := newContext()
	defer cancel()

	out, err := runPipeline(ctx, s, communitiesFlags)
	if err != nil {
		fail(err)
	}
	writeOutput(buildCommunitiesResponse(out.Result), communitiesFlags.format)
}
