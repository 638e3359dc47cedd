package main

import (
	"github.com/spf13/cobra"

	"ctxmap/internal/version"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeOutput(&VersionResponseCLI{
			Version:   version.Version,
			Commit:    version.Commit,
			BuildDate: version.BuildDate,
		}, versionFormat)
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(versionCmd)
}
