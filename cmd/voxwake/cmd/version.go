package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "voxwake v%s\n", Version)
		fmt.Fprintf(out, "  Commit:  %s\n", GitCommit)
		fmt.Fprintf(out, "  Branch:  %s\n", GitBranch)
		fmt.Fprintf(out, "  Built:   %s\n", BuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
