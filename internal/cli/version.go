package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tessro/scrawl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the version, commit, and build date of scrawl.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "✏️  scrawl %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
