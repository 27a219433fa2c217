// Package cli implements the scrawl command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tessro/scrawl/internal/paths"
)

// baseDir is the global --dir flag value.
var baseDir string

var rootCmd = &cobra.Command{
	Use:   "scrawl",
	Short: "Terminal annotation overlay",
	Long:  "scrawl opens a full-screen drawing overlay in the terminal and restores everything it touched when the overlay closes.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Path helpers read the override from the environment.
		if baseDir != "" {
			if err := os.Setenv(paths.EnvDir, baseDir); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "dir", "", "base directory for scrawl data (overrides ~/.scrawl)")
}

func Execute() error {
	return rootCmd.Execute()
}
