package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/tessro/scrawl/internal/paths"
	"github.com/tessro/scrawl/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and reset overlay settings",
	Long:  "Commands for the overlay settings file. A running overlay picks up edits to the file without restarting.",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Long:  "Print the settings the overlay would use, with defaults filled in and out-of-range values clamped.",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := paths.SettingsPath()
		if err != nil {
			return fmt.Errorf("resolve settings path: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Overwrite the settings file with defaults",
	Args:  cobra.NoArgs,
	RunE:  runSettingsReset,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	path, err := paths.SettingsPath()
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}
	s, err := settings.Load(path)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", path)
	if err := toml.NewEncoder(out).Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	path, err := paths.SettingsPath()
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}
	if err := settings.Save(path, settings.Default()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✏️  Settings reset: %s\n", path)
	return nil
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
