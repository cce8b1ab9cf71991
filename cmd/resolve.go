package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/valvegate/internal/settings"
)

var resolveSettingsFile string

var resolveCmd = &cobra.Command{
	Use:   "resolve [user ID]",
	Short: "Show a user's fully resolved settings",
	Long: `Print the settings the proxy would merge for the given user: the
declared defaults, overlaid with the deployment defaults and the user's own
overrides from the settings file. Without a user ID, prints the deployment
defaults.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveSettingsFile, "settings", "configs/settings.yaml", "Path to settings YAML file")
}

func runResolve(cmd *cobra.Command, args []string) error {
	store, err := settings.LoadFromFile(resolveSettingsFile)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	var resolved settings.UserSettings
	if len(args) == 1 {
		resolved = store.ResolveUser(args[0])
		if _, ok := store.Users[args[0]]; !ok {
			fmt.Fprintf(os.Stderr, "user %q has no overrides; showing deployment defaults\n", args[0])
		}
	} else {
		resolved = store.ResolvedDefaults()
	}

	out, err := json.MarshalIndent(resolved, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s\n", out)
	return nil
}
