package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coal/valvegate/internal/audit"
	"github.com/coal/valvegate/internal/filter"
	"github.com/coal/valvegate/internal/pipeline"
	"github.com/coal/valvegate/internal/proxy"
	"github.com/coal/valvegate/internal/settings"
)

var (
	applySettingsFile string
	applyUser         string
)

var applyCmd = &cobra.Command{
	Use:   "apply [payload JSON]",
	Short: "Apply the inlet chain to a single payload and print the result",
	Long: `Run one chat payload through the settings injector for the given user
and print the merged payload. Reads the payload from the argument, or from
stdin when the argument is "-" or omitted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVar(&applySettingsFile, "settings", "configs/settings.yaml", "Path to settings YAML file")
	applyCmd.Flags().StringVar(&applyUser, "user", "", "User ID to resolve settings for (empty: pass through unchanged)")
}

func runApply(cmd *cobra.Command, args []string) error {
	raw, err := readApplyPayload(args)
	if err != nil {
		return err
	}

	// Same number-preserving decode the proxy uses, so the one-shot path
	// never reformats the payload either
	body, err := proxy.DecodePayload(raw)
	if err != nil {
		return err
	}

	// Resolve the user's settings, if a user was named
	var (
		user         *filter.User
		userSettings *settings.UserSettings
	)
	if applyUser != "" {
		store, err := settings.LoadFromFile(applySettingsFile)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		resolved := store.ResolveUser(applyUser)
		user = &filter.User{ID: applyUser}
		userSettings = &resolved
	}

	pipe := pipeline.New(audit.NopLogger())
	result, err := pipe.ProcessInlet(body, user, userSettings)
	if err != nil {
		return err
	}

	merged, err := json.MarshalIndent(result.Body, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding merged payload: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%s\n", merged)

	fmt.Fprintf(os.Stderr, "\n  Request:  %s\n", result.RequestID)
	if result.Applied {
		fmt.Fprintf(os.Stderr, "  User:     %s\n", applyUser)
		fmt.Fprintf(os.Stderr, "  Settings: save_memories=%v anonymous_mode=%v\n",
			result.Settings.SaveMemories, result.Settings.AnonymousMode)
		if result.MetadataCreated {
			fmt.Fprintf(os.Stderr, "  Metadata: created\n")
		} else {
			fmt.Fprintf(os.Stderr, "  Metadata: merged into existing\n")
		}
	} else {
		fmt.Fprintf(os.Stderr, "  No user named: payload passed through unchanged\n")
	}
	fmt.Fprintln(os.Stderr)

	return nil
}

// readApplyPayload returns the payload bytes from the argument or stdin.
func readApplyPayload(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading payload from stdin: %w", err)
	}
	return data, nil
}
