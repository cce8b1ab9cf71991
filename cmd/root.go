package cmd

import "github.com/spf13/cobra"

// Version is set at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "valvegate",
	Short: "Valve Gate — per-user settings injection for chat traffic",
	Long: `Valve Gate sits between a chat client and its backend API and merges
each user's stored settings (memory persistence, identity anonymization)
into the metadata of every outgoing chat request. The payload schema is
passthrough: every field the client sends survives untouched.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("valvegate v%s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
