package main

import (
	"github.com/spf13/cobra"

	"github.com/neelparekh9/dialogue-gateway/internal/config"
	"github.com/neelparekh9/dialogue-gateway/internal/observability"
)

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "dialogue-client",
	Short: "Play a scripted dialogue streamed from a dialogue gateway",
	Long: `dialogue-client connects to a dialogue gateway, requests one script
node at a time, and plays the streamed sentence audio while typing the
text out in sync. At the end of each line it offers the scripted options
and follows the chosen branch.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		observability.InitLogger(level, true)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s",
		config.GetEnv("SERVER_URL", "http://localhost:8080"), "dialogue gateway base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}
