package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	endpoint   string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envEndpoint := os.Getenv("PARTYQUIZ_ENDPOINT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:   "partyquiz-client",
		Short: "Client for the party quiz backend",
	}

	cmd.PersistentFlags().StringVar(&endpoint, "endpoint", envEndpoint, "websocket endpoint of the quiz backend")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewPlayerCmd(&configPath, &endpoint))
	cmd.AddCommand(NewHostCmd(&configPath, &endpoint))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}
