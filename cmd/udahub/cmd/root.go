// Package cmd implements the udahub CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/udahub/udahub/pkg/config"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "udahub",
	Short: "Customer support conversation router for CultPass",
	Long: `UDA-Hub routes customer support conversations through classification,
knowledge retrieval, account lookups and account actions, escalating to a
human when automated handling would be wrong.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML)")
	rootCmd.AddCommand(runCmd, chatCmd, serveCmd, indexCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
