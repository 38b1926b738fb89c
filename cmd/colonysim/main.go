// Command colonysim runs the colony economic simulation.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talgya/mini-colony/internal/config"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "colonysim",
		Short: "Colony economic simulation",
		Long: `colonysim advances a resource-constrained colony one day at a time:
production and consumption, housing, employment, crime, slums, wages,
births, deaths and departures, plus the commodity and index markets.

Examples:
  colonysim run --days 200
  colonysim run --fresh --seed 42 --api
  colonysim status`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./config.yaml)")

	root.AddCommand(newRunCommand())
	root.AddCommand(newStatusCommand())
	return root
}

// loadConfig reads the configuration and installs the configured logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stdout))
	return cfg, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("colonysim failed", "error", err)
		os.Exit(1)
	}
}
