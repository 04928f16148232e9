// Package cli implements the claimboard command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/abrezinsky/claimboard/internal/config"
	"github.com/abrezinsky/claimboard/internal/logger"
)

// Version is set at build time with -ldflags
var Version = "dev"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the root command for the claimboard CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "claimboard",
		Short: "claimboard - points-claim leaderboard",
		Long: `A leaderboard console for a points ledger. Operators pick a participant,
claim random points for them, add participants and page through the claim
history. A development ledger is included.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "loglevel", "", "log level: debug, info, warn, error (default from config, else info)")

	cmd.AddCommand(NewConsoleCommand(opts))
	cmd.AddCommand(NewLedgerCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads the config file and environment, then applies the
// global flags
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logger.SlogLogger {
	return logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("claimboard %s\n", Version)
		},
	}
}
