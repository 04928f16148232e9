package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abrezinsky/claimboard/internal/app"
	"github.com/abrezinsky/claimboard/internal/config"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Listen    string
	DB        string
	MaxPoints int
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	return newLedgerCommand(&LedgerOptions{RootOptions: rootOpts})
}

func newLedgerCommand(opts *LedgerOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Run the development points ledger",
		Long: `Serve the points-ledger REST API backed by SQLite, for running the
console end to end on one machine.

Example:
  claimboard ledger
  claimboard ledger --db /tmp/ledger.db --max-points 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runLedger(cmd, cfg)
		},
	}

	d := config.Default().Ledger
	cmd.Flags().StringVar(&opts.Listen, "listen", d.Listen, "ledger listen address")
	cmd.Flags().StringVar(&opts.DB, "db", d.DB, "path to SQLite database")
	cmd.Flags().IntVar(&opts.MaxPoints, "max-points", d.MaxPoints, "largest award per claim")

	return cmd
}

func (o *LedgerOptions) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Ledger.Listen = o.Listen
	}
	if flags.Changed("db") {
		cfg.Ledger.DB = o.DB
	}
	if flags.Changed("max-points") {
		cfg.Ledger.MaxPoints = o.MaxPoints
	}

	if err := cfg.ValidateLedger(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runLedger(cmd *cobra.Command, cfg config.Config) error {
	appLog := newLogger(cfg)

	l, err := app.NewLedger(appLog, cfg.Ledger)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			appLog.Error("Error closing database", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(cmd.OutOrStdout(), "Ledger serving %s. Press Ctrl-C to stop.\n", cfg.Ledger.Listen)
	return l.Run(ctx)
}
