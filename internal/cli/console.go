package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abrezinsky/claimboard/internal/app"
	"github.com/abrezinsky/claimboard/internal/browser"
	"github.com/abrezinsky/claimboard/internal/config"
	"github.com/abrezinsky/claimboard/internal/models"
	"github.com/abrezinsky/claimboard/web"
)

// ConsoleOptions holds flags for the console command.
type ConsoleOptions struct {
	*RootOptions
	APIBaseURL      string
	Listen          string
	RequestTimeout  time.Duration
	HistoryPageSize int
	NotificationTTL time.Duration
	NoKeyboard      bool
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand(rootOpts *RootOptions) *cobra.Command {
	return newConsoleCommand(&ConsoleOptions{RootOptions: rootOpts})
}

func newConsoleCommand(opts *ConsoleOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the operator console",
		Long: `Serve the leaderboard console on a local port and drive it from the
browser, the JSON API or single-key shortcuts.

The ledger base URL comes from --api-base-url, else API_BASE_URL, else the
config file, else http://localhost:4000/api.

Example:
  claimboard console
  claimboard console --api-base-url http://10.0.0.5:4000/api --listen :9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runConsole(cmd, cfg, opts.NoKeyboard)
		},
	}

	d := config.Default()
	cmd.Flags().StringVar(&opts.APIBaseURL, "api-base-url", d.APIBaseURL, "ledger REST base URL")
	cmd.Flags().StringVar(&opts.Listen, "listen", d.Listen, "console listen address")
	cmd.Flags().DurationVar(&opts.RequestTimeout, "request-timeout", d.RequestTimeout, "timeout for each ledger call")
	cmd.Flags().IntVar(&opts.HistoryPageSize, "history-page-size", d.HistoryPageSize, "claims per history page")
	cmd.Flags().DurationVar(&opts.NotificationTTL, "notification-ttl", d.NotificationTTL, "how long a notification stays visible")
	cmd.Flags().BoolVar(&opts.NoKeyboard, "nokeyboard", false, "disable keyboard shortcuts")

	return cmd
}

// config layers the explicitly set flags over file and environment
func (o *ConsoleOptions) config(cmd *cobra.Command) (config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-base-url") {
		cfg.APIBaseURL = o.APIBaseURL
	}
	if flags.Changed("listen") {
		cfg.Listen = o.Listen
	}
	if flags.Changed("request-timeout") {
		cfg.RequestTimeout = o.RequestTimeout
	}
	if flags.Changed("history-page-size") {
		cfg.HistoryPageSize = o.HistoryPageSize
	}
	if flags.Changed("notification-ttl") {
		cfg.NotificationTTL = o.NotificationTTL
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runConsole(cmd *cobra.Command, cfg config.Config, noKeyboard bool) error {
	appLog := newLogger(cfg)
	out := cmd.OutOrStdout()

	client := app.NewHTTPLedgerClient(cfg, appLog)
	a, err := app.New(appLog, cfg, client, web.Templates(), web.Static())
	if err != nil {
		return fmt.Errorf("failed to initialize console: %w", err)
	}
	defer a.Close()

	a.OnNotification(func(n models.Notification) {
		printNotification(out, n)
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	printBanner(out, a.ConsoleURL(), client.BaseURL())

	if noKeyboard {
		color.New(color.FgYellow).Fprintln(out, "Keyboard shortcuts disabled")
	} else {
		kb := &Keyboard{
			Session:    a.Session(),
			Log:        appLog,
			Open:       browser.Open,
			ConsoleURL: a.ConsoleURL(),
			Out:        out,
			Quit:       cancel,
		}
		kb.PrintHelp()
		go kb.Listen(ctx, os.Stdin)
	}

	return a.Run(ctx)
}

func printBanner(out io.Writer, consoleURL, ledgerURL string) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgGreen)

	fmt.Fprintln(out)
	title.Fprintln(out, "  claimboard")
	fmt.Fprintf(out, "  %s %s\n", label.Sprint("Console:"), consoleURL)
	fmt.Fprintf(out, "  %s  %s\n\n", label.Sprint("Ledger:"), ledgerURL)
}

// printNotification echoes a notification coloured by severity
func printNotification(out io.Writer, n models.Notification) {
	c := color.New(color.FgGreen)
	if n.Severity == models.SeverityError {
		c = color.New(color.FgRed)
	}
	c.Fprintln(out, n.Text)
}
