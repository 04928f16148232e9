package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "claimboard", cmd.Use)
	assert.Contains(t, cmd.Long, "leaderboard")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"console", "ledger", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "Command %s should exist", name)
			require.NotNil(t, sub)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)

	levelFlag := cmd.PersistentFlags().Lookup("loglevel")
	require.NotNil(t, levelFlag)
}

func TestConsoleCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	consoleCmd, _, err := cmd.Find([]string{"console"})
	require.NoError(t, err)

	tests := map[string]string{
		"api-base-url":      "http://localhost:4000/api",
		"listen":            ":8082",
		"request-timeout":   "10s",
		"history-page-size": "5",
		"notification-ttl":  "3s",
		"nokeyboard":        "false",
	}
	for name, def := range tests {
		flag := consoleCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestLedgerCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	ledgerCmd, _, err := cmd.Find([]string{"ledger"})
	require.NoError(t, err)

	assert.Equal(t, ":4000", ledgerCmd.Flags().Lookup("listen").DefValue)
	assert.Equal(t, "ledger.db", ledgerCmd.Flags().Lookup("db").DefValue)
	assert.Equal(t, "10", ledgerCmd.Flags().Lookup("max-points").DefValue)
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "claimboard dev\n", out.String())
}

// parseConsole parses args into a console command without running it
func parseConsole(t *testing.T, configPath string, args ...string) (*cobra.Command, *ConsoleOptions) {
	t.Helper()
	opts := &ConsoleOptions{RootOptions: &RootOptions{ConfigPath: configPath}}
	cmd := newConsoleCommand(opts)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, opts
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claimboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConsoleConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "api_base_url: http://file.local/api\nlisten: \":9100\"\n")
	t.Setenv("API_BASE_URL", "http://env.local/api")

	t.Run("env beats file", func(t *testing.T) {
		cmd, opts := parseConsole(t, path)

		cfg, err := opts.config(cmd)

		require.NoError(t, err)
		assert.Equal(t, "http://env.local/api", cfg.APIBaseURL)
		assert.Equal(t, ":9100", cfg.Listen)
	})

	t.Run("flag beats env", func(t *testing.T) {
		cmd, opts := parseConsole(t, path, "--api-base-url", "http://flag.local/api", "--history-page-size", "8")

		cfg, err := opts.config(cmd)

		require.NoError(t, err)
		assert.Equal(t, "http://flag.local/api", cfg.APIBaseURL)
		assert.Equal(t, 8, cfg.HistoryPageSize)
	})
}

func TestConsoleConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	cmd, opts := parseConsole(t, "", "--history-page-size", "0")

	_, err := opts.config(cmd)

	assert.Error(t, err)
}

func TestConsoleConfig_MissingFile(t *testing.T) {
	cmd, opts := parseConsole(t, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := opts.config(cmd)

	assert.Error(t, err)
}

func TestLedgerConfig_FlagsOverride(t *testing.T) {
	opts := &LedgerOptions{RootOptions: &RootOptions{}}
	cmd := newLedgerCommand(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--max-points", "0"}))

	_, err := opts.config(cmd)
	assert.Error(t, err, "max-points must be positive")

	require.NoError(t, cmd.ParseFlags([]string{"--max-points", "25", "--db", ":memory:"}))
	cfg, err := opts.config(cmd)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Ledger.MaxPoints)
	assert.Equal(t, ":memory:", cfg.Ledger.DB)
}
