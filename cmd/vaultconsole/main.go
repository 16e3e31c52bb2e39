package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lovincyrus/vault-console/internal/config"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vaultconsole",
	Short: "Session-gated console for a personal file and secret vault",
	Long: `vaultconsole runs a small vault server and drives it from the terminal.
Files are encrypted at rest, secrets are grouped by category, and every
access lands in the audit log. The console keeps its session cookie in the
data directory between invocations.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = configPath()
		}
		c, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = c

		level := cfg.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default <data dir>/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	exitOnError(rootCmd.Execute())
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
