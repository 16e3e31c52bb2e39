package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovincyrus/vault-console/internal/server"
	"github.com/lovincyrus/vault-console/internal/vault"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vault server in the foreground",
	Long: `Serves the vault API on listen_addr. The vault stays locked until a
client logs in; it locks itself again after session_ttl without use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := vault.Open(cfg.DataDir)
		if errors.Is(err, vault.ErrNotInitialized) {
			return fmt.Errorf("no vault in %s, run 'vaultconsole init' first", cfg.DataDir)
		}
		if err != nil {
			return fmt.Errorf("open vault: %w", err)
		}
		defer v.Close()
		v.SetSessionTTL(cfg.SessionTTL)

		srv := server.New(v, cfg.ListenAddr, logger)
		ln, err := srv.Start()
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		logger.Info("vault server listening", "addr", ln.Addr().String(), "dir", cfg.DataDir)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		fmt.Fprintln(os.Stderr, "\nShutting down...")
		v.Lock()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
