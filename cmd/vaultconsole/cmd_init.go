package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lovincyrus/vault-console/internal/config"
	"github.com/lovincyrus/vault-console/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault in the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.DataDir

		pw, err := promptPassword("Master password: ")
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		if len(pw) < 8 {
			return errors.New("password must be at least 8 characters")
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("reading confirmation: %w", err)
		}
		if pw != confirm {
			return errors.New("passwords do not match")
		}

		if err := vault.Init(dir, pw); err != nil {
			return err
		}

		path := filepath.Join(dir, config.FileName)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := cfg.Save(path); err != nil {
				return err
			}
		}

		fmt.Println("Vault initialized successfully.")
		fmt.Printf("Vault database: %s\n", filepath.Join(dir, "vault.db"))
		fmt.Printf("Config: %s\n", path)
		fmt.Println()
		fmt.Println("Next: run 'vaultconsole serve', then 'vaultconsole login'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
