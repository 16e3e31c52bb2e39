package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	reportRecent   int
	rotateCategory string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize stored files and secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		r, ok := s.ctl.Report(ctx, reportRecent)
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return errors.New("report unavailable")
		}
		writeReport(os.Stdout, r)
		return nil
	},
}

var rotateKeysCmd = &cobra.Command{
	Use:   "rotate-keys",
	Short: "Re-encrypt stored secrets under fresh nonces",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		_, ok := s.ctl.RotateSecrets(ctx, rotateCategory)
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("rotating secrets failed")
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVarP(&reportRecent, "recent", "n", 5, "number of recent uploads to list")
	rotateKeysCmd.Flags().StringVarP(&rotateCategory, "category", "c", "", "only rotate secrets in this category")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(rotateKeysCmd)
}
