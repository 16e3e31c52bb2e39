package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session with the master password",
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := promptPassword("Master password: ")
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}

		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		s.ctl.Page().SetPassword(pw)
		ok := s.ctl.Login(ctx)
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return errors.New("login failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
