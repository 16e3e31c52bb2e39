package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/lovincyrus/vault-console/internal/view"
)

var assumeYes bool

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Store, view and delete secrets",
}

var secretSetCmd = &cobra.Command{
	Use:   "set <category> <name> [value]",
	Short: "Store a secret, prompting for the value when omitted",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) == 3 {
			value = args[2]
		} else {
			prompt := promptui.Prompt{
				Label: fmt.Sprintf("Value for %s/%s", args[0], args[1]),
				Mask:  '*',
			}
			v, err := prompt.Run()
			if err != nil {
				return fmt.Errorf("reading value: %w", err)
			}
			value = v
		}

		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		s.ctl.Page().SetSecretForm(view.SecretForm{Category: args[0], Name: args[1], Value: value})
		ok := s.ctl.CreateSecret(ctx)
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return errors.New("storing secret failed")
		}
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get <category> <name>",
	Short: "Print a secret value and copy it to the clipboard",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		ok := s.ctl.ViewSecret(ctx, args[0], args[1])
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("secret %s/%s unavailable", args[0], args[1])
		}
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete <category> <name>",
	Short: "Delete a secret after confirmation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{assumeYes: assumeYes})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		ok := s.ctl.DeleteSecret(ctx, args[0], args[1])
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("secret %s/%s not deleted", args[0], args[1])
		}
		fmt.Printf("Deleted %s/%s\n", args[0], args[1])
		return nil
	},
}

func init() {
	secretDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	secretCmd.AddCommand(secretSetCmd, secretGetCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
