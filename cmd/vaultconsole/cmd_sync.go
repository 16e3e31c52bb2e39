package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lovincyrus/vault-console/internal/console"
)

var pageOut string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Load files, secrets and audit log and print the page",
	Long: `Runs the initial resync and writes the rendered page as HTML to stdout,
or to --out. A locked session prints the login hint instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResync(cmd.Context(), (*console.Controller).Start)
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Resync the page, like the refresh button",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResync(cmd.Context(), (*console.Controller).Refresh)
	},
}

func runResync(parent context.Context, resync func(*console.Controller, context.Context) bool) error {
	s, err := openSession(sessionOptions{})
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(parent)
	defer cancel()

	ok := resync(s.ctl, ctx)
	if ok {
		if err := writePage(s.ctl); err != nil {
			s.finish()
			return err
		}
	}
	if err := s.finish(); err != nil {
		return err
	}
	if !ok {
		return errors.New("resync did not complete")
	}
	return nil
}

func writePage(ctl *console.Controller) error {
	var w io.Writer = os.Stdout
	if pageOut != "" {
		f, err := os.Create(pageOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", pageOut, err)
		}
		defer f.Close()
		w = f
	}
	return ctl.Page().WriteHTML(w)
}

func init() {
	for _, c := range []*cobra.Command{syncCmd, refreshCmd} {
		c.Flags().StringVarP(&pageOut, "out", "o", "", "write the page to this file instead of stdout")
		rootCmd.AddCommand(c)
	}
}
