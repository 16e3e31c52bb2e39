package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var downloadDir string

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file into the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		s.ctl.Page().SetUploadPath(args[0])
		ok := s.ctl.Upload(ctx)
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return errors.New("upload failed")
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <filename>",
	Short: "Download a file from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(sessionOptions{downloadDir: downloadDir})
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd.Context())
		defer cancel()

		ok := s.ctl.Download(ctx, args[0])
		if err := s.finish(); err != nil {
			return err
		}
		if !ok {
			return errors.New("download failed")
		}
		fmt.Printf("Saved %s\n", s.saver.saved)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadDir, "dir", "d", "", "directory to save into (default download_dir)")
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
}
