package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/generation"
	"github.com/raoulx24/snaprotate/internal/snapshot"
)

func newSizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "size [set...]",
		Short: "Show the disk usage of each set's newest generation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sets, err := selectSets(cfg, args)
			if err != nil {
				return err
			}

			filesystem := fs.New()
			for _, s := range sets {
				root, err := filepath.Abs(s.Destination)
				if err != nil {
					return err
				}
				newest := generation.Path(root, s.Name, 1)

				n, err := filesystem.DiskUsage(newest)
				switch {
				case errors.Is(err, os.ErrNotExist):
					fmt.Fprintf(cmd.OutOrStdout(), "%s: unavailable\n", s.Name)
				case err != nil:
					return errors.Wrapf(err, "set %s", s.Name)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.Name, snapshot.FormatSize(n))
				}
			}
			return nil
		},
	}
}
