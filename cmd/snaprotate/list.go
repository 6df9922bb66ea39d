package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raoulx24/snaprotate/internal/fs"
	"github.com/raoulx24/snaprotate/internal/generation"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [set...]",
		Short: "Show the generations on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd)
			if err != nil {
				return err
			}
			sets, err := selectSets(cfg, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range sets {
				root, err := filepath.Abs(s.Destination)
				if err != nil {
					return err
				}
				gens, err := generation.Scan(fs.New(), root, s.Name)
				if err != nil {
					return errors.Wrapf(err, "set %s", s.Name)
				}

				fmt.Fprintf(out, "%s (retention %d, %s)\n", s.Name, s.Retention, root)
				for _, g := range gens {
					fmt.Fprintf(out, "  %-4d %s  %s\n", g.Index, g.ModTime.Format(time.RFC3339), g.Path)
				}
				if len(gens) == 0 {
					fmt.Fprintln(out, "  no generations")
					continue
				}
				if gaps := generation.Gaps(gens, s.Retention); len(gaps) > 0 {
					fmt.Fprintf(out, "  missing: %v\n", gaps)
				}
				if stale := generation.Stale(gens, s.Retention); len(stale) > 0 {
					fmt.Fprintf(out, "  stale (index above retention): %d\n", len(stale))
				}
			}
			return nil
		},
	}
}
