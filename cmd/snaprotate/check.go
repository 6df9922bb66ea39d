package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raoulx24/snaprotate/internal/fsprobe"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [set...]",
		Short: "Validate the config, the rsync binary and hard-link support of each destination",
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
			problems := 0

			if path, err := exec.LookPath(cfg.Rsync.Binary); err != nil {
				fmt.Fprintf(out, "rsync: %v\n", err)
				problems++
			} else {
				fmt.Fprintf(out, "rsync: %s\n", path)
			}

			for _, s := range sets {
				if st, err := os.Stat(s.Source); err != nil || !st.IsDir() {
					fmt.Fprintf(out, "%s: source %s is not a readable directory\n", s.Name, s.Source)
					problems++
				}

				root, err := filepath.Abs(s.Destination)
				if err != nil {
					return err
				}

				// probe the nearest existing ancestor; the root is created on the first run
				probeDir := root
				for {
					if _, err := os.Stat(probeDir); err == nil || filepath.Dir(probeDir) == probeDir {
						break
					}
					probeDir = filepath.Dir(probeDir)
				}

				res := fsprobe.Probe(probeDir)
				if !res.HardlinksSupported {
					fmt.Fprintf(out, "%s: %s cannot hold hard-linked generations: %s\n", s.Name, probeDir, res.Reason)
					problems++
					continue
				}
				fmt.Fprintf(out, "%s: ok (%s)\n", s.Name, root)
			}

			if problems > 0 {
				return errors.Errorf("%d problem(s) found", problems)
			}
			return nil
		},
	}
}
