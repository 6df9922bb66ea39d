package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raoulx24/snaprotate/internal/metrics"
	"github.com/raoulx24/snaprotate/internal/worker"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [set...]",
		Short: "Rotate and sync the given sets, or every configured set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}

			var rec *metrics.Recorder
			if cfg.Metrics.Textfile != "" {
				rec = metrics.New()
			}

			w := worker.New(cfg, log, nil, nil, rec).WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
			jobs, err := w.Jobs(args)
			if err != nil {
				return err
			}

			results, runErr := w.Run(cmd.Context(), jobs)
			for _, r := range results {
				if r.OK() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %s\n", r.Set, r.Size)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: FAILED: %v\n", r.Set, r.Err)
				}
			}

			if rec != nil {
				if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					log.Error("writing metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
					if runErr == nil {
						return errors.Wrap(err, "writing metrics textfile")
					}
				}
			}
			return runErr
		},
	}
}
