package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/raoulx24/snaprotate/internal/config"
	"github.com/raoulx24/snaprotate/internal/logging"
	"github.com/raoulx24/snaprotate/internal/worker"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "snaprotate",
		Short:        "Rotating hard-linked snapshots of directory trees",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "snaprotate.yaml", "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level from the config")

	cmd.AddCommand(
		newRunCmd(opts),
		newListCmd(opts),
		newSizeCmd(opts),
		newCheckCmd(opts),
	)
	return cmd
}

// load reads the config and builds the logger it describes.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	log, err := logging.NewWithWriter(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// selectSets returns the configured sets named in args, or all of them.
func selectSets(cfg *config.Config, args []string) ([]config.SetConfig, error) {
	if len(args) == 0 {
		return cfg.Sets, nil
	}
	out := make([]config.SetConfig, 0, len(args))
	for _, name := range args {
		s, ok := cfg.Set(name)
		if !ok {
			return nil, errors.Wrap(worker.ErrUnknownSet, name)
		}
		out = append(out, s)
	}
	return out, nil
}
