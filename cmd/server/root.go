package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"booking-escalator/internal/config"
	"booking-escalator/internal/engine"
	"booking-escalator/internal/logging"
)

// Options lets tests replace the pieces that reach outside the process.
type Options struct {
	LoadFunction engine.ConfigLoader
	NewUpdater   engine.UpdaterFactory
	LoadConfig   func() (*config.Config, error)
	OutputWriter io.Writer
}

func DefaultOptions() Options {
	return Options{
		LoadFunction: config.FunctionFromEnv,
		NewUpdater:   engine.AppwriteUpdater,
		LoadConfig:   config.Load,
		OutputWriter: os.Stdout,
	}
}

type runtimeState struct {
	opts  Options
	debug bool
}

func NewRootCommand(opts Options) *cobra.Command {
	if opts.LoadFunction == nil {
		opts.LoadFunction = config.FunctionFromEnv
	}
	if opts.NewUpdater == nil {
		opts.NewUpdater = engine.AppwriteUpdater
	}
	if opts.LoadConfig == nil {
		opts.LoadConfig = config.Load
	}
	rt := &runtimeState{opts: opts}

	root := &cobra.Command{
		Use:           "booking-escalator",
		Short:         "Grant the owner team access to newly created bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if opts.OutputWriter != nil {
		root.SetOut(opts.OutputWriter)
	}
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "enable debug level logging")

	root.AddCommand(
		newServeCommand(rt),
		newInvokeCommand(rt),
		newTokenCommand(),
	)
	return root
}

// setup loads the process config and builds the logger and guard shared by
// serve and invoke.
func (rt *runtimeState) setup() (*config.Config, *zap.Logger, *engine.Guard, error) {
	cfg, err := rt.opts.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	zl, err := logging.New(rt.debug || cfg.Debug)
	if err != nil {
		return nil, nil, nil, err
	}
	guard, err := engine.NewGuard(cfg.TriggerCondition)
	if err != nil {
		_ = zl.Sync()
		return nil, nil, nil, err
	}
	return cfg, zl, guard, nil
}
