// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package process runs cobra commands with the shared daemon plumbing:
// flag/config/environment layering, the process logger and a
// signal-aware root context.
package process

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the process error class.
var Error = errs.Class("process")

var configFile = flag.String("config", "", "config file")

// ConfigFile returns the path given with --config, or empty.
func ConfigFile() string { return *configFile }

// Exec runs a cobra command tree. Every command sees flag values
// overlaid with the config file and CKDB_* environment variables, a
// global zap logger, and a context that cancels on SIGINT/SIGTERM.
func Exec(cmd *cobra.Command) {
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	cleanup(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// Viper returns the settings layered for cmd: flags under config file
// under environment.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	vip := viper.New()
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, Error.Wrap(err)
	}
	vip.SetEnvPrefix("ckdb")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()
	if *configFile != "" {
		vip.SetConfigFile(*configFile)
		if err := vip.ReadInConfig(); err != nil {
			return nil, Error.Wrap(err)
		}
	}
	return vip, nil
}

// cleanup wraps every RunE in the tree so that config layering and the
// logger are in place before the command body runs.
func cleanup(cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		cleanup(child)
	}
	internalRun := cmd.RunE
	if internalRun == nil {
		return
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		vip, err := Viper(cmd)
		if err != nil {
			log.Printf("failed to load configuration: %v", err)
			return err
		}
		applySettings(cmd.Flags(), vip)

		logger, err := NewLogger()
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
		defer func() { _ = logger.Sync() }()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		err = internalRun(cmd, args)
		if err != nil {
			logger.Error("Unrecoverable error.", zap.Error(err))
			_ = logger.Sync()
		}
		return err
	}
}

// applySettings copies layered values onto flags the command line left
// untouched, so the command body only ever reads flags.
func applySettings(flags *pflag.FlagSet, vip *viper.Viper) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !vip.IsSet(f.Name) {
			return
		}
		value := vip.GetString(f.Name)
		if value == f.DefValue {
			return
		}
		_ = flags.Set(f.Name, value)
	})
}
