// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package main

import (
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"ckpool.org/ckdb"
	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/ckdbdb"
	"ckpool.org/ckdb/internal/errs2"
	"ckpool.org/ckdb/pkg/cfgstruct"
	"ckpool.org/ckdb/pkg/process"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ckdb",
		Short: "Mining pool accounting and persistence daemon",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Serve requests on the listener socket",
		RunE:  cmdRun,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema, then exit",
		RunE:  cmdMigrate,
	}
	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Write a config file with the current settings",
		RunE:  cmdSetup,
	}

	runCfg     ckdb.Config
	migrateCfg struct {
		Database ckdbdb.Config
	}
	setupCfg ckdb.Config
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(setupCmd)
	cfgstruct.Bind(runCmd.Flags(), &runCfg)
	cfgstruct.Bind(migrateCmd.Flags(), &migrateCfg)
	cfgstruct.Bind(setupCmd.Flags(), &setupCfg)
}

func cmdRun(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := zap.L()

	db, err := ckdbdb.Open(ctx, log.Named("db"), runCfg.Database)
	if err != nil {
		return errs.New("error connecting to master database: %+v", err)
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	if err := db.CreateTables(ctx); err != nil {
		return errs.New("error migrating database: %+v", err)
	}

	cache := accounting.NewCache()
	service, err := accounting.NewService(log.Named("accounting"), db, cache)
	if err != nil {
		return err
	}
	if err := service.Fill(ctx); err != nil {
		return errs.New("error loading live rows: %+v", err)
	}

	peer, err := ckdb.New(log.Named("listener"), ckdb.NewEndpoint(log.Named("endpoint"), service), runCfg)
	if err != nil {
		return err
	}

	// Cancellation is the normal shutdown path, not a failure.
	runError := errs2.IgnoreCanceled(peer.Run(ctx))
	closeError := peer.Close()
	return errs.Combine(runError, closeError)
}

func cmdMigrate(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	log := zap.L()

	db, err := ckdbdb.Open(ctx, log.Named("db"), migrateCfg.Database)
	if err != nil {
		return errs.New("error connecting to master database: %+v", err)
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	return db.CreateTables(ctx)
}

func cmdSetup(cmd *cobra.Command, args []string) error {
	outfile := process.ConfigFile()
	if outfile == "" {
		outfile = "ckdb.yaml"
	}
	zap.L().Info("Writing config.", zap.String("path", outfile))
	return process.SaveConfig(cmd, outfile, nil)
}

func main() {
	process.Exec(rootCmd)
}
