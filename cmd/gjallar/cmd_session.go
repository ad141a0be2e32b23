/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/gjallar/internal/db"
	"github.com/friendsincode/gjallar/internal/schedule"
	"github.com/friendsincode/gjallar/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Import, export, or reset the persisted session",
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a session from a YAML file into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionImport,
}

var sessionExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the persisted session to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionExport,
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the persisted session",
	RunE:  runSessionReset,
}

func init() {
	sessionCmd.AddCommand(sessionImportCmd, sessionExportCmd, sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}

func openStore() (*store.Store, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store.New(database), nil
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	sessions, err := openStore()
	if err != nil {
		return err
	}

	sess, err := store.ImportFile(args[0])
	if err != nil {
		return err
	}
	for _, literal := range sess.FixedTimes {
		if _, err := time.Parse("15:04", literal); err != nil {
			return fmt.Errorf("%w: %q", schedule.ErrInvalidTimeFormat, literal)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sessions.SavePlaylist(ctx, sess.Playlist); err != nil {
		return fmt.Errorf("save playlist: %w", err)
	}
	if err := sessions.SaveJingles(ctx, sess.Jingles); err != nil {
		return fmt.Errorf("save jingles: %w", err)
	}
	snap := schedule.Snapshot{Mode: sess.Mode, PerHour: sess.PerHour, FixedTimes: sess.FixedTimes}
	if err := sessions.SaveSchedule(ctx, snap); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	logger.Info().
		Int("playlist", len(sess.Playlist)).
		Int("jingles", len(sess.Jingles)).
		Str("file", args[0]).
		Msg("session imported")
	return nil
}

func runSessionExport(cmd *cobra.Command, args []string) error {
	sessions, err := openStore()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess, err := sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if err := store.ExportFile(args[0], sess); err != nil {
		return err
	}

	logger.Info().Str("file", args[0]).Msg("session exported")
	return nil
}

func runSessionReset(cmd *cobra.Command, args []string) error {
	sessions, err := openStore()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sessions.Reset(ctx); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}

	logger.Info().Msg("session reset")
	return nil
}
