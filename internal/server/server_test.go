/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/friendsincode/gjallar/internal/config"
	"github.com/friendsincode/gjallar/internal/events"
	"github.com/friendsincode/gjallar/internal/logbuffer"
	"github.com/friendsincode/gjallar/internal/schedule"
	"github.com/friendsincode/gjallar/internal/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "state.db")
	cfg := &config.Config{
		HTTPBind:     "127.0.0.1",
		HTTPPort:     0,
		DBBackend:    config.DatabaseSQLite,
		DBDSN:        dsn,
		PlayerBin:    "true",
		PollInterval: 50 * time.Millisecond,
	}

	srv, err := New(cfg, logbuffer.New(64), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv, dsn
}

func waitForFixedTimes(t *testing.T, sessions *store.Store, want []string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		sess, err := sessions.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if equalStrings(sess.FixedTimes, want) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("persisted fixed times = %v, want %v", sess.FixedTimes, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func equalStrings(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestScheduleUpdatePersistedWhileRunning(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.Start()

	if err := srv.engine.AddFixedTime("08:00"); err != nil {
		t.Fatal(err)
	}
	srv.bus.Publish(events.EventScheduleUpdate, nil)
	waitForFixedTimes(t, srv.sessions, []string{"08:00"})

	if !srv.engine.JingleDue(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Fatal("fixed time not due")
	}
	srv.bus.Publish(events.EventScheduleUpdate, nil)
	waitForFixedTimes(t, srv.sessions, nil)
}

func TestConsumedFixedTimeNotRestoredAfterRestart(t *testing.T) {
	srv, dsn := newTestServer(t)
	srv.Start()

	if err := srv.engine.AddFixedTime("08:00"); err != nil {
		t.Fatal(err)
	}
	if err := srv.engine.AddFixedTime("20:00"); err != nil {
		t.Fatal(err)
	}
	if !srv.engine.JingleDue(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)) {
		t.Fatal("fixed time not due")
	}
	if err := srv.Close(); err != nil {
		t.Fatal(err)
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sess, err := store.New(gdb).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(sess.FixedTimes, []string{"20:00"}) {
		t.Fatalf("persisted fixed times = %v, want [20:00]", sess.FixedTimes)
	}
	if sess.Mode != schedule.ModeFixedTimes {
		t.Fatalf("persisted mode = %s, want fixed_times", sess.Mode)
	}
}
