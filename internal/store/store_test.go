package store

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/friendsincode/gjallar/internal/models"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/schedule"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := gdb.AutoMigrate(&models.PlaylistItem{}, &models.Jingle{}, &models.ScheduleConfig{}, &models.FixedTime{}); err != nil {
		t.Fatal(err)
	}
	return New(gdb)
}

func TestLoadFreshDatabase(t *testing.T) {
	s := newTestStore(t)
	sess, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sess.Mode != schedule.ModeNone || len(sess.Playlist) != 0 || sess.Position != 0 {
		t.Fatalf("fresh session = %+v", sess)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	playlist := []player.MediaRef{
		{ID: "a1b2", Path: "/music/one.mp3", Title: "One"},
		{Path: "/music/two.mp3"}, // no ID, store assigns one
	}
	if err := s.SavePlaylist(ctx, playlist); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveJingles(ctx, []player.MediaRef{{ID: "j1", Path: "/jingles/j.mp3"}}); err != nil {
		t.Fatal(err)
	}
	snap := schedule.Snapshot{Mode: schedule.ModePerHour, PerHour: 3, FixedTimes: []string{"08:00"}}
	if err := s.SaveSchedule(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCursor(ctx, 1); err != nil {
		t.Fatal(err)
	}

	sess, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Playlist) != 2 || sess.Playlist[0].Path != "/music/one.mp3" {
		t.Fatalf("playlist = %+v", sess.Playlist)
	}
	if sess.Playlist[1].ID == "" {
		t.Fatal("store did not assign an id")
	}
	if len(sess.Jingles) != 1 || sess.Jingles[0].ID != "j1" {
		t.Fatalf("jingles = %+v", sess.Jingles)
	}
	if sess.Mode != schedule.ModePerHour || sess.PerHour != 3 {
		t.Fatalf("schedule = mode %s per_hour %d", sess.Mode, sess.PerHour)
	}
	if len(sess.FixedTimes) != 1 || sess.FixedTimes[0] != "08:00" {
		t.Fatalf("fixed times = %v", sess.FixedTimes)
	}
	if sess.Position != 1 {
		t.Fatalf("position = %d, want 1", sess.Position)
	}
}

func TestSaveScheduleOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSchedule(ctx, schedule.Snapshot{Mode: schedule.ModePerHour, PerHour: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveSchedule(ctx, schedule.Snapshot{Mode: schedule.ModeFixedTimes, FixedTimes: []string{"12:00"}}); err != nil {
		t.Fatal(err)
	}

	sess, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Mode != schedule.ModeFixedTimes || sess.PerHour != 0 {
		t.Fatalf("schedule = mode %s per_hour %d", sess.Mode, sess.PerHour)
	}
	if len(sess.FixedTimes) != 1 {
		t.Fatalf("fixed times = %v", sess.FixedTimes)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SavePlaylist(ctx, []player.MediaRef{{ID: "x", Path: "/music/x.mp3"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveCursor(ctx, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	sess, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sess.Playlist) != 0 || sess.Mode != schedule.ModeNone {
		t.Fatalf("session after reset = %+v", sess)
	}
}
