/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package store persists the playout session: the main sequence, the jingle
// pool, the schedule, and the saved cursor position.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/gjallar/internal/models"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/schedule"
)

// scheduleRowID pins ScheduleConfig to a single row.
const scheduleRowID = 1

// Session is everything a restart needs to resume where it left off.
type Session struct {
	Playlist   []player.MediaRef
	Jingles    []player.MediaRef
	Mode       schedule.Mode
	PerHour    int
	FixedTimes []string
	Position   int
}

// Store reads and writes sessions.
type Store struct {
	db *gorm.DB
}

// New creates a session store.
func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Load reads the whole session. A fresh database yields an empty session
// with ModeNone.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	sess := &Session{Mode: schedule.ModeNone}

	var items []models.PlaylistItem
	if err := s.db.WithContext(ctx).Order("position ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("load playlist: %w", err)
	}
	for _, item := range items {
		sess.Playlist = append(sess.Playlist, player.MediaRef{ID: item.ID, Path: item.Path, Title: item.Title})
	}

	var jingles []models.Jingle
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&jingles).Error; err != nil {
		return nil, fmt.Errorf("load jingles: %w", err)
	}
	for _, j := range jingles {
		sess.Jingles = append(sess.Jingles, player.MediaRef{ID: j.ID, Path: j.Path, Title: j.Title})
	}

	var times []models.FixedTime
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&times).Error; err != nil {
		return nil, fmt.Errorf("load fixed times: %w", err)
	}
	for _, t := range times {
		sess.FixedTimes = append(sess.FixedTimes, t.Literal)
	}

	var cfg models.ScheduleConfig
	err := s.db.WithContext(ctx).First(&cfg, scheduleRowID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fresh database
	case err != nil:
		return nil, fmt.Errorf("load schedule config: %w", err)
	default:
		sess.Mode = schedule.Mode(cfg.Mode)
		sess.PerHour = cfg.PerHour
		sess.Position = cfg.Position
	}

	return sess, nil
}

// SavePlaylist replaces the persisted main sequence.
func (s *Store) SavePlaylist(ctx context.Context, items []player.MediaRef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.PlaylistItem{}).Error; err != nil {
			return err
		}
		for i, ref := range items {
			row := models.PlaylistItem{ID: ref.ID, Path: ref.Path, Title: ref.Title, Position: i}
			if row.ID == "" {
				row.ID = uuid.NewString()
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveJingles replaces the persisted jingle pool.
func (s *Store) SaveJingles(ctx context.Context, items []player.MediaRef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Jingle{}).Error; err != nil {
			return err
		}
		for _, ref := range items {
			row := models.Jingle{ID: ref.ID, Path: ref.Path, Title: ref.Title}
			if row.ID == "" {
				row.ID = uuid.NewString()
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSchedule replaces the persisted schedule state.
func (s *Store) SaveSchedule(ctx context.Context, snap schedule.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.FixedTime{}).Error; err != nil {
			return err
		}
		for _, literal := range snap.FixedTimes {
			row := models.FixedTime{ID: uuid.NewString(), Literal: literal}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		cfg := models.ScheduleConfig{ID: scheduleRowID, Mode: string(snap.Mode), PerHour: snap.PerHour}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"mode", "per_hour", "updated_at"}),
		}).Create(&cfg).Error
	})
}

// SaveCursor persists the cursor position.
func (s *Store) SaveCursor(ctx context.Context, position int) error {
	res := s.db.WithContext(ctx).
		Model(&models.ScheduleConfig{}).
		Where("id = ?", scheduleRowID).
		Update("position", position)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		cfg := models.ScheduleConfig{ID: scheduleRowID, Mode: string(schedule.ModeNone), Position: position}
		return s.db.WithContext(ctx).Create(&cfg).Error
	}
	return nil
}

// Reset drops the whole session.
func (s *Store) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.PlaylistItem{},
			&models.Jingle{},
			&models.FixedTime{},
			&models.ScheduleConfig{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
