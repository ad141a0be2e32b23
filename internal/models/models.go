/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package models defines the persisted session entities.
package models

import "time"

// PlaylistItem is one entry of the main sequence.
type PlaylistItem struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Path      string `gorm:"type:text"`
	Title     string `gorm:"index"`
	Position  int    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Jingle is one entry of the jingle pool.
type Jingle struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Path      string `gorm:"type:text"`
	Title     string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleConfig is the single-row jingle schedule. Fixed times are stored
// as their own rows so additions and removals stay cheap.
type ScheduleConfig struct {
	ID        int    `gorm:"primaryKey"`
	Mode      string `gorm:"type:varchar(16)"`
	PerHour   int
	Position  int `gorm:"default:0"` // saved cursor position
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FixedTime is one HH:MM jingle slot of the fixed-times schedule.
type FixedTime struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Literal   string `gorm:"type:varchar(5);index"`
	CreatedAt time.Time
}
