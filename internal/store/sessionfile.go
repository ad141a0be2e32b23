/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/schedule"
)

// SessionFile is the YAML exchange format for sessions.
type SessionFile struct {
	Playlist   []player.MediaRef `yaml:"playlist"`
	Jingles    []player.MediaRef `yaml:"jingles"`
	PerHour    int               `yaml:"per_hour"`
	FixedTimes []string          `yaml:"scheduled_times"`
}

// ExportFile writes a session to a YAML file.
func ExportFile(path string, sess *Session) error {
	out := SessionFile{
		Playlist:   sess.Playlist,
		Jingles:    sess.Jingles,
		PerHour:    sess.PerHour,
		FixedTimes: sess.FixedTimes,
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// ImportFile reads a session from a YAML file. Fixed time literals are
// validated; per-hour must be non-negative.
func ImportFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var in SessionFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if in.PerHour < 0 {
		return nil, fmt.Errorf("%w: %d", schedule.ErrInvalidPerHour, in.PerHour)
	}

	sess := &Session{
		Playlist:   in.Playlist,
		Jingles:    in.Jingles,
		PerHour:    in.PerHour,
		FixedTimes: in.FixedTimes,
		Mode:       schedule.ModeNone,
	}
	if in.PerHour > 0 {
		sess.Mode = schedule.ModePerHour
	} else if len(in.FixedTimes) > 0 {
		sess.Mode = schedule.ModeFixedTimes
	}
	return sess, nil
}
