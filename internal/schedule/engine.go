/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package schedule decides when a jingle is due between playlist items.
package schedule

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/gjallar/internal/clock"
)

// Mode identifies which scheduling dimension is active.
type Mode string

const (
	ModeNone       Mode = "none"
	ModeFixedTimes Mode = "fixed_times"
	ModePerHour    Mode = "per_hour"
)

var (
	// ErrInvalidTimeFormat indicates a fixed time literal that is not 24-hour HH:MM.
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

	// ErrInvalidPerHour indicates a negative jingles-per-hour value.
	ErrInvalidPerHour = errors.New("jingles per hour must be >= 0")
)

// Snapshot is a copy of the engine's state for status and persistence.
type Snapshot struct {
	Mode            Mode       `json:"mode"`
	FixedTimes      []string   `json:"fixed_times"`
	PerHour         int        `json:"per_hour"`
	NextPerHourDue  *time.Time `json:"next_per_hour_due,omitempty"`
	LastPerHourFire *time.Time `json:"last_per_hour_fire,omitempty"`
}

// Engine owns the jingle schedule state. It is consulted exactly once per
// item boundary via JingleDue; configuration calls may arrive from the HTTP
// surface concurrently, so all state lives behind one mutex.
type Engine struct {
	clk    clock.Clock
	logger zerolog.Logger

	mu         sync.Mutex
	mode       Mode
	fixedTimes []string
	perHour    int
	nextDue    time.Time // zero means unset
	lastFire   time.Time // zero means never fired
}

// NewEngine constructs a schedule engine.
func NewEngine(clk clock.Clock, logger zerolog.Logger) *Engine {
	return &Engine{
		clk:    clk,
		logger: logger.With().Str("component", "schedule").Logger(),
		mode:   ModeNone,
	}
}

// ConfigurePerHour sets the per-hour jingle count. n == 0 disables per-hour
// scheduling. A positive n arms the next due instant one period from now.
func (e *Engine) ConfigurePerHour(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPerHour, n)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	e.perHour = n
	e.lastFire = now
	if n > 0 {
		e.mode = ModePerHour
		e.nextDue = now.Add(perHourPeriod(n))
	} else {
		e.nextDue = time.Time{}
		if len(e.fixedTimes) == 0 {
			e.mode = ModeNone
		} else {
			e.mode = ModeFixedTimes
		}
	}

	e.logger.Info().Int("per_hour", n).Str("mode", string(e.mode)).Msg("per-hour schedule configured")
	return nil
}

// AddFixedTime registers a 24-hour HH:MM literal. The entry fires at the
// first boundary check at or after that time of day, then is consumed.
func (e *Engine) AddFixedTime(hhmm string) error {
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.fixedTimes = append(e.fixedTimes, hhmm)
	e.mode = ModeFixedTimes

	e.logger.Info().Str("time", hhmm).Msg("fixed jingle time added")
	return nil
}

// RemoveFixedTime removes the first matching literal. Removing an unknown
// literal is a no-op.
func (e *Engine) RemoveFixedTime(hhmm string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, ts := range e.fixedTimes {
		if ts == hhmm {
			e.fixedTimes = append(e.fixedTimes[:i], e.fixedTimes[i+1:]...)
			break
		}
	}
	if len(e.fixedTimes) == 0 && e.perHour == 0 {
		e.mode = ModeNone
	}
}

// JingleDue reports whether a jingle should play at the boundary happening
// at now. Fixed times are checked first; a due fixed time is consumed and at
// most one fires per call. The per-hour branch advances the due instant by
// whole periods until it is strictly in the future, so a long gap produces a
// single fire rather than a burst.
func (e *Engine) JingleDue(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeFixedTimes && len(e.fixedTimes) > 0 {
		for i, ts := range e.fixedTimes {
			t, err := time.Parse("15:04", ts)
			if err != nil {
				continue
			}
			candidate := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
			if !candidate.After(now) {
				e.fixedTimes = append(e.fixedTimes[:i], e.fixedTimes[i+1:]...)
				if len(e.fixedTimes) == 0 && e.perHour == 0 {
					e.mode = ModeNone
				}
				e.logger.Debug().Str("time", ts).Msg("fixed jingle time fired")
				return true
			}
		}
	}

	if e.mode == ModePerHour && e.perHour > 0 {
		if e.nextDue.IsZero() {
			return false
		}
		if !now.Before(e.nextDue) {
			period := perHourPeriod(e.perHour)
			for !now.Before(e.nextDue) {
				e.lastFire = e.nextDue
				e.nextDue = e.nextDue.Add(period)
			}
			e.logger.Debug().Time("next_due", e.nextDue).Msg("per-hour jingle fired")
			return true
		}
	}

	return false
}

// Snapshot returns a copy of the current schedule state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Mode:       e.mode,
		FixedTimes: append([]string(nil), e.fixedTimes...),
		PerHour:    e.perHour,
	}
	if !e.nextDue.IsZero() {
		due := e.nextDue
		snap.NextPerHourDue = &due
	}
	if !e.lastFire.IsZero() {
		fired := e.lastFire
		snap.LastPerHourFire = &fired
	}
	return snap
}

func perHourPeriod(n int) time.Duration {
	return time.Duration(float64(time.Hour) / float64(n))
}
