/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package player abstracts the media engine behind small interfaces so the
// playout loop can be driven by a real process-backed engine in production
// and a scripted fake in tests.
package player

import "context"

// MediaRef identifies a playable media item.
type MediaRef struct {
	ID    string `json:"id" yaml:"id"`
	Path  string `json:"path" yaml:"path"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
}

// State is the lifecycle state of a single playback handle.
type State int

const (
	StateNothingSpecial State = iota
	StatePlaying
	StatePaused
	StateEnded
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateNothingSpecial:
		return "nothing_special"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether playback on a handle is over.
func (s State) Terminal() bool {
	return s == StateEnded || s == StateStopped || s == StateError
}

// Handle is one in-flight playback. Handles are single-use: once terminal
// they never play again.
type Handle interface {
	// State polls the current lifecycle state. It never blocks.
	State() State
	// Pause suspends playback; Resume continues it.
	Pause() error
	Resume() error
	// Stop tears the playback down. Safe to call on a terminal handle.
	Stop() error
}

// Player starts playback of media items.
type Player interface {
	// Play starts the given media and returns a handle for it. The handle
	// outlives ctx cancellation only via Stop.
	Play(ctx context.Context, ref MediaRef) (Handle, error)
}
