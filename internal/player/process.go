/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const stopGrace = 5 * time.Second

// ProcessPlayer runs each media item as a child process of the configured
// player binary. One process per handle; main and jingle playback therefore
// never share engine state.
type ProcessPlayer struct {
	bin    string
	logger zerolog.Logger
}

// NewProcessPlayer creates a player that launches bin for each item.
func NewProcessPlayer(bin string, logger zerolog.Logger) *ProcessPlayer {
	return &ProcessPlayer{
		bin:    bin,
		logger: logger.With().Str("component", "player").Logger(),
	}
}

// Play launches the player binary for ref and returns the running handle.
func (p *ProcessPlayer) Play(ctx context.Context, ref MediaRef) (Handle, error) {
	cmd := exec.Command(p.bin, playbackArgs(p.bin, ref.Path)...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player for %s: %w", ref.Path, err)
	}

	h := &processHandle{
		cmd:    cmd,
		state:  StatePlaying,
		done:   make(chan struct{}),
		logger: p.logger.With().Str("media_id", ref.ID).Logger(),
	}

	go h.wait()

	p.logger.Debug().
		Str("media_id", ref.ID).
		Str("path", ref.Path).
		Int("pid", cmd.Process.Pid).
		Msg("playback started")

	return h, nil
}

// playbackArgs builds the argument list for the player binary. gst-launch
// needs a pipeline description; anything else gets the bare path.
func playbackArgs(bin, path string) []string {
	if bin == "gst-launch-1.0" {
		return []string{"-q", "playbin", "uri=file://" + path}
	}
	return []string{path}
}

type processHandle struct {
	cmd    *exec.Cmd
	logger zerolog.Logger
	done   chan struct{}

	mu      sync.Mutex
	state   State
	stopReq bool
}

func (h *processHandle) wait() {
	err := h.cmd.Wait()
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.stopReq:
		h.state = StateStopped
	case err != nil:
		h.logger.Warn().Err(err).Msg("player process exited abnormally")
		h.state = StateError
	default:
		h.state = StateEnded
	}
}

func (h *processHandle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *processHandle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StatePlaying {
		return fmt.Errorf("pause in state %s", h.state)
	}
	if err := h.cmd.Process.Signal(syscall.SIGSTOP); err != nil {
		return fmt.Errorf("pause player: %w", err)
	}
	h.state = StatePaused
	return nil
}

func (h *processHandle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StatePaused {
		return fmt.Errorf("resume in state %s", h.state)
	}
	if err := h.cmd.Process.Signal(syscall.SIGCONT); err != nil {
		return fmt.Errorf("resume player: %w", err)
	}
	h.state = StatePlaying
	return nil
}

// Stop signals the process and returns without waiting for it to exit, so
// the caller's polling loop keeps its cadence. A process that ignores SIGINT
// is killed after the grace period by a detached waiter.
func (h *processHandle) Stop() error {
	h.mu.Lock()
	if h.state.Terminal() || h.stopReq {
		h.mu.Unlock()
		return nil
	}
	h.stopReq = true
	// A paused process will not handle SIGINT until resumed.
	if h.state == StatePaused {
		_ = h.cmd.Process.Signal(syscall.SIGCONT)
	}
	h.mu.Unlock()

	if err := h.cmd.Process.Signal(syscall.SIGINT); err != nil {
		_ = h.cmd.Process.Kill()
		return nil
	}

	go func() {
		select {
		case <-h.done:
		case <-time.After(stopGrace):
			h.logger.Warn().Msg("player ignored SIGINT, killing")
			_ = h.cmd.Process.Kill()
		}
	}()
	return nil
}

var _ Player = (*ProcessPlayer)(nil)
var _ Handle = (*processHandle)(nil)
