/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "player.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitForState(t *testing.T, h Handle, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		if st := h.State(); st == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("state = %s, want %s", h.State(), want)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestProcessEndsNormally(t *testing.T) {
	bin := writeScript(t, "exit 0")
	p := NewProcessPlayer(bin, zerolog.Nop())

	h, err := p.Play(context.Background(), MediaRef{ID: "a", Path: "/music/a.mp3"})
	if err != nil {
		t.Fatal(err)
	}
	waitForState(t, h, StateEnded, 2*time.Second)
}

func TestStopCooperativeProcess(t *testing.T) {
	bin := writeScript(t, "exec sleep 60")
	p := NewProcessPlayer(bin, zerolog.Nop())

	h, err := p.Play(context.Background(), MediaRef{ID: "a", Path: "/music/a.mp3"})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Stop(); err != nil {
		t.Fatal(err)
	}
	waitForState(t, h, StateStopped, 2*time.Second)
}

func TestStopReturnsPromptlyWhenProcessIgnoresSignal(t *testing.T) {
	bin := writeScript(t, "trap '' INT TERM\nsleep 60")
	p := NewProcessPlayer(bin, zerolog.Nop())

	h, err := p.Play(context.Background(), MediaRef{ID: "a", Path: "/music/a.mp3"})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := h.Stop(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("stop blocked for %s", elapsed)
	}

	// The detached waiter kills the process once the grace period lapses.
	waitForState(t, h, StateStopped, stopGrace+3*time.Second)
}
