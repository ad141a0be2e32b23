/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package jingle

import (
	"math/rand"
	"sync"
	"time"

	"github.com/friendsincode/gjallar/internal/player"
)

// Selector picks the next jingle from the pool. ok is false when the pool
// is empty, in which case the due slot is skipped.
type Selector interface {
	Next(pool []player.MediaRef) (player.MediaRef, bool)
}

// RandomSelector picks uniformly at random. Back-to-back repeats of the same
// jingle are allowed.
type RandomSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSelector seeds a selector from the wall clock.
func NewRandomSelector() *RandomSelector {
	return NewSeededSelector(time.Now().UnixNano())
}

// NewSeededSelector creates a selector with a fixed seed, for reproducible
// selection in tests.
func NewSeededSelector(seed int64) *RandomSelector {
	return &RandomSelector{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomSelector) Next(pool []player.MediaRef) (player.MediaRef, bool) {
	if len(pool) == 0 {
		return player.MediaRef{}, false
	}
	s.mu.Lock()
	idx := s.rng.Intn(len(pool))
	s.mu.Unlock()
	return pool[idx], true
}

var _ Selector = (*RandomSelector)(nil)
