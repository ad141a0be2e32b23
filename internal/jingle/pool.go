/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package jingle manages the jingle pool and picks which jingle plays next.
package jingle

import (
	"sync"

	"github.com/friendsincode/gjallar/internal/player"
)

// Pool is the set of jingles available for interleaving. It is edited by the
// control surface and read by the playback loop.
type Pool struct {
	mu    sync.Mutex
	items []player.MediaRef
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// Replace swaps the whole pool.
func (p *Pool) Replace(items []player.MediaRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append([]player.MediaRef(nil), items...)
}

// Add appends a jingle to the pool.
func (p *Pool) Add(ref player.MediaRef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, ref)
}

// Remove deletes the jingle with the given ID.
func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, item := range p.items {
		if item.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// Items returns a snapshot of the pool.
func (p *Pool) Items() []player.MediaRef {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]player.MediaRef(nil), p.items...)
}

// Len returns the pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
