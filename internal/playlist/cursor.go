/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlist tracks the main sequence and the play position within it.
package playlist

import (
	"sync"

	"github.com/friendsincode/gjallar/internal/player"
)

// Cursor holds the ordered main sequence and the current play position.
// The playback loop advances it; the control surface edits the item list.
type Cursor struct {
	mu       sync.Mutex
	items    []player.MediaRef
	position int
}

// NewCursor creates an empty cursor.
func NewCursor() *Cursor {
	return &Cursor{}
}

// Replace swaps the whole sequence, clamping the position.
func (c *Cursor) Replace(items []player.MediaRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]player.MediaRef(nil), items...)
	c.clampLocked()
}

// Add appends an item to the end of the sequence.
func (c *Cursor) Add(ref player.MediaRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, ref)
}

// Remove deletes the item with the given ID. Removal before the cursor pulls
// the position back one slot so the current item stays current.
func (c *Cursor) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			if i < c.position {
				c.position--
			}
			c.clampLocked()
			return true
		}
	}
	return false
}

// Move shifts the item with the given ID by delta slots (negative = up).
func (c *Cursor) Move(id string, delta int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := -1
	for i, item := range c.items {
		if item.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}

	to := from + delta
	if to < 0 {
		to = 0
	}
	if to > len(c.items)-1 {
		to = len(c.items) - 1
	}
	if to == from {
		return true
	}

	item := c.items[from]
	c.items = append(c.items[:from], c.items[from+1:]...)
	c.items = append(c.items[:to], append([]player.MediaRef{item}, c.items[to:]...)...)

	switch {
	case c.position == from:
		c.position = to
	case from < c.position && to >= c.position:
		c.position--
	case from > c.position && to <= c.position:
		c.position++
	}
	return true
}

// Advance moves the position forward one slot, wrapping at the end. On an
// empty sequence it is a no-op.
func (c *Cursor) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return
	}
	c.position = (c.position + 1) % len(c.items)
}

// Current returns the item under the cursor. ok is false when empty.
func (c *Cursor) Current() (player.MediaRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return player.MediaRef{}, false
	}
	c.clampLocked()
	return c.items[c.position], true
}

// Clamp pulls the position back into range after external mutation.
func (c *Cursor) Clamp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clampLocked()
}

// Position returns the current index.
func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Len returns the sequence length.
func (c *Cursor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a snapshot of the sequence.
func (c *Cursor) Items() []player.MediaRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]player.MediaRef(nil), c.items...)
}

func (c *Cursor) clampLocked() {
	if len(c.items) == 0 {
		c.position = 0
		return
	}
	if c.position < 0 {
		c.position = 0
	}
	if c.position > len(c.items)-1 {
		c.position = len(c.items) - 1
	}
}
