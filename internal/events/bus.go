/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	EventNowPlaying       EventType = "now_playing"
	EventJingleStarted    EventType = "jingle_started"
	EventJingleFinished   EventType = "jingle_finished"
	EventTransportStarted EventType = "transport.started"
	EventTransportStopped EventType = "transport.stopped"
	EventTransportPaused  EventType = "transport.paused"
	EventTransportResumed EventType = "transport.resumed"
	EventScheduleUpdate   EventType = "schedule_update"
	EventCursorMoved      EventType = "cursor_moved"
	EventPlaybackError    EventType = "playback_error"
	EventPlaylistUpdated  EventType = "playlist_updated"
	EventJinglePoolUpdate EventType = "jingle_pool_updated"
)

// AllTypes lists every event type, for bridges that forward the whole stream.
var AllTypes = []EventType{
	EventNowPlaying,
	EventJingleStarted,
	EventJingleFinished,
	EventTransportStarted,
	EventTransportStopped,
	EventTransportPaused,
	EventTransportResumed,
	EventScheduleUpdate,
	EventCursorMoved,
	EventPlaybackError,
	EventPlaylistUpdated,
	EventJinglePoolUpdate,
}

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
