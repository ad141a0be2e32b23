/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/friendsincode/gjallar/internal/events"
)

// NATSBridge forwards every bus event to a NATS subject named after the
// event type. Like the Redis bridge it is best effort.
type NATSBridge struct {
	conn   *nats.Conn
	bus    *events.Bus
	logger zerolog.Logger
	nodeID string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNATSBridge connects to the NATS server.
func NewNATSBridge(url string, bus *events.Bus, nodeID string, logger zerolog.Logger) (*NATSBridge, error) {
	conn, err := nats.Connect(url,
		nats.Name("gjallar-"+nodeID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATSBridge{
		conn:   conn,
		bus:    bus,
		logger: logger.With().Str("component", "nats_bridge").Logger(),
		nodeID: nodeID,
	}, nil
}

// Start subscribes to every event type and forwards them until Close.
func (b *NATSBridge) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for _, eventType := range events.AllTypes {
		sub := b.bus.Subscribe(eventType)
		b.wg.Add(1)
		go b.forward(ctx, eventType, sub)
	}

	b.logger.Info().Msg("nats event bridge started")
}

func (b *NATSBridge) forward(ctx context.Context, eventType events.EventType, sub events.Subscriber) {
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			b.bus.Unsubscribe(eventType, sub)
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(envelope{
				EventType: eventType,
				Payload:   payload,
				Timestamp: time.Now(),
				NodeID:    b.nodeID,
			})
			if err != nil {
				b.logger.Error().Err(err).Msg("marshal event failed")
				continue
			}
			if err := b.conn.Publish("gjallar.events."+string(eventType), data); err != nil {
				b.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("nats publish failed")
			}
		}
	}
}

// Close stops forwarding and drains the connection.
func (b *NATSBridge) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}
