/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package eventbus bridges the in-process event bus to external brokers so
// other systems can follow the playout stream.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/gjallar/internal/events"
)

const publishTimeout = 2 * time.Second

// envelope is the wire format shared by the broker bridges.
type envelope struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"`
}

// RedisConfig contains Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisBridge forwards every bus event to a Redis pub/sub channel named
// after the event type. Forwarding is best effort; a broker outage never
// blocks playback.
type RedisBridge struct {
	client *redis.Client
	bus    *events.Bus
	logger zerolog.Logger
	nodeID string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBridge connects to Redis and verifies the connection.
func NewRedisBridge(cfg RedisConfig, bus *events.Bus, nodeID string, logger zerolog.Logger) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBridge{
		client: client,
		bus:    bus,
		logger: logger.With().Str("component", "redis_bridge").Logger(),
		nodeID: nodeID,
	}, nil
}

// Start subscribes to every event type and forwards them until Close.
func (b *RedisBridge) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	for _, eventType := range events.AllTypes {
		sub := b.bus.Subscribe(eventType)
		b.wg.Add(1)
		go b.forward(ctx, eventType, sub)
	}

	b.logger.Info().Msg("redis event bridge started")
}

func (b *RedisBridge) forward(ctx context.Context, eventType events.EventType, sub events.Subscriber) {
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

			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err = b.client.Publish(pubCtx, "gjallar.events."+string(eventType), data).Err()
			cancel()
			if err != nil {
				b.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("redis publish failed")
			}
		}
	}
}

// Close stops forwarding and closes the connection.
func (b *RedisBridge) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.client.Close()
}
