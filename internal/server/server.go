/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, playback, and the control API
// into one runnable daemon.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/gjallar/internal/api"
	"github.com/friendsincode/gjallar/internal/clock"
	"github.com/friendsincode/gjallar/internal/config"
	"github.com/friendsincode/gjallar/internal/db"
	"github.com/friendsincode/gjallar/internal/eventbus"
	"github.com/friendsincode/gjallar/internal/events"
	"github.com/friendsincode/gjallar/internal/jingle"
	"github.com/friendsincode/gjallar/internal/logbuffer"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/playlist"
	"github.com/friendsincode/gjallar/internal/playout"
	"github.com/friendsincode/gjallar/internal/schedule"
	"github.com/friendsincode/gjallar/internal/store"
	"github.com/friendsincode/gjallar/internal/telemetry"
)

// Server bundles the HTTP control surface and the playback services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	metricsSrv *http.Server
	closers    []func() error

	db        *gorm.DB
	sessions  *store.Store
	logBuffer *logbuffer.Buffer
	api       *api.API
	bus       *events.Bus

	cursor *playlist.Cursor
	pool   *jingle.Pool
	engine *schedule.Engine
	coord  *playout.Coordinator

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("gjallar-api"))
	router.Use(telemetry.MetricsMiddleware)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		logBuffer: logBuf,
		bus:       events.NewBus(),
	}

	if err := s.initDependencies(); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.api = api.New(s.coord, s.cursor, s.pool, s.engine, s.sessions, s.bus, s.logBuffer, logger)
	s.api.Routes(s.router)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	s.db = database
	s.sessions = store.New(database)
	s.DeferClose(func() error {
		sqlDB, err := database.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	clk := clock.System()
	s.cursor = playlist.NewCursor()
	s.pool = jingle.NewPool()
	s.engine = schedule.NewEngine(clk, s.logger)

	if err := s.restoreSession(); err != nil {
		return err
	}

	plyr := player.NewProcessPlayer(s.cfg.PlayerBin, s.logger)
	s.coord = playout.NewCoordinator(
		s.cursor, s.pool, jingle.NewRandomSelector(),
		s.engine, plyr, s.bus, clk,
		s.cfg.PollInterval, s.logger,
	)

	nodeID := uuid.NewString()[:8]
	if s.cfg.RedisBridgeEnabled {
		bridge, err := eventbus.NewRedisBridge(eventbus.RedisConfig{
			Addr:     s.cfg.RedisAddr,
			Password: s.cfg.RedisPassword,
			DB:       s.cfg.RedisDB,
		}, s.bus, nodeID, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("redis bridge unavailable, events stay local")
		} else {
			bridge.Start()
			s.DeferClose(bridge.Close)
		}
	}
	if s.cfg.NATSBridgeEnabled {
		bridge, err := eventbus.NewNATSBridge(s.cfg.NATSURL, s.bus, nodeID, s.logger)
		if err != nil {
			s.logger.Warn().Err(err).Msg("nats bridge unavailable, events stay local")
		} else {
			bridge.Start()
			s.DeferClose(bridge.Close)
		}
	}

	return nil
}

// restoreSession loads the persisted session into the in-memory state.
func (s *Server) restoreSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sess, err := s.sessions.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	s.cursor.Replace(sess.Playlist)
	for i := 0; i < sess.Position && i < len(sess.Playlist); i++ {
		s.cursor.Advance()
	}
	s.pool.Replace(sess.Jingles)

	for _, literal := range sess.FixedTimes {
		if err := s.engine.AddFixedTime(literal); err != nil {
			s.logger.Warn().Err(err).Str("time", literal).Msg("dropping invalid persisted fixed time")
		}
	}
	if sess.PerHour > 0 {
		if err := s.engine.ConfigurePerHour(sess.PerHour); err != nil {
			return fmt.Errorf("restore per-hour schedule: %w", err)
		}
	}
	// Restoring replays the configuration calls, so a persisted fixed_times
	// mode is re-established when per_hour is zero.
	if sess.Mode == schedule.ModeFixedTimes && sess.PerHour > 0 {
		s.logger.Warn().Msg("persisted mode conflicts with per-hour setting, keeping per-hour")
	}

	s.logger.Info().
		Int("playlist", len(sess.Playlist)).
		Int("jingles", len(sess.Jingles)).
		Int("position", sess.Position).
		Str("mode", string(sess.Mode)).
		Msg("session restored")
	return nil
}

// Start runs the coordinator loop, the state persister, and the metrics
// endpoint. It returns immediately; Close stops everything.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("coordinator loop exited")
		}
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.persistStateLoop(ctx)
	}()

	if s.cfg.MetricsBind != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metricsSrv = &http.Server{
			Addr:              s.cfg.MetricsBind,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Err(err).Msg("metrics server exited")
			}
		}()
	}
}

// persistStateLoop saves the cursor position whenever it moves and the
// schedule whenever it changes, so a restart resumes from the same place in
// the sequence and does not re-fire fixed times that already played.
func (s *Server) persistStateLoop(ctx context.Context) {
	cursorSub := s.bus.Subscribe(events.EventCursorMoved)
	defer s.bus.Unsubscribe(events.EventCursorMoved, cursorSub)
	scheduleSub := s.bus.Subscribe(events.EventScheduleUpdate)
	defer s.bus.Unsubscribe(events.EventScheduleUpdate, scheduleSub)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-cursorSub:
			if !ok {
				return
			}
			position, _ := payload["position"].(int)
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.sessions.SaveCursor(saveCtx, position); err != nil {
				s.logger.Warn().Err(err).Msg("persist cursor failed")
			}
			cancel()
		case _, ok := <-scheduleSub:
			if !ok {
				return
			}
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.sessions.SaveSchedule(saveCtx, s.engine.Snapshot()); err != nil {
				s.logger.Warn().Err(err).Msg("persist schedule failed")
			}
			cancel()
		}
	}
}

// HTTPServer returns the control API server for the caller to run.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Sessions exposes the session store for the CLI session commands.
func (s *Server) Sessions() *store.Store {
	return s.sessions
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = s.metricsSrv.Shutdown(ctx)
		cancel()
	}
	s.bgWG.Wait()

	// A schedule change can race shutdown past the persist loop; write the
	// final snapshot while the database is still open.
	if s.sessions != nil && s.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.sessions.SaveSchedule(ctx, s.engine.Snapshot()); err != nil {
			s.logger.Warn().Err(err).Msg("persist schedule on shutdown failed")
		}
		cancel()
	}

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
