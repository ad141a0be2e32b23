/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP control surface of the playout daemon.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/friendsincode/gjallar/internal/events"
	"github.com/friendsincode/gjallar/internal/jingle"
	"github.com/friendsincode/gjallar/internal/logbuffer"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/playlist"
	"github.com/friendsincode/gjallar/internal/playout"
	"github.com/friendsincode/gjallar/internal/schedule"
	"github.com/friendsincode/gjallar/internal/store"
	"github.com/friendsincode/gjallar/internal/telemetry"
	"github.com/friendsincode/gjallar/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	coord     *playout.Coordinator
	cursor    *playlist.Cursor
	pool      *jingle.Pool
	engine    *schedule.Engine
	sessions  *store.Store
	bus       *events.Bus
	logBuffer *logbuffer.Buffer
	logger    zerolog.Logger
}

// New creates the API router wrapper. sessions may be nil in tests, in which
// case mutations are not persisted.
func New(coord *playout.Coordinator, cursor *playlist.Cursor, pool *jingle.Pool, engine *schedule.Engine, sessions *store.Store, bus *events.Bus, logBuf *logbuffer.Buffer, logger zerolog.Logger) *API {
	return &API{
		coord:     coord,
		cursor:    cursor,
		pool:      pool,
		engine:    engine,
		sessions:  sessions,
		bus:       bus,
		logBuffer: logBuf,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts the API under /api/v1.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Get("/status", a.handleStatus)
		r.Get("/logs", a.handleLogs)

		r.Route("/playlist", func(r chi.Router) {
			r.Get("/", a.handlePlaylistList)
			r.Post("/", a.handlePlaylistAdd)
			r.Delete("/{itemID}", a.handlePlaylistRemove)
			r.Post("/{itemID}/move", a.handlePlaylistMove)
		})

		r.Route("/jingles", func(r chi.Router) {
			r.Get("/", a.handleJinglesList)
			r.Post("/", a.handleJinglesAdd)
			r.Delete("/{jingleID}", a.handleJinglesRemove)
		})

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", a.handleScheduleGet)
			r.Put("/per-hour", a.handleSchedulePerHour)
			r.Post("/times", a.handleScheduleAddTime)
			r.Delete("/times/{literal}", a.handleScheduleRemoveTime)
		})

		r.Route("/transport", func(r chi.Router) {
			r.Post("/start", a.handleTransportStart)
			r.Post("/stop", a.handleTransportStop)
			r.Post("/next", a.handleTransportNext)
			r.Post("/pause", a.handleTransportPause)
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.coord.Status())
}

func (a *API) handleLogs(w http.ResponseWriter, r *http.Request) {
	if a.logBuffer == nil {
		writeJSON(w, http.StatusOK, []logbuffer.LogEntry{})
		return
	}

	params := logbuffer.QueryParams{
		Level:      r.URL.Query().Get("level"),
		Component:  r.URL.Query().Get("component"),
		Search:     r.URL.Query().Get("search"),
		Descending: true,
		Limit:      100,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	writeJSON(w, http.StatusOK, a.logBuffer.Query(params))
}

type mediaRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

func (a *API) handlePlaylistList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    a.cursor.Items(),
		"position": a.cursor.Position(),
	})
}

func (a *API) handlePlaylistAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "playlist.add")
	defer span.End()

	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	ref := player.MediaRef{ID: uuid.NewString(), Path: req.Path, Title: req.Title}
	a.cursor.Add(ref)
	a.bus.Publish(events.EventPlaylistUpdated, events.Payload{"count": a.cursor.Len()})

	if a.sessions != nil {
		if err := a.sessions.SavePlaylist(ctx, a.cursor.Items()); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist playlist failed")
		}
	}
	writeJSON(w, http.StatusCreated, ref)
}

func (a *API) handlePlaylistRemove(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "playlist.remove")
	defer span.End()

	id := chi.URLParam(r, "itemID")
	if !a.cursor.Remove(id) {
		writeError(w, http.StatusNotFound, "item_not_found")
		return
	}
	a.bus.Publish(events.EventPlaylistUpdated, events.Payload{"count": a.cursor.Len()})

	if a.sessions != nil {
		if err := a.sessions.SavePlaylist(ctx, a.cursor.Items()); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist playlist failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (a *API) handlePlaylistMove(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "playlist.move")
	defer span.End()

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	id := chi.URLParam(r, "itemID")
	if !a.cursor.Move(id, req.Delta) {
		writeError(w, http.StatusNotFound, "item_not_found")
		return
	}
	a.bus.Publish(events.EventPlaylistUpdated, events.Payload{"count": a.cursor.Len()})

	if a.sessions != nil {
		if err := a.sessions.SavePlaylist(ctx, a.cursor.Items()); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist playlist failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": a.cursor.Items()})
}

func (a *API) handleJinglesList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.pool.Items()})
}

func (a *API) handleJinglesAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "jingles.add")
	defer span.End()

	var req mediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	ref := player.MediaRef{ID: uuid.NewString(), Path: req.Path, Title: req.Title}
	a.pool.Add(ref)
	a.bus.Publish(events.EventJinglePoolUpdate, events.Payload{"count": a.pool.Len()})

	if a.sessions != nil {
		if err := a.sessions.SaveJingles(ctx, a.pool.Items()); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist jingles failed")
		}
	}
	writeJSON(w, http.StatusCreated, ref)
}

func (a *API) handleJinglesRemove(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "jingles.remove")
	defer span.End()

	id := chi.URLParam(r, "jingleID")
	if !a.pool.Remove(id) {
		writeError(w, http.StatusNotFound, "jingle_not_found")
		return
	}
	a.bus.Publish(events.EventJinglePoolUpdate, events.Payload{"count": a.pool.Len()})

	if a.sessions != nil {
		if err := a.sessions.SaveJingles(ctx, a.pool.Items()); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist jingles failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (a *API) handleScheduleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *API) handleSchedulePerHour(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "schedule.per_hour")
	defer span.End()

	var req struct {
		PerHour int `json:"per_hour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := a.engine.ConfigurePerHour(req.PerHour); err != nil {
		if errors.Is(err, schedule.ErrInvalidPerHour) {
			writeError(w, http.StatusBadRequest, "invalid_per_hour")
			return
		}
		writeError(w, http.StatusInternalServerError, "schedule_update_failed")
		return
	}

	a.publishSchedule(ctx, span)
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *API) handleScheduleAddTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "schedule.add_time")
	defer span.End()

	var req struct {
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := a.engine.AddFixedTime(req.Time); err != nil {
		if errors.Is(err, schedule.ErrInvalidTimeFormat) {
			writeError(w, http.StatusBadRequest, "invalid_time_format")
			return
		}
		writeError(w, http.StatusInternalServerError, "schedule_update_failed")
		return
	}

	a.publishSchedule(ctx, span)
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *API) handleScheduleRemoveTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "api", "schedule.remove_time")
	defer span.End()

	a.engine.RemoveFixedTime(chi.URLParam(r, "literal"))
	a.publishSchedule(ctx, span)
	writeJSON(w, http.StatusOK, a.engine.Snapshot())
}

func (a *API) handleTransportStart(w http.ResponseWriter, r *http.Request) {
	a.coord.Start()
	writeJSON(w, http.StatusAccepted, map[string]string{"command": "start"})
}

func (a *API) handleTransportStop(w http.ResponseWriter, r *http.Request) {
	a.coord.Stop()
	writeJSON(w, http.StatusAccepted, map[string]string{"command": "stop"})
}

func (a *API) handleTransportNext(w http.ResponseWriter, r *http.Request) {
	a.coord.Next()
	writeJSON(w, http.StatusAccepted, map[string]string{"command": "next"})
}

func (a *API) handleTransportPause(w http.ResponseWriter, r *http.Request) {
	a.coord.TogglePause()
	writeJSON(w, http.StatusAccepted, map[string]string{"command": "pause"})
}

// publishSchedule announces a schedule change and persists the new snapshot.
func (a *API) publishSchedule(ctx context.Context, span trace.Span) {
	snap := a.engine.Snapshot()
	a.bus.Publish(events.EventScheduleUpdate, events.Payload{
		"mode":     string(snap.Mode),
		"per_hour": snap.PerHour,
		"times":    snap.FixedTimes,
	})

	if a.sessions != nil {
		if err := a.sessions.SaveSchedule(ctx, snap); err != nil {
			telemetry.RecordError(span, err)
			a.logger.Error().Err(err).Msg("persist schedule failed")
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
