/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playout drives playback: it runs the poll loop, owns the playback
// state machine, and interleaves jingles into the main sequence at item
// boundaries.
package playout

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/gjallar/internal/clock"
	"github.com/friendsincode/gjallar/internal/events"
	"github.com/friendsincode/gjallar/internal/jingle"
	"github.com/friendsincode/gjallar/internal/player"
	"github.com/friendsincode/gjallar/internal/playlist"
	"github.com/friendsincode/gjallar/internal/schedule"
	"github.com/friendsincode/gjallar/internal/telemetry"
)

// Phase is the coordinator's playback phase.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhasePlayingMain   Phase = "playing_main"
	PhasePlayingJingle Phase = "playing_jingle"
	PhaseStopped       Phase = "stopped"
)

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdNext
	cmdPauseToggle
)

// Status is a snapshot of the coordinator for the control surface.
type Status struct {
	Phase    Phase             `json:"phase"`
	Paused   bool              `json:"paused"`
	Position int               `json:"position"`
	Length   int               `json:"length"`
	Current  *player.MediaRef  `json:"current,omitempty"`
	Jingle   *player.MediaRef  `json:"jingle,omitempty"`
	Schedule schedule.Snapshot `json:"schedule"`
}

// Coordinator owns all playback mutation. Commands from the control surface
// are queued on a channel and applied inside the run loop, so handle state
// is only ever touched from one goroutine.
type Coordinator struct {
	cursor   *playlist.Cursor
	pool     *jingle.Pool
	selector jingle.Selector
	engine   *schedule.Engine
	plyr     player.Player
	bus      *events.Bus
	clk      clock.Clock
	logger   zerolog.Logger

	pollInterval time.Duration
	cmds         chan commandKind
	status       chan chan Status

	// loop-owned, never touched outside the run goroutine
	phase      Phase
	paused     bool
	mainHandle player.Handle
	mainRef    player.MediaRef
	jingleH    player.Handle
	jingleRef  player.MediaRef
}

// NewCoordinator wires the playback coordinator.
func NewCoordinator(
	cursor *playlist.Cursor,
	pool *jingle.Pool,
	selector jingle.Selector,
	engine *schedule.Engine,
	plyr player.Player,
	bus *events.Bus,
	clk clock.Clock,
	pollInterval time.Duration,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		cursor:       cursor,
		pool:         pool,
		selector:     selector,
		engine:       engine,
		plyr:         plyr,
		bus:          bus,
		clk:          clk,
		logger:       logger.With().Str("component", "playout").Logger(),
		pollInterval: pollInterval,
		cmds:         make(chan commandKind, 16),
		status:       make(chan chan Status),
		phase:        PhaseIdle,
	}
}

// Start begins or resumes playback of the main sequence.
func (c *Coordinator) Start() { c.enqueue(cmdStart) }

// Stop halts playback. The cursor keeps its position for a later Start.
func (c *Coordinator) Stop() { c.enqueue(cmdStop) }

// Next skips to the following item. A playing jingle is cut off without a
// schedule check, so no replacement jingle fires for the same boundary.
func (c *Coordinator) Next() { c.enqueue(cmdNext) }

// TogglePause pauses a playing stream or resumes a paused one.
func (c *Coordinator) TogglePause() { c.enqueue(cmdPauseToggle) }

func (c *Coordinator) enqueue(kind commandKind) {
	select {
	case c.cmds <- kind:
	default:
		c.logger.Warn().Int("cmd", int(kind)).Msg("command queue full, dropping")
	}
}

// Status returns a snapshot of playback state. It round-trips through the
// run loop; if the loop is not running it falls back to a direct read.
func (c *Coordinator) Status() Status {
	reply := make(chan Status, 1)
	select {
	case c.status <- reply:
		return <-reply
	case <-time.After(time.Second):
		return c.snapshot()
	}
}

// Run executes the coordinator loop until context cancellation.
func (c *Coordinator) Run(ctx context.Context) error {
	c.logger.Info().Dur("poll_interval", c.pollInterval).Msg("playback coordinator started")
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			c.logger.Info().Msg("playback coordinator stopped")
			return ctx.Err()
		case kind := <-c.cmds:
			c.apply(ctx, kind)
		case reply := <-c.status:
			reply <- c.snapshot()
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Coordinator) apply(ctx context.Context, kind commandKind) {
	switch kind {
	case cmdStart:
		c.applyStart(ctx)
	case cmdStop:
		c.applyStop()
	case cmdNext:
		c.applyNext(ctx)
	case cmdPauseToggle:
		c.applyPauseToggle()
	}
}

func (c *Coordinator) applyStart(ctx context.Context) {
	switch c.phase {
	case PhasePlayingMain, PhasePlayingJingle:
		if c.paused {
			c.applyPauseToggle()
		}
		return
	}

	c.startMain(ctx)
	if c.phase == PhasePlayingMain {
		c.bus.Publish(events.EventTransportStarted, events.Payload{"position": c.cursor.Position()})
	}
}

func (c *Coordinator) applyStop() {
	c.releaseJingle(true)
	c.releaseMain(true)
	c.phase = PhaseStopped
	c.paused = false
	c.bus.Publish(events.EventTransportStopped, events.Payload{"position": c.cursor.Position()})
	c.logger.Info().Msg("playback stopped")
}

func (c *Coordinator) applyNext(ctx context.Context) {
	if c.phase != PhasePlayingMain && c.phase != PhasePlayingJingle {
		return
	}

	// Skipping during a jingle cuts the jingle; the consumed schedule slot
	// is not re-fired for the same boundary. The cursor still sits on the
	// item that preceded the jingle, so a single advance lands on its
	// successor either way.
	c.releaseJingle(true)
	c.releaseMain(true)
	c.paused = false

	c.advance()
	c.startMain(ctx)
}

func (c *Coordinator) applyPauseToggle() {
	// Pause only applies to the main stream; a jingle plays through.
	if c.phase != PhasePlayingMain {
		return
	}
	handle := c.mainHandle
	if handle == nil {
		return
	}

	if c.paused {
		if err := handle.Resume(); err != nil {
			c.logger.Warn().Err(err).Msg("resume failed")
			return
		}
		c.paused = false
		c.bus.Publish(events.EventTransportResumed, nil)
	} else {
		if err := handle.Pause(); err != nil {
			c.logger.Warn().Err(err).Msg("pause failed")
			return
		}
		c.paused = true
		c.bus.Publish(events.EventTransportPaused, nil)
	}
}

// tick polls the active handle and walks the state machine across item
// boundaries. At most one skip-on-error advance happens per tick, so a fully
// broken playlist spins at the poll rate instead of busy-looping.
func (c *Coordinator) tick(ctx context.Context) {
	telemetry.CoordinatorTicksTotal.Inc()

	switch c.phase {
	case PhasePlayingMain:
		c.tickMain(ctx)
	case PhasePlayingJingle:
		c.tickJingle(ctx)
	}
}

func (c *Coordinator) tickMain(ctx context.Context) {
	if c.paused {
		return
	}

	st := player.StateEnded
	if c.mainHandle != nil {
		st = c.mainHandle.State()
	}
	if !st.Terminal() {
		return
	}

	if st == player.StateEnded && c.mainHandle != nil {
		telemetry.ItemsPlayedTotal.Inc()
	}
	if st == player.StateError {
		telemetry.PlaybackErrorsTotal.WithLabelValues("main").Inc()
		c.bus.Publish(events.EventPlaybackError, events.Payload{"media_id": c.mainRef.ID, "stream": "main"})
		c.logger.Warn().Str("media_id", c.mainRef.ID).Msg("main item failed, skipping")
	}
	c.releaseMain(false)

	now := c.clk.Now()
	mode := c.engine.Snapshot().Mode
	if c.engine.JingleDue(now) {
		telemetry.ScheduleFiresTotal.WithLabelValues(string(mode)).Inc()
		if mode == schedule.ModeFixedTimes {
			c.publishScheduleSnapshot()
		}
		if c.startJingle(ctx, mode) {
			// The cursor stays on the finished item until the jingle
			// resolves; tickJingle advances it.
			return
		}
		// Empty pool or failed jingle start: the slot is consumed and the
		// main sequence continues.
	}

	c.advance()
	c.startMain(ctx)
}

func (c *Coordinator) tickJingle(ctx context.Context) {
	if c.paused {
		return
	}

	st := player.StateEnded
	if c.jingleH != nil {
		st = c.jingleH.State()
	}
	if !st.Terminal() {
		return
	}

	if st == player.StateError {
		telemetry.PlaybackErrorsTotal.WithLabelValues("jingle").Inc()
		c.bus.Publish(events.EventPlaybackError, events.Payload{"media_id": c.jingleRef.ID, "stream": "jingle"})
		c.logger.Warn().Str("media_id", c.jingleRef.ID).Msg("jingle failed")
	}
	c.bus.Publish(events.EventJingleFinished, events.Payload{"media_id": c.jingleRef.ID})
	c.releaseJingle(false)

	c.advance()
	c.startMain(ctx)
}

// advance steps the cursor past the item whose boundary just resolved.
func (c *Coordinator) advance() {
	c.cursor.Advance()
	c.bus.Publish(events.EventCursorMoved, events.Payload{"position": c.cursor.Position()})
}

// publishScheduleSnapshot lets listeners persist the schedule after a fixed
// slot is consumed, so a restart does not fire the same literal again.
func (c *Coordinator) publishScheduleSnapshot() {
	snap := c.engine.Snapshot()
	c.bus.Publish(events.EventScheduleUpdate, events.Payload{
		"mode":     string(snap.Mode),
		"per_hour": snap.PerHour,
		"times":    snap.FixedTimes,
	})
}

// startMain plays the item under the cursor. On a start failure the handle
// stays nil and the phase stays PhasePlayingMain, so the next tick treats it
// as ended and advances past the bad item.
func (c *Coordinator) startMain(ctx context.Context) {
	cur, ok := c.cursor.Current()
	if !ok {
		c.phase = PhaseIdle
		return
	}

	c.phase = PhasePlayingMain
	c.mainRef = cur

	handle, err := c.plyr.Play(ctx, cur)
	if err != nil {
		telemetry.PlaybackErrorsTotal.WithLabelValues("main").Inc()
		c.bus.Publish(events.EventPlaybackError, events.Payload{"media_id": cur.ID, "stream": "main"})
		c.logger.Error().Err(err).Str("media_id", cur.ID).Str("path", cur.Path).Msg("failed to start main item")
		c.mainHandle = nil
		return
	}

	c.mainHandle = handle
	c.bus.Publish(events.EventNowPlaying, events.Payload{
		"media_id": cur.ID,
		"path":     cur.Path,
		"title":    cur.Title,
		"position": c.cursor.Position(),
	})
	c.logger.Info().Str("media_id", cur.ID).Int("position", c.cursor.Position()).Msg("now playing")
}

func (c *Coordinator) startJingle(ctx context.Context, mode schedule.Mode) bool {
	ref, ok := c.selector.Next(c.pool.Items())
	if !ok {
		c.logger.Debug().Msg("jingle due but pool is empty, skipping slot")
		return false
	}

	handle, err := c.plyr.Play(ctx, ref)
	if err != nil {
		telemetry.PlaybackErrorsTotal.WithLabelValues("jingle").Inc()
		c.bus.Publish(events.EventPlaybackError, events.Payload{"media_id": ref.ID, "stream": "jingle"})
		c.logger.Error().Err(err).Str("media_id", ref.ID).Msg("failed to start jingle")
		return false
	}

	c.phase = PhasePlayingJingle
	c.jingleH = handle
	c.jingleRef = ref
	telemetry.JinglesPlayedTotal.WithLabelValues(string(mode)).Inc()
	c.bus.Publish(events.EventJingleStarted, events.Payload{"media_id": ref.ID, "mode": string(mode)})
	c.logger.Info().Str("media_id", ref.ID).Str("mode", string(mode)).Msg("jingle started")
	return true
}

func (c *Coordinator) releaseMain(stop bool) {
	if c.mainHandle != nil && stop {
		if err := c.mainHandle.Stop(); err != nil {
			c.logger.Warn().Err(err).Msg("stopping main handle failed")
		}
	}
	c.mainHandle = nil
	c.mainRef = player.MediaRef{}
}

func (c *Coordinator) releaseJingle(stop bool) {
	if c.jingleH != nil && stop {
		if err := c.jingleH.Stop(); err != nil {
			c.logger.Warn().Err(err).Msg("stopping jingle handle failed")
		}
	}
	c.jingleH = nil
	c.jingleRef = player.MediaRef{}
}

func (c *Coordinator) shutdown() {
	c.releaseJingle(true)
	c.releaseMain(true)
	c.phase = PhaseStopped
}

func (c *Coordinator) snapshot() Status {
	st := Status{
		Phase:    c.phase,
		Paused:   c.paused,
		Position: c.cursor.Position(),
		Length:   c.cursor.Len(),
		Schedule: c.engine.Snapshot(),
	}
	if c.phase == PhasePlayingMain && c.mainRef.ID != "" {
		ref := c.mainRef
		st.Current = &ref
	}
	if c.phase == PhasePlayingJingle {
		ref := c.jingleRef
		st.Jingle = &ref
	}
	return st
}
