/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CoordinatorTicksTotal counts playback coordinator poll ticks.
	CoordinatorTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gjallar_coordinator_ticks_total",
		Help: "Total playback coordinator poll ticks.",
	})

	// ItemsPlayedTotal counts main sequence items that finished playback.
	ItemsPlayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gjallar_items_played_total",
		Help: "Total main sequence items played to completion.",
	})

	// JinglesPlayedTotal counts jingles by the scheduling mode that fired them.
	JinglesPlayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gjallar_jingles_played_total",
		Help: "Total jingles played, labelled by scheduling mode.",
	}, []string{"mode"})

	// PlaybackErrorsTotal counts failed playback starts by stream.
	PlaybackErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gjallar_playback_errors_total",
		Help: "Total playback failures, labelled by stream (main or jingle).",
	}, []string{"stream"})

	// ScheduleFiresTotal counts jingle slots the schedule engine declared due.
	ScheduleFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gjallar_schedule_fires_total",
		Help: "Total due jingle slots, labelled by scheduling mode.",
	}, []string{"mode"})

	// HTTPRequestsTotal counts control API requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gjallar_http_requests_total",
		Help: "Total control API requests.",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration observes control API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gjallar_http_request_duration_seconds",
		Help:    "Control API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)
