/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version exposes build version information.
package version

// Version is the release version, overridden at build time via ldflags.
var Version = "0.1.0-dev"
