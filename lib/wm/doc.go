// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package wm defines the boundary between the agent bridge and the
// host window manager. The bridge never talks to a display server;
// it sees the desktop only through the [Host] interface (queries and
// thin actions) and feeds audit events only through the [Hooks]
// interface, which the host invokes synchronously on the same loop
// that serializes all bridge calls.
//
// The concrete Host in production is the window-manager process that
// embeds the bridge. [StaticHost] is a YAML-loadable stand-in used by
// cmd/agentd for developing and testing agents without a live window
// manager.
package wm
