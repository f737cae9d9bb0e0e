// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package guard is the security gate between agents and the desktop.
// Every inbound bridge call passes through it before any state is
// disclosed or mutated. It enforces three independent constraints:
//
//   - Privacy mask: windows whose class or title marks them sensitive
//     (password managers, banking pages, private browsing) are never
//     disclosed un-redacted. Listing calls omit them, single-window
//     lookups return a redacted sentinel, and capture calls fail
//     outright since a partial image cannot be safely masked.
//
//   - Input gating: injected text is matched against an ordered deny
//     list of dangerous shell patterns (privilege escalation,
//     destructive filesystem commands). First match wins.
//
//   - Focus lock: keystrokes may only go to the window the user is
//     currently focused on, preventing an agent from typing into a
//     window the human has since switched away from.
//
// A rejected action surfaces as a [*Violation] so the calling agent
// can observe the rejection and self-correct; the bridge additionally
// appends every violation to the event log as training signal.
//
// The gate is stateless per call: each check reads only its arguments
// and the fixed policy.
package guard
