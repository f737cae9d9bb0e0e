// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventlog is the append-only audit trail for the agent
// bridge. Every state transition (slot mutations, security
// violations, window-manager hooks) is recorded as one JSON object
// per line in a durable log file, which agents replay through the
// bridge's getRecentEvents call as few-shot context.
//
// The wire and on-disk shape of a record is identical:
//
//	{"event": "slot_created", "payload": {...}, "timestamp": 1755950000.123}
//
// Append is the only mutator. Tail and All are the only readers.
// There is no compaction, rotation, or deletion; retention is an
// external concern. Disk writes are best-effort: a write failure is
// logged but never fails the state transition being recorded, since
// engine state is authoritative and the log is an audit artifact.
//
// The log is not safe for concurrent use. The bridge's dispatch loop
// serializes all appends and reads, matching the single-threaded
// event loop of the host window manager.
package eventlog
