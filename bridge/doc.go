// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge is the network-facing component of the agent
// control plane: a JSON-RPC 2.0 server on a Unix domain socket that
// exposes the slot engine and desktop introspection to external
// agents. Every call flows request -> gate -> mutate -> log ->
// response, and agents replay the log through getRecentEvents as
// few-shot context.
//
// Connections are long-lived: a client writes one JSON-RPC request,
// reads one response, and may repeat. The server accepts many
// concurrent connections but executes every call (and every
// window-manager hook) on one dispatch loop goroutine, so the engine
// and the event log see strictly serialized access and no caller
// ever observes a partially applied commit. A connection reads its
// complete request before dispatching, keeping loop occupancy to
// non-blocking, bounded-time work.
//
// Parameter shape is validated before the security gate or engine is
// invoked; malformed calls fail with InvalidParams and never reach
// the engine. Gate rejections return SecurityViolation to the caller
// AND append a security_violation event, making them visible in the
// replay stream.
package bridge
