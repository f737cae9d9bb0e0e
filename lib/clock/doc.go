// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock for testability. Production
// code injects Real(); tests inject a Fake with deterministic time
// control, so event log timestamps are reproducible.
//
// The bridge has no timers or tickers. Every consumer only needs Now,
// so the interface is deliberately a single method.
package clock
