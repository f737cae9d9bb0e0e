// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// Package slot implements the semantic slot engine: the authoritative
// state machine for named rectangular screen regions that agents
// request, preview, and claim.
//
// A slot is either confirmed (committed, governing window placement)
// or a ghost (proposed, visualized but inert). The two sets have
// distinct name namespaces: a ghost may share a name with a confirmed
// slot, representing a proposed change to it. Ghosts accumulate
// through Propose, are discarded with ClearGhosts, or promote en
// masse with ConfirmLayout.
//
// After every ghost-set mutation the engine recomputes geometric
// conflicts from scratch: every pair of ghosts whose rectangles
// overlap with positive area is flagged on both sides. Conflicts are
// advisory. They inform the visual warning surfaced to the user and
// never block a commit.
//
// The engine owns both slot lists exclusively. Callers receive value
// copies keyed by name and id, never references, so no external
// component can alias engine state. All mutations are serialized by
// the bridge's dispatch loop; the engine itself holds no locks.
package slot
