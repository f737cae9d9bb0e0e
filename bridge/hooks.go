// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"

	"github.com/NModlin/agentic-qtile/lib/guard"
	"github.com/NModlin/agentic-qtile/lib/wm"
)

// hookAdapter feeds window-manager events into the audit log. Every
// callback marshals onto the dispatch loop, so hook-driven appends
// interleave cleanly with in-flight agent calls; events arriving once
// the loop has stopped are dropped so the host's event loop never
// blocks on a shut-down bridge. The privacy mask is applied before
// anything reaches the log: sensitive windows are skipped for client
// events and redacted for focus events.
type hookAdapter struct {
	server *Server
}

var _ wm.Hooks = (*hookAdapter)(nil)

func (h *hookAdapter) ClientNew(window wm.Window) {
	s := h.server
	s.do(context.Background(), func() {
		if !s.policy.CanSeeWindow(window) {
			return
		}
		s.log.Append("client_new", map[string]any{
			"window_id": window.ID,
			"name":      window.Name,
		})
	})
}

func (h *hookAdapter) ClientKilled(window wm.Window) {
	s := h.server
	s.do(context.Background(), func() {
		// A dead window can no longer be awaiting completion.
		delete(s.pendingClose, window.ID)

		if !s.policy.CanSeeWindow(window) {
			return
		}
		s.log.Append("client_killed", map[string]any{
			"window_id": window.ID,
			"name":      window.Name,
		})
	})
}

func (h *hookAdapter) FocusChanged(window *wm.Window) {
	s := h.server
	s.do(context.Background(), func() {
		if window == nil {
			s.log.Append("focus_change", nil)
			return
		}
		name := window.Name
		if !s.policy.CanSeeWindow(*window) {
			name = guard.RedactedName
		}
		s.log.Append("focus_change", map[string]any{
			"window_id": window.ID,
			"name":      name,
		})
	})
}

func (h *hookAdapter) LayoutChanged(layout wm.LayoutInfo) {
	s := h.server
	s.do(context.Background(), func() {
		s.log.Append("layout_change", map[string]any{
			"layout": layout.Name,
			"group":  layout.Group,
		})
	})
}

func (h *hookAdapter) UserOverride(window wm.Window, slotName string) {
	s := h.server
	s.do(context.Background(), func() {
		s.engine.UserOverride(window.ID, slotName)
	})
}
