// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package slot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/NModlin/agentic-qtile/lib/eventlog"
)

// Engine owns the confirmed and ghost slot sets and every mutation on
// them. Both sets keep creation order; names are unique within each
// set. The engine records every transition in the event log.
//
// Not safe for concurrent use: the bridge's dispatch loop serializes
// all calls, matching the single-threaded event loop of the host
// window manager.
type Engine struct {
	confirmed []*Slot
	ghosts    []*Slot
	log       *eventlog.Log
	logger    *slog.Logger
}

// NewEngine returns an empty engine recording to log.
func NewEngine(log *eventlog.Log, logger *slog.Logger) *Engine {
	return &Engine{log: log, logger: logger}
}

// Create adds a confirmed slot immediately, bypassing the ghost
// stage. Fails with InvalidGeometry for a degenerate rectangle and
// DuplicateSlot if the name already exists among confirmed slots.
// Emits slot_created.
func (e *Engine) Create(name string, rect Rect, owner string) (Slot, error) {
	if err := rect.Validate(); err != nil {
		return Slot{}, err
	}
	if e.findConfirmed(name) != nil {
		return Slot{}, &Error{
			Kind:    KindDuplicateSlot,
			Message: fmt.Sprintf("slot %q already exists", name),
		}
	}

	created := &Slot{
		ID:    uuid.NewString(),
		Name:  name,
		Rect:  rect,
		Owner: owner,
		State: StateConfirmed,
	}
	e.confirmed = append(e.confirmed, created)

	e.log.Append("slot_created", *created)
	e.logger.Info("slot created", "name", name, "owner", owner)
	return *created, nil
}

// Remove deletes a confirmed slot by name. Fails with SlotNotFound if
// absent. Emits slot_removed.
func (e *Engine) Remove(name string) error {
	for i, existing := range e.confirmed {
		if existing.Name == name {
			e.confirmed = append(e.confirmed[:i], e.confirmed[i+1:]...)
			e.log.Append("slot_removed", map[string]any{"name": name})
			e.logger.Info("slot removed", "name", name)
			return nil
		}
	}
	return &Error{
		Kind:    KindSlotNotFound,
		Message: fmt.Sprintf("no slot named %q", name),
	}
}

// List returns value copies of the confirmed slots in creation order.
// Read-only; no side effects.
func (e *Engine) List() []Slot {
	return copySlots(e.confirmed)
}

// Propose adds a ghost slot. Fails with DuplicateSlot if the name
// already exists among ghosts; sharing a name with a confirmed slot
// is allowed and means a proposed change to it. Geometry is not
// validated here: ghosts are drafts, and a degenerate rectangle is
// caught by ConfirmLayout. Recomputes conflicts and emits
// ghost_slot_proposed with the slot's conflict flag as of insertion.
func (e *Engine) Propose(name string, rect Rect, owner string) (Slot, error) {
	if e.findGhost(name) != nil {
		return Slot{}, &Error{
			Kind:    KindDuplicateSlot,
			Message: fmt.Sprintf("ghost slot %q already proposed", name),
		}
	}

	proposed := &Slot{
		ID:    uuid.NewString(),
		Name:  name,
		Rect:  rect,
		Owner: owner,
		State: StateGhost,
	}
	e.ghosts = append(e.ghosts, proposed)
	e.recomputeConflicts()

	e.log.Append("ghost_slot_proposed", *proposed)
	e.logger.Info("ghost slot proposed",
		"name", name,
		"owner", owner,
		"conflict", proposed.Conflict,
	)
	return *proposed, nil
}

// Ghosts returns value copies of the ghost slots in proposal order,
// with current conflict flags.
func (e *Engine) Ghosts() []Slot {
	return copySlots(e.ghosts)
}

// ConfirmLayout promotes every ghost to confirmed, replacing any
// same-named confirmed slot in place, then clears the ghost set and
// discards conflict flags. Atomic: if any ghost violates the
// geometry invariant the whole commit fails with InvalidGeometry and
// no state changes. Conflicts never block the commit. Emits one
// layout_confirmed event summarizing all promoted slots. With zero
// ghosts this is a no-op returning an empty slice.
func (e *Engine) ConfirmLayout() ([]Slot, error) {
	for _, ghost := range e.ghosts {
		if err := ghost.Rect.Validate(); err != nil {
			var geometryErr *Error
			errors.As(err, &geometryErr)
			return nil, &Error{
				Kind:    KindInvalidGeometry,
				Message: fmt.Sprintf("ghost slot %q: %s", ghost.Name, geometryErr.Message),
			}
		}
	}

	promoted := make([]Slot, 0, len(e.ghosts))
	for _, ghost := range e.ghosts {
		ghost.State = StateConfirmed
		ghost.Conflict = false
		if existing := e.findConfirmed(ghost.Name); existing != nil {
			*existing = *ghost
		} else {
			e.confirmed = append(e.confirmed, ghost)
		}
		promoted = append(promoted, *ghost)
	}
	e.ghosts = nil

	if len(promoted) > 0 {
		e.log.Append("layout_confirmed", map[string]any{"slots": promoted})
		e.logger.Info("layout confirmed", "promoted", len(promoted))
	}
	return promoted, nil
}

// ClearGhosts empties the ghost set without promotion and returns the
// number of discarded proposals. Emits ghost_slots_cleared.
func (e *Engine) ClearGhosts() int {
	cleared := len(e.ghosts)
	e.ghosts = nil
	e.log.Append("ghost_slots_cleared", map[string]any{"count": cleared})
	e.logger.Info("ghost slots cleared", "count", cleared)
	return cleared
}

// UserOverride records that the user manually closed or moved the
// window occupying a slot. Attribution is best-effort: the owner is
// looked up from the named confirmed slot if one exists, and the
// event is emitted either way. The slot removal itself is driven by
// the host window manager, not the engine.
func (e *Engine) UserOverride(windowID uint64, slotName string) {
	owner := ""
	if existing := e.findConfirmed(slotName); existing != nil {
		owner = existing.Owner
	}
	e.log.Append("user_override", map[string]any{
		"window_id": windowID,
		"slot":      slotName,
		"owner":     owner,
	})
	e.logger.Info("user override", "window_id", windowID, "slot", slotName, "owner", owner)
}

// recomputeConflicts resets every ghost's flag and re-runs the
// pairwise overlap scan. O(n²) over the ghost set, which stays in the
// single digits to low tens; no spatial index is warranted.
func (e *Engine) recomputeConflicts() {
	for _, ghost := range e.ghosts {
		ghost.Conflict = false
	}
	for i := 0; i < len(e.ghosts); i++ {
		for j := i + 1; j < len(e.ghosts); j++ {
			if e.ghosts[i].Rect.Intersects(e.ghosts[j].Rect) {
				e.ghosts[i].Conflict = true
				e.ghosts[j].Conflict = true
			}
		}
	}
}

func (e *Engine) findConfirmed(name string) *Slot {
	for _, existing := range e.confirmed {
		if existing.Name == name {
			return existing
		}
	}
	return nil
}

func (e *Engine) findGhost(name string) *Slot {
	for _, existing := range e.ghosts {
		if existing.Name == name {
			return existing
		}
	}
	return nil
}

func copySlots(slots []*Slot) []Slot {
	copies := make([]Slot, len(slots))
	for i, s := range slots {
		copies[i] = *s
	}
	return copies
}
