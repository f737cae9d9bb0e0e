// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package slot

import "fmt"

// State is a slot's lifecycle state.
type State string

const (
	// StateGhost marks a proposed, uncommitted slot.
	StateGhost State = "ghost"

	// StateConfirmed marks a committed slot actively governing window
	// placement.
	StateConfirmed State = "confirmed"
)

// Rect is an axis-aligned rectangle. Coordinates are float64 so both
// fractional screen coordinates (0.0-1.0, as the original layout
// uses) and absolute pixels work; the engine assumes nothing about
// the unit.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Validate checks the geometry invariant: non-negative origin,
// strictly positive dimensions.
func (r Rect) Validate() error {
	if r.X < 0 || r.Y < 0 {
		return &Error{
			Kind:    KindInvalidGeometry,
			Message: fmt.Sprintf("origin (%g, %g) must be non-negative", r.X, r.Y),
		}
	}
	if r.W <= 0 || r.H <= 0 {
		return &Error{
			Kind:    KindInvalidGeometry,
			Message: fmt.Sprintf("dimensions %gx%g must be positive", r.W, r.H),
		}
	}
	return nil
}

// Intersects reports whether both the horizontal and vertical
// projections of the two rectangles overlap with positive length.
// Rectangles that merely touch along an edge do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// Slot is one semantic screen region. The embedded Rect flattens
// into the JSON record, giving the wire shape
// {id, name, x, y, w, h, owner, state, conflict}.
type Slot struct {
	// ID is generated at creation and stable across promotion.
	ID string `json:"id"`

	// Name is unique within the slot's state set.
	Name string `json:"name"`

	Rect

	// Owner is the agent the slot is attributed to. Empty for
	// legacy or anonymous calls.
	Owner string `json:"owner,omitempty"`

	// State is ghost or confirmed.
	State State `json:"state"`

	// Conflict is true while the slot geometrically overlaps another
	// ghost. Computed by the engine, never settable by callers, and
	// always false on confirmed slots.
	Conflict bool `json:"conflict"`
}
