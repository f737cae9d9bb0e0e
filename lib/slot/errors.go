// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package slot

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to agents. The bridge copies the kind verbatim
// into the RPC error response.
const (
	// KindDuplicateSlot means the name already exists in the target
	// slot set.
	KindDuplicateSlot = "DuplicateSlot"

	// KindSlotNotFound means no slot with the given name exists.
	KindSlotNotFound = "SlotNotFound"

	// KindInvalidGeometry means a rectangle has a non-positive
	// dimension or a negative origin.
	KindInvalidGeometry = "InvalidGeometry"
)

// Error is a structured engine error. Callers can use errors.As to
// extract the kind:
//
//	var slotErr *slot.Error
//	if errors.As(err, &slotErr) && slotErr.Kind == slot.KindDuplicateSlot { ... }
type Error struct {
	// Kind is one of the Kind constants.
	Kind string

	// Message is the human-readable description.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// IsKind reports whether err is a *Error with the given kind.
func IsKind(err error, kind string) bool {
	var slotErr *Error
	if errors.As(err, &slotErr) {
		return slotErr.Kind == kind
	}
	return false
}
