// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package wm

// Window is the bridge's view of one client window. Windows are
// referenced, never owned: the host window manager is the source of
// truth and the bridge holds no copies between calls.
type Window struct {
	// ID is the window manager's window identifier.
	ID uint64 `yaml:"id"`

	// Name is the window title.
	Name string `yaml:"name"`

	// Class holds the WM_CLASS entries (instance and class names).
	// The security gate derives sensitivity from these; they are
	// never disclosed to agents.
	Class []string `yaml:"class"`

	// Group is the name of the group (workspace) the window is on.
	Group string `yaml:"group,omitempty"`

	// Slot is the semantic slot this window is assigned to, if any.
	Slot string `yaml:"slot,omitempty"`
}

// Group is one window-manager group (workspace).
type Group struct {
	// Name identifies the group.
	Name string `yaml:"name"`

	// Label is the display label, often equal to Name.
	Label string `yaml:"label"`

	// Layout is the name of the group's active layout.
	Layout string `yaml:"layout"`

	// Windows lists the ids of windows on this group.
	Windows []uint64 `yaml:"windows"`
}

// LayoutInfo describes the currently active layout.
type LayoutInfo struct {
	// Name is the layout name, e.g. "generative".
	Name string `yaml:"name"`

	// Group is the name of the group the layout is active on.
	Group string `yaml:"group"`
}

// Host is the window-manager collaborator the bridge queries and
// drives. Implementations must be cheap and non-blocking: every
// method runs on the bridge's dispatch loop.
type Host interface {
	// Windows returns all client windows, sensitive or not. The
	// bridge applies the privacy mask before disclosure.
	Windows() []Window

	// Groups returns all groups.
	Groups() []Group

	// Layout returns the active layout.
	Layout() LayoutInfo

	// Focused returns the currently focused window, or ok=false when
	// nothing is focused.
	Focused() (focused Window, ok bool)

	// Focus gives input focus to the window with the given id.
	Focus(id uint64) error

	// TypeText injects keystrokes into the focused window. The
	// bridge validates the text and the focus lock before calling.
	TypeText(text string) error

	// Capture returns an image of the window with the given id (PNG
	// bytes). The bridge rejects sensitive targets before calling.
	Capture(id uint64) ([]byte, error)
}

// Hooks is the observer interface the host invokes on window-manager
// events. All methods must be called on the same loop that serializes
// bridge calls; the bridge's implementation appends to the event log
// with the privacy mask applied.
type Hooks interface {
	// ClientNew reports a newly managed window.
	ClientNew(window Window)

	// ClientKilled reports a window being unmanaged.
	ClientKilled(window Window)

	// FocusChanged reports the new focus target, or nil when focus
	// was cleared.
	FocusChanged(window *Window)

	// LayoutChanged reports a layout switch.
	LayoutChanged(layout LayoutInfo)

	// UserOverride reports the user manually closing or moving a
	// window out of its semantic slot. The host removes the slot
	// itself; the hook only records the audit event.
	UserOverride(window Window, slotName string)
}
