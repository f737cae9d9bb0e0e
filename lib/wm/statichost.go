// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package wm

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Snapshot is a YAML-loadable description of a desktop: the windows,
// the active layout, and the focused window. cmd/agentd serves the
// bridge against a Snapshot so agents can be developed without a live
// window manager.
type Snapshot struct {
	// Layout is the active layout.
	Layout LayoutInfo `yaml:"layout"`

	// Focused is the id of the focused window. Zero means nothing is
	// focused.
	Focused uint64 `yaml:"focused,omitempty"`

	// Windows lists every client window.
	Windows []Window `yaml:"windows"`
}

// LoadSnapshot reads a Snapshot from the YAML file at path. The path
// is explicit; there is no default location or discovery.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}

// StaticHost is a Host backed by a Snapshot. Focus mutates the
// snapshot; TypeText is accepted and dropped; Capture returns a
// placeholder image. Queries reflect the snapshot as loaded.
type StaticHost struct {
	snapshot Snapshot
}

// NewStaticHost returns a Host serving the given snapshot.
func NewStaticHost(snapshot Snapshot) *StaticHost {
	return &StaticHost{snapshot: snapshot}
}

// pngSignature is the 8-byte PNG file signature, returned by Capture
// as a stand-in image.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Windows returns all windows in the snapshot.
func (h *StaticHost) Windows() []Window {
	windows := make([]Window, len(h.snapshot.Windows))
	copy(windows, h.snapshot.Windows)
	return windows
}

// Groups derives the group list from the windows' group assignments.
// Every group uses the snapshot's layout name and its own name as the
// label.
func (h *StaticHost) Groups() []Group {
	byName := make(map[string]*Group)
	var order []string
	for _, window := range h.snapshot.Windows {
		name := window.Group
		if name == "" {
			continue
		}
		group, ok := byName[name]
		if !ok {
			group = &Group{Name: name, Label: name, Layout: h.snapshot.Layout.Name}
			byName[name] = group
			order = append(order, name)
		}
		group.Windows = append(group.Windows, window.ID)
	}
	sort.Strings(order)
	groups := make([]Group, 0, len(order))
	for _, name := range order {
		groups = append(groups, *byName[name])
	}
	return groups
}

// Layout returns the snapshot's layout.
func (h *StaticHost) Layout() LayoutInfo { return h.snapshot.Layout }

// Focused returns the focused window, if any.
func (h *StaticHost) Focused() (Window, bool) {
	if h.snapshot.Focused == 0 {
		return Window{}, false
	}
	for _, window := range h.snapshot.Windows {
		if window.ID == h.snapshot.Focused {
			return window, true
		}
	}
	return Window{}, false
}

// Focus moves focus to the window with the given id.
func (h *StaticHost) Focus(id uint64) error {
	for _, window := range h.snapshot.Windows {
		if window.ID == id {
			h.snapshot.Focused = id
			return nil
		}
	}
	return fmt.Errorf("no window with id %d", id)
}

// TypeText accepts and drops the text. The static host has no real
// input path.
func (h *StaticHost) TypeText(text string) error { return nil }

// Capture returns a placeholder image for any known window.
func (h *StaticHost) Capture(id uint64) ([]byte, error) {
	for _, window := range h.snapshot.Windows {
		if window.ID == id {
			image := make([]byte, len(pngSignature))
			copy(image, pngSignature)
			return image, nil
		}
	}
	return nil, fmt.Errorf("no window with id %d", id)
}
