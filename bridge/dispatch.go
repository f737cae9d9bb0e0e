// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NModlin/agentic-qtile/lib/guard"
	"github.com/NModlin/agentic-qtile/lib/slot"
	"github.com/NModlin/agentic-qtile/lib/wm"
)

// methodFunc handles one RPC method. Runs on the dispatch loop.
// Returning a *guard.Violation, *slot.Error, or *RPCError selects the
// wire error kind; any other error surfaces as InternalError.
type methodFunc func(s *Server, params json.RawMessage) (any, error)

// buildDispatchTable returns the closed method table. Built once at
// construction; there is no runtime registration.
func buildDispatchTable() map[string]methodFunc {
	return map[string]methodFunc{
		"echo": handleEcho,

		"createSlot":      handleCreateSlot,
		"removeSlot":      handleRemoveSlot,
		"listSlots":       handleListSlots,
		"proposeSlot":     handleProposeSlot,
		"confirmLayout":   handleConfirmLayout,
		"clearGhostSlots": handleClearGhostSlots,

		"getRecentEvents": handleGetRecentEvents,

		"setAgentMetadata": handleSetAgentMetadata,
		"getAgentMetadata": handleGetAgentMetadata,

		"getWindows":  handleGetWindows,
		"getGroups":   handleGetGroups,
		"getLayout":   handleGetLayout,
		"getFocused":  handleGetFocused,
		"focusWindow": handleFocusWindow,

		"inputText":        handleInputText,
		"getScreenshot":    handleGetScreenshot,
		"verifyCompletion": handleVerifyCompletion,
	}
}

// decodeParams unmarshals params into target, reporting InvalidParams
// on any shape mismatch. Absent params decode as all-absent fields.
func decodeParams(params json.RawMessage, target any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, target); err != nil {
		return rpcError(CodeInvalidParams, KindInvalidParams, "malformed params: "+err.Error())
	}
	return nil
}

// missingParams builds the InvalidParams error for absent required
// fields.
func missingParams(fields ...string) error {
	return rpcError(CodeInvalidParams, KindInvalidParams,
		"missing required params: "+strings.Join(fields, ", "))
}

// windowRecord is the disclosed shape of a window. WM_CLASS is
// deliberately absent: the gate derives sensitivity from it and
// agents have no use for it.
type windowRecord struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group,omitempty"`
	Slot  string `json:"slot,omitempty"`
}

func recordForWindow(window wm.Window) windowRecord {
	return windowRecord{
		ID:    window.ID,
		Name:  window.Name,
		Group: window.Group,
		Slot:  window.Slot,
	}
}

// windowByID finds a window in the host's current set.
func (s *Server) windowByID(id uint64) (wm.Window, bool) {
	for _, window := range s.host.Windows() {
		if window.ID == id {
			return window, true
		}
	}
	return wm.Window{}, false
}

// visibleWindowByID finds a window, treating sensitive windows as
// absent so that action methods are not an existence oracle.
func (s *Server) visibleWindowByID(id uint64) (wm.Window, error) {
	window, found := s.windowByID(id)
	if !found || !s.policy.CanSeeWindow(window) {
		return wm.Window{}, rpcError(CodeAppError, KindWindowNotFound,
			fmt.Sprintf("no window with id %d", id))
	}
	return window, nil
}

func handleEcho(s *Server, params json.RawMessage) (any, error) {
	if len(params) == 0 {
		return json.RawMessage("null"), nil
	}
	return params, nil
}

// slotParams is the shared shape of createSlot and proposeSlot.
// Pointer fields distinguish absent from zero.
type slotParams struct {
	Name  *string  `json:"name"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	W     *float64 `json:"w"`
	H     *float64 `json:"h"`
	Owner string   `json:"owner"`
}

func (p *slotParams) validate() error {
	var missing []string
	if p.Name == nil {
		missing = append(missing, "name")
	}
	if p.X == nil {
		missing = append(missing, "x")
	}
	if p.Y == nil {
		missing = append(missing, "y")
	}
	if p.W == nil {
		missing = append(missing, "w")
	}
	if p.H == nil {
		missing = append(missing, "h")
	}
	if len(missing) > 0 {
		return missingParams(missing...)
	}
	return nil
}

func (p *slotParams) rect() slot.Rect {
	return slot.Rect{X: *p.X, Y: *p.Y, W: *p.W, H: *p.H}
}

func handleCreateSlot(s *Server, params json.RawMessage) (any, error) {
	var p slotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return s.engine.Create(*p.Name, p.rect(), p.Owner)
}

func handleProposeSlot(s *Server, params json.RawMessage) (any, error) {
	var p slotParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return s.engine.Propose(*p.Name, p.rect(), p.Owner)
}

func handleRemoveSlot(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		Name *string `json:"name"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == nil {
		return nil, missingParams("name")
	}
	if err := s.engine.Remove(*p.Name); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func handleListSlots(s *Server, params json.RawMessage) (any, error) {
	return s.engine.List(), nil
}

func handleConfirmLayout(s *Server, params json.RawMessage) (any, error) {
	promoted, err := s.engine.ConfirmLayout()
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

func handleClearGhostSlots(s *Server, params json.RawMessage) (any, error) {
	cleared := s.engine.ClearGhosts()
	return map[string]any{"ok": true, "cleared": cleared}, nil
}

// defaultRecentEvents is how many events getRecentEvents returns when
// the caller does not say.
const defaultRecentEvents = 100

func handleGetRecentEvents(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		N *int `json:"n"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	n := defaultRecentEvents
	if p.N != nil {
		if *p.N < 0 {
			return nil, rpcError(CodeInvalidParams, KindInvalidParams, "n must be non-negative")
		}
		n = *p.N
	}
	return s.log.Tail(n), nil
}

func handleSetAgentMetadata(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		Agent *string         `json:"agent"`
		Key   *string         `json:"key"`
		Value json.RawMessage `json:"value"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	var missing []string
	if p.Agent == nil {
		missing = append(missing, "agent")
	}
	if p.Key == nil {
		missing = append(missing, "key")
	}
	if len(p.Value) == 0 {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return nil, missingParams(missing...)
	}

	var value any
	if err := json.Unmarshal(p.Value, &value); err != nil {
		return nil, rpcError(CodeInvalidParams, KindInvalidParams, "malformed value: "+err.Error())
	}

	annotations, ok := s.metadata[*p.Agent]
	if !ok {
		annotations = make(map[string]any)
		s.metadata[*p.Agent] = annotations
	}
	annotations[*p.Key] = value

	s.log.Append("agent_metadata_set", map[string]any{
		"agent": *p.Agent,
		"key":   *p.Key,
		"value": value,
	})
	return map[string]any{"ok": true}, nil
}

func handleGetAgentMetadata(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		Agent *string `json:"agent"`
		Key   *string `json:"key"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Agent == nil {
		return nil, missingParams("agent")
	}

	annotations := s.metadata[*p.Agent]
	if p.Key == nil {
		// Copy: the result is marshaled on the connection goroutine
		// after this task completes, and the live map may gain entries
		// from a later setAgentMetadata in the meantime. Individual
		// values are safe to share because sets replace them whole.
		copied := make(map[string]any, len(annotations))
		for key, value := range annotations {
			copied[key] = value
		}
		return copied, nil
	}
	value, ok := annotations[*p.Key]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return value, nil
}

func handleGetWindows(s *Server, params json.RawMessage) (any, error) {
	records := []windowRecord{}
	for _, window := range s.host.Windows() {
		if !s.policy.CanSeeWindow(window) {
			continue
		}
		records = append(records, recordForWindow(window))
	}
	return records, nil
}

func handleGetGroups(s *Server, params json.RawMessage) (any, error) {
	// Group membership lists disclose window existence, so sensitive
	// window ids are filtered out just like getWindows omits the
	// windows themselves.
	visible := make(map[uint64]bool)
	for _, window := range s.host.Windows() {
		if s.policy.CanSeeWindow(window) {
			visible[window.ID] = true
		}
	}

	type groupRecord struct {
		Name    string   `json:"name"`
		Label   string   `json:"label"`
		Layout  string   `json:"layout"`
		Windows []uint64 `json:"windows"`
	}
	records := []groupRecord{}
	for _, group := range s.host.Groups() {
		record := groupRecord{
			Name:    group.Name,
			Label:   group.Label,
			Layout:  group.Layout,
			Windows: []uint64{},
		}
		for _, id := range group.Windows {
			if visible[id] {
				record.Windows = append(record.Windows, id)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func handleGetLayout(s *Server, params json.RawMessage) (any, error) {
	layout := s.host.Layout()
	return map[string]any{"name": layout.Name, "group": layout.Group}, nil
}

func handleGetFocused(s *Server, params json.RawMessage) (any, error) {
	focused, ok := s.host.Focused()
	if !ok {
		return json.RawMessage("null"), nil
	}
	if !s.policy.CanSeeWindow(focused) {
		// The redacted sentinel: agents observe that something holds
		// focus without learning what.
		return windowRecord{ID: focused.ID, Name: guard.RedactedName}, nil
	}
	return recordForWindow(focused), nil
}

func handleFocusWindow(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		WindowID *uint64 `json:"windowId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.WindowID == nil {
		return nil, missingParams("windowId")
	}
	if _, err := s.visibleWindowByID(*p.WindowID); err != nil {
		return nil, err
	}
	if err := s.host.Focus(*p.WindowID); err != nil {
		return nil, fmt.Errorf("focusing window %d: %w", *p.WindowID, err)
	}
	return map[string]any{"ok": true}, nil
}

func handleInputText(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		Text     *string `json:"text"`
		WindowID *uint64 `json:"windowId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Text == nil {
		return nil, missingParams("text")
	}

	if err := s.policy.ValidateInput(*p.Text); err != nil {
		return nil, err
	}
	if p.WindowID != nil {
		var focused *wm.Window
		if window, ok := s.host.Focused(); ok {
			focused = &window
		}
		if err := s.policy.CanInjectInput(focused, *p.WindowID); err != nil {
			return nil, err
		}
	}

	if err := s.host.TypeText(*p.Text); err != nil {
		return nil, fmt.Errorf("injecting text: %w", err)
	}
	return map[string]any{"ok": true}, nil
}

func handleGetScreenshot(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		WindowID *uint64 `json:"windowId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.WindowID == nil {
		return nil, missingParams("windowId")
	}

	window, found := s.windowByID(*p.WindowID)
	if !found {
		return nil, rpcError(CodeAppError, KindWindowNotFound,
			fmt.Sprintf("no window with id %d", *p.WindowID))
	}
	// Capture fails outright for a sensitive target: partial leakage
	// through imagery is not safely maskable.
	if !s.policy.CanSeeWindow(window) {
		return nil, &guard.Violation{Reason: "screenshot blocked: window is sensitive"}
	}

	image, err := s.host.Capture(window.ID)
	if err != nil {
		return nil, fmt.Errorf("capturing window %d: %w", window.ID, err)
	}
	return map[string]any{
		"windowId": window.ID,
		"image":    base64.StdEncoding.EncodeToString(image),
	}, nil
}

func handleVerifyCompletion(s *Server, params json.RawMessage) (any, error) {
	var p struct {
		WindowID *uint64 `json:"windowId"`
		Complete *bool   `json:"complete"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	var missing []string
	if p.WindowID == nil {
		missing = append(missing, "windowId")
	}
	if p.Complete == nil {
		missing = append(missing, "complete")
	}
	if len(missing) > 0 {
		return nil, missingParams(missing...)
	}

	if _, err := s.visibleWindowByID(*p.WindowID); err != nil {
		return nil, err
	}

	if *p.Complete {
		delete(s.pendingClose, *p.WindowID)
	} else {
		s.pendingClose[*p.WindowID] = struct{}{}
	}
	s.log.Append("completion_verified", map[string]any{
		"window_id": *p.WindowID,
		"complete":  *p.Complete,
	})
	return map[string]any{"ok": true, "complete": *p.Complete}, nil
}
