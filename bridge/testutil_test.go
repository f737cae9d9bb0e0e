// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/NModlin/agentic-qtile/lib/clock"
	"github.com/NModlin/agentic-qtile/lib/eventlog"
	"github.com/NModlin/agentic-qtile/lib/guard"
	"github.com/NModlin/agentic-qtile/lib/slot"
	"github.com/NModlin/agentic-qtile/lib/wm"
)

var testClockEpoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// fakeHost is a mutable in-memory window manager. A mutex guards it
// because tests mutate it while the dispatch loop reads it.
type fakeHost struct {
	mu      sync.Mutex
	windows []wm.Window
	groups  []wm.Group
	layout  wm.LayoutInfo
	focused uint64
	typed   []string
}

func (h *fakeHost) Windows() []wm.Window {
	h.mu.Lock()
	defer h.mu.Unlock()
	windows := make([]wm.Window, len(h.windows))
	copy(windows, h.windows)
	return windows
}

func (h *fakeHost) Groups() []wm.Group {
	h.mu.Lock()
	defer h.mu.Unlock()
	groups := make([]wm.Group, len(h.groups))
	copy(groups, h.groups)
	return groups
}

func (h *fakeHost) Layout() wm.LayoutInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.layout
}

func (h *fakeHost) Focused() (wm.Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, window := range h.windows {
		if window.ID == h.focused {
			return window, true
		}
	}
	return wm.Window{}, false
}

func (h *fakeHost) Focus(id uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, window := range h.windows {
		if window.ID == id {
			h.focused = id
			return nil
		}
	}
	return fmt.Errorf("no window with id %d", id)
}

func (h *fakeHost) TypeText(text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.typed = append(h.typed, text)
	return nil
}

func (h *fakeHost) Capture(id uint64) ([]byte, error) {
	return []byte("fake-png"), nil
}

func (h *fakeHost) setFocused(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focused = id
}

func (h *fakeHost) typedTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	texts := make([]string, len(h.typed))
	copy(texts, h.typed)
	return texts
}

// testBridge is a served bridge with a connected client.
type testBridge struct {
	server *Server
	client *Client
	log    *eventlog.Log
	clock  *clock.Fake
	host   *fakeHost
	engine *slot.Engine
	ctx    context.Context
}

// newTestBridge starts a server on a temp socket and connects one
// client. Everything shuts down via t.Cleanup.
func newTestBridge(t *testing.T, host *fakeHost) *testBridge {
	t.Helper()

	logger := testLogger()
	fakeClock := clock.NewFake(testClockEpoch)
	log, err := eventlog.Open(filepath.Join(t.TempDir(), "events.jsonl"), fakeClock, logger)
	if err != nil {
		t.Fatalf("opening event log: %v", err)
	}
	engine := slot.NewEngine(log, logger)

	socketPath := filepath.Join(t.TempDir(), "agent.sock")
	server, err := NewServer(Config{
		SocketPath: socketPath,
		Engine:     engine,
		Policy:     guard.DefaultPolicy(),
		Host:       host,
		Log:        log,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(ctx) }()

	select {
	case <-server.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to listen")
	}

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		cancel()
		select {
		case err := <-serveDone:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("timed out waiting for Serve to return")
		}
		log.Close()
	})

	return &testBridge{
		server: server,
		client: client,
		log:    log,
		clock:  fakeClock,
		host:   host,
		engine: engine,
		ctx:    ctx,
	}
}

// call performs an RPC that must succeed, decoding the result into
// target when target is non-nil.
func (b *testBridge) call(t *testing.T, method string, params, target any) {
	t.Helper()
	raw, err := b.client.Call(method, params)
	if err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	if target != nil {
		if err := json.Unmarshal(raw, target); err != nil {
			t.Fatalf("decoding %s result %s: %v", method, raw, err)
		}
	}
}

// callError performs an RPC that must fail and returns the wire error.
func (b *testBridge) callError(t *testing.T, method string, params any) *RPCError {
	t.Helper()
	_, err := b.client.Call(method, params)
	if err == nil {
		t.Fatalf("%s succeeded, want error", method)
	}
	wireErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("%s returned %T (%v), want *RPCError", method, err, err)
	}
	return wireErr
}

// eventNames returns the names of all logged events in append order.
func (b *testBridge) eventNames(t *testing.T) []string {
	t.Helper()
	var events []eventlog.Event
	b.call(t, "getRecentEvents", nil, &events)
	names := make([]string, len(events))
	for i, event := range events {
		names[i] = event.Event
	}
	return names
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
