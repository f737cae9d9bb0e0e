// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/NModlin/agentic-qtile/lib/clock"
)

// Event is one immutable audit record. Total order is append order.
type Event struct {
	// Event is the event type name, e.g. "slot_created" or
	// "security_violation".
	Event string `json:"event"`

	// Payload is event-type-specific structured data. May be nil
	// (serialized as JSON null), matching a focus_change to "no
	// window focused".
	Payload any `json:"payload"`

	// Timestamp is wall-clock seconds with fractional precision.
	Timestamp float64 `json:"timestamp"`
}

// maxLineSize bounds a single log line when loading an existing file.
// 1 MB is far beyond any payload the bridge emits; a longer line is
// treated as corruption and skipped.
const maxLineSize = 1024 * 1024

// Log is an append-only event log backed by a JSON-lines file plus an
// in-memory copy for replay. Not safe for concurrent use; callers
// serialize access through the bridge's dispatch loop.
type Log struct {
	path   string
	file   *os.File
	events []Event
	clock  clock.Clock
	logger *slog.Logger
}

// Open opens (creating if needed) the JSON-lines log at path and
// loads any records a previous session wrote. Malformed lines are
// skipped with a warning rather than failing the open: the log must
// survive a partial write from a crashed session.
func Open(path string, clk clock.Clock, logger *slog.Logger) (*Log, error) {
	log := &Log{path: path, clock: clk, logger: logger}

	if err := log.load(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log %s: %w", path, err)
	}
	log.file = file
	return log, nil
}

// load reads existing records from disk into memory.
func (l *Log) load() error {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading event log %s: %w", l.path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			l.logger.Warn("skipping malformed event log line",
				"path", l.path,
				"line", lineNumber,
				"error", err,
			)
			continue
		}
		l.events = append(l.events, event)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning event log %s: %w", l.path, err)
	}
	return nil
}

// Append records an event. The timestamp comes from the injected
// clock. The in-memory copy always gains the record; the disk write
// is best-effort and a failure is only logged.
func (l *Log) Append(event string, payload any) {
	record := Event{
		Event:     event,
		Payload:   payload,
		Timestamp: float64(l.clock.Now().UnixNano()) / 1e9,
	}
	l.events = append(l.events, record)

	line, err := json.Marshal(record)
	if err != nil {
		// Payloads are built by this repo from JSON-clean types, so
		// this indicates a programming error in the caller.
		l.logger.Error("event payload not serializable", "event", event, "error", err)
		return
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		l.logger.Warn("failed to write event log", "path", l.path, "error", err)
	}

	l.logger.Debug("event appended", "event", event)
}

// Tail returns the last n events in append order (oldest first within
// the returned window, newest overall last). A request for more
// events than the log contains returns the whole log. n <= 0 returns
// an empty slice.
func (l *Log) Tail(n int) []Event {
	if n <= 0 {
		return []Event{}
	}
	if n > len(l.events) {
		n = len(l.events)
	}
	tail := make([]Event, n)
	copy(tail, l.events[len(l.events)-n:])
	return tail
}

// All returns a copy of every event in append order.
func (l *Log) All() []Event {
	all := make([]Event, len(l.events))
	copy(all, l.events)
	return all
}

// Len returns the number of events in the log.
func (l *Log) Len() int { return len(l.events) }

// Close closes the underlying file. The log must not be used after
// Close.
func (l *Log) Close() error {
	return l.file.Close()
}
