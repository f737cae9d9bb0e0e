// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/NModlin/agentic-qtile/lib/eventlog"
	"github.com/NModlin/agentic-qtile/lib/guard"
	"github.com/NModlin/agentic-qtile/lib/slot"
	"github.com/NModlin/agentic-qtile/lib/wm"
)

// writeTimeout is how long we wait for a response to be written. A
// stalled client must not pin a connection goroutine forever.
const writeTimeout = 10 * time.Second

// Config carries the collaborators the server is built from. All
// fields are required except Logger, which defaults to slog.Default.
type Config struct {
	// SocketPath is the Unix socket to listen on.
	SocketPath string

	// Engine is the authoritative slot state machine.
	Engine *slot.Engine

	// Policy is the security gate consulted before every disclosure
	// or mutation.
	Policy *guard.Policy

	// Host is the window-manager collaborator for introspection and
	// input actions.
	Host wm.Host

	// Log is the append-only audit log.
	Log *eventlog.Log

	// Logger receives structured log output.
	Logger *slog.Logger
}

// task is one unit of work submitted to the dispatch loop.
type task struct {
	run  func()
	done chan struct{}
}

// Server is the JSON-RPC bridge between agents and the window
// manager. Construct with NewServer, then call Serve.
type Server struct {
	socketPath string
	engine     *slot.Engine
	policy     *guard.Policy
	host       wm.Host
	log        *eventlog.Log
	logger     *slog.Logger

	// metadata maps agent id to its annotations. Purely descriptive;
	// nothing in the engine depends on it.
	metadata map[string]map[string]any

	// pendingClose tracks windows whose task completion has not been
	// verified. The host consults CloseAllowed before honoring a
	// close.
	pendingClose map[uint64]struct{}

	// methods is the closed dispatch table, built once at
	// construction.
	methods map[string]methodFunc

	// tasks feeds the dispatch loop. Every call and every hook runs
	// here, serializing all engine and log access.
	tasks chan task

	ready chan struct{}

	// stopped is closed when the dispatch loop exits. Submitting work
	// after that would block forever, so do selects on it; hook events
	// arriving during or after shutdown are dropped instead.
	stopped chan struct{}

	activeConnections sync.WaitGroup
}

// NewServer builds a Server from config. The dispatch table is
// constructed here so an unregistered method is a startup-time
// concern, not a per-call lookup surprise.
func NewServer(config Config) (*Server, error) {
	if config.SocketPath == "" {
		return nil, fmt.Errorf("bridge: SocketPath is required")
	}
	if config.Engine == nil || config.Policy == nil || config.Host == nil || config.Log == nil {
		return nil, fmt.Errorf("bridge: Engine, Policy, Host, and Log are all required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		socketPath:   config.SocketPath,
		engine:       config.Engine,
		policy:       config.Policy,
		host:         config.Host,
		log:          config.Log,
		logger:       logger,
		metadata:     make(map[string]map[string]any),
		pendingClose: make(map[uint64]struct{}),
		tasks:        make(chan task),
		ready:        make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	server.methods = buildDispatchTable()
	return server, nil
}

// Ready is closed once the listener is bound and the dispatch loop is
// running.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// Serve listens on the Unix socket and blocks until ctx is cancelled,
// then stops accepting, waits for in-flight connections, and removes
// the socket file. Any stale socket file at the path is removed
// before listening.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// The dispatch loop. Engine mutations, log appends, and hook
	// callbacks all run here, one at a time, to completion.
	go func() {
		defer close(s.stopped)
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-s.tasks:
				t.run()
				close(t.done)
			}
		}
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("agent bridge listening", "socket", s.socketPath)
	close(s.ready)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	<-s.stopped
	return nil
}

// do runs f on the dispatch loop and waits for it to finish. Returns
// an error without running f if ctx is cancelled or the dispatch loop
// has stopped; a hook caller that gets an error simply drops its
// event. Once dispatched, f always runs to completion; cancellation
// beyond that is not supported.
func (s *Server) do(ctx context.Context, f func()) error {
	t := task{run: f, done: make(chan struct{})}
	select {
	case s.tasks <- t:
	case <-s.stopped:
		return errors.New("bridge: dispatch loop stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	<-t.done
	return nil
}

// handleConnection serves a long-lived connection: a stream of
// JSON-RPC request/response pairs, one call in flight at a time. A
// disconnect aborts only this client's pending request; state already
// committed is never rolled back.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	for {
		var request Request
		if err := decoder.Decode(&request); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			// The stream is unparseable; report once and drop the
			// connection, since resynchronizing mid-stream is not
			// possible.
			s.writeResponse(conn, Response{
				JSONRPC: "2.0",
				ID:      nullID,
				Error:   rpcError(CodeParseError, KindParseError, fmt.Sprintf("invalid JSON: %v", err)),
			})
			return
		}

		response := s.handleRequest(ctx, request)
		if !s.writeResponse(conn, response) {
			return
		}
	}
}

// handleRequest validates the envelope and runs the method on the
// dispatch loop.
func (s *Server) handleRequest(ctx context.Context, request Request) Response {
	id := request.ID
	if len(id) == 0 {
		id = nullID
	}
	response := Response{JSONRPC: "2.0", ID: id}

	if request.JSONRPC != "2.0" {
		response.Error = rpcError(CodeInvalidRequest, KindInvalidRequest,
			fmt.Sprintf("jsonrpc must be %q", "2.0"))
		return response
	}
	handler, known := s.methods[request.Method]
	if !known {
		response.Error = rpcError(CodeMethodNotFound, KindMethodNotFound,
			fmt.Sprintf("unknown method %q", request.Method))
		return response
	}

	var result any
	var callErr *RPCError
	err := s.do(ctx, func() {
		result, callErr = s.call(request.Method, handler, request.Params)
	})
	if err != nil {
		response.Error = rpcError(CodeInternalError, KindInternalError, "server shutting down")
		return response
	}

	if callErr != nil {
		response.Error = callErr
	} else {
		response.Result = result
	}
	return response
}

// call invokes one handler and maps its error to the wire taxonomy.
// Runs on the dispatch loop. A security rejection is additionally
// appended to the event log so that it shows up in the replay stream.
func (s *Server) call(method string, handler methodFunc, params json.RawMessage) (any, *RPCError) {
	result, err := handler(s, params)
	if err == nil {
		s.logger.Debug("call ok", "method", method)
		return result, nil
	}

	var violation *guard.Violation
	if errors.As(err, &violation) {
		s.log.Append("security_violation", map[string]any{
			"method": method,
			"reason": violation.Reason,
		})
		s.logger.Warn("security violation", "method", method, "reason", violation.Reason)
		return nil, rpcError(CodeAppError, KindSecurityViolation, violation.Reason)
	}

	var engineErr *slot.Error
	if errors.As(err, &engineErr) {
		s.logger.Debug("call failed", "method", method, "kind", engineErr.Kind)
		return nil, rpcError(CodeAppError, engineErr.Kind, engineErr.Message)
	}

	var wireErr *RPCError
	if errors.As(err, &wireErr) {
		s.logger.Debug("call failed", "method", method, "kind", wireErr.Kind())
		return nil, wireErr
	}

	s.logger.Error("call failed", "method", method, "error", err)
	return nil, rpcError(CodeInternalError, KindInternalError, err.Error())
}

// writeResponse encodes one response. Returns false when the
// connection is no longer usable.
func (s *Server) writeResponse(conn net.Conn, response Response) bool {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := json.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
		return false
	}
	return true
}

// CloseAllowed reports whether the window may close: true unless a
// verifyCompletion call marked it pending. The host consults this
// from its close hook. Runs on the dispatch loop for consistency with
// in-flight calls.
func (s *Server) CloseAllowed(ctx context.Context, windowID uint64) (bool, error) {
	allowed := true
	err := s.do(ctx, func() {
		_, pending := s.pendingClose[windowID]
		allowed = !pending
	})
	if err != nil {
		return true, err
	}
	return allowed, nil
}

// Hooks returns the observer the host window manager invokes on
// client and focus events. Each hook marshals onto the dispatch loop,
// preserving the single-writer invariant.
func (s *Server) Hooks() wm.Hooks {
	return &hookAdapter{server: s}
}
