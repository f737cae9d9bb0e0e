// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import "encoding/json"

// JSON-RPC 2.0 error codes.
const (
	// CodeParseError: the request was not valid JSON.
	CodeParseError = -32700

	// CodeInvalidRequest: the request was JSON but not a valid
	// JSON-RPC 2.0 call.
	CodeInvalidRequest = -32600

	// CodeMethodNotFound: the method is not in the dispatch table.
	CodeMethodNotFound = -32601

	// CodeInvalidParams: the params failed shape validation.
	CodeInvalidParams = -32602

	// CodeInternalError: the host collaborator failed unexpectedly.
	CodeInternalError = -32603

	// CodeAppError: an application-level failure (engine or gate).
	CodeAppError = -32000
)

// Error kinds. Every error response carries one so that agents can
// branch on the kind rather than parsing messages. The first five are
// the core taxonomy; the rest cover the protocol boundary and the
// window collaborator.
const (
	KindSecurityViolation = "SecurityViolation"
	KindDuplicateSlot     = "DuplicateSlot"
	KindSlotNotFound      = "SlotNotFound"
	KindInvalidGeometry   = "InvalidGeometry"
	KindInvalidParams     = "InvalidParams"

	KindParseError     = "ParseError"
	KindInvalidRequest = "InvalidRequest"
	KindMethodNotFound = "MethodNotFound"
	KindWindowNotFound = "WindowNotFound"
	KindInternalError  = "InternalError"
)

// Request is one JSON-RPC 2.0 call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC 2.0 reply. Exactly one of Result and
// Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the structured error object in a failure response. It
// implements error so the client can return it directly.
type RPCError struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData carries the application-level error kind.
type ErrorData struct {
	Kind string `json:"kind"`
}

func (e *RPCError) Error() string {
	if e.Data != nil && e.Data.Kind != "" {
		return e.Data.Kind + ": " + e.Message
	}
	return e.Message
}

// Kind returns the error kind, or empty when none was attached.
func (e *RPCError) Kind() string {
	if e.Data == nil {
		return ""
	}
	return e.Data.Kind
}

// rpcError builds an RPCError with a kind attached.
func rpcError(code int, kind, message string) *RPCError {
	return &RPCError{Code: code, Message: message, Data: &ErrorData{Kind: kind}}
}

// nullID is substituted when a request carried no id, so the response
// is still a well-formed JSON-RPC reply.
var nullID = json.RawMessage("null")
