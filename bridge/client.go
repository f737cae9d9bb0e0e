// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// dialTimeout bounds the initial socket connect.
const dialTimeout = 5 * time.Second

// Client is a synchronous JSON-RPC client for the bridge socket. One
// call is in flight at a time, matching the server's per-connection
// contract. Not safe for concurrent use.
type Client struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	nextID  int
}

// Dial connects to the bridge socket at socketPath.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to bridge socket %s: %w", socketPath, err)
	}
	return &Client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
		nextID:  1,
	}, nil
}

// clientResponse keeps the result raw so callers decode into their
// own types.
type clientResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Call sends one request and waits for its response. params may be
// nil for parameterless methods. An application-level failure is
// returned as a *RPCError; the caller can branch on its Kind.
func (c *Client) Call(method string, params any) (json.RawMessage, error) {
	request := Request{JSONRPC: "2.0", Method: method}
	request.ID, _ = json.Marshal(c.nextID)
	c.nextID++

	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encoding params for %s: %w", method, err)
		}
		request.Params = encoded
	}

	if err := c.encoder.Encode(request); err != nil {
		return nil, fmt.Errorf("sending %s request: %w", method, err)
	}

	var response clientResponse
	if err := c.decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("reading %s response: %w", method, err)
	}
	if response.Error != nil {
		return nil, response.Error
	}
	return response.Result, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
