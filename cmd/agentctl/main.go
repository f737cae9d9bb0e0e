// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// agentctl is a one-shot JSON-RPC client for the agent bridge socket.
//
//	agentctl [--socket path] <method> [json-params]
//
// The result prints as indented JSON. Errors print in red with the
// application error kind so scripts and humans can tell a security
// rejection from a missing slot at a glance.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/NModlin/agentic-qtile/bridge"
)

func main() {
	if err := run(); err != nil {
		var wireErr *bridge.RPCError
		if errors.As(err, &wireErr) && wireErr.Kind() != "" {
			color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "%s: ", wireErr.Kind())
			fmt.Fprintln(os.Stderr, wireErr.Message)
		} else {
			color.New(color.FgRed).Fprintf(os.Stderr, "agentctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var socketPath string
	flagSet := pflag.NewFlagSet("agentctl", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", defaultSocketPath(), "bridge socket to connect to")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	args := flagSet.Args()
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: agentctl [--socket path] <method> [json-params]")
	}
	method := args[0]

	var params any
	if len(args) == 2 {
		if !json.Valid([]byte(args[1])) {
			return fmt.Errorf("params are not valid JSON: %s", args[1])
		}
		params = json.RawMessage(args[1])
	}

	client, err := bridge.Dial(socketPath)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Call(method, params)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		// Not a JSON document we can reformat; print as received.
		fmt.Println(string(result))
		return nil
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "%s ok\n", method)
	fmt.Println(pretty.String())
	return nil
}

func defaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir + "/qtile-agent.sock"
	}
	return "/tmp/qtile-agent.sock"
}
