// Copyright 2026 The Agentic Qtile Authors
// SPDX-License-Identifier: Apache-2.0

// agentd serves the agent bridge against a window-manager snapshot
// loaded from YAML. It exists for developing and exercising agents
// without a live window manager: a production deployment embeds
// bridge.Server in the window-manager process instead, wiring
// Server.Hooks into the real client and focus callbacks.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/NModlin/agentic-qtile/bridge"
	"github.com/NModlin/agentic-qtile/lib/clock"
	"github.com/NModlin/agentic-qtile/lib/eventlog"
	"github.com/NModlin/agentic-qtile/lib/guard"
	"github.com/NModlin/agentic-qtile/lib/slot"
	"github.com/NModlin/agentic-qtile/lib/wm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agentd: %v\n", err)
		os.Exit(1)
	}
}

// defaultSocketPath places the socket in the user's runtime directory
// when one exists, falling back to /tmp.
func defaultSocketPath() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir + "/qtile-agent.sock"
	}
	return "/tmp/qtile-agent.sock"
}

func run() error {
	var (
		socketPath   string
		eventLogPath string
		policyPath   string
		snapshotPath string
		logLevel     string
	)

	flagSet := pflag.NewFlagSet("agentd", pflag.ContinueOnError)
	flagSet.StringVar(&socketPath, "socket", defaultSocketPath(), "Unix socket to listen on")
	flagSet.StringVar(&eventLogPath, "event-log", "events.jsonl", "append-only JSONL event log")
	flagSet.StringVar(&policyPath, "policy", "", "security policy YAML (built-in defaults when unset)")
	flagSet.StringVar(&snapshotPath, "wm", "", "window-manager snapshot YAML (required)")
	flagSet.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if snapshotPath == "" {
		return fmt.Errorf("--wm is required")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	policy := guard.DefaultPolicy()
	if policyPath != "" {
		loaded, err := guard.LoadPolicy(policyPath)
		if err != nil {
			return err
		}
		policy = loaded
	}

	snapshot, err := wm.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}
	host := wm.NewStaticHost(*snapshot)

	log, err := eventlog.Open(eventLogPath, clock.Real(), logger)
	if err != nil {
		return err
	}
	defer log.Close()
	if log.Len() > 0 {
		logger.Info("resuming event log", "path", eventLogPath, "events", log.Len())
	}

	engine := slot.NewEngine(log, logger)
	server, err := bridge.NewServer(bridge.Config{
		SocketPath: socketPath,
		Engine:     engine,
		Policy:     policy,
		Host:       host,
		Log:        log,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve blocks until the signal context is cancelled, then drains
	// active connections and removes the socket.
	if err := server.Serve(ctx); err != nil {
		return err
	}
	logger.Info("agentd stopped")
	return nil
}
