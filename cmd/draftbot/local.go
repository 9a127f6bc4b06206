// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/draftbot/cmd/draftbot/cli"
	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/config"
	"github.com/bureau-foundation/draftbot/lib/console"
	"github.com/bureau-foundation/draftbot/lib/dispatch"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Identities used by local mode.
var (
	localRoom = ref.MustParseRoomID("!local:draftbot.local")
	localBot  = ref.MustParseUserID("@draftbot:draftbot.local")
	localUser = ref.MustParseUserID("@you:draftbot.local")
)

func localCommand(s streams) *cli.Command {
	var (
		configPath  string
		idleTimeout time.Duration
		width       int
		color       string
	)
	return &cli.Command{
		Name:    "local",
		Summary: "Drive sessions from this terminal, no homeserver needed",
		Description: `Runs the bot against an in-process chat room. Type the session command
to open a panel, then type an action's number (or its name) to press
it, and plain text to answer a prompt. End input (Ctrl-D) to quit.

Submissions go to the configured store; without a configuration they
are kept in memory and listed on exit.`,
		Usage: "draftbot local [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("local", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.DurationVar(&idleTimeout, "idle-timeout", 0, "override session.idle_timeout")
			flagSet.IntVar(&width, "width", 0, "panel width (default: terminal width, max 80)")
			colorFlag(flagSet, &color)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("local takes no arguments, got %q", args)
			}
			colorMode, err := parseColorFlag(color)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath, false)
			if err != nil {
				return err
			}
			if configPath == "" && cfg.Log.Level == config.Default().Log.Level {
				// Keep session logs from interleaving with the panels.
				cfg.Log.Level = "warn"
			}
			if idleTimeout < 0 {
				return cli.Validation("--idle-timeout must not be negative")
			}
			if idleTimeout > 0 {
				cfg.Session.IdleTimeout = idleTimeout
			}
			if width <= 0 {
				width = min(cli.TerminalWidth(s.out), 80)
			}
			renderer := console.NewRenderer(s.out, console.DefaultTheme, width, colorMode)
			return runLocal(ctx, s, cfg, renderer, commandLogger(s, cfg, "local"))
		},
	}
}

// runLocal serves one in-process room until input ends or ctx is
// cancelled.
func runLocal(ctx context.Context, s streams, cfg *config.Config, renderer *console.Renderer, logger *slog.Logger) error {
	store, err := draftstore.Open(ctx, cfg.Store, logger)
	if err != nil {
		return cli.Transient("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer store.Close()

	memory := chat.NewMemory()
	dispatcher, err := dispatch.New(dispatch.Config{
		Transport:   memory,
		Finalizer:   store,
		Command:     cfg.Session.Command,
		Self:        localBot,
		IdleTimeout: cfg.Session.IdleTimeout,
		OnEnd:       logSessionEnd(logger),
		Logger:      logger,
	})
	if err != nil {
		return cli.Internal("creating dispatcher: %w", err)
	}

	terminal, err := console.NewTerminal(console.TerminalConfig{
		Memory:   memory,
		Room:     localRoom,
		Author:   localUser,
		Renderer: renderer,
		Output:   s.out,
	})
	if err != nil {
		return cli.Internal("creating terminal: %w", err)
	}

	localCtx, stop := context.WithCancel(ctx)
	defer stop()
	dispatched := make(chan error, 1)
	go func() { dispatched <- dispatcher.Run(localCtx) }()
	if err := memory.WaitListeners(localCtx, 1); err != nil {
		return nil
	}

	fmt.Fprintf(s.out, "Type %q to start a suggestion. End input to quit.\n", cfg.Session.Command)
	terminalErr := terminal.Run(localCtx, s.in)

	// Input ended: open sessions are aborted and their final panels
	// printed before the summary.
	stop()
	if err := <-dispatched; err != nil {
		logger.Error("dispatcher error", "error", err)
	}
	terminal.Flush()
	if terminalErr != nil {
		return cli.Internal("%w", terminalErr)
	}

	recent, err := store.Recent(context.WithoutCancel(ctx), 20)
	if err != nil {
		return cli.Internal("listing submissions: %w", err)
	}
	fmt.Fprintf(s.out, "\nRecent submissions in the %s store: %d\n", cfg.Store.Backend, len(recent))
	for _, submission := range recent {
		fmt.Fprintf(s.out, "  %-10d %.12s  %s\n", submission.Draft.ID, submission.Digest, submission.Draft.Title)
	}
	return nil
}
