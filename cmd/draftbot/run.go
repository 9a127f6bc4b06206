// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/draftbot/cmd/draftbot/cli"
	"github.com/bureau-foundation/draftbot/lib/config"
	"github.com/bureau-foundation/draftbot/lib/dispatch"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/editsession"
	"github.com/bureau-foundation/draftbot/lib/matrixchat"
	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/lib/statusapi"
	"github.com/bureau-foundation/draftbot/lib/version"
	"github.com/bureau-foundation/draftbot/messaging"
)

func runCommand(s streams) *cli.Command {
	var configPath string
	return &cli.Command{
		Name:    "run",
		Summary: "Connect to the homeserver and serve every joined room",
		Description: `Connects to the Matrix homeserver in the configuration and starts an
editing session whenever someone posts the session command in a room
the bot has joined. Runs until interrupted; open sessions are shown
as aborted on shutdown.`,
		Usage: "draftbot run [--config path]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("run takes no arguments, got %q", args)
			}
			cfg, err := loadConfig(configPath, true)
			if err != nil {
				return err
			}
			if err := cfg.ValidateMatrix(); err != nil {
				return cli.Validation("invalid configuration:\n%w", err)
			}
			return runBot(ctx, cfg, commandLogger(s, cfg, "run"))
		},
	}
}

// runBot serves the homeserver until ctx is cancelled.
func runBot(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	userID, err := ref.ParseUserID(cfg.Matrix.UserID)
	if err != nil {
		return cli.Validation("matrix.user_id: %w", err)
	}
	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Logger:        logger,
	})
	if err != nil {
		return cli.Validation("matrix.homeserver_url: %w", err)
	}
	session, err := client.SessionFromToken(userID, cfg.Matrix.AccessToken)
	if err != nil {
		return cli.Validation("matrix.access_token: %w", err)
	}
	defer session.Close()

	whoami, err := session.WhoAmI(ctx)
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
			return cli.Validation("homeserver rejected the access token: %w", err)
		}
		return cli.Transient("reaching homeserver: %w", err)
	}
	if whoami != userID {
		return cli.Validation("access token belongs to %s, not matrix.user_id %s", whoami, userID)
	}

	store, err := draftstore.Open(ctx, cfg.Store, logger)
	if err != nil {
		return cli.Transient("opening %s store: %w", cfg.Store.Backend, err)
	}
	defer store.Close()

	transport, err := matrixchat.New(matrixchat.Config{
		Session:  session,
		AutoJoin: cfg.Matrix.AutoJoin,
		Logger:   logger,
	})
	if err != nil {
		return cli.Internal("creating transport: %w", err)
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		Transport:   transport,
		Finalizer:   store,
		Command:     cfg.Session.Command,
		Self:        userID,
		IdleTimeout: cfg.Session.IdleTimeout,
		OnEnd:       logSessionEnd(logger),
		Logger:      logger,
	})
	if err != nil {
		return cli.Internal("creating dispatcher: %w", err)
	}

	// The status server outlives neither a shutdown nor a failed
	// dispatcher.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	statusDone, err := startStatusServer(runCtx, cfg.Status, dispatcher, store, logger)
	if err != nil {
		return err
	}

	logger.Info("draftbot running",
		"version", version.Info(),
		"user_id", userID.String(),
		"command", cfg.Session.Command,
		"store", cfg.Store.Backend,
	)

	runErr := dispatcher.Run(runCtx)
	logger.Info("shutting down")
	stop()

	if statusDone != nil {
		if err := <-statusDone; err != nil {
			logger.Error("status server error", "error", err)
		}
	}
	if runErr != nil {
		return cli.Transient("%w", runErr)
	}
	return nil
}

// startStatusServer starts the status API when status.listen is set
// and waits for it to bind. The returned channel reports Serve's
// result after ctx is cancelled; it is nil when the API is disabled.
func startStatusServer(ctx context.Context, cfg config.StatusConfig, dispatcher *dispatch.Dispatcher, store draftstore.Store, logger *slog.Logger) (<-chan error, error) {
	if cfg.Listen == "" {
		return nil, nil
	}
	server, err := statusapi.NewServer(statusapi.ServerConfig{
		Listen: cfg.Listen,
		Handler: statusapi.NewHandler(statusapi.Config{
			Sessions:    dispatcher,
			Submissions: store,
			Logger:      logger,
		}),
		Logger: logger,
	})
	if err != nil {
		return nil, cli.Validation("status.listen: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	select {
	case <-server.Ready():
		return done, nil
	case err := <-done:
		return nil, cli.Validation("status.listen %q: %w", cfg.Listen, err)
	case <-ctx.Done():
		return done, nil
	}
}

// logSessionEnd reports each finished session.
func logSessionEnd(logger *slog.Logger) func(editsession.Info, editsession.Result, error) {
	return func(info editsession.Info, result editsession.Result, err error) {
		attributes := []any{
			"room_id", info.Room.String(),
			"author", info.Author.String(),
			"draft_id", info.DraftID,
			"outcome", result.Outcome.String(),
		}
		if err != nil {
			logger.Warn("session failed", append(attributes, "error", err)...)
			return
		}
		logger.Info("session finished", attributes...)
	}
}
