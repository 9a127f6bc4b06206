// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/editsession"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Config configures a Dispatcher. Transport, Command and Finalizer are
// required.
type Config struct {
	Transport chat.Transport
	Finalizer draftstore.Finalizer

	// Command is the exact message body, after trimming, that starts a
	// session.
	Command string

	// Self is the bot's own user. Its messages never start sessions.
	Self ref.UserID

	// IdleTimeout, Clock and IDs are passed to every session.
	IdleTimeout time.Duration
	Clock       clock.Clock
	IDs         draft.IDSource

	// OnEnd, if set, is called after each session ends, from the
	// session's goroutine.
	OnEnd func(info editsession.Info, result editsession.Result, err error)

	Logger *slog.Logger
}

// sessionKey identifies the one session a user may have in a room.
type sessionKey struct {
	room   ref.RoomID
	author ref.UserID
}

// Dispatcher starts and tracks editing sessions.
type Dispatcher struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	active map[sessionKey]*editsession.Session
	// stopping is set once Listen has returned. No session starts
	// after it, so Wait cannot race a late Add.
	stopping bool

	sessions sync.WaitGroup
}

// New validates config and returns an idle Dispatcher. Call Run to
// start listening.
func New(config Config) (*Dispatcher, error) {
	config.Command = strings.TrimSpace(config.Command)
	switch {
	case config.Transport == nil:
		return nil, errors.New("dispatch: Transport is required")
	case config.Finalizer == nil:
		return nil, errors.New("dispatch: Finalizer is required")
	case config.Command == "":
		return nil, errors.New("dispatch: Command is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		config: config,
		logger: logger,
		active: make(map[sessionKey]*editsession.Session),
	}, nil
}

// Run listens for commands until ctx is cancelled, then waits for the
// running sessions to finish. Sessions run under ctx, so cancelling it
// also aborts them. Returns nil after a clean shutdown.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher listening", "command", d.config.Command)
	err := d.config.Transport.Listen(ctx, func(event chat.TextEvent) {
		d.handle(ctx, event)
	})
	d.mu.Lock()
	d.stopping = true
	d.mu.Unlock()
	d.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("dispatch: listening for commands: %w", err)
	}
	d.logger.Info("dispatcher stopped")
	return nil
}

// Wait blocks until every started session has ended.
func (d *Dispatcher) Wait() {
	d.sessions.Wait()
}

// Active returns the running sessions, oldest first.
func (d *Dispatcher) Active() []editsession.Info {
	d.mu.Lock()
	infos := make([]editsession.Info, 0, len(d.active))
	for _, session := range d.active {
		infos = append(infos, session.Info())
	}
	d.mu.Unlock()

	slices.SortFunc(infos, func(a, b editsession.Info) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Room.String(), b.Room.String()); c != 0 {
			return c
		}
		return cmp.Compare(a.Author.String(), b.Author.String())
	})
	return infos
}

// handle is called by the transport for every text message. It must
// not block.
func (d *Dispatcher) handle(ctx context.Context, event chat.TextEvent) {
	if event.Author == d.config.Self || strings.TrimSpace(event.Body) != d.config.Command {
		return
	}
	if ctx.Err() != nil {
		return
	}

	key := sessionKey{room: event.Room, author: event.Author}
	logger := d.logger.With("room_id", event.Room.String(), "author", event.Author.String())

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopping {
		logger.Info("ignoring command, dispatcher is stopping")
		return
	}
	if _, exists := d.active[key]; exists {
		logger.Info("ignoring command, session already active")
		return
	}

	session, err := editsession.New(editsession.Config{
		Transport:   d.config.Transport,
		Room:        event.Room,
		Author:      event.Author,
		Finalizer:   d.config.Finalizer,
		IdleTimeout: d.config.IdleTimeout,
		Clock:       d.config.Clock,
		IDs:         d.config.IDs,
		Logger:      d.logger,
	})
	if err != nil {
		logger.Error("creating editing session failed", "error", err)
		return
	}
	d.active[key] = session
	d.sessions.Add(1)
	go d.runSession(ctx, key, session)
}

func (d *Dispatcher) runSession(ctx context.Context, key sessionKey, session *editsession.Session) {
	defer d.sessions.Done()

	result, err := session.Run(ctx)

	d.mu.Lock()
	delete(d.active, key)
	d.mu.Unlock()

	if d.config.OnEnd != nil {
		d.config.OnEnd(session.Info(), result, err)
	}
}
