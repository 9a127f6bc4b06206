// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editsession

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// DefaultIdleTimeout bounds each wait when Config.IdleTimeout is zero.
const DefaultIdleTimeout = 3 * time.Minute

// finalRenderTimeout bounds the best-effort render after the session's
// own context was cancelled.
const finalRenderTimeout = 10 * time.Second

// Config configures a Session. Transport, Room, Author and Finalizer
// are required.
type Config struct {
	Transport chat.Transport
	Room      ref.RoomID
	Author    ref.UserID
	Finalizer draftstore.Finalizer

	// IdleTimeout bounds each wait. Zero means DefaultIdleTimeout.
	IdleTimeout time.Duration

	// Clock drives timeouts and timestamps. Nil means the real clock.
	Clock clock.Clock

	// IDs generates the draft ID. Nil means draft.RandomID.
	IDs draft.IDSource

	// Logger is used for structured logging. Nil means slog.Default().
	Logger *slog.Logger
}

// Outcome is how a session ended.
type Outcome int

const (
	// OutcomeFailed is the zero Outcome: the session stopped on a
	// transport failure before reaching a final screen.
	OutcomeFailed Outcome = iota
	OutcomeConfirmed
	OutcomeCancelled
	OutcomeTimedOut
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeAborted:
		return "aborted"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result describes a finished session.
type Result struct {
	Outcome Outcome

	// Draft is a snapshot of the draft when the session ended.
	Draft *draft.Record

	// Panel is the panel message, zero if it was never sent.
	Panel chat.MessageHandle
}

// Info identifies a session for status reporting.
type Info struct {
	Room      ref.RoomID `json:"room_id"`
	Author    ref.UserID `json:"author"`
	DraftID   uint32     `json:"draft_id"`
	StartedAt time.Time  `json:"started_at"`
}

// Session is one editing session. Create with New, then call Run once.
type Session struct {
	transport chat.Transport
	room      ref.RoomID
	author    ref.UserID
	finalizer draftstore.Finalizer
	clock     clock.Clock
	waiter    *Waiter
	logger    *slog.Logger

	// record is owned by the Run goroutine. Only ID and CreatedAt are
	// read from other goroutines, and neither ever changes.
	record *draft.Record

	started atomic.Bool
}

// New validates config and creates a session with a fresh draft.
func New(config Config) (*Session, error) {
	switch {
	case config.Transport == nil:
		return nil, errors.New("editsession: Transport is required")
	case config.Room.IsZero():
		return nil, errors.New("editsession: Room is required")
	case config.Author.IsZero():
		return nil, errors.New("editsession: Author is required")
	case config.Finalizer == nil:
		return nil, errors.New("editsession: Finalizer is required")
	case config.IdleTimeout < 0:
		return nil, fmt.Errorf("editsession: IdleTimeout must not be negative, got %s", config.IdleTimeout)
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	timeout := config.IdleTimeout
	if timeout == 0 {
		timeout = DefaultIdleTimeout
	}
	record := draft.New(clk, config.IDs)

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(
		"room_id", config.Room.String(),
		"author", config.Author.String(),
		"draft_id", record.ID,
	)

	return &Session{
		transport: config.Transport,
		room:      config.Room,
		author:    config.Author,
		finalizer: config.Finalizer,
		clock:     clk,
		waiter:    NewWaiter(clk, timeout),
		logger:    logger,
		record:    record,
	}, nil
}

// Info returns the session's identity. Safe to call concurrently with
// Run.
func (s *Session) Info() Info {
	return Info{
		Room:      s.room,
		Author:    s.author,
		DraftID:   s.record.ID,
		StartedAt: s.record.CreatedAt,
	}
}

// run holds the per-Run state shared by the controller and the edit
// sub-dialog.
type run struct {
	*Session
	conversation chat.Conversation
	panel        chat.MessageHandle
}

// Run drives the session until it ends. The returned Result is valid
// whenever its Outcome is not OutcomeFailed, even alongside an error (a transport
// failure after a successful submission still reports
// OutcomeConfirmed).
func (s *Session) Run(ctx context.Context) (Result, error) {
	if !s.started.CompareAndSwap(false, true) {
		return Result{}, ErrSessionEnded
	}

	s.logger.Info("editing session started")

	conversation, err := s.transport.Open(ctx, s.room)
	if err != nil {
		return Result{}, fmt.Errorf("editsession: opening conversation in %s: %w", s.room, err)
	}
	defer conversation.Close()

	r := &run{Session: s, conversation: conversation}
	handle, err := conversation.SendPanel(ctx, r.view(panel.MainScreen()))
	if err != nil {
		return Result{}, fmt.Errorf("editsession: sending panel: %w", err)
	}
	r.panel = handle
	s.logger.Debug("panel sent", "panel", handle.EventID.String())

	result, err := r.loop(ctx)
	result.Draft = s.record.Clone()
	result.Panel = handle

	if err != nil {
		s.logger.Warn("editing session failed", "outcome", result.Outcome.String(), "error", err)
	} else {
		s.logger.Info("editing session ended", "outcome", result.Outcome.String())
	}
	return result, err
}

func (r *run) view(screen panel.Screen) panel.View {
	return panel.Render(r.record, screen)
}

// loop is the Main-screen state machine.
func (r *run) loop(ctx context.Context) (Result, error) {
	mainView := r.view(panel.MainScreen())
	for {
		event, err := r.waitForAction(ctx, mainView)
		if err != nil {
			return r.endWait(ctx, err)
		}

		switch event.Action {
		case panel.Confirm:
			return r.confirm(ctx, event)

		case panel.Cancel:
			if err := r.conversation.AcknowledgeAction(ctx, event, r.view(panel.TerminalScreen(panel.Cancelled))); err != nil {
				return Result{}, fmt.Errorf("editsession: acknowledging cancel: %w", err)
			}
			return Result{Outcome: OutcomeCancelled}, nil
		}

		field, _ := event.Action.EditField()
		if err := r.edit(ctx, event, field); err != nil {
			return r.endWait(ctx, err)
		}

		continueEvent, err := r.waitForAction(ctx, r.view(panel.ConfirmScreen(field)))
		if err != nil {
			return r.endWait(ctx, err)
		}
		mainView = r.view(panel.MainScreen())
		if err := r.conversation.AcknowledgeAction(ctx, continueEvent, mainView); err != nil {
			return Result{}, fmt.Errorf("editsession: returning to main panel: %w", err)
		}
	}
}

// waitForAction waits for the author's next action on the panel and
// checks that current offers it.
func (r *run) waitForAction(ctx context.Context, current panel.View) (chat.ActionEvent, error) {
	event, err := await(ctx, r.waiter, func(ctx context.Context) (chat.ActionEvent, error) {
		return r.conversation.WaitForAction(ctx, r.panel, r.author)
	})
	if err != nil {
		var protocolError *chat.ProtocolError
		switch {
		case errors.As(err, &protocolError):
			return chat.ActionEvent{}, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
		case errors.Is(err, ErrTimedOut):
			return chat.ActionEvent{}, err
		}
		return chat.ActionEvent{}, fmt.Errorf("editsession: waiting for action: %w", err)
	}
	if !current.Offers(event.Action) {
		return chat.ActionEvent{}, fmt.Errorf("%w: action %s is not offered by panel %q", ErrProtocolViolation, event.Action, current.Title)
	}
	r.logger.Debug("action received", "action", event.Action.String())
	return event, nil
}

// endWait turns a failed step into the session's end: a timeout, a
// protocol violation or a shutdown gets its final screen, anything else
// is a transport failure and is returned as is.
func (r *run) endWait(ctx context.Context, err error) (Result, error) {
	switch {
	case errors.Is(err, ErrTimedOut):
		r.logger.Info("editing session timed out", "idle_timeout", r.waiter.Timeout())
		if renderErr := r.conversation.EditPanel(ctx, r.panel, r.view(panel.TimedOutScreen())); renderErr != nil {
			return Result{Outcome: OutcomeTimedOut}, fmt.Errorf("editsession: rendering timeout: %w", renderErr)
		}
		return Result{Outcome: OutcomeTimedOut}, nil

	case errors.Is(err, ErrProtocolViolation):
		r.renderAborted(ctx)
		return Result{Outcome: OutcomeAborted}, err

	case ctx.Err() != nil:
		// Shutdown. Leave no live panel behind.
		r.renderAborted(ctx)
		return Result{Outcome: OutcomeAborted}, fmt.Errorf("editsession: %w", context.Cause(ctx))
	}
	return Result{}, err
}

// renderAborted shows the aborted screen, ignoring failures. It uses a
// context detached from ctx's cancellation so a shutdown still gets
// its final render.
func (r *run) renderAborted(ctx context.Context) {
	renderContext, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalRenderTimeout)
	defer cancel()
	if err := r.conversation.EditPanel(renderContext, r.panel, r.view(panel.TerminalScreen(panel.Aborted))); err != nil {
		r.logger.Warn("rendering aborted panel failed", "error", err)
	}
}

// confirm submits a snapshot of the draft and answers the press with
// the final screen.
func (r *run) confirm(ctx context.Context, event chat.ActionEvent) (Result, error) {
	submission, err := draftstore.NewSubmission(r.record.Clone(), r.room, r.author, r.clock.Now())
	if err == nil {
		err = r.finalizer.Submit(ctx, submission)
	}
	if err != nil {
		if ackErr := r.conversation.AcknowledgeAction(ctx, event, r.view(panel.TerminalScreen(panel.Aborted))); ackErr != nil {
			r.logger.Warn("rendering aborted panel failed", "error", ackErr)
		}
		return Result{Outcome: OutcomeAborted}, fmt.Errorf("editsession: submitting draft %d: %w", r.record.ID, err)
	}
	r.logger.Info("draft submitted", "digest", submission.Digest.String())

	if err := r.conversation.AcknowledgeAction(ctx, event, r.view(panel.TerminalScreen(panel.Confirmed))); err != nil {
		return Result{Outcome: OutcomeConfirmed}, fmt.Errorf("editsession: acknowledging confirm: %w", err)
	}
	return Result{Outcome: OutcomeConfirmed}, nil
}
