// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/messaging"
)

// Config configures a Transport. Session is required.
type Config struct {
	Session messaging.Session

	// AutoJoin accepts room invites seen by Listen.
	AutoJoin bool

	// SyncTimeout is the /sync long-poll hold for Listen. Zero means 30
	// seconds.
	SyncTimeout time.Duration

	// MaxBackoff caps the delay between failed /sync attempts in
	// Listen. Zero means 30 seconds.
	MaxBackoff time.Duration

	// Clock drives the Listen backoff. Nil means the real clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// Transport is a chat.Transport backed by a Matrix session.
type Transport struct {
	session     messaging.Session
	self        ref.UserID
	autoJoin    bool
	syncTimeout time.Duration
	maxBackoff  time.Duration
	clock       clock.Clock
	logger      *slog.Logger
}

var _ chat.Transport = (*Transport)(nil)

// New returns a Transport over config.Session.
func New(config Config) (*Transport, error) {
	if config.Session == nil {
		return nil, errors.New("matrixchat: Session is required")
	}
	if config.Session.UserID().IsZero() {
		return nil, errors.New("matrixchat: Session has no user ID")
	}
	syncTimeout := config.SyncTimeout
	if syncTimeout == 0 {
		syncTimeout = 30 * time.Second
	}
	maxBackoff := config.MaxBackoff
	if maxBackoff == 0 {
		maxBackoff = 30 * time.Second
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		session:     config.Session,
		self:        config.Session.UserID(),
		autoJoin:    config.AutoJoin,
		syncTimeout: syncTimeout,
		maxBackoff:  maxBackoff,
		clock:       clk,
		logger:      logger,
	}, nil
}

// conversationFilter limits a conversation's watcher to the events it
// consumes.
var conversationFilter = &messaging.SyncFilter{
	TimelineTypes: []ref.EventType{ref.EventTypeMessage, ref.EventTypeReaction},
	ExcludeState:  true,
}

// Open implements chat.Transport. The conversation's sync position is
// captured here, before the panel is sent.
func (t *Transport) Open(ctx context.Context, room ref.RoomID) (chat.Conversation, error) {
	watcher, err := messaging.WatchRoom(ctx, t.session, room, conversationFilter, t.logger)
	if err != nil {
		return nil, fmt.Errorf("matrixchat: opening conversation in %s: %w", room, err)
	}
	return &conversation{
		transport: t,
		room:      room,
		watcher:   watcher,
		panels:    make(map[ref.EventID]*panelState),
		logger:    t.logger.With("room_id", room.String()),
	}, nil
}

// listenFilter restricts Listen's /sync to room messages.
var listenFilter = func() string {
	data, _ := json.Marshal(map[string]any{
		"room": map[string]any{
			"timeline": map[string]any{"types": []string{ref.EventTypeMessage.String()}},
			"state":    map[string]any{"types": []string{}},
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	})
	return string(data)
}()

// Listen implements chat.Transport. It performs an initial sync whose
// timeline is discarded (commands sent while the bot was down are not
// replayed), then long-polls until ctx is cancelled. Transient /sync
// failures are retried with exponential backoff. Returns nil on
// cancellation.
func (t *Transport) Listen(ctx context.Context, handler func(chat.TextEvent)) error {
	initial, err := t.session.Sync(ctx, messaging.SyncOptions{Filter: listenFilter, SetTimeout: true, Timeout: 0})
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("matrixchat: initial sync: %w", err)
	}
	t.acceptInvites(ctx, initial.Rooms.Invite)
	since := initial.NextBatch
	t.logger.Info("listening for commands", "user_id", t.self.String(), "rooms", len(initial.Rooms.Join))

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		response, err := t.session.Sync(ctx, messaging.SyncOptions{
			Since:      since,
			SetTimeout: true,
			Timeout:    int(t.syncTimeout / time.Millisecond),
			Filter:     listenFilter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
				return fmt.Errorf("matrixchat: access token rejected: %w", err)
			}
			t.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-t.clock.After(backoff):
			}
			backoff = min(backoff*2, t.maxBackoff)
			continue
		}
		backoff = time.Second
		since = response.NextBatch

		t.acceptInvites(ctx, response.Rooms.Invite)
		for roomID, joined := range response.Rooms.Join {
			for _, event := range joined.Timeline.Events {
				if text, ok := t.commandCandidate(roomID, event); ok {
					handler(text)
				}
			}
		}
	}
}

// commandCandidate converts a timeline event into a TextEvent if it is
// a fresh text message from someone other than the bot.
func (t *Transport) commandCandidate(roomID ref.RoomID, event messaging.Event) (chat.TextEvent, bool) {
	if event.Type != ref.EventTypeMessage || event.Sender == t.self {
		return chat.TextEvent{}, false
	}
	content, ok := decodeReply(event)
	if !ok {
		return chat.TextEvent{}, false
	}
	return chat.TextEvent{
		Room:    roomID,
		EventID: event.EventID,
		Author:  event.Sender,
		Body:    content,
	}, true
}

// acceptInvites joins invited rooms when AutoJoin is set.
func (t *Transport) acceptInvites(ctx context.Context, invites map[ref.RoomID]messaging.InvitedRoom) {
	if !t.autoJoin {
		return
	}
	for roomID := range invites {
		t.logger.Info("accepting room invite", "room_id", roomID.String())
		if _, err := t.session.JoinRoom(ctx, roomID); err != nil {
			t.logger.Error("accepting room invite failed", "room_id", roomID.String(), "error", err)
		}
	}
}
