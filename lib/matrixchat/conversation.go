// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixchat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/messaging"
)

// panelState tracks the reactions the bot has seeded on one panel.
type panelState struct {
	seeded map[panel.Action]ref.EventID
}

type conversation struct {
	transport *Transport
	room      ref.RoomID
	logger    *slog.Logger

	// watcher is used by one wait at a time. The session driving the
	// conversation is sequential.
	watcher *messaging.RoomWatcher

	mu     sync.Mutex
	panels map[ref.EventID]*panelState
	closed bool
}

func (c *conversation) session() messaging.Session { return c.transport.session }

func (c *conversation) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return chat.ErrConversationClosed
	}
	return nil
}

func (c *conversation) SendPanel(ctx context.Context, view panel.View) (chat.MessageHandle, error) {
	if err := c.checkOpen(); err != nil {
		return chat.MessageHandle{}, err
	}
	eventID, err := c.session().SendMessage(ctx, c.room, panelContent(view))
	if err != nil {
		return chat.MessageHandle{}, fmt.Errorf("matrixchat: sending panel: %w", err)
	}
	handle := chat.MessageHandle{Room: c.room, EventID: eventID}

	state := &panelState{seeded: make(map[panel.Action]ref.EventID)}
	c.mu.Lock()
	c.panels[eventID] = state
	c.mu.Unlock()

	if err := c.syncReactions(ctx, handle, state, view.Actions); err != nil {
		return handle, err
	}
	return handle, nil
}

func (c *conversation) EditPanel(ctx context.Context, handle chat.MessageHandle, view panel.View) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if _, err := c.session().EditMessage(ctx, handle.Room, handle.EventID, panelContent(view)); err != nil {
		return fmt.Errorf("matrixchat: editing panel %s: %w", handle.EventID, err)
	}

	c.mu.Lock()
	state, ok := c.panels[handle.EventID]
	if !ok {
		state = &panelState{seeded: make(map[panel.Action]ref.EventID)}
		c.panels[handle.EventID] = state
	}
	c.mu.Unlock()

	return c.syncReactions(ctx, handle, state, view.Actions)
}

// syncReactions makes the bot's reactions on the panel match actions:
// redacts those no longer offered, then seeds missing ones in view
// order.
func (c *conversation) syncReactions(ctx context.Context, handle chat.MessageHandle, state *panelState, actions []panel.Action) error {
	var stale []panel.Action
	for action := range state.seeded {
		if !slices.Contains(actions, action) {
			stale = append(stale, action)
		}
	}
	slices.Sort(stale)
	for _, action := range stale {
		if _, err := c.session().RedactEvent(ctx, handle.Room, state.seeded[action], ""); err != nil {
			return fmt.Errorf("matrixchat: removing %s control from %s: %w", action, handle.EventID, err)
		}
		delete(state.seeded, action)
	}

	for _, action := range actions {
		if _, ok := state.seeded[action]; ok {
			continue
		}
		reactionID, err := c.session().SendReaction(ctx, handle.Room, handle.EventID, action.Key())
		if err != nil {
			return fmt.Errorf("matrixchat: adding %s control to %s: %w", action, handle.EventID, err)
		}
		state.seeded[action] = reactionID
	}
	return nil
}

func (c *conversation) AcknowledgeAction(ctx context.Context, event chat.ActionEvent, view panel.View) error {
	if err := c.EditPanel(ctx, event.Panel, view); err != nil {
		return err
	}
	if event.EventID.IsZero() {
		return nil
	}
	if _, err := c.session().RedactEvent(ctx, event.Panel.Room, event.EventID, ""); err != nil {
		c.logger.Warn("removing user reaction failed",
			"event_id", event.EventID.String(),
			"error", err,
		)
	}
	return nil
}

func (c *conversation) DeleteMessage(ctx context.Context, handle chat.MessageHandle) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if _, err := c.session().RedactEvent(ctx, handle.Room, handle.EventID, ""); err != nil {
		return fmt.Errorf("matrixchat: deleting %s: %w", handle.EventID, err)
	}
	return nil
}

func (c *conversation) WaitForAction(ctx context.Context, handle chat.MessageHandle, author ref.UserID) (chat.ActionEvent, error) {
	if err := c.checkOpen(); err != nil {
		return chat.ActionEvent{}, err
	}
	event, err := c.watcher.WaitForEvent(ctx, func(event messaging.Event) bool {
		if event.Sender != author {
			return false
		}
		target, key, ok := decodeAnnotation(event)
		if !ok || target != handle.EventID {
			return false
		}
		// Any emoji can be added to the panel; only action keys count.
		_, err := panel.ActionForKey(key)
		return err == nil
	})
	if err != nil {
		return chat.ActionEvent{}, err
	}

	_, key, _ := decodeAnnotation(event)
	action, _ := panel.ActionForKey(key)
	return chat.ActionEvent{
		Panel:   handle,
		Action:  action,
		Author:  author,
		EventID: event.EventID,
	}, nil
}

func (c *conversation) WaitForReply(ctx context.Context, author ref.UserID) (chat.TextEvent, error) {
	if err := c.checkOpen(); err != nil {
		return chat.TextEvent{}, err
	}
	event, err := c.watcher.WaitForEvent(ctx, func(event messaging.Event) bool {
		if event.Sender != author {
			return false
		}
		_, ok := decodeReply(event)
		return ok
	})
	if err != nil {
		return chat.TextEvent{}, err
	}
	body, _ := decodeReply(event)
	return chat.TextEvent{
		Room:    c.room,
		EventID: event.EventID,
		Author:  author,
		Body:    body,
	}, nil
}

func (c *conversation) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
