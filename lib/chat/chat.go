// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// MessageHandle identifies a message the bot can edit or delete.
type MessageHandle struct {
	Room    ref.RoomID
	EventID ref.EventID
}

func (h MessageHandle) String() string {
	return h.Room.String() + "/" + h.EventID.String()
}

// IsZero reports whether the handle is unset.
func (h MessageHandle) IsZero() bool {
	return h.Room.IsZero() && h.EventID.IsZero()
}

// ActionEvent is a user pressing one of the panel's actions.
type ActionEvent struct {
	// Panel is the panel message the action was taken on.
	Panel MessageHandle

	Action panel.Action
	Author ref.UserID

	// EventID identifies the press itself (a reaction event on Matrix).
	// Transports use it to acknowledge the press.
	EventID ref.EventID
}

// TextEvent is a plain text message in a room.
type TextEvent struct {
	Room    ref.RoomID
	EventID ref.EventID
	Author  ref.UserID
	Body    string
}

// Handle returns the handle of the message, for deleting it.
func (e TextEvent) Handle() MessageHandle {
	return MessageHandle{Room: e.Room, EventID: e.EventID}
}

// Transport connects to a chat platform.
type Transport interface {
	// Open starts a conversation in room. Events that arrive after
	// Open returns are visible to the conversation's waits.
	Open(ctx context.Context, room ref.RoomID) (Conversation, error)

	// Listen delivers every text message in every room the bot is in
	// to handler until ctx is cancelled. Messages sent before Listen
	// was called are not delivered. handler must not block.
	Listen(ctx context.Context, handler func(TextEvent)) error
}

// Conversation is a session's view of one room.
type Conversation interface {
	// SendPanel posts a new panel message showing view.
	SendPanel(ctx context.Context, view panel.View) (MessageHandle, error)

	// EditPanel replaces the panel's content and action set. A view
	// with no actions leaves the panel with no controls.
	EditPanel(ctx context.Context, handle MessageHandle, view panel.View) error

	// DeleteMessage removes a message from the room.
	DeleteMessage(ctx context.Context, handle MessageHandle) error

	// WaitForAction blocks until author takes an action on the panel
	// identified by handle.
	WaitForAction(ctx context.Context, handle MessageHandle, author ref.UserID) (ActionEvent, error)

	// WaitForReply blocks until author posts a text message.
	WaitForReply(ctx context.Context, author ref.UserID) (TextEvent, error)

	// AcknowledgeAction answers a press by swapping the panel to view
	// in place.
	AcknowledgeAction(ctx context.Context, event ActionEvent, view panel.View) error

	// Close releases the conversation's event cursor.
	Close() error
}

// ProtocolError reports an event that arrived where a panel action was
// expected but could not be decoded into one.
type ProtocolError struct {
	Room   ref.RoomID
	Author ref.UserID
	Detail string
	Err    error
}

func (e *ProtocolError) Error() string {
	message := fmt.Sprintf("chat: protocol error in %s from %s: %s", e.Room, e.Author, e.Detail)
	if e.Err != nil {
		message += ": " + e.Err.Error()
	}
	return message
}

func (e *ProtocolError) Unwrap() error { return e.Err }
