// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Session is the set of Matrix operations the bot performs. The
// production implementation is *DirectSession; tests substitute fakes.
type Session interface {
	// UserID returns the session's fully-qualified Matrix user ID.
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// JoinRoom joins a room by ID and returns it.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// JoinedRooms returns the rooms the user has joined.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// SendEvent sends an event of any type and returns its ID.
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error)

	// SendMessage sends an m.room.message and returns its ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// EditMessage replaces the content of target.
	EditMessage(ctx context.Context, roomID ref.RoomID, target ref.EventID, replacement MessageContent) (ref.EventID, error)

	// SendReaction annotates target with key and returns the
	// reaction's ID.
	SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error)

	// RedactEvent removes an event's content.
	RedactEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error)

	// Sync performs a /sync request.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

var _ Session = (*DirectSession)(nil)
