// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

// EventType identifies a Matrix event type. It is a named string, not
// a validated wrapper: event types need no parsing, only protection
// against being mixed up with other strings.
type EventType string

func (t EventType) String() string { return string(t) }

// Event types the bot sends or reacts to.
const (
	EventTypeMessage    EventType = "m.room.message"
	EventTypeReaction   EventType = "m.reaction"
	EventTypeRedaction  EventType = "m.room.redaction"
	EventTypeRoomMember EventType = "m.room.member"
)
