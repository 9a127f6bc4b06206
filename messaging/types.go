// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Message types and formats.
const (
	MsgTypeText   = "m.text"
	MsgTypeNotice = "m.notice"

	// FormatHTML is the only format Matrix defines for formatted_body.
	FormatHTML = "org.matrix.custom.html"
)

// Relation types used in m.relates_to.
const (
	RelTypeReplace    = "m.replace"
	RelTypeAnnotation = "m.annotation"
	RelTypeThread     = "m.thread"
)

// MessageContent is the content of an m.room.message event. An edit
// carries the replacement in NewContent and an m.replace relation to
// the original; see NewEdit.
type MessageContent struct {
	MsgType       string          `json:"msgtype"`
	Body          string          `json:"body"`
	Format        string          `json:"format,omitempty"`
	FormattedBody string          `json:"formatted_body,omitempty"`
	NewContent    *MessageContent `json:"m.new_content,omitempty"`
	RelatesTo     *RelatesTo      `json:"m.relates_to,omitempty"`
}

// RelatesTo expresses a relationship to another event. Replies carry
// only InReplyTo; annotations (reactions) carry Key.
type RelatesTo struct {
	RelType   string      `json:"rel_type,omitempty"`
	EventID   ref.EventID `json:"event_id,omitzero"`
	Key       string      `json:"key,omitempty"`
	InReplyTo *InReplyTo  `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// ReactionContent is the content of an m.reaction event.
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// RedactRequest is the body of a redaction.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: MsgTypeText, Body: body}
}

// NewNotice creates an m.notice with a plain body and, when html is
// non-empty, an HTML formatted_body. Bots send notices so that other
// bots do not answer them.
func NewNotice(body, html string) MessageContent {
	content := MessageContent{MsgType: MsgTypeNotice, Body: body}
	if html != "" {
		content.Format = FormatHTML
		content.FormattedBody = html
	}
	return content
}

// NewEdit wraps replacement as an edit of target. The outer body is the
// "* "-prefixed fallback shown by clients without edit support.
func NewEdit(target ref.EventID, replacement MessageContent) MessageContent {
	replacement.RelatesTo = nil
	replacement.NewContent = nil
	edit := MessageContent{
		MsgType:    replacement.MsgType,
		Body:       "* " + replacement.Body,
		NewContent: &replacement,
		RelatesTo:  &RelatesTo{RelType: RelTypeReplace, EventID: target},
	}
	if replacement.FormattedBody != "" {
		edit.Format = replacement.Format
		edit.FormattedBody = "* " + replacement.FormattedBody
	}
	return edit
}

// NewReaction annotates target with key.
func NewReaction(target ref.EventID, key string) ReactionContent {
	return ReactionContent{RelatesTo: RelatesTo{RelType: RelTypeAnnotation, EventID: target, Key: key}}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitzero"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`

	// Redacts is the target of an m.room.redaction in room versions
	// before 11, which carry it outside the content.
	Redacts ref.EventID `json:"redacts,omitzero"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// DecodeContent unmarshals the event content into v, which should be
// a pointer to a content struct such as MessageContent.
func (e Event) DecodeContent(v any) error {
	data, err := json.Marshal(e.Content)
	if err != nil {
		return fmt.Errorf("messaging: re-encoding %s content: %w", e.Type, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("messaging: decoding %s content of %s: %w", e.Type, e.EventID, err)
	}
	return nil
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership. Map
// keys decode through ref.RoomID's TextUnmarshaler, so malformed room
// IDs fail the whole response.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a joined room.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom contains sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by every send, edit and redaction.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}
