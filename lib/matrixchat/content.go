// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixchat

import (
	"strings"

	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/messaging"
)

// panelContent renders view as an m.notice. HTML rendering failures
// fall back to the plain body only.
func panelContent(view panel.View) messaging.MessageContent {
	html, err := view.HTML()
	if err != nil {
		html = ""
	}
	return messaging.NewNotice(view.PlainText(), html)
}

// decodeReply extracts the user-visible text of an m.room.message.
// Notices, edits and non-text messages are not replies.
func decodeReply(event messaging.Event) (string, bool) {
	if event.Type != ref.EventTypeMessage {
		return "", false
	}
	var content messaging.MessageContent
	if err := event.DecodeContent(&content); err != nil {
		return "", false
	}
	if content.MsgType != messaging.MsgTypeText {
		return "", false
	}
	if content.RelatesTo != nil && content.RelatesTo.RelType == messaging.RelTypeReplace {
		return "", false
	}
	body := content.Body
	if content.RelatesTo != nil && content.RelatesTo.InReplyTo != nil {
		body = stripReplyFallback(body)
	}
	return body, true
}

// stripReplyFallback removes the "> "-quoted block that clients prepend
// to replies, along with the blank line that separates it from the
// reply text.
func stripReplyFallback(body string) string {
	lines := strings.Split(body, "\n")
	index := 0
	for index < len(lines) && strings.HasPrefix(lines[index], ">") {
		index++
	}
	if index == 0 {
		return body
	}
	if index < len(lines) && lines[index] == "" {
		index++
	}
	return strings.Join(lines[index:], "\n")
}

// decodeAnnotation returns the target and key of an m.reaction event.
func decodeAnnotation(event messaging.Event) (ref.EventID, string, bool) {
	if event.Type != ref.EventTypeReaction {
		return ref.EventID{}, "", false
	}
	var content messaging.ReactionContent
	if err := event.DecodeContent(&content); err != nil {
		return ref.EventID{}, "", false
	}
	if content.RelatesTo.RelType != messaging.RelTypeAnnotation || content.RelatesTo.EventID.IsZero() {
		return ref.EventID{}, "", false
	}
	return content.RelatesTo.EventID, content.RelatesTo.Key, true
}
