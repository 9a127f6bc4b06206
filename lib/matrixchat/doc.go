// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package matrixchat implements [chat.Transport] over the Matrix
// client-server API.
//
// Mapping:
//
//   - A panel is an m.notice whose body is the plain-text view and whose
//     formatted_body is the view rendered to HTML. Re-rendering edits
//     the notice in place (m.replace).
//   - Each offered action is seeded as the bot's own m.reaction on the
//     panel, so users press it by clicking the existing reaction. When
//     the screen changes, reactions no longer offered are redacted and
//     new ones added.
//   - An action is the author's m.reaction on the panel. Its key is
//     decoded to a [panel.Action] here. Reactions with any other key are
//     ordinary emoji and are ignored. Whether the action is offered by
//     the current screen is the session's concern.
//   - A reply is the author's next m.room.message that is not an edit,
//     with any reply fallback quote removed.
//   - Acknowledging an action edits the panel and redacts the user's
//     reaction. Deleting a message redacts it.
//
// Each conversation follows its room with a [messaging.RoomWatcher]
// created at Open, so events arriving between waits are not lost.
// [Transport.Listen] runs a separate /sync loop over every joined room
// for command intake.
package matrixchat
