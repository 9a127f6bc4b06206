// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat defines the chat-platform boundary of an editing
// session.
//
// A [Transport] connects to a chat platform. [Transport.Open] starts a
// [Conversation] in one room: a private event cursor positioned at the
// moment of opening, plus the operations a session needs to render its
// panel and wait for the user. Two conversations in the same room see
// the same events independently, so sessions never consume each
// other's input.
//
// Waits take a context and block until a matching event arrives or the
// context ends. Events from anyone other than the requested author
// never satisfy a wait and are skipped. A wait that receives an event
// it cannot decode (a reaction that names no panel action) returns a
// [*ProtocolError].
//
// [Memory] is a complete in-process Transport. Tests and the local
// terminal mode push user input into it and observe every render.
package chat
