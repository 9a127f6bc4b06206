// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the parts of the Matrix client-server API a
// chat bot needs.
//
// [Client] holds the homeserver URL and HTTP transport. A [DirectSession]
// adds an access token and performs authenticated calls: identity
// (WhoAmI), room membership (JoinRoom, JoinedRooms), sending and
// editing messages, reactions, redactions and long-polling /sync.
// [Session] is the interface over those calls, so higher layers can be
// tested against a fake.
//
// [RoomWatcher] follows one room's /sync stream from a captured
// position and hands out matching events one at a time, buffering the
// rest of each batch.
//
// All API errors are returned as [*MatrixError] carrying the Matrix
// error code (M_FORBIDDEN, M_NOT_FOUND, ...) and HTTP status.
// [IsMatrixError] tests for a specific code.
package messaging
