// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated, immutable Matrix identifiers: room
// IDs, user IDs, event IDs, and event types.
//
// Identifiers arrive from the homeserver (sync responses, send
// responses) or from configuration and are parsed into these types at
// the boundary. Past the boundary, code never handles raw strings for
// identity, so a user ID cannot be passed where a room ID is expected.
//
// All types implement encoding.TextMarshaler and
// encoding.TextUnmarshaler, which lets them appear directly in JSON
// request and response structs, in CBOR records (lib/codec), and as
// map keys.
package ref
