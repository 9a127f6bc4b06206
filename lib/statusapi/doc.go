// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package statusapi serves a read-only HTTP view of a running bot.
//
// Routes:
//
//	GET /healthz           {"status":"ok","version":"..."}
//	GET /v1/sessions       editing sessions still in progress
//	GET /v1/submissions    most recent finalized drafts (?limit=N)
//
// [NewHandler] builds the gin engine; [Server] binds it to a TCP
// address and shuts it down gracefully when its context is cancelled.
// Nothing here mutates bot state.
package statusapi
