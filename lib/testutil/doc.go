// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for draftbot packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with a wall-clock fallback) so that individual
// tests do not need direct time.After calls. Session timeouts in tests
// are always driven by lib/clock's fake clock; the wall clock here only
// guards against a hung test.
//
// [Logger] returns a *slog.Logger that writes through t.Log, so session
// and transport logs appear next to the failing test and nowhere else.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
