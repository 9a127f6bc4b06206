// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package panel renders the control panel message for a draft.
//
// The panel is a single chat message that an editing session edits in
// place. Its content is a pure function of the draft and the current
// [Screen]: [Render] has no side effects and returns the same [View]
// for the same inputs, so re-rendering after every transition is safe.
//
// Screens form a closed set (Main, Prompt, Confirm, TimedOut,
// Terminal). Each view carries the [Action] set it offers; a screen
// that offers nothing is either waiting for a typed reply (Prompt) or
// is the last write of a session (TimedOut, Terminal).
//
// Actions are a closed enumeration decoded at the transport boundary
// by [ParseAction] (button ids) or [ActionForKey] (reaction keys).
// Anything else is [ErrUnknownAction]; session code never sees raw
// identifiers.
package panel
