// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package editsession runs one interactive draft-editing session.
//
// A [Session] owns a draft and a single panel message in one room. It
// is a sequential state machine: render the panel, wait for the session
// author to act, apply the action, repeat. Every wait goes through one
// [Waiter], which bounds it by the idle timeout and reports expiry as
// [ErrTimedOut]. Each wait gets a fresh timeout; there is no overall
// session deadline.
//
// The Main screen offers three edit actions, Confirm and Cancel. An
// edit runs the sub-dialog for that field: show a prompt with no
// actions, wait for the author's typed reply, apply the trimmed text,
// delete the reply, show a confirmation with a single Continue action.
// The controller then waits for Continue and returns to Main. The field
// being edited is data; all three edits share one code path.
//
// Every way a session ends replaces the panel with a final screen that
// offers nothing:
//
//   - Confirm hands a snapshot to the [draftstore.Finalizer], then shows
//     the submitted draft.
//   - Cancel shows the cancellation screen. Nothing is submitted.
//   - An idle timeout at any wait shows the timed-out screen. The draft
//     keeps exactly the edits confirmed before the timeout.
//   - An action the current screen does not offer, or an event the
//     transport cannot decode, is a protocol violation
//     ([ErrProtocolViolation]). The aborted screen is shown best-effort
//     and the error is returned.
//
// Transport failures end the session immediately and are returned to
// the caller; no further render is attempted because the panel's state
// can no longer be trusted. The one exception is deleting the user's
// reply, which is cleanup and only logged when it fails.
//
// A Session runs once. Calling [Session.Run] again returns
// [ErrSessionEnded].
package editsession
