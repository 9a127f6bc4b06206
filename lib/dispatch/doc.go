// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dispatch turns chat commands into editing sessions.
//
// A [Dispatcher] listens on a [chat.Transport] for messages equal to the
// configured command and starts one [editsession.Session] per command,
// each in its own goroutine. A user has at most one live session per
// room: repeating the command while a session is open is logged and
// ignored. Sessions share nothing but the transport and the finalizer.
//
// [Dispatcher.Active] reports the sessions still running, for the
// status API. [Dispatcher.Run] returns once the listener has stopped
// and every session has rendered its final screen.
package dispatch
