// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editsession

import "errors"

var (
	// ErrTimedOut is returned by Waiter.Wait when the idle timeout
	// expires before the awaited event arrives.
	ErrTimedOut = errors.New("editsession: timed out waiting for the user")

	// ErrSessionEnded is returned by Run on a session that has already
	// run.
	ErrSessionEnded = errors.New("editsession: session already ended")

	// ErrProtocolViolation wraps any event the current screen cannot
	// accept: an action the panel does not offer, or an undecodable
	// event reported by the transport.
	ErrProtocolViolation = errors.New("editsession: protocol violation")
)
