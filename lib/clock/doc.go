// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that session
// timeouts can be tested without wall-clock sleeps.
//
// Production code takes a [Clock] and receives [Real]. Tests construct
// [Fake] and move time forward explicitly:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go session.Run(ctx)
//	c.WaitForTimers(1)          // the session armed its idle timeout
//	c.Advance(181 * time.Second) // fire it
//
// WaitForTimers closes the race between a goroutine arming a timer and
// the test advancing past it: it blocks until the requested number of
// timers are pending.
package clock
