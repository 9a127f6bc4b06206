// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editsession

import (
	"context"
	"errors"
	"time"

	"github.com/bureau-foundation/draftbot/lib/clock"
)

// Waiter bounds a blocking wait by an idle timeout measured on an
// injected clock. It never renders anything; callers decide what a
// timeout means.
type Waiter struct {
	clock   clock.Clock
	timeout time.Duration
}

// NewWaiter returns a Waiter that allows timeout for each wait.
func NewWaiter(clk clock.Clock, timeout time.Duration) *Waiter {
	return &Waiter{clock: clk, timeout: timeout}
}

// Timeout is the per-wait duration.
func (w *Waiter) Timeout() time.Duration { return w.timeout }

// Wait calls fn with a context that is cancelled when the timeout
// expires. If fn fails because of that expiry, Wait returns
// ErrTimedOut; any other error from fn is returned unchanged. The timer
// is stopped before Wait returns.
func (w *Waiter) Wait(ctx context.Context, fn func(ctx context.Context) error) error {
	waitContext, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	timer := w.clock.AfterFunc(w.timeout, func() { cancel(ErrTimedOut) })
	defer timer.Stop()

	err := fn(waitContext)
	if err != nil && errors.Is(context.Cause(waitContext), ErrTimedOut) && ctx.Err() == nil {
		return ErrTimedOut
	}
	return err
}

// await runs a value-returning wait under w.
func await[T any](ctx context.Context, w *Waiter, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := w.Wait(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}
