// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/testutil"
)

var epoch = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func blockUntilDone(ctx context.Context) error {
	<-ctx.Done()
	return context.Cause(ctx)
}

func TestWaiterTimesOut(t *testing.T) {
	fake := clock.Fake(epoch)
	waiter := NewWaiter(fake, time.Minute)

	result := make(chan error, 1)
	go func() { result <- waiter.Wait(context.Background(), blockUntilDone) }()

	fake.WaitForTimers(1)
	fake.Advance(59 * time.Second)
	select {
	case err := <-result:
		t.Fatalf("Wait returned %v before the timeout", err)
	default:
	}
	fake.Advance(time.Second)

	err := testutil.RequireReceive(t, result, 5*time.Second, "waiting for timeout")
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("Wait error = %v, want ErrTimedOut", err)
	}
}

func TestWaiterReturnsResult(t *testing.T) {
	fake := clock.Fake(epoch)
	waiter := NewWaiter(fake, time.Minute)

	value, err := await(context.Background(), waiter, func(context.Context) (string, error) {
		return "reply", nil
	})
	if err != nil || value != "reply" {
		t.Fatalf("await = %q, %v", value, err)
	}
	if pending := fake.PendingCount(); pending != 0 {
		t.Fatalf("timer still armed after Wait returned: %d pending", pending)
	}
}

func TestWaiterPassesThroughErrors(t *testing.T) {
	waiter := NewWaiter(clock.Fake(epoch), time.Minute)
	transportError := errors.New("homeserver unreachable")
	err := waiter.Wait(context.Background(), func(context.Context) error { return transportError })
	if !errors.Is(err, transportError) {
		t.Fatalf("Wait error = %v, want the transport error", err)
	}
}

func TestWaiterParentCancellationIsNotTimeout(t *testing.T) {
	waiter := NewWaiter(clock.Fake(epoch), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waiter.Wait(ctx, blockUntilDone)
	if errors.Is(err, ErrTimedOut) {
		t.Fatal("parent cancellation reported as a timeout")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Wait error = %v, want context.Canceled", err)
	}
}

func TestWaiterRearmsEachWait(t *testing.T) {
	fake := clock.Fake(epoch)
	waiter := NewWaiter(fake, time.Minute)

	for i := range 3 {
		result := make(chan error, 1)
		go func() { result <- waiter.Wait(context.Background(), blockUntilDone) }()
		fake.WaitForTimers(1)
		fake.Advance(time.Minute)
		if err := testutil.RequireReceive(t, result, 5*time.Second, "wait %d", i); !errors.Is(err, ErrTimedOut) {
			t.Fatalf("wait %d error = %v, want ErrTimedOut", i, err)
		}
	}
}
