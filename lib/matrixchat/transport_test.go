// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixchat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
	"github.com/bureau-foundation/draftbot/lib/editsession"
	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/lib/testutil"
	"github.com/bureau-foundation/draftbot/messaging"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewValidates(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New without a session should fail")
	}
	if _, err := New(Config{Session: newHomeserver(ref.UserID{})}); err == nil {
		t.Error("New with an anonymous session should fail")
	}
	if _, err := New(Config{Session: newHomeserver(bot)}); err != nil {
		t.Errorf("New: %v", err)
	}
}

type listenResult struct {
	events chan chat.TextEvent
	done   chan error
	cancel context.CancelFunc
}

func startListen(t *testing.T, homeserver *fakeHomeserver, config Config) *listenResult {
	t.Helper()
	config.Session = homeserver
	config.Logger = testutil.Logger(t)
	transport, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	result := &listenResult{
		events: make(chan chat.TextEvent, 16),
		done:   make(chan error, 1),
		cancel: cancel,
	}
	go func() {
		result.done <- transport.Listen(ctx, func(event chat.TextEvent) { result.events <- event })
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-result.done:
		case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
			t.Error("Listen did not return after cancellation")
		}
	})
	return result
}

func TestListenDeliversNewTextMessages(t *testing.T) {
	homeserver := newHomeserver(bot)
	homeserver.pushText(room, alice, "!draft")
	listen := startListen(t, homeserver, Config{})

	// Initial sync plus the first long-poll.
	if err := homeserver.waitForSyncs(testContext(t), 2); err != nil {
		t.Fatalf("waiting for long-poll: %v", err)
	}

	homeserver.push(room, bot, ref.EventTypeMessage, messaging.NewNotice("panel", ""))
	homeserver.pushText(room, bot, "!draft")
	homeserver.push(room, alice, ref.EventTypeMessage, messaging.NewNotice("notice", ""))
	homeserver.pushReaction(room, alice, ref.MustParseEventID("$panel"), panel.Confirm.Key())
	command := homeserver.pushText(other, alice, "  !draft  ")

	event := testutil.RequireReceive(t, listen.events, 5*time.Second, "no text event delivered")
	want := chat.TextEvent{Room: other, EventID: command, Author: alice, Body: "  !draft  "}
	if event != want {
		t.Errorf("event = %+v, want %+v", event, want)
	}
	select {
	case extra := <-listen.events:
		t.Errorf("unexpected extra event %+v", extra)
	default:
	}

	listen.cancel()
	if err := testutil.RequireReceive(t, listen.done, 5*time.Second, "Listen did not return"); err != nil {
		t.Errorf("Listen returned %v after cancellation, want nil", err)
	}
	listen.done <- nil
}

func TestListenAcceptsInvites(t *testing.T) {
	homeserver := newHomeserver(bot)
	listen := startListen(t, homeserver, Config{AutoJoin: true})
	if err := homeserver.waitForSyncs(testContext(t), 2); err != nil {
		t.Fatalf("waiting for long-poll: %v", err)
	}

	invited := ref.MustParseRoomID("!invited:example.org")
	homeserver.invite(invited)
	joined, err := homeserver.waitForCall(testContext(t), "join", 1)
	if err != nil {
		t.Fatalf("waiting for join: %v", err)
	}
	if joined.room != invited {
		t.Errorf("joined %s, want %s", joined.room, invited)
	}

	homeserver.pushText(invited, alice, "!draft")
	event := testutil.RequireReceive(t, listen.events, 5*time.Second, "no text event from the joined room")
	if event.Room != invited {
		t.Errorf("event room = %s, want %s", event.Room, invited)
	}
}

func TestListenIgnoresInvitesWithoutAutoJoin(t *testing.T) {
	homeserver := newHomeserver(bot)
	listen := startListen(t, homeserver, Config{})
	if err := homeserver.waitForSyncs(testContext(t), 2); err != nil {
		t.Fatalf("waiting for long-poll: %v", err)
	}

	homeserver.invite(ref.MustParseRoomID("!invited:example.org"))
	homeserver.pushText(room, alice, "after invite")
	testutil.RequireReceive(t, listen.events, 5*time.Second, "no text event delivered")

	if joins := callsOf(homeserver.recorded(), "join"); len(joins) != 0 {
		t.Errorf("joined %d rooms without AutoJoin", len(joins))
	}
}

func TestListenRetriesWithBackoff(t *testing.T) {
	homeserver := newHomeserver(bot)
	homeserver.failSync[2] = errors.New("connection reset")
	homeserver.failSync[3] = errors.New("connection reset")
	fakeClock := clock.Fake(epoch)
	listen := startListen(t, homeserver, Config{Clock: fakeClock})

	// First failure waits one second.
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(999 * time.Millisecond)
	if fakeClock.PendingCount() != 1 {
		t.Fatal("backoff elapsed early")
	}
	fakeClock.Advance(time.Millisecond)

	// Second failure doubles it.
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second)
	if fakeClock.PendingCount() != 1 {
		t.Fatal("second backoff should be two seconds")
	}
	fakeClock.Advance(time.Second)

	if err := homeserver.waitForSyncs(testContext(t), 4); err != nil {
		t.Fatalf("waiting for recovered long-poll: %v", err)
	}
	homeserver.pushText(room, alice, "!draft")
	testutil.RequireReceive(t, listen.events, 5*time.Second, "no text event after recovery")
}

func TestListenStopsOnRejectedToken(t *testing.T) {
	homeserver := newHomeserver(bot)
	homeserver.failSync[2] = &messaging.MatrixError{Code: messaging.ErrCodeUnknownToken, StatusCode: 401}
	listen := startListen(t, homeserver, Config{})

	err := testutil.RequireReceive(t, listen.done, 5*time.Second, "Listen did not return")
	if !messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
		t.Errorf("Listen = %v, want M_UNKNOWN_TOKEN", err)
	}
	listen.done <- err
}

func TestInitialSyncFailure(t *testing.T) {
	homeserver := newHomeserver(bot)
	homeserver.failSync[1] = errors.New("unreachable")
	listen := startListen(t, homeserver, Config{})

	err := testutil.RequireReceive(t, listen.done, 5*time.Second, "Listen did not return")
	if err == nil {
		t.Error("Listen should fail when the initial sync fails")
	}
	listen.done <- err
}

// TestSessionOverMatrix drives a whole edit-then-confirm session
// through the Matrix mapping.
func TestSessionOverMatrix(t *testing.T) {
	ctx := testContext(t)
	homeserver := newHomeserver(bot)
	transport, err := New(Config{Session: homeserver, Logger: testutil.Logger(t)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	store := draftstore.NewMemory()
	session, err := editsession.New(editsession.Config{
		Transport: transport,
		Room:      room,
		Author:    alice,
		Finalizer: store,
		Clock:     clock.Fake(epoch),
		IDs:       func() uint32 { return 7 },
		Logger:    testutil.Logger(t),
	})
	if err != nil {
		t.Fatalf("editsession.New: %v", err)
	}

	type runResult struct {
		result editsession.Result
		err    error
	}
	done := make(chan runResult, 1)
	go func() {
		result, err := session.Run(ctx)
		done <- runResult{result, err}
	}()

	sent, err := homeserver.waitForCall(ctx, "send", 1)
	if err != nil {
		t.Fatalf("waiting for panel: %v", err)
	}
	panelID := sent.result

	// Everything the user does, typed ahead; the session consumes it
	// in order.
	homeserver.pushReaction(room, alice, panelID, panel.EditTitle.Key())
	reply := homeserver.pushText(room, alice, "Release notes")
	homeserver.pushReaction(room, alice, panelID, panel.Continue.Key())
	homeserver.pushReaction(room, alice, panelID, panel.Confirm.Key())

	outcome := testutil.RequireReceive(t, done, 5*time.Second, "session did not finish")
	if outcome.err != nil {
		t.Fatalf("Run: %v", outcome.err)
	}
	if outcome.result.Outcome != editsession.OutcomeConfirmed {
		t.Fatalf("outcome = %s, want confirmed", outcome.result.Outcome)
	}
	if outcome.result.Draft.Title != "Release notes" {
		t.Errorf("title = %q", outcome.result.Draft.Title)
	}

	submissions := store.Submissions()
	if len(submissions) != 1 || submissions[0].Draft.Title != "Release notes" {
		t.Errorf("submissions = %+v", submissions)
	}

	redacted := false
	for _, c := range callsOf(homeserver.recorded(), "redact") {
		if c.target == reply {
			redacted = true
		}
	}
	if !redacted {
		t.Error("the user's reply was not deleted")
	}
	if edits := callsOf(homeserver.recorded(), "edit"); len(edits) < 4 {
		t.Errorf("got %d panel edits, want at least 4", len(edits))
	}
}
