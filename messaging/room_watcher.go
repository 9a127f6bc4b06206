// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

// SyncFilter configures what a RoomWatcher receives from /sync. The
// watched room is always included; a nil *SyncFilter means every event
// from that room.
type SyncFilter struct {
	// TimelineTypes restricts timeline events to these event types.
	// Empty means all types.
	TimelineTypes []ref.EventType

	// TimelineLimit caps timeline events per response. Zero means the
	// server default.
	TimelineLimit int

	// ExcludeState suppresses state events.
	ExcludeState bool
}

// buildInlineFilter returns the inline JSON /sync filter scoped to
// roomID with filter's restrictions merged in.
func buildInlineFilter(roomID ref.RoomID, filter *SyncFilter) string {
	roomFilter := map[string]any{
		"rooms": []string{roomID.String()},
	}

	if filter != nil {
		timeline := map[string]any{}
		if len(filter.TimelineTypes) > 0 {
			timeline["types"] = filter.TimelineTypes
		}
		if filter.TimelineLimit > 0 {
			timeline["limit"] = filter.TimelineLimit
		}
		if len(timeline) > 0 {
			roomFilter["timeline"] = timeline
		}
		if filter.ExcludeState {
			roomFilter["state"] = map[string]any{"types": []string{}}
		}
	}

	top := map[string]any{
		"room":         roomFilter,
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}

// RoomWatcher reads one room's /sync stream forward from a captured
// position. Create it BEFORE the action whose response you wait for;
// nothing that arrives after the capture is missed.
//
// Events are consumed in order. WaitForEvent returns the first event
// that matches and discards the non-matching events before it, so the
// cursor only moves forward. Events after the match stay buffered for
// the next call.
//
// Not safe for concurrent use. For fan-out, create one watcher per
// consumer: the since token travels with each request, so independent
// watchers on one Session do not interfere.
type RoomWatcher struct {
	session   Session
	roomID    ref.RoomID
	filter    string
	nextBatch string
	pending   []Event
	logger    *slog.Logger
}

// WatchRoom captures the current position in the /sync stream with an
// immediate (timeout 0) sync. The watcher only sees later events.
func WatchRoom(ctx context.Context, session Session, roomID ref.RoomID, filter *SyncFilter, logger *slog.Logger) (*RoomWatcher, error) {
	if roomID.IsZero() {
		return nil, fmt.Errorf("messaging: WatchRoom requires a room ID")
	}
	if logger == nil {
		logger = slog.Default()
	}
	inlineFilter := buildInlineFilter(roomID, filter)
	response, err := session.Sync(ctx, SyncOptions{
		SetTimeout: true,
		Timeout:    0,
		Filter:     inlineFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: initial sync for room watch: %w", err)
	}
	return &RoomWatcher{
		session:   session,
		roomID:    roomID,
		filter:    inlineFilter,
		nextBatch: response.NextBatch,
		logger:    logger,
	}, nil
}

// maxSyncRetries is how many consecutive /sync failures WaitForEvent
// tolerates before giving up.
const maxSyncRetries = 5

// longPollTimeout is the server-side hold, in milliseconds, of a
// normal /sync.
const longPollTimeout = 30000

// retryTimeout is the server-side hold after a failed /sync, short so
// the retry's round trip is the backoff.
const retryTimeout = 1000

// WaitForEvent blocks until an event satisfying predicate arrives,
// bounded by ctx. When ctx ends, the returned error wraps
// context.Cause(ctx).
func (w *RoomWatcher) WaitForEvent(ctx context.Context, predicate func(Event) bool) (Event, error) {
	if event, ok := w.take(predicate); ok {
		return event, nil
	}

	var syncRetries int
	for {
		syncTimeout := longPollTimeout
		if syncRetries > 0 {
			syncTimeout = retryTimeout
		}
		response, err := w.session.Sync(ctx, SyncOptions{
			Since:      w.nextBatch,
			SetTimeout: true,
			Timeout:    syncTimeout,
			Filter:     w.filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, fmt.Errorf("messaging: waiting for event in %s: %w", w.roomID, context.Cause(ctx))
			}
			syncRetries++
			if closer, ok := w.session.(interface{ CloseIdleConnections() }); ok {
				closer.CloseIdleConnections()
			}
			if syncRetries > maxSyncRetries {
				return Event{}, fmt.Errorf("messaging: sync failed %d consecutive times waiting for event in %s: %w",
					syncRetries, w.roomID, err)
			}
			w.logger.Debug("room watcher sync error, retrying",
				"room_id", w.roomID.String(),
				"attempt", syncRetries,
				"error", err,
			)
			continue
		}
		syncRetries = 0
		w.nextBatch = response.NextBatch

		joined, ok := response.Rooms.Join[w.roomID]
		if !ok || len(joined.State.Events)+len(joined.Timeline.Events) == 0 {
			continue
		}
		w.pending = append(w.pending, joined.State.Events...)
		w.pending = append(w.pending, joined.Timeline.Events...)

		if event, ok := w.take(predicate); ok {
			return event, nil
		}
	}
}

// take consumes pending events up to and including the first match.
func (w *RoomWatcher) take(predicate func(Event) bool) (Event, bool) {
	for i, event := range w.pending {
		if predicate(event) {
			w.pending = w.pending[i+1:]
			return event, true
		}
	}
	w.pending = w.pending[:0]
	return Event{}, false
}

// SyncPosition returns the current sync stream token.
func (w *RoomWatcher) SyncPosition() string {
	return w.nextBatch
}

// RoomID returns the watched room.
func (w *RoomWatcher) RoomID() ref.RoomID {
	return w.roomID
}
