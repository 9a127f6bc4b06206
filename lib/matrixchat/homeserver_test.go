// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package matrixchat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/ref"
	"github.com/bureau-foundation/draftbot/messaging"
)

// fakeHomeserver is an in-memory messaging.Session. Every room shares
// one stream of entries; a /sync token is an index into it, so
// independent watchers each read forward from their own position.
type fakeHomeserver struct {
	self ref.UserID

	mu       sync.Mutex
	stream   []streamEntry
	calls    []call
	nextID   int
	syncs    int
	failSync map[int]error
	failNext map[string]error
	changed  chan struct{}
}

type streamEntry struct {
	room   ref.RoomID
	event  *messaging.Event
	invite bool
}

// call records one write the bot made.
type call struct {
	op      string
	room    ref.RoomID
	target  ref.EventID
	key     string
	content messaging.MessageContent
	result  ref.EventID
}

func newHomeserver(self ref.UserID) *fakeHomeserver {
	return &fakeHomeserver{
		self:     self,
		failSync: make(map[int]error),
		failNext: make(map[string]error),
		changed:  make(chan struct{}),
	}
}

func (h *fakeHomeserver) notifyLocked() {
	close(h.changed)
	h.changed = make(chan struct{})
}

func (h *fakeHomeserver) appendLocked(entry streamEntry) {
	h.stream = append(h.stream, entry)
	h.notifyLocked()
}

func (h *fakeHomeserver) newEventIDLocked() ref.EventID {
	h.nextID++
	return ref.MustParseEventID(fmt.Sprintf("$ev-%d", h.nextID))
}

func (h *fakeHomeserver) takeFailureLocked(op string) error {
	err := h.failNext[op]
	delete(h.failNext, op)
	return err
}

// push appends an event from another user and returns its ID.
func (h *fakeHomeserver) push(room ref.RoomID, sender ref.UserID, eventType ref.EventType, content any) ref.EventID {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.newEventIDLocked()
	h.appendLocked(streamEntry{room: room, event: &messaging.Event{
		EventID: id,
		Type:    eventType,
		Sender:  sender,
		Content: contentMap(content),
		RoomID:  room,
	}})
	return id
}

func (h *fakeHomeserver) pushText(room ref.RoomID, sender ref.UserID, body string) ref.EventID {
	return h.push(room, sender, ref.EventTypeMessage, messaging.NewTextMessage(body))
}

func (h *fakeHomeserver) pushReaction(room ref.RoomID, sender ref.UserID, target ref.EventID, key string) ref.EventID {
	return h.push(room, sender, ref.EventTypeReaction, messaging.NewReaction(target, key))
}

func (h *fakeHomeserver) invite(room ref.RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.appendLocked(streamEntry{room: room, invite: true})
}

// waitForSyncs blocks until n Sync calls have started.
func (h *fakeHomeserver) waitForSyncs(ctx context.Context, n int) error {
	for {
		h.mu.Lock()
		count, changed := h.syncs, h.changed
		h.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitForCall blocks until the bot has made n calls of op and returns
// the nth.
func (h *fakeHomeserver) waitForCall(ctx context.Context, op string, n int) (call, error) {
	for {
		h.mu.Lock()
		var matched []call
		for _, c := range h.calls {
			if c.op == op {
				matched = append(matched, c)
			}
		}
		changed := h.changed
		h.mu.Unlock()
		if len(matched) >= n {
			return matched[n-1], nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return call{}, ctx.Err()
		}
	}
}

func (h *fakeHomeserver) recorded() []call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]call(nil), h.calls...)
}

func (h *fakeHomeserver) UserID() ref.UserID { return h.self }
func (h *fakeHomeserver) Close() error       { return nil }

func (h *fakeHomeserver) WhoAmI(ctx context.Context) (ref.UserID, error) { return h.self, nil }

func (h *fakeHomeserver) JoinRoom(ctx context.Context, room ref.RoomID) (ref.RoomID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailureLocked("join"); err != nil {
		return ref.RoomID{}, err
	}
	h.calls = append(h.calls, call{op: "join", room: room})
	h.notifyLocked()
	return room, nil
}

func (h *fakeHomeserver) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) { return nil, nil }

func (h *fakeHomeserver) SendEvent(ctx context.Context, room ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.takeFailureLocked(string(eventType)); err != nil {
		return ref.EventID{}, err
	}
	id := h.newEventIDLocked()
	h.stream = append(h.stream, streamEntry{room: room, event: &messaging.Event{
		EventID: id,
		Type:    eventType,
		Sender:  h.self,
		Content: contentMap(content),
		RoomID:  room,
	}})
	h.notifyLocked()
	return id, nil
}

func (h *fakeHomeserver) record(op string, room ref.RoomID, c call, send func() (ref.EventID, error)) (ref.EventID, error) {
	h.mu.Lock()
	if err := h.takeFailureLocked(op); err != nil {
		h.mu.Unlock()
		return ref.EventID{}, err
	}
	h.mu.Unlock()

	id, err := send()
	if err != nil {
		return id, err
	}
	c.op, c.room, c.result = op, room, id
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.notifyLocked()
	h.mu.Unlock()
	return id, nil
}

func (h *fakeHomeserver) SendMessage(ctx context.Context, room ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	return h.record("send", room, call{content: content}, func() (ref.EventID, error) {
		return h.SendEvent(ctx, room, ref.EventTypeMessage, content)
	})
}

func (h *fakeHomeserver) EditMessage(ctx context.Context, room ref.RoomID, target ref.EventID, replacement messaging.MessageContent) (ref.EventID, error) {
	edit := messaging.NewEdit(target, replacement)
	return h.record("edit", room, call{target: target, content: edit}, func() (ref.EventID, error) {
		return h.SendEvent(ctx, room, ref.EventTypeMessage, edit)
	})
}

func (h *fakeHomeserver) SendReaction(ctx context.Context, room ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	return h.record("react", room, call{target: target, key: key}, func() (ref.EventID, error) {
		return h.SendEvent(ctx, room, ref.EventTypeReaction, messaging.NewReaction(target, key))
	})
}

func (h *fakeHomeserver) RedactEvent(ctx context.Context, room ref.RoomID, target ref.EventID, reason string) (ref.EventID, error) {
	return h.record("redact", room, call{target: target}, func() (ref.EventID, error) {
		return h.SendEvent(ctx, room, ref.EventTypeRedaction, messaging.RedactRequest{Reason: reason})
	})
}

// Sync returns every entry after options.Since. An empty Since is an
// initial sync and returns the whole stream as backlog. With a nonzero
// timeout and nothing new, Sync blocks until something arrives or ctx
// ends.
func (h *fakeHomeserver) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	h.mu.Lock()
	h.syncs++
	number := h.syncs
	h.notifyLocked()
	if err, ok := h.failSync[number]; ok {
		h.mu.Unlock()
		return nil, err
	}
	h.mu.Unlock()

	position := 0
	if options.Since != "" {
		parsed, err := strconv.Atoi(options.Since)
		if err != nil {
			return nil, fmt.Errorf("bad since token %q", options.Since)
		}
		position = parsed
	}

	for {
		h.mu.Lock()
		entries := h.stream[position:]
		end := len(h.stream)
		changed := h.changed
		h.mu.Unlock()

		if len(entries) > 0 || options.Since == "" || options.Timeout == 0 {
			return buildResponse(entries, end), nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func buildResponse(entries []streamEntry, end int) *messaging.SyncResponse {
	response := &messaging.SyncResponse{
		NextBatch: strconv.Itoa(end),
		Rooms: messaging.RoomsSection{
			Join:   make(map[ref.RoomID]messaging.JoinedRoom),
			Invite: make(map[ref.RoomID]messaging.InvitedRoom),
		},
	}
	for _, entry := range entries {
		if entry.invite {
			response.Rooms.Invite[entry.room] = messaging.InvitedRoom{}
			continue
		}
		joined := response.Rooms.Join[entry.room]
		joined.Timeline.Events = append(joined.Timeline.Events, *entry.event)
		response.Rooms.Join[entry.room] = joined
	}
	return response
}

func contentMap(content any) map[string]any {
	data, err := json.Marshal(content)
	if err != nil {
		panic(err)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		panic(err)
	}
	return result
}

var _ messaging.Session = (*fakeHomeserver)(nil)
