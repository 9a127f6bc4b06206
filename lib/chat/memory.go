// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

var (
	// ErrUnknownMessage is returned when editing or deleting a message
	// that does not exist or was already deleted.
	ErrUnknownMessage = errors.New("chat: unknown message")

	// ErrConversationClosed is returned by operations on a closed
	// conversation.
	ErrConversationClosed = errors.New("chat: conversation closed")
)

// Op names a Memory operation for failure injection.
type Op string

const (
	OpOpen        Op = "open"
	OpSend        Op = "send"
	OpEdit        Op = "edit"
	OpDelete      Op = "delete"
	OpAcknowledge Op = "acknowledge"
	OpWaitAction  Op = "wait_action"
	OpWaitReply   Op = "wait_reply"
)

// RenderKind says how a Render changed the room.
type RenderKind int

const (
	// RenderSent is a new panel message.
	RenderSent RenderKind = iota + 1
	// RenderEdited is an in-place panel edit.
	RenderEdited
	// RenderAcknowledged is a panel edit answering an action.
	RenderAcknowledged
	// RenderDeleted is a message deletion. View is empty.
	RenderDeleted
)

func (k RenderKind) String() string {
	switch k {
	case RenderSent:
		return "sent"
	case RenderEdited:
		return "edited"
	case RenderAcknowledged:
		return "acknowledged"
	case RenderDeleted:
		return "deleted"
	}
	return fmt.Sprintf("RenderKind(%d)", int(k))
}

// Render is one observable write to a room.
type Render struct {
	Kind    RenderKind
	Message MessageHandle
	View    panel.View
}

// Memory is an in-process Transport. All methods are safe for
// concurrent use.
type Memory struct {
	mu sync.Mutex

	nextEvent     int
	conversations map[*memoryConversation]struct{}
	listeners     map[int]func(TextEvent)
	nextListener  int
	messages      map[ref.EventID]*memoryMessage
	failures      map[Op][]error

	renders        []Render
	rendersChanged chan struct{}

	listenersChanged chan struct{}
}

type memoryMessage struct {
	room    ref.RoomID
	panel   bool
	deleted bool
}

// memoryEvent is a queued action or reply. Exactly one of action, text
// and err is set; err carries a decode failure.
type memoryEvent struct {
	author ref.UserID
	panel  MessageHandle
	action *ActionEvent
	text   *TextEvent
	err    error
}

// NewMemory returns an empty in-process transport.
func NewMemory() *Memory {
	return &Memory{
		conversations:  make(map[*memoryConversation]struct{}),
		listeners:      make(map[int]func(TextEvent)),
		messages:       make(map[ref.EventID]*memoryMessage),
		failures:       make(map[Op][]error),
		rendersChanged: make(chan struct{}),

		listenersChanged: make(chan struct{}),
	}
}

// Open implements Transport.
func (m *Memory) Open(ctx context.Context, room ref.RoomID) (Conversation, error) {
	if err := m.takeFailure(OpOpen); err != nil {
		return nil, err
	}
	conversation := &memoryConversation{
		memory: m,
		room:   room,
		notify: make(chan struct{}),
	}
	m.mu.Lock()
	m.conversations[conversation] = struct{}{}
	m.mu.Unlock()
	return conversation, nil
}

// Listen implements Transport. It returns nil when ctx is cancelled.
func (m *Memory) Listen(ctx context.Context, handler func(TextEvent)) error {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = handler
	close(m.listenersChanged)
	m.listenersChanged = make(chan struct{})
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	delete(m.listeners, id)
	m.mu.Unlock()
	return nil
}

// FailNext makes the next call of op return err. Calls queue: each
// FailNext affects exactly one future call.
func (m *Memory) FailNext(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

func (m *Memory) takeFailure(op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	queued := m.failures[op]
	if len(queued) == 0 {
		return nil
	}
	m.failures[op] = queued[1:]
	return queued[0]
}

// PushReply posts a text message from author. Every open conversation
// in room and every listener sees it.
func (m *Memory) PushReply(room ref.RoomID, author ref.UserID, body string) TextEvent {
	m.mu.Lock()
	event := TextEvent{
		Room:    room,
		EventID: m.newEventIDLocked(),
		Author:  author,
		Body:    body,
	}
	m.messages[event.EventID] = &memoryMessage{room: room}
	m.broadcastLocked(room, memoryEvent{author: author, text: &event})
	listeners := make([]func(TextEvent), 0, len(m.listeners))
	for _, listener := range m.listeners {
		listeners = append(listeners, listener)
	}
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
	return event
}

// PushAction presses action on the panel identified by handle.
func (m *Memory) PushAction(handle MessageHandle, author ref.UserID, action panel.Action) {
	m.PushReaction(handle, author, action.Key())
}

// PushReaction reacts to the panel with key. Keys that name no action
// surface as a *ProtocolError from the matching wait.
func (m *Memory) PushReaction(handle MessageHandle, author ref.UserID, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queued := memoryEvent{author: author, panel: handle}
	action, err := panel.ActionForKey(key)
	if err != nil {
		queued.err = &ProtocolError{Room: handle.Room, Author: author, Detail: "reaction on panel " + handle.EventID.String(), Err: err}
	} else {
		queued.action = &ActionEvent{
			Panel:   handle,
			Action:  action,
			Author:  author,
			EventID: m.newEventIDLocked(),
		}
	}
	m.broadcastLocked(handle.Room, queued)
}

func (m *Memory) broadcastLocked(room ref.RoomID, event memoryEvent) {
	for conversation := range m.conversations {
		if conversation.room != room {
			continue
		}
		conversation.pending = append(conversation.pending, event)
		close(conversation.notify)
		conversation.notify = make(chan struct{})
	}
}

func (m *Memory) newEventIDLocked() ref.EventID {
	m.nextEvent++
	return ref.MustParseEventID(fmt.Sprintf("$mem-%d", m.nextEvent))
}

func (m *Memory) recordLocked(render Render) {
	m.renders = append(m.renders, render)
	close(m.rendersChanged)
	m.rendersChanged = make(chan struct{})
}

// Renders returns every render so far, oldest first.
func (m *Memory) Renders() []Render {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.renders)
}

// WaitRenders blocks until at least n renders have happened and returns
// all of them.
func (m *Memory) WaitRenders(ctx context.Context, n int) ([]Render, error) {
	for {
		m.mu.Lock()
		if len(m.renders) >= n {
			renders := slices.Clone(m.renders)
			m.mu.Unlock()
			return renders, nil
		}
		changed := m.rendersChanged
		m.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return nil, fmt.Errorf("chat: waiting for %d renders: %w", n, ctx.Err())
		}
	}
}

// WaitListeners blocks until at least n Listen calls are registered.
func (m *Memory) WaitListeners(ctx context.Context, n int) error {
	for {
		m.mu.Lock()
		if len(m.listeners) >= n {
			m.mu.Unlock()
			return nil
		}
		changed := m.listenersChanged
		m.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return fmt.Errorf("chat: waiting for %d listeners: %w", n, ctx.Err())
		}
	}
}

// OpenConversations returns how many conversations are open.
func (m *Memory) OpenConversations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}

// Deleted reports whether the message was deleted.
func (m *Memory) Deleted(eventID ref.EventID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	message, ok := m.messages[eventID]
	return ok && message.deleted
}

type memoryConversation struct {
	memory *Memory
	room   ref.RoomID

	// Guarded by memory.mu.
	pending []memoryEvent
	notify  chan struct{}
	closed  bool
}

func (c *memoryConversation) SendPanel(ctx context.Context, view panel.View) (MessageHandle, error) {
	if err := c.memory.takeFailure(OpSend); err != nil {
		return MessageHandle{}, err
	}
	c.memory.mu.Lock()
	defer c.memory.mu.Unlock()
	if c.closed {
		return MessageHandle{}, ErrConversationClosed
	}
	handle := MessageHandle{Room: c.room, EventID: c.memory.newEventIDLocked()}
	c.memory.messages[handle.EventID] = &memoryMessage{room: c.room, panel: true}
	c.memory.recordLocked(Render{Kind: RenderSent, Message: handle, View: view})
	return handle, nil
}

func (c *memoryConversation) EditPanel(ctx context.Context, handle MessageHandle, view panel.View) error {
	if err := c.memory.takeFailure(OpEdit); err != nil {
		return err
	}
	return c.editLocked(handle, view, RenderEdited)
}

func (c *memoryConversation) AcknowledgeAction(ctx context.Context, event ActionEvent, view panel.View) error {
	if err := c.memory.takeFailure(OpAcknowledge); err != nil {
		return err
	}
	return c.editLocked(event.Panel, view, RenderAcknowledged)
}

func (c *memoryConversation) editLocked(handle MessageHandle, view panel.View, kind RenderKind) error {
	c.memory.mu.Lock()
	defer c.memory.mu.Unlock()
	if c.closed {
		return ErrConversationClosed
	}
	message, ok := c.memory.messages[handle.EventID]
	if !ok || !message.panel || message.deleted || message.room != handle.Room {
		return fmt.Errorf("%w: panel %s", ErrUnknownMessage, handle)
	}
	c.memory.recordLocked(Render{Kind: kind, Message: handle, View: view})
	return nil
}

func (c *memoryConversation) DeleteMessage(ctx context.Context, handle MessageHandle) error {
	if err := c.memory.takeFailure(OpDelete); err != nil {
		return err
	}
	c.memory.mu.Lock()
	defer c.memory.mu.Unlock()
	if c.closed {
		return ErrConversationClosed
	}
	message, ok := c.memory.messages[handle.EventID]
	if !ok || message.deleted || message.room != handle.Room {
		return fmt.Errorf("%w: %s", ErrUnknownMessage, handle)
	}
	message.deleted = true
	c.memory.recordLocked(Render{Kind: RenderDeleted, Message: handle})
	return nil
}

func (c *memoryConversation) WaitForAction(ctx context.Context, handle MessageHandle, author ref.UserID) (ActionEvent, error) {
	if err := c.memory.takeFailure(OpWaitAction); err != nil {
		return ActionEvent{}, err
	}
	event, err := c.next(ctx, func(event memoryEvent) bool {
		return event.text == nil && event.author == author && event.panel == handle
	})
	if err != nil {
		return ActionEvent{}, err
	}
	if event.err != nil {
		return ActionEvent{}, event.err
	}
	return *event.action, nil
}

func (c *memoryConversation) WaitForReply(ctx context.Context, author ref.UserID) (TextEvent, error) {
	if err := c.memory.takeFailure(OpWaitReply); err != nil {
		return TextEvent{}, err
	}
	event, err := c.next(ctx, func(event memoryEvent) bool {
		return event.text != nil && event.author == author
	})
	if err != nil {
		return TextEvent{}, err
	}
	return *event.text, nil
}

// next consumes pending events until one satisfies match. Events that
// do not match are dropped: the cursor only moves forward.
func (c *memoryConversation) next(ctx context.Context, match func(memoryEvent) bool) (memoryEvent, error) {
	for {
		c.memory.mu.Lock()
		if c.closed {
			c.memory.mu.Unlock()
			return memoryEvent{}, ErrConversationClosed
		}
		for len(c.pending) > 0 {
			event := c.pending[0]
			c.pending = c.pending[1:]
			if match(event) {
				c.memory.mu.Unlock()
				return event, nil
			}
		}
		notify := c.notify
		c.memory.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return memoryEvent{}, context.Cause(ctx)
		}
	}
}

func (c *memoryConversation) Close() error {
	c.memory.mu.Lock()
	defer c.memory.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = nil
	close(c.notify)
	delete(c.memory.conversations, c)
	return nil
}
