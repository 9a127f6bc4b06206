// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/panel"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// TerminalConfig configures a Terminal. Every field is required.
type TerminalConfig struct {
	Memory   *chat.Memory
	Room     ref.RoomID
	Author   ref.UserID
	Renderer *Renderer
	Output   io.Writer
}

// Terminal plays one user in one room of a chat.Memory transport. It
// prints every render in the room and turns typed lines into actions
// (when the latest panel offers any) or text messages (otherwise).
type Terminal struct {
	memory   *chat.Memory
	room     ref.RoomID
	author   ref.UserID
	renderer *Renderer

	outputMu sync.Mutex
	output   io.Writer
	printed  int
}

// NewTerminal validates config and returns a Terminal.
func NewTerminal(config TerminalConfig) (*Terminal, error) {
	switch {
	case config.Memory == nil:
		return nil, errors.New("console: Memory is required")
	case config.Room.IsZero():
		return nil, errors.New("console: Room is required")
	case config.Author.IsZero():
		return nil, errors.New("console: Author is required")
	case config.Renderer == nil:
		return nil, errors.New("console: Renderer is required")
	case config.Output == nil:
		return nil, errors.New("console: Output is required")
	}
	return &Terminal{
		memory:   config.Memory,
		room:     config.Room,
		author:   config.Author,
		renderer: config.Renderer,
		output:   config.Output,
	}, nil
}

// Run prints renders and forwards lines read from input until ctx is
// cancelled or input ends. Renders that happened before ctx was
// cancelled are printed before Run returns.
func (t *Terminal) Run(ctx context.Context, input io.Reader) error {
	followCtx, stopFollowing := context.WithCancel(ctx)
	followed := make(chan struct{})
	go func() {
		defer close(followed)
		t.follow(followCtx)
	}()
	defer func() {
		stopFollowing()
		<-followed
	}()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("console: reading input: %w", err)
			}
			return nil
		case line := <-lines:
			t.handleLine(line)
		}
	}
}

// follow prints renders as they happen. On cancellation it prints
// whatever is left and returns.
func (t *Terminal) follow(ctx context.Context) {
	for {
		t.outputMu.Lock()
		next := t.printed + 1
		t.outputMu.Unlock()

		_, err := t.memory.WaitRenders(ctx, next)
		t.Flush()
		if err != nil {
			return
		}
	}
}

// Flush prints every render not printed yet. Run calls it as renders
// arrive; call it after Run returns to show renders that happened
// since (such as panels of sessions aborted at shutdown).
func (t *Terminal) Flush() {
	renders := t.memory.Renders()

	t.outputMu.Lock()
	defer t.outputMu.Unlock()
	for _, render := range renders[min(t.printed, len(renders)):] {
		if render.Message.Room != t.room {
			continue
		}
		if render.Kind == chat.RenderDeleted {
			fmt.Fprintln(t.output, t.renderer.Deleted())
			continue
		}
		fmt.Fprintln(t.output, t.renderer.Render(render.View))
	}
	t.printed = max(t.printed, len(renders))
}

func (t *Terminal) println(text string) {
	t.outputMu.Lock()
	defer t.outputMu.Unlock()
	fmt.Fprintln(t.output, text)
}

// handleLine decides what a typed line means from the room's latest
// panel, read from the transport rather than from what has been
// printed so far.
func (t *Terminal) handleLine(line string) {
	view, handle, ok := t.latestPanel()
	if !ok || len(view.Actions) == 0 {
		t.memory.PushReply(t.room, t.author, line)
		return
	}
	action, ok := ParseInput(view, line)
	if !ok {
		hint := fmt.Sprintf("Choose 1-%d.", len(view.Actions))
		if suggestion, found := SuggestAction(view, line); found {
			hint = fmt.Sprintf("Choose 1-%d (did you mean %q?).", len(view.Actions), suggestion.Label())
		}
		t.println(t.renderer.faint.Render(hint))
		return
	}
	t.memory.PushAction(handle, t.author, action)
}

func (t *Terminal) latestPanel() (panel.View, chat.MessageHandle, bool) {
	renders := t.memory.Renders()
	for i := len(renders) - 1; i >= 0; i-- {
		render := renders[i]
		if render.Message.Room != t.room || render.Kind == chat.RenderDeleted {
			continue
		}
		return render.View, render.Message, true
	}
	return panel.View{}, chat.MessageHandle{}, false
}
