// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package editsession

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/draftbot/lib/chat"
	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/panel"
)

// edit runs the sub-dialog for field, started by press. On success the
// panel shows the Confirm screen and the draft holds the new value. A
// returned error is either ErrTimedOut, left for the caller to render,
// or a transport failure.
func (r *run) edit(ctx context.Context, press chat.ActionEvent, field panel.Field) error {
	if err := r.conversation.AcknowledgeAction(ctx, press, r.view(panel.PromptScreen(field))); err != nil {
		return fmt.Errorf("editsession: showing %s prompt: %w", field, err)
	}

	reply, err := await(ctx, r.waiter, func(ctx context.Context) (chat.TextEvent, error) {
		return r.conversation.WaitForReply(ctx, r.author)
	})
	if err != nil {
		if errors.Is(err, ErrTimedOut) {
			return err
		}
		return fmt.Errorf("editsession: waiting for %s reply: %w", field, err)
	}

	applyField(r.record, field, strings.TrimSpace(reply.Body))
	r.logger.Debug("field updated", "field", field.Name())

	if err := r.conversation.DeleteMessage(ctx, reply.Handle()); err != nil {
		r.logger.Warn("deleting reply failed", "reply", reply.EventID.String(), "error", err)
	}

	if err := r.conversation.EditPanel(ctx, r.panel, r.view(panel.ConfirmScreen(field))); err != nil {
		return fmt.Errorf("editsession: showing %s confirmation: %w", field, err)
	}
	return nil
}

// applyField assigns value, already trimmed, to field.
func applyField(record *draft.Record, field panel.Field, value string) {
	switch field {
	case panel.Title:
		record.SetTitle(value)
	case panel.Description:
		record.SetDescription(value)
	case panel.Tags:
		record.SetTags(draft.ParseTags(value))
	default:
		panic(fmt.Sprintf("editsession: no setter for field %v", field))
	}
}
