// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draftstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/draftbot/lib/config"
	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Submission is a finished draft handed off for persistence.
type Submission struct {
	Draft       *draft.Record `cbor:"draft" json:"draft"`
	Room        ref.RoomID    `cbor:"room" json:"room_id"`
	Author      ref.UserID    `cbor:"author" json:"author"`
	SubmittedAt time.Time     `cbor:"submitted_at" json:"submitted_at"`
	Digest      draft.Digest  `cbor:"digest" json:"digest"`
}

// NewSubmission builds a submission of record and computes its digest.
// The caller must not modify record afterwards.
func NewSubmission(record *draft.Record, room ref.RoomID, author ref.UserID, submittedAt time.Time) (Submission, error) {
	if record == nil {
		return Submission{}, errors.New("draftstore: nil draft")
	}
	digest, err := record.Digest()
	if err != nil {
		return Submission{}, err
	}
	return Submission{
		Draft:       record,
		Room:        room,
		Author:      author,
		SubmittedAt: submittedAt.UTC(),
		Digest:      digest,
	}, nil
}

// Validate checks that every field is set.
func (s Submission) Validate() error {
	switch {
	case s.Draft == nil:
		return errors.New("draftstore: submission has no draft")
	case s.Room.IsZero():
		return errors.New("draftstore: submission has no room")
	case s.Author.IsZero():
		return errors.New("draftstore: submission has no author")
	case s.Digest.IsZero():
		return errors.New("draftstore: submission has no digest")
	}
	return nil
}

// Finalizer accepts finished drafts.
type Finalizer interface {
	// Submit records the submission. Submitting the same digest twice
	// records it once and is not an error.
	Submit(ctx context.Context, submission Submission) error
}

// Store is a Finalizer that can also list what it recorded.
type Store interface {
	Finalizer

	// Recent returns up to limit submissions, newest first.
	Recent(ctx context.Context, limit int) ([]Submission, error)

	Close() error
}

// Open creates the store selected by cfg.Backend. The Postgres backend
// is migrated before it is returned.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemory(), nil

	case config.BackendSpool:
		spool, err := OpenSpool(cfg.SpoolPath, cfg.SpoolCompression)
		if err != nil {
			return nil, err
		}
		logger.Info("draft spool opened",
			"path", cfg.SpoolPath,
			"compression", spool.Compression(),
			"existing", spool.Len(),
		)
		return spool, nil

	case config.BackendPostgres:
		store, err := OpenPostgres(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("draftstore: unknown backend %q", cfg.Backend)
}
