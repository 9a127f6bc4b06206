// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draftstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/ref"
)

// Postgres stores submissions in the suggestions table.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("draftstore: postgres DSN is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("draftstore: parsing postgres DSN: %w", err)
	}
	// Sessions submit at most once each; a small pool is plenty.
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("draftstore: creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("draftstore: pinging postgres: %w", err)
	}
	logger.Info("postgres pool created",
		"host", poolConfig.ConnConfig.Host,
		"database", poolConfig.ConnConfig.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return &Postgres{pool: pool, logger: logger}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS suggestions (
	digest       TEXT PRIMARY KEY,
	draft_id     BIGINT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	tags         TEXT[] NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	room_id      TEXT NOT NULL,
	author       TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS suggestions_submitted_at ON suggestions (submitted_at DESC);
`

// Migrate creates the suggestions table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("draftstore: migrating schema: %w", err)
	}
	return nil
}

// Submit implements Finalizer.
func (p *Postgres) Submit(ctx context.Context, submission Submission) error {
	if err := submission.Validate(); err != nil {
		return err
	}
	record := submission.Draft
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO suggestions (digest, draft_id, title, description, tags, created_at, room_id, author, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (digest) DO NOTHING`,
		submission.Digest.String(), int64(record.ID), record.Title, record.Description, record.Tags,
		record.CreatedAt, submission.Room.String(), submission.Author.String(), submission.SubmittedAt)
	if err != nil {
		return fmt.Errorf("draftstore: inserting suggestion %d: %w", record.ID, err)
	}
	if tag.RowsAffected() == 0 {
		p.logger.Debug("suggestion already recorded", "digest", submission.Digest.String())
	}
	return nil
}

// Recent implements Store.
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.pool.Query(ctx,
		`SELECT digest, draft_id, title, description, tags, created_at, room_id, author, submitted_at
		 FROM suggestions ORDER BY submitted_at DESC, digest LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("draftstore: querying suggestions: %w", err)
	}
	submissions, err := pgx.CollectRows(rows, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("draftstore: reading suggestions: %w", err)
	}
	return submissions, nil
}

func scanSubmission(row pgx.CollectableRow) (Submission, error) {
	var (
		digest, room, author string
		draftID              int64
		record               draft.Record
		submittedAt          time.Time
	)
	if err := row.Scan(&digest, &draftID, &record.Title, &record.Description, &record.Tags,
		&record.CreatedAt, &room, &author, &submittedAt); err != nil {
		return Submission{}, err
	}
	record.ID = uint32(draftID)
	record.CreatedAt = record.CreatedAt.UTC()

	parsedDigest, err := draft.ParseDigest(digest)
	if err != nil {
		return Submission{}, err
	}
	roomID, err := ref.ParseRoomID(room)
	if err != nil {
		return Submission{}, err
	}
	userID, err := ref.ParseUserID(author)
	if err != nil {
		return Submission{}, err
	}
	return Submission{
		Draft:       &record,
		Room:        roomID,
		Author:      userID,
		SubmittedAt: submittedAt.UTC(),
		Digest:      parsedDigest,
	}, nil
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
