// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draftstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/codec"
	"github.com/bureau-foundation/draftbot/lib/config"
	"github.com/bureau-foundation/draftbot/lib/draft"
)

// Spool is an append-only file of submissions. Each submission is one
// CBOR record compressed as its own zstd or lz4 frame, so a crash
// mid-write damages at most the final frame.
type Spool struct {
	mu          sync.Mutex
	path        string
	compression string
	file        *os.File
	frames      frameWriter
	recorded    []Submission
	seen        map[draft.Digest]struct{}
}

// OpenSpool opens or creates the spool at path. compression (zstd or
// lz4; empty means zstd) applies to a new or empty spool; an existing
// spool in the other format is an error. Existing records are read so
// that resubmitting a recorded digest stays a no-op across restarts.
func OpenSpool(path, compression string) (*Spool, error) {
	if path == "" {
		return nil, errors.New("draftstore: spool path is empty")
	}
	if compression == "" {
		compression = config.CompressionZstd
	}
	existing, existingCompression, err := readSpoolFile(path)
	if err != nil {
		return nil, err
	}
	if existingCompression != "" && existingCompression != compression {
		return nil, fmt.Errorf("draftstore: spool %s holds %s frames, configured for %s", path, existingCompression, compression)
	}
	frames, err := newFrameWriter(compression)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		frames.close()
		return nil, fmt.Errorf("draftstore: opening spool: %w", err)
	}

	spool := &Spool{
		path:        path,
		compression: compression,
		file:        file,
		frames:      frames,
		recorded:    existing,
		seen:        make(map[draft.Digest]struct{}, len(existing)),
	}
	for _, submission := range existing {
		spool.seen[submission.Digest] = struct{}{}
	}
	return spool, nil
}

// Submit implements Finalizer. The frame is synced to disk before
// Submit returns.
func (s *Spool) Submit(ctx context.Context, submission Submission) error {
	if err := submission.Validate(); err != nil {
		return err
	}
	record, err := codec.Marshal(submission)
	if err != nil {
		return fmt.Errorf("draftstore: encoding submission %s: %w", submission.Digest, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.New("draftstore: spool is closed")
	}
	if _, ok := s.seen[submission.Digest]; ok {
		return nil
	}

	frame, err := s.frames.encodeFrame(record)
	if err != nil {
		return err
	}
	if _, err := s.file.Write(frame); err != nil {
		return fmt.Errorf("draftstore: writing spool %s: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("draftstore: syncing spool %s: %w", s.path, err)
	}
	s.seen[submission.Digest] = struct{}{}
	submission.Draft = submission.Draft.Clone()
	s.recorded = append(s.recorded, submission)
	return nil
}

// Recent implements Store.
func (s *Spool) Recent(ctx context.Context, limit int) ([]Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.recorded, limit), nil
}

// Compression returns the spool's frame format.
func (s *Spool) Compression() string { return s.compression }

// Len returns the number of recorded submissions.
func (s *Spool) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recorded)
}

// Close implements Store.
func (s *Spool) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.frames.close()
	err := s.file.Close()
	s.file = nil
	return err
}

// ReadSpool decodes every submission in the spool at path, oldest
// first, whichever frame format it was written with. A missing file is
// an empty spool. If the final frame is damaged, the records before it
// are returned along with the error.
func ReadSpool(path string) ([]Submission, error) {
	submissions, _, err := readSpoolFile(path)
	return submissions, err
}

func readSpoolFile(path string) ([]Submission, string, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("draftstore: opening spool: %w", err)
	}
	defer file.Close()
	return decodeSpool(file)
}
