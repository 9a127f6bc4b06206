// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draftstore

import (
	"context"
	"slices"
	"sync"

	"github.com/bureau-foundation/draftbot/lib/draft"
)

// Memory is an in-process Store.
type Memory struct {
	mu          sync.Mutex
	submissions []Submission
	seen        map[draft.Digest]struct{}
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[draft.Digest]struct{})}
}

// Submit implements Finalizer.
func (m *Memory) Submit(ctx context.Context, submission Submission) error {
	if err := submission.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[submission.Digest]; ok {
		return nil
	}
	m.seen[submission.Digest] = struct{}{}
	submission.Draft = submission.Draft.Clone()
	m.submissions = append(m.submissions, submission)
	return nil
}

// Recent implements Store.
func (m *Memory) Recent(ctx context.Context, limit int) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return newestFirst(m.submissions, limit), nil
}

// Submissions returns every submission in the order received.
func (m *Memory) Submissions() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.submissions)
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// newestFirst returns up to limit entries of oldestFirst in reverse.
// A non-positive limit returns everything.
func newestFirst(oldestFirst []Submission, limit int) []Submission {
	result := slices.Clone(oldestFirst)
	slices.Reverse(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
