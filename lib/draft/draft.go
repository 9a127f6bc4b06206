// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draft

import (
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/bureau-foundation/draftbot/lib/clock"
)

// Initial values of a fresh draft.
const (
	DefaultTitle       = "New Suggestion"
	DefaultDescription = "Description"
)

// Record is a suggestion draft.
type Record struct {
	// ID is a display label shown in the panel footer. Random and
	// best-effort unique; nothing relies on uniqueness.
	ID uint32 `cbor:"id" json:"id"`

	Title       string   `cbor:"title" json:"title"`
	Description string   `cbor:"description" json:"description"`
	Tags        []string `cbor:"tags" json:"tags"`

	// CreatedAt is always UTC.
	CreatedAt time.Time `cbor:"created_at" json:"created_at"`
}

// IDSource produces draft IDs. Tests inject a fixed sequence.
type IDSource func() uint32

// RandomID draws a uniformly random ID.
func RandomID() uint32 { return rand.Uint32() }

// New returns a draft with the default title and description, no tags,
// an ID from ids, and CreatedAt from clk in UTC. A nil ids uses
// RandomID.
func New(clk clock.Clock, ids IDSource) *Record {
	if ids == nil {
		ids = RandomID
	}
	return &Record{
		ID:          ids(),
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Tags:        []string{},
		CreatedAt:   clk.Now().UTC(),
	}
}

// SetTitle assigns the title.
func (r *Record) SetTitle(title string) { r.Title = title }

// SetDescription assigns the description.
func (r *Record) SetDescription(description string) { r.Description = description }

// SetTags replaces the tag collection. The record keeps its own copy.
func (r *Record) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	r.Tags = slices.Clone(tags)
}

// TagSummary is "No tags" when the collection is empty, otherwise the
// tags joined with ", ".
func (r *Record) TagSummary() string {
	if len(r.Tags) == 0 {
		return "No tags"
	}
	return strings.Join(r.Tags, ", ")
}

// Clone returns a deep copy, used to hand a snapshot to a store while
// the session keeps its own record.
func (r *Record) Clone() *Record {
	clone := *r
	clone.Tags = slices.Clone(r.Tags)
	if clone.Tags == nil {
		clone.Tags = []string{}
	}
	return &clone
}

// ParseTags splits raw input into tags. Segments are separated by
// commas and trimmed; empty segments are dropped. Order, duplicates and
// case are preserved. Empty input yields an empty, non-nil slice.
func ParseTags(input string) []string {
	tags := []string{}
	for _, segment := range strings.Split(input, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		tags = append(tags, segment)
	}
	return tags
}
