// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package draft holds the suggestion being composed in an editing
// session.
//
// A [Record] is owned by exactly one session. It is mutated only by
// the setters, each of which assigns an already-normalized value in a
// single step, so a rendered panel always reflects exactly the edits
// confirmed so far. The ID and creation time are fixed at [New].
//
// [ParseTags] is the single tag normalization policy: split on commas,
// trim each segment, drop empty segments, keep order, duplicates and
// case. Editing tags replaces the whole collection.
//
// [Record.Digest] is a BLAKE3 keyed hash over the record's
// deterministic CBOR encoding. Stores use it as an idempotency key so a
// retried submission of the same draft is recorded once.
package draft
