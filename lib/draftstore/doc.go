// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package draftstore records finished drafts.
//
// An editing session hands its confirmed draft to a [Finalizer] as a
// [Submission]. Every submission carries the draft's content digest;
// stores treat a repeated digest as already recorded, so retrying a
// submission never duplicates it.
//
// Three backends implement [Store]:
//
//   - [Memory] keeps submissions in process. Used by tests and the
//     local terminal mode.
//   - [Spool] appends each submission to a file as a deterministic CBOR
//     record in its own zstd frame, or lz4 frame when configured.
//     [ReadSpool] decodes a spool of either format back.
//   - [Postgres] inserts into a suggestions table through a pgx
//     connection pool.
//
// [Open] selects the backend from configuration.
package draftstore
