// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is draftbot's CBOR configuration. Every binary record
// the bot writes (spool entries, the input to a draft's content digest)
// goes through this package so that the same logical value always
// produces the same bytes.
//
// Encoding uses RFC 8949 Core Deterministic Encoding: sorted map keys,
// smallest integer forms, no indefinite lengths. Types implementing
// encoding.TextMarshaler (lib/ref identifiers) encode as CBOR text
// strings. Decoding ignores unknown fields so spool files written by a
// newer build remain readable.
package codec
