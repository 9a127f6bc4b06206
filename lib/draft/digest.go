// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draft

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/draftbot/lib/codec"
)

// Digest is a 32-byte BLAKE3 content hash of a Record.
type Digest [32]byte

// digestDomainKey separates draft digests from any other BLAKE3 use.
// Changing it invalidates every stored digest.
var digestDomainKey = [32]byte{
	'd', 'r', 'a', 'f', 't', 'b', 'o', 't', '.', 'd', 'r', 'a', 'f', 't', '.',
	'd', 'i', 'g', 'e', 's', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Digest hashes the deterministic CBOR encoding of the record. Two
// records with equal fields always produce the same digest.
func (r *Record) Digest() (Digest, error) {
	encoded, err := codec.Marshal(r)
	if err != nil {
		return Digest{}, fmt.Errorf("draft: encoding record %d: %w", r.ID, err)
	}
	hasher, err := blake3.NewKeyed(digestDomainKey[:])
	if err != nil {
		return Digest{}, fmt.Errorf("draft: creating keyed hasher: %w", err)
	}
	hasher.Write(encoded)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// String returns the lowercase hex encoding.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest decodes a 64-character hex digest.
func ParseDigest(s string) (Digest, error) {
	var digest Digest
	if len(s) != hex.EncodedLen(len(digest)) {
		return Digest{}, fmt.Errorf("draft: digest must be %d hex characters, got %d", hex.EncodedLen(len(digest)), len(s))
	}
	if _, err := hex.Decode(digest[:], []byte(s)); err != nil {
		return Digest{}, fmt.Errorf("draft: invalid digest %q: %w", s, err)
	}
	return digest, nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(data []byte) error {
	parsed, err := ParseDigest(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
