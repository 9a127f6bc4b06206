// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// UserID is a validated Matrix user ID (e.g., "@alice:example.org").
// Sessions are scoped to the user who issued the create command, and
// every wait filters on this type.
//
// The zero value is not a valid user ID; use IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw user ID string.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := parseSigilID(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is like ParseUserID but panics on error.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return userID
}

func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and ':'. Panics on the zero
// value.
func (u UserID) Localpart() string {
	localpart, _, err := parseSigilID(u.id, '@', "user ID")
	if err != nil {
		panic(fmt.Sprintf("UserID.Localpart on invalid value %q: %v", u.id, err))
	}
	return localpart
}

// Server returns the part after the first ':'. Panics on the zero
// value.
func (u UserID) Server() string {
	_, server, err := parseSigilID(u.id, '@', "user ID")
	if err != nil {
		panic(fmt.Sprintf("UserID.Server on invalid value %q: %v", u.id, err))
	}
	return server
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
