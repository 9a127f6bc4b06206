// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/draftbot/lib/ref"
)

type sampleRecord struct {
	ID      uint32     `cbor:"id"`
	Title   string     `cbor:"title"`
	Tags    []string   `cbor:"tags"`
	Room    ref.RoomID `cbor:"room"`
	Created time.Time  `cbor:"created"`
}

func sample() sampleRecord {
	return sampleRecord{
		ID:      4242,
		Title:   "Add dark mode",
		Tags:    []string{"ui", "theme"},
		Room:    ref.MustParseRoomID("!ideas:example.org"),
		Created: time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	}
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sample()
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != original.ID || decoded.Title != original.Title || decoded.Room != original.Room {
		t.Errorf("round trip = %+v, want %+v", decoded, original)
	}
	if !decoded.Created.Equal(original.Created) {
		t.Errorf("Created = %v, want %v", decoded.Created, original.Created)
	}
	if strings.Join(decoded.Tags, ",") != "ui,theme" {
		t.Errorf("Tags = %v", decoded.Tags)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(sample())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(sample())
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal produced different bytes for the same value")
		}
	}

	// Map key order must not depend on insertion order.
	left, _ := Marshal(map[string]int{"b": 2, "a": 1})
	right, _ := Marshal(map[string]int{"a": 1, "b": 2})
	if !bytes.Equal(left, right) {
		t.Fatal("map encoding depends on insertion order")
	}
}

func TestRefEncodesAsText(t *testing.T) {
	data, err := Marshal(sample())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, `"!ideas:example.org"`) {
		t.Errorf("diagnostic %s does not contain the room ID as text", diagnostic)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"title": "x", "future_field": 7})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleRecord
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Title != "x" {
		t.Errorf("Title = %q, want %q", decoded.Title, "x")
	}
}

func TestDecoderReadsSequence(t *testing.T) {
	var buffer bytes.Buffer
	for i := range 3 {
		data, err := Marshal(sampleRecord{ID: uint32(i)})
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		buffer.Write(data)
	}
	decoder := NewDecoder(&buffer)
	var ids []uint32
	for {
		var record sampleRecord
		err := decoder.Decode(&record)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		ids = append(ids, record.ID)
	}
	if len(ids) != 3 || ids[0] != 0 || ids[2] != 2 {
		t.Fatalf("decoded ids = %v, want [0 1 2]", ids)
	}
}
