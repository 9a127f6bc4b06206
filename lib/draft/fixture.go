// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package draft

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// fixture is the on-disk form of a sample draft.
type fixture struct {
	ID          uint32    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

// ParseFixture decodes a draft written as JSONC: JSON with // and /* */
// comments and trailing commas. Text is trimmed the way the editing
// session trims replies, and empty tags are dropped.
func ParseFixture(data []byte) (*Record, error) {
	var decoded fixture
	if err := json.Unmarshal(jsonc.ToJSON(data), &decoded); err != nil {
		return nil, fmt.Errorf("parsing draft: %w", err)
	}
	record := &Record{
		ID:        decoded.ID,
		CreatedAt: decoded.CreatedAt.UTC(),
	}
	record.SetTitle(strings.TrimSpace(decoded.Title))
	record.SetDescription(strings.TrimSpace(decoded.Description))
	var tags []string
	for _, tag := range decoded.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	record.SetTags(tags)
	return record, nil
}

// ReadFixture reads and parses a JSONC draft file.
func ReadFixture(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	record, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return record, nil
}
