// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/bureau-foundation/draftbot/lib/panel"
)

// ParseInput maps a typed line to one of view's actions. It accepts
// the action's 1-based position in the rendered list, its label
// ("Confirm", any case), its identifier ("edit_title"), or its reaction
// key. Returns false when the line names no offered action.
func ParseInput(view panel.View, line string) (panel.Action, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false
	}
	if index, err := strconv.Atoi(line); err == nil {
		if index < 1 || index > len(view.Actions) {
			return 0, false
		}
		return view.Actions[index-1], true
	}
	for _, action := range view.Actions {
		if strings.EqualFold(line, action.Label()) {
			return action, true
		}
	}
	if action, err := panel.ParseAction(strings.ToLower(line)); err == nil && view.Offers(action) {
		return action, true
	}
	if action, err := panel.ActionForKey(line); err == nil && view.Offers(action) {
		return action, true
	}
	return 0, false
}

// SuggestAction returns the offered action whose label is the closest
// fuzzy match for line, for hinting after ParseInput rejects it.
func SuggestAction(view panel.View, line string) (panel.Action, bool) {
	line = strings.TrimSpace(line)
	if line == "" || len(view.Actions) == 0 {
		return 0, false
	}
	labels := make([]string, len(view.Actions))
	for index, action := range view.Actions {
		labels[index] = action.Label()
	}
	ranks := fuzzy.RankFindNormalizedFold(line, labels)
	if len(ranks) == 0 {
		return 0, false
	}
	sort.Sort(ranks)
	return view.Actions[ranks[0].OriginalIndex], true
}
