// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownAction is returned when an identifier or reaction key does
// not name any Action.
var ErrUnknownAction = errors.New("panel: unknown action")

// Action is a control the panel can offer. The zero value is not a
// valid action.
type Action int

const (
	EditTitle Action = iota + 1
	EditDescription
	EditTags
	Confirm
	Cancel
	Continue
)

type actionInfo struct {
	id    string
	key   string
	label string
}

var actions = map[Action]actionInfo{
	EditTitle:       {id: "edit_title", key: "1\uFE0F\u20E3", label: "Edit Title"},
	EditDescription: {id: "edit_desc", key: "2\uFE0F\u20E3", label: "Edit Description"},
	EditTags:        {id: "edit_tags", key: "3\uFE0F\u20E3", label: "Edit Tags"},
	Confirm:         {id: "send", key: "\u2705", label: "Confirm"},
	Cancel:          {id: "cancel", key: "\u274C", label: "Cancel"},
	Continue:        {id: "continue", key: "\u25B6\uFE0F", label: "Continue"},
}

// AllActions lists every action in display order.
func AllActions() []Action {
	return []Action{EditTitle, EditDescription, EditTags, Confirm, Cancel, Continue}
}

// ID is the stable wire identifier (button id).
func (a Action) ID() string { return actions[a].id }

// Key is the emoji used as a reaction key for this action.
func (a Action) Key() string { return actions[a].key }

// Label is the human-readable name.
func (a Action) Label() string { return actions[a].label }

func (a Action) String() string {
	if info, ok := actions[a]; ok {
		return info.id
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Valid reports whether a names a defined action.
func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}

// EditField returns the field an edit action targets. ok is false for
// non-edit actions.
func (a Action) EditField() (field Field, ok bool) {
	switch a {
	case EditTitle:
		return Title, true
	case EditDescription:
		return Description, true
	case EditTags:
		return Tags, true
	}
	return 0, false
}

// ParseAction decodes a wire identifier.
func ParseAction(id string) (Action, error) {
	for action, info := range actions {
		if info.id == id {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: id %q", ErrUnknownAction, id)
}

// ActionForKey decodes a reaction key. Clients differ on whether they
// send the emoji variation selector (U+FE0F), so it is ignored when
// comparing.
func ActionForKey(key string) (Action, error) {
	normalized := stripVariationSelector(key)
	for action, info := range actions {
		if stripVariationSelector(info.key) == normalized {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: key %q", ErrUnknownAction, key)
}

func stripVariationSelector(s string) string {
	return strings.ReplaceAll(s, "\uFE0F", "")
}
