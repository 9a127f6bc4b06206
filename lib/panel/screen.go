// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import "fmt"

// Field is an editable draft field.
type Field int

const (
	Title Field = iota + 1
	Description
	Tags
)

// Name is the lowercase field name used in prose ("title").
func (f Field) Name() string {
	switch f {
	case Title:
		return "title"
	case Description:
		return "description"
	case Tags:
		return "tags"
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Label is the capitalized field name used in headings ("Title").
func (f Field) Label() string {
	switch f {
	case Title:
		return "Title"
	case Description:
		return "Description"
	case Tags:
		return "Tags"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

func (f Field) String() string { return f.Name() }

// Outcome is how a session ended, shown on the Terminal screen.
type Outcome int

const (
	// Confirmed: the draft was handed off for persistence.
	Confirmed Outcome = iota + 1
	// Cancelled: the user discarded the draft.
	Cancelled
	// Aborted: the session failed (unexpected event or a failed
	// submission) and the draft was not submitted.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// ScreenKind discriminates Screen.
type ScreenKind int

const (
	KindMain ScreenKind = iota + 1
	KindPrompt
	KindConfirm
	KindTimedOut
	KindTerminal
)

// Screen is the panel state to render. Construct with MainScreen,
// PromptScreen, ConfirmScreen, TimedOutScreen or TerminalScreen.
type Screen struct {
	kind    ScreenKind
	field   Field
	outcome Outcome
}

// MainScreen shows the draft and the edit, confirm and cancel actions.
func MainScreen() Screen { return Screen{kind: KindMain} }

// PromptScreen asks the user to type a new value for field.
func PromptScreen(field Field) Screen { return Screen{kind: KindPrompt, field: field} }

// ConfirmScreen reports that field was updated and offers Continue.
func ConfirmScreen(field Field) Screen { return Screen{kind: KindConfirm, field: field} }

// TimedOutScreen is the final screen after an idle timeout.
func TimedOutScreen() Screen { return Screen{kind: KindTimedOut} }

// TerminalScreen is the final screen after the session ended with
// outcome.
func TerminalScreen(outcome Outcome) Screen { return Screen{kind: KindTerminal, outcome: outcome} }

func (s Screen) Kind() ScreenKind { return s.kind }

// Field is the field of a Prompt or Confirm screen.
func (s Screen) Field() Field { return s.field }

// Outcome is the outcome of a Terminal screen.
func (s Screen) Outcome() Outcome { return s.outcome }

// Final reports whether no input is accepted after this screen.
func (s Screen) Final() bool {
	return s.kind == KindTimedOut || s.kind == KindTerminal
}

func (s Screen) String() string {
	switch s.kind {
	case KindMain:
		return "main"
	case KindPrompt:
		return "prompt(" + s.field.Name() + ")"
	case KindConfirm:
		return "confirm(" + s.field.Name() + ")"
	case KindTimedOut:
		return "timed_out"
	case KindTerminal:
		return "terminal(" + s.outcome.String() + ")"
	}
	return "invalid"
}
