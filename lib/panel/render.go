// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"fmt"

	"github.com/bureau-foundation/draftbot/lib/draft"
)

// createdLayout renders CreatedAt as dd/mm/yyyy @HH:MM:SS.
const createdLayout = "02/01/2006 @15:04:05"

var mainActions = []Action{EditTitle, EditDescription, EditTags, Confirm, Cancel}

// Render produces the view of record on screen. Pure: the same inputs
// always produce an equal View.
func Render(record *draft.Record, screen Screen) View {
	switch screen.Kind() {
	case KindMain:
		return View{
			Title: "Create Suggestion: " + record.Title,
			Body:  record.Description,
			Footer: []string{
				fmt.Sprintf("Time created: %s UTC | ID: %d", record.CreatedAt.UTC().Format(createdLayout), record.ID),
				"Tags: " + record.TagSummary(),
			},
			Actions: append([]Action(nil), mainActions...),
		}

	case KindPrompt:
		return View{
			Title:  "Edit " + screen.Field().Label(),
			Body:   promptBody(screen.Field()),
			Footer: []string{fmt.Sprintf("Editing Suggestion ID %d", record.ID)},
		}

	case KindConfirm:
		return View{
			Title:   "Success",
			Body:    fmt.Sprintf("Suggestion %s was updated successfully!", screen.Field().Name()),
			Footer:  []string{fmt.Sprintf("Editing Suggestion ID %d", record.ID)},
			Actions: []Action{Continue},
		}

	case KindTimedOut:
		return View{
			Title:  "Timed Out",
			Body:   "No response was received in time, so this suggestion was discarded. Run the command again to start over.",
			Footer: []string{fmt.Sprintf("Suggestion ID %d", record.ID)},
		}

	case KindTerminal:
		return terminalView(record, screen.Outcome())
	}
	panic(fmt.Sprintf("panel.Render: invalid screen %v", screen))
}

func promptBody(field Field) string {
	if field == Tags {
		return "Please input the new tags of your suggestion, separated by commas"
	}
	return fmt.Sprintf("Please input the new %s of your suggestion", field.Name())
}

func terminalView(record *draft.Record, outcome Outcome) View {
	footer := []string{fmt.Sprintf("Suggestion ID %d", record.ID)}
	switch outcome {
	case Confirmed:
		return View{
			Title:  "Suggestion Submitted: " + record.Title,
			Body:   record.Description,
			Footer: append(footer, "Tags: "+record.TagSummary()),
		}
	case Cancelled:
		return View{
			Title:  "Suggestion Cancelled",
			Body:   "This suggestion was discarded.",
			Footer: footer,
		}
	case Aborted:
		return View{
			Title:  "Suggestion Aborted",
			Body:   "Something went wrong and this suggestion was not submitted. Run the command again to start over.",
			Footer: footer,
		}
	}
	panic(fmt.Sprintf("panel.Render: invalid outcome %v", outcome))
}
