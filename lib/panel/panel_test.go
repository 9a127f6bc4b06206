// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/draft"
)

func sampleDraft() *draft.Record {
	fake := clock.Fake(time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC))
	return draft.New(fake, func() uint32 { return 4242 })
}

func TestRenderMain(t *testing.T) {
	record := sampleDraft()
	view := Render(record, MainScreen())

	if view.Title != "Create Suggestion: New Suggestion" {
		t.Errorf("Title = %q", view.Title)
	}
	if view.Body != "Description" {
		t.Errorf("Body = %q", view.Body)
	}
	wantFooter := []string{
		"Time created: 14/03/2026 @15:09:26 UTC | ID: 4242",
		"Tags: No tags",
	}
	if !slices.Equal(view.Footer, wantFooter) {
		t.Errorf("Footer = %q, want %q", view.Footer, wantFooter)
	}
	wantActions := []Action{EditTitle, EditDescription, EditTags, Confirm, Cancel}
	if !slices.Equal(view.Actions, wantActions) {
		t.Errorf("Actions = %v, want %v", view.Actions, wantActions)
	}
}

func TestRenderMainReflectsEdits(t *testing.T) {
	record := sampleDraft()
	record.SetTitle("Dark mode")
	record.SetDescription("Please add a dark theme")
	record.SetTags(draft.ParseTags("a,b,b"))

	view := Render(record, MainScreen())
	if view.Title != "Create Suggestion: Dark mode" {
		t.Errorf("Title = %q", view.Title)
	}
	if view.Body != "Please add a dark theme" {
		t.Errorf("Body = %q", view.Body)
	}
	if view.Footer[1] != "Tags: a, b, b" {
		t.Errorf("tag footer = %q", view.Footer[1])
	}
}

func TestRenderScreens(t *testing.T) {
	record := sampleDraft()
	tests := []struct {
		name        string
		screen      Screen
		wantTitle   string
		wantBody    string
		wantActions []Action
	}{
		{
			name:      "prompt title",
			screen:    PromptScreen(Title),
			wantTitle: "Edit Title",
			wantBody:  "Please input the new title of your suggestion",
		},
		{
			name:      "prompt description",
			screen:    PromptScreen(Description),
			wantTitle: "Edit Description",
			wantBody:  "Please input the new description of your suggestion",
		},
		{
			name:      "prompt tags",
			screen:    PromptScreen(Tags),
			wantTitle: "Edit Tags",
			wantBody:  "Please input the new tags of your suggestion, separated by commas",
		},
		{
			name:        "confirm description",
			screen:      ConfirmScreen(Description),
			wantTitle:   "Success",
			wantBody:    "Suggestion description was updated successfully!",
			wantActions: []Action{Continue},
		},
		{
			name:      "timed out",
			screen:    TimedOutScreen(),
			wantTitle: "Timed Out",
		},
		{
			name:      "confirmed",
			screen:    TerminalScreen(Confirmed),
			wantTitle: "Suggestion Submitted: New Suggestion",
			wantBody:  "Description",
		},
		{
			name:      "cancelled",
			screen:    TerminalScreen(Cancelled),
			wantTitle: "Suggestion Cancelled",
		},
		{
			name:      "aborted",
			screen:    TerminalScreen(Aborted),
			wantTitle: "Suggestion Aborted",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			view := Render(record, test.screen)
			if view.Title != test.wantTitle {
				t.Errorf("Title = %q, want %q", view.Title, test.wantTitle)
			}
			if test.wantBody != "" && view.Body != test.wantBody {
				t.Errorf("Body = %q, want %q", view.Body, test.wantBody)
			}
			if !slices.Equal(view.Actions, test.wantActions) {
				t.Errorf("Actions = %v, want %v", view.Actions, test.wantActions)
			}
		})
	}
}

func TestPromptFooterNamesDraft(t *testing.T) {
	view := Render(sampleDraft(), PromptScreen(Title))
	if !slices.Equal(view.Footer, []string{"Editing Suggestion ID 4242"}) {
		t.Errorf("Footer = %q", view.Footer)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	record := sampleDraft()
	record.SetTags([]string{"x"})
	screens := []Screen{
		MainScreen(), PromptScreen(Tags), ConfirmScreen(Title),
		TimedOutScreen(), TerminalScreen(Confirmed), TerminalScreen(Cancelled),
	}
	for _, screen := range screens {
		first := Render(record, screen)
		second := Render(record, screen)
		if !first.Equal(second) {
			t.Errorf("Render(%v) is not deterministic: %+v vs %+v", screen, first, second)
		}
	}
}

func TestRenderReturnsIndependentActions(t *testing.T) {
	record := sampleDraft()
	first := Render(record, MainScreen())
	first.Actions[0] = Continue
	if second := Render(record, MainScreen()); second.Actions[0] != EditTitle {
		t.Fatal("mutating a rendered view leaked into the next render")
	}
}

func TestFinalScreensOfferNothing(t *testing.T) {
	for _, screen := range []Screen{TimedOutScreen(), TerminalScreen(Confirmed), TerminalScreen(Cancelled), TerminalScreen(Aborted)} {
		if !screen.Final() {
			t.Errorf("%v.Final() = false", screen)
		}
		if view := Render(sampleDraft(), screen); len(view.Actions) != 0 {
			t.Errorf("%v offers %v", screen, view.Actions)
		}
	}
	if MainScreen().Final() || PromptScreen(Title).Final() {
		t.Error("interactive screen reported Final")
	}
}

func TestParseAction(t *testing.T) {
	for _, action := range AllActions() {
		parsed, err := ParseAction(action.ID())
		if err != nil {
			t.Errorf("ParseAction(%q): %v", action.ID(), err)
			continue
		}
		if parsed != action {
			t.Errorf("ParseAction(%q) = %v, want %v", action.ID(), parsed, action)
		}
	}
	wire := map[string]Action{
		"edit_title": EditTitle, "edit_desc": EditDescription, "edit_tags": EditTags,
		"send": Confirm, "cancel": Cancel, "continue": Continue,
	}
	for id, want := range wire {
		if got, _ := ParseAction(id); got != want {
			t.Errorf("ParseAction(%q) = %v, want %v", id, got, want)
		}
	}
	if _, err := ParseAction("delete_everything"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(unknown) error = %v, want ErrUnknownAction", err)
	}
}

func TestActionForKey(t *testing.T) {
	for _, action := range AllActions() {
		got, err := ActionForKey(action.Key())
		if err != nil || got != action {
			t.Errorf("ActionForKey(%q) = %v, %v; want %v", action.Key(), got, err, action)
		}
	}
	// Without the variation selector.
	if got, err := ActionForKey("1\u20E3"); err != nil || got != EditTitle {
		t.Errorf("ActionForKey(bare keycap) = %v, %v", got, err)
	}
	if got, err := ActionForKey("\u25B6"); err != nil || got != Continue {
		t.Errorf("ActionForKey(bare play) = %v, %v", got, err)
	}
	if _, err := ActionForKey("\U0001F44D"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ActionForKey(thumbs up) error = %v, want ErrUnknownAction", err)
	}
}

func TestActionEditField(t *testing.T) {
	tests := map[Action]Field{EditTitle: Title, EditDescription: Description, EditTags: Tags}
	for action, want := range tests {
		field, ok := action.EditField()
		if !ok || field != want {
			t.Errorf("%v.EditField() = %v, %v; want %v", action, field, ok, want)
		}
	}
	for _, action := range []Action{Confirm, Cancel, Continue} {
		if _, ok := action.EditField(); ok {
			t.Errorf("%v.EditField() ok = true", action)
		}
	}
	if Action(0).Valid() || Action(99).Valid() {
		t.Error("out-of-range action reported Valid")
	}
}

func TestViewText(t *testing.T) {
	view := Render(sampleDraft(), ConfirmScreen(Title))

	plain := view.PlainText()
	for _, want := range []string{"Success", "Suggestion title was updated successfully!", "Editing Suggestion ID 4242", "Continue"} {
		if !strings.Contains(plain, want) {
			t.Errorf("PlainText() missing %q:\n%s", want, plain)
		}
	}
	if !strings.HasPrefix(view.Markdown(), "**Success**") {
		t.Errorf("Markdown() = %q", view.Markdown())
	}
	if Render(sampleDraft(), PromptScreen(Title)).ActionLine() != "" {
		t.Error("prompt view has an action line")
	}
}

func TestViewHTML(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		tags        []string
		want        []string
		reject      []string
	}{
		{
			name:   "layout",
			title:  "Dark mode",
			want:   []string{"<p><strong>Create Suggestion: Dark mode</strong></p>", "<br"},
			reject: []string{"\\"},
		},
		{
			name:   "raw html",
			title:  "<script>alert(1)</script> Dark mode",
			want:   []string{"<strong>Create Suggestion: &lt;script&gt;alert(1)&lt;/script&gt; Dark mode</strong>"},
			reject: []string{"<script>"},
		},
		{
			name:        "markup in draft text",
			title:       "x\n\n# HEADING [link](https://evil.example)",
			description: "see [here](https://evil.example) _and_ *this* `code`",
			tags:        []string{"**bold**", "#hash"},
			want: []string{
				"<p><strong>Create Suggestion: x # HEADING [link](https://evil.example)</strong></p>",
				"see [here](https://evil.example) _and_ *this* `code`",
				"Tags: **bold**, #hash",
			},
			reject: []string{"<h1", "<a ", "<em>", "<code>"},
		},
		{
			name:        "block syntax in description",
			description: "first\n\n- item\n1. numbered\n===\n> quote\n~~~\n    indented",
			want:        []string{"first<br />\n- item<br />\n1. numbered<br />\n===<br />\n&gt; quote<br />\n~~~<br />\nindented"},
			reject:      []string{"<ul", "<ol", "<h1", "<blockquote", "<pre", "<hr"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			record := sampleDraft()
			if test.title != "" {
				record.SetTitle(test.title)
			}
			if test.description != "" {
				record.SetDescription(test.description)
			}
			if test.tags != nil {
				record.SetTags(test.tags)
			}
			view := Render(record, MainScreen())
			html, err := view.HTML()
			if err != nil {
				t.Fatalf("HTML: %v", err)
			}
			for _, want := range test.want {
				if !strings.Contains(html, want) {
					t.Errorf("HTML missing %q:\n%s", want, html)
				}
			}
			for _, reject := range test.reject {
				if strings.Contains(html, reject) {
					t.Errorf("HTML contains %q:\n%s", reject, html)
				}
			}
			if !strings.HasPrefix(view.PlainText(), view.Title) {
				t.Errorf("PlainText() = %q, want the title unescaped", view.PlainText())
			}
		})
	}
}
