// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/draftbot/cmd/draftbot/cli"
	"github.com/bureau-foundation/draftbot/lib/clock"
	"github.com/bureau-foundation/draftbot/lib/console"
	"github.com/bureau-foundation/draftbot/lib/draft"
	"github.com/bureau-foundation/draftbot/lib/panel"
)

// Preview output formats.
const (
	formatBox      = "box"
	formatPlain    = "plain"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

// namedScreen pairs a screen with the name preview prints and filters
// on.
type namedScreen struct {
	name   string
	screen panel.Screen
}

func previewScreens() []namedScreen {
	return []namedScreen{
		{"main", panel.MainScreen()},
		{"prompt-title", panel.PromptScreen(panel.Title)},
		{"prompt-description", panel.PromptScreen(panel.Description)},
		{"prompt-tags", panel.PromptScreen(panel.Tags)},
		{"confirm-title", panel.ConfirmScreen(panel.Title)},
		{"confirm-description", panel.ConfirmScreen(panel.Description)},
		{"confirm-tags", panel.ConfirmScreen(panel.Tags)},
		{"timed-out", panel.TimedOutScreen()},
		{"confirmed", panel.TerminalScreen(panel.Confirmed)},
		{"cancelled", panel.TerminalScreen(panel.Cancelled)},
		{"aborted", panel.TerminalScreen(panel.Aborted)},
	}
}

// sampleDraft is the draft every preview renders.
func sampleDraft() *draft.Record {
	created := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	record := draft.New(clock.Fake(created), func() uint32 { return 1234567 })
	record.SetTitle("Weekly digest of merged changes")
	record.SetDescription("Post a summary of the week's merged changes every Friday, grouped by area.")
	record.SetTags(draft.ParseTags("automation, digest, weekly"))
	return record
}

func previewCommand(s streams) *cli.Command {
	var (
		format    string
		width     int
		color     string
		draftPath string
	)
	return &cli.Command{
		Name:    "preview",
		Summary: "Print every panel screen for a sample draft",
		Description: `Renders each screen of an editing session for a sample draft. Pass
screen names to print only those.

Formats: box (terminal panel), plain (Matrix body), markdown, html
(Matrix formatted_body).`,
		Usage: "draftbot preview [flags] [screen...]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("preview", pflag.ContinueOnError)
			flagSet.StringVar(&format, "format", formatBox, "output format: box, plain, markdown, html")
			flagSet.IntVar(&width, "width", console.DefaultWidth, "panel width for the box format")
			colorFlag(flagSet, &color)
			flagSet.StringVar(&draftPath, "draft", "", "JSONC file with the draft to render (default: a built-in sample)")
			return flagSet
		},
		Examples: []cli.Example{
			{Description: "Show the Matrix HTML of the main screen", Command: "draftbot preview --format html main"},
			{Description: "Render your own draft", Command: "draftbot preview --draft draft.jsonc main confirmed"},
		},
		Run: func(ctx context.Context, args []string) error {
			colorMode, err := parseColorFlag(color)
			if err != nil {
				return err
			}
			screens, err := selectScreens(args)
			if err != nil {
				return err
			}
			record := sampleDraft()
			if draftPath != "" {
				if record, err = draft.ReadFixture(draftPath); err != nil {
					return cli.Validation("--draft: %w", err)
				}
			}
			return writePreview(s.out, record, screens, format, console.NewRenderer(s.out, console.DefaultTheme, width, colorMode))
		},
	}
}

// selectScreens returns the screens named in names, or all of them.
func selectScreens(names []string) ([]namedScreen, error) {
	all := previewScreens()
	if len(names) == 0 {
		return all, nil
	}
	var selected []namedScreen
	for _, name := range names {
		found := false
		for _, candidate := range all {
			if candidate.name == name {
				selected = append(selected, candidate)
				found = true
				break
			}
		}
		if !found {
			known := make([]string, len(all))
			for i, candidate := range all {
				known[i] = candidate.name
			}
			return nil, cli.Validation("unknown screen %q (known: %s)", name, strings.Join(known, ", "))
		}
	}
	return selected, nil
}

// writePreview prints screens in format; box is used only for the box
// format.
func writePreview(w io.Writer, record *draft.Record, screens []namedScreen, format string, box *console.Renderer) error {
	var render func(panel.View) (string, error)
	switch format {
	case formatBox:
		render = func(view panel.View) (string, error) { return box.Render(view), nil }
	case formatPlain:
		render = func(view panel.View) (string, error) { return view.PlainText(), nil }
	case formatMarkdown:
		render = func(view panel.View) (string, error) { return view.Markdown(), nil }
	case formatHTML:
		render = panel.View.HTML
	default:
		return cli.Validation("unknown format %q (want box, plain, markdown or html)", format)
	}

	for index, screen := range screens {
		if index > 0 {
			fmt.Fprintln(w)
		}
		output, err := render(panel.Render(record, screen.screen))
		if err != nil {
			return cli.Internal("rendering %s: %w", screen.name, err)
		}
		fmt.Fprintf(w, "== %s ==\n%s\n", screen.name, output)
	}
	return nil
}
