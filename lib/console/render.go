// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/draftbot/lib/panel"
)

// DefaultWidth is the panel width used when the terminal size is
// unknown.
const DefaultWidth = 72

// Renderer draws panel views. Under ColorAuto the color profile is
// detected from the writer passed to NewRenderer, so output to a pipe
// or buffer carries no escape sequences.
type Renderer struct {
	// contentWidth is the usable width inside the border and padding.
	contentWidth int

	border  lipgloss.Style
	title   lipgloss.Style
	text    lipgloss.Style
	faint   lipgloss.Style
	keyText lipgloss.Style
}

// NewRenderer returns a Renderer for output written to w. A width of
// zero or less means DefaultWidth.
func NewRenderer(w io.Writer, theme Theme, width int, color ColorMode) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	renderer := lipgloss.NewRenderer(w)
	if profile, forced := color.profile(); forced {
		renderer.SetColorProfile(profile)
	}
	border := renderer.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Width(width - 2)
	return &Renderer{
		contentWidth: width - 4,
		border:       border,
		title:        renderer.NewStyle().Bold(true).Foreground(theme.Title),
		text:         renderer.NewStyle().Foreground(theme.Text),
		faint:        renderer.NewStyle().Foreground(theme.Faint),
		keyText:      renderer.NewStyle().Bold(true).Foreground(theme.ActionKey),
	}
}

// Render draws view as a bordered box. Offered actions are numbered
// from 1 in view order; ParseInput accepts the same numbers.
func (r *Renderer) Render(view panel.View) string {
	var sections []string
	if view.Title != "" {
		sections = append(sections, r.title.Render(view.Title))
	}
	if view.Body != "" {
		sections = append(sections, r.text.Render(view.Body))
	}
	if len(view.Footer) > 0 {
		sections = append(sections, r.faint.Render(strings.Join(view.Footer, "\n")))
	}
	if len(view.Actions) > 0 {
		sections = append(sections, r.actionList(view.Actions))
	}

	return r.border.Render(strings.Join(sections, "\n\n"))
}

// actionList lays the numbered actions out in rows, breaking between
// items so no label is split across lines.
func (r *Renderer) actionList(actions []panel.Action) string {
	const gap = "  "
	var rows []string
	var row strings.Builder
	for index, action := range actions {
		item := fmt.Sprintf("%s %s",
			r.keyText.Render("["+strconv.Itoa(index+1)+"]"),
			r.text.Render(action.Label()),
		)
		if row.Len() > 0 && ansi.StringWidth(row.String())+len(gap)+ansi.StringWidth(item) > r.contentWidth {
			rows = append(rows, row.String())
			row.Reset()
		}
		if row.Len() > 0 {
			row.WriteString(gap)
		}
		row.WriteString(item)
	}
	return strings.Join(append(rows, row.String()), "\n")
}

// Deleted renders the marker shown where a message was deleted.
func (r *Renderer) Deleted() string {
	return r.faint.Render("(message deleted)")
}
