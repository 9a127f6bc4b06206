// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package panel

import (
	"bytes"
	"slices"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
)

// View is the rendered content of the panel message.
type View struct {
	Title  string
	Body   string
	Footer []string

	// Actions offered by this view, in display order. Empty means the
	// panel accepts no action: the user is expected to type a reply, or
	// the session is over.
	Actions []Action
}

// Offers reports whether action is one of the view's actions.
func (v View) Offers(action Action) bool {
	return slices.Contains(v.Actions, action)
}

// Equal reports whether two views render identically.
func (v View) Equal(other View) bool {
	return v.Title == other.Title &&
		v.Body == other.Body &&
		slices.Equal(v.Footer, other.Footer) &&
		slices.Equal(v.Actions, other.Actions)
}

// ActionLine lists the offered actions with their reaction keys, for
// clients that show only plain text. Empty when nothing is offered.
func (v View) ActionLine() string {
	if len(v.Actions) == 0 {
		return ""
	}
	parts := make([]string, len(v.Actions))
	for i, action := range v.Actions {
		parts[i] = action.Key() + " " + action.Label()
	}
	return strings.Join(parts, " · ")
}

// PlainText renders the view without markup.
func (v View) PlainText() string {
	var builder strings.Builder
	builder.WriteString(v.Title)
	if v.Body != "" {
		builder.WriteString("\n\n")
		builder.WriteString(v.Body)
	}
	if len(v.Footer) > 0 {
		builder.WriteString("\n\n")
		builder.WriteString(strings.Join(v.Footer, "\n"))
	}
	if line := v.ActionLine(); line != "" {
		builder.WriteString("\n\n")
		builder.WriteString(line)
	}
	return builder.String()
}

// Markdown renders the view as CommonMark. The title is bold, the
// footer is a block of hard-broken lines, and the action line closes
// the message. Draft text is escaped so it always reads literally: the
// title and footer lines are folded onto one line each, and the body is
// one paragraph with a hard break per non-blank line.
func (v View) Markdown() string {
	var builder strings.Builder
	builder.WriteString("**")
	builder.WriteString(escapeMarkdown(singleLine(v.Title)))
	builder.WriteString("**")
	if body := markdownBody(v.Body); body != "" {
		builder.WriteString("\n\n")
		builder.WriteString(body)
	}
	if len(v.Footer) > 0 {
		lines := make([]string, len(v.Footer))
		for i, line := range v.Footer {
			lines[i] = escapeMarkdown(singleLine(line))
		}
		builder.WriteString("\n\n")
		builder.WriteString(strings.Join(lines, "\\\n"))
	}
	if line := v.ActionLine(); line != "" {
		builder.WriteString("\n\n")
		builder.WriteString(line)
	}
	return builder.String()
}

func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func markdownBody(body string) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, escapeMarkdown(line))
		}
	}
	return strings.Join(lines, "\\\n")
}

// markdownInline are the characters that start emphasis, code, links,
// autolinks, raw HTML, entities or headings anywhere in a line.
const markdownInline = "\\`*_[]<>&#"

// escapeMarkdown backslash-escapes line so CommonMark renders it as
// plain text. line must not contain newlines or leading whitespace.
func escapeMarkdown(line string) string {
	var builder strings.Builder
	builder.Grow(len(line))

	// List items, setext underlines, thematic breaks and tilde fences
	// are only recognized at the start of a line.
	digits := len(line) - len(strings.TrimLeft(line, "0123456789"))
	switch {
	case line == "":
		return ""
	case strings.ContainsRune("-+=~", rune(line[0])):
		builder.WriteByte('\\')
	case digits > 0 && digits < len(line) && (line[digits] == '.' || line[digits] == ')'):
		builder.WriteString(line[:digits])
		builder.WriteByte('\\')
		line = line[digits:]
	}

	for _, r := range line {
		if strings.ContainsRune(markdownInline, r) {
			builder.WriteByte('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New()
	})
	return markdownInstance
}

// HTML renders Markdown to HTML for clients that show formatted
// messages.
func (v View) HTML() (string, error) {
	var buffer bytes.Buffer
	if err := markdownRenderer().Convert([]byte(v.Markdown()), &buffer); err != nil {
		return "", err
	}
	return strings.TrimSpace(buffer.String()), nil
}
