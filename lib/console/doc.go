// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package console renders panel views in a terminal and drives an
// editing session from standard input.
//
// [Renderer] draws a [panel.View] as a bordered lipgloss box: title,
// body, footer, and a numbered action list. [ParseInput] maps a typed
// line back to one of the view's actions (by number, identifier, or
// reaction key). [Terminal] ties both to a [chat.Memory] transport so
// `draftbot local` can exercise the full session without a homeserver.
package console
