// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is the color palette for rendered panels. Colors are ANSI
// 256-color codes.
type Theme struct {
	Title     lipgloss.Color
	Text      lipgloss.Color
	Faint     lipgloss.Color
	Border    lipgloss.Color
	ActionKey lipgloss.Color
}

// DefaultTheme suits dark terminals.
var DefaultTheme = Theme{
	Title:     lipgloss.Color("255"),
	Text:      lipgloss.Color("252"),
	Faint:     lipgloss.Color("245"),
	Border:    lipgloss.Color("75"),  // blue
	ActionKey: lipgloss.Color("220"), // amber
}

// ColorMode controls whether rendered panels carry color escapes.
type ColorMode string

const (
	// ColorAuto detects color support from the output writer and the
	// environment (NO_COLOR, CLICOLOR_FORCE).
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts "auto", "always" or "never".
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(value)); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	}
	return "", fmt.Errorf("color mode must be auto, always, or never; got %q", value)
}

// profile reports the forced color profile, or false under ColorAuto.
func (m ColorMode) profile() (termenv.Profile, bool) {
	switch m {
	case ColorAlways:
		return termenv.ANSI256, true
	case ColorNever:
		return termenv.Ascii, true
	}
	return termenv.Ascii, false
}
