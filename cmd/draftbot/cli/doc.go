// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the draftbot binary.
//
// A [Command] tree dispatches on the first positional argument, parses
// flags with spf13/pflag, and prints structured help. Unknown commands
// and flags get a did-you-mean suggestion by edit distance.
//
// Commands return plain errors, a categorized [ToolError] (so main can
// pick an exit code), or an [ExitError] when they have already written
// their own output. [NewCommandLogger] builds the slog logger shared by
// every subcommand.
package cli
