// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Draftbot collects suggestions through an interactive panel posted in
// a chat room. A user types the command (default "!suggest create"),
// edits the draft's title, description and tags through the panel's
// reactions and replies, and confirms or cancels.
//
// Subcommands:
//
//	run          connect to a Matrix homeserver and serve every joined room
//	local        drive sessions from this terminal, no homeserver needed
//	preview      print every panel screen for a sample draft
//	submissions  list recent submissions from the configured store
//	version      print build information
//
// Configuration comes from the YAML file named by --config or the
// DRAFTBOT_CONFIG environment variable.
package main
