// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for draftbot.
//
// Configuration is loaded from a single file specified by either the
// DRAFTBOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search.
//
// The file may carry development and production sections that override
// base values when [Config].Environment matches. After overrides are
// applied, ${VAR} and ${VAR:-default} patterns are expanded in the
// fields that commonly hold secrets or paths (the access token, the
// Postgres DSN, the spool path), so credentials can live in the
// environment rather than in the file.
//
// Key exports:
//
//   - [Config] -- master struct with Matrix, Session, Store, Status, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other draftbot packages.
package config
