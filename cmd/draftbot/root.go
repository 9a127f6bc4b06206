// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/draftbot/cmd/draftbot/cli"
	"github.com/bureau-foundation/draftbot/lib/config"
	"github.com/bureau-foundation/draftbot/lib/console"
)

// streams are the process's standard streams, replaced in tests.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func standardStreams() streams {
	return streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}
}

func root(s streams) *cli.Command {
	return &cli.Command{
		Name:        "draftbot",
		Description: "Collects suggestions through an interactive chat panel.",
		Output:      s.err,
		Subcommands: []*cli.Command{
			runCommand(s),
			localCommand(s),
			previewCommand(s),
			submissionsCommand(s),
			versionCommand(s),
		},
		Examples: []cli.Example{
			{Description: "Serve a homeserver", Command: "draftbot run --config /etc/draftbot.yaml"},
			{Description: "Try the panel without a homeserver", Command: "draftbot local"},
		},
	}
}

// configFlag binds --config on flagSet.
func configFlag(flagSet *pflag.FlagSet, path *string) {
	flagSet.StringVar(path, "config", "", "path to draftbot.yaml (default $DRAFTBOT_CONFIG)")
}

func colorFlag(flagSet *pflag.FlagSet, mode *string) {
	flagSet.StringVar(mode, "color", string(console.ColorAuto), "color output: auto, always, never")
}

func parseColorFlag(value string) (console.ColorMode, error) {
	mode, err := console.ParseColorMode(value)
	if err != nil {
		return "", cli.Validation("--color: %w", err)
	}
	return mode, nil
}

// loadConfig reads path, or $DRAFTBOT_CONFIG when path is empty. When
// neither names a file and required is false, the defaults are used.
// The result is validated.
func loadConfig(path string, required bool) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("DRAFTBOT_CONFIG") != "":
		cfg, err = config.Load()
	case required:
		return nil, cli.Validation("no configuration: pass --config or set DRAFTBOT_CONFIG")
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, cli.Validation("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// commandLogger builds the logger for a subcommand at the configured
// level.
func commandLogger(s streams, cfg *config.Config, command string) *slog.Logger {
	level, _ := cfg.Log.SlogLevel()
	return cli.NewCommandLogger(s.err, level).With("command", command)
}
