// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/draftbot/cmd/draftbot/cli"
	"github.com/bureau-foundation/draftbot/lib/draftstore"
)

func submissionsCommand(s streams) *cli.Command {
	var (
		configPath string
		limit      int
		asJSON     bool
	)
	return &cli.Command{
		Name:    "submissions",
		Summary: "List recent submissions from the configured store",
		Usage:   "draftbot submissions [--config path] [--limit n] [--json]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("submissions", pflag.ContinueOnError)
			configFlag(flagSet, &configPath)
			flagSet.IntVar(&limit, "limit", 20, "maximum number of submissions")
			flagSet.BoolVar(&asJSON, "json", false, "print as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return cli.Validation("submissions takes no arguments, got %q", args)
			}
			if limit <= 0 {
				return cli.Validation("--limit must be positive, got %d", limit)
			}
			cfg, err := loadConfig(configPath, true)
			if err != nil {
				return err
			}
			logger := commandLogger(s, cfg, "submissions")
			store, err := draftstore.Open(ctx, cfg.Store, logger)
			if err != nil {
				return cli.Transient("opening %s store: %w", cfg.Store.Backend, err)
			}
			defer store.Close()

			recent, err := store.Recent(ctx, limit)
			if err != nil {
				return cli.Transient("listing submissions: %w", err)
			}
			if asJSON {
				encoder := json.NewEncoder(s.out)
				encoder.SetIndent("", "  ")
				if recent == nil {
					recent = []draftstore.Submission{}
				}
				return encoder.Encode(recent)
			}
			return writeSubmissionTable(s.out, recent)
		},
	}
}

func writeSubmissionTable(w io.Writer, submissions []draftstore.Submission) error {
	if len(submissions) == 0 {
		fmt.Fprintln(w, "No submissions.")
		return nil
	}
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(table, "SUBMITTED\tID\tAUTHOR\tROOM\tTAGS\tTITLE\tDIGEST")
	for _, submission := range submissions {
		fmt.Fprintf(table, "%s\t%d\t%s\t%s\t%s\t%s\t%.12s\n",
			submission.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
			submission.Draft.ID,
			submission.Author,
			submission.Room,
			submission.Draft.TagSummary(),
			submission.Draft.Title,
			submission.Digest,
		)
	}
	return table.Flush()
}
