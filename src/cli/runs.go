// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/x509-trust-validator/src/internal/validation/store"
	"github.com/H0llyW00dzZ/x509-trust-validator/src/logger"
)

// ErrStoreRequired is returned when a runs command gets no --store.
var ErrStoreRequired = errors.New("report store is required (--store)")

func openStore(dsn string) (*store.ReportStore, error) {
	if dsn == "" {
		return nil, ErrStoreRequired
	}
	return store.Open(dsn)
}

func renderRuns(runs []store.Run) (string, error) {
	if len(runs) == 0 {
		return "No stored runs\n", nil
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Run", "Validation Time", "Policy", "Valid", "Stored At"})

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.ValidationTime.UTC().Format(time.RFC3339),
			r.Policy,
			fmt.Sprintf("%d/%d", r.ValidCount, r.TotalCount),
			r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := table.Bulk(rows); err != nil {
		return "", err
	}
	if err := table.Render(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newRunsCommand(log logger.Logger) *cobra.Command {
	var (
		dsn        string
		policyName string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or show validation runs kept in a report store",
	}
	cmd.PersistentFlags().StringVar(&dsn, "store", "", "SQLite database holding stored runs")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(dsn)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.List(cmd.Context(), store.Filter{Policy: policyName, Limit: limit})
			if err != nil {
				return err
			}
			out, err := renderRuns(runs)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	list.Flags().StringVar(&policyName, "policy-name", "", "only runs validated under this policy")
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of runs, 0 for all")

	show := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the stored reports of one run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(dsn)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			log.Printf("Run %s: %d of %d token(s) valid", run.ID, run.ValidCount, run.TotalCount)
			fmt.Fprint(cmd.OutOrStdout(), run.Detailed)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
