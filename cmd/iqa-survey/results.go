// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/iqa-survey/internal/store"
	"github.com/pdiddy/iqa-survey/pkg/types"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect stored survey results (list, show, export)",
	Long: `Results reads the configured result store. Use subcommands to list
stored results, show one in full, or export all of them.`,
}

// --- list subcommand ---

var resultsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored results",
	RunE:  runResultsList,
}

func runResultsList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st store.Store) error {
		summaries, err := st.ListResults(ctx)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		fmt.Println(renderTable(
			[]string{"ID", "Survey", "Created", "Scenes", "Comparisons"},
			summaryRows(summaries),
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight},
		))
		fmt.Printf("\n%d results\n", len(summaries))
		return nil
	})
}

func summaryRows(summaries []types.ResultSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		id := s.ID
		if len(id) > 16 {
			id = id[:13] + "..."
		}
		rows = append(rows, []string{
			id,
			s.SurveyID,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.Scenes),
			strconv.Itoa(s.Comparisons),
		})
	}
	return rows
}

// --- show subcommand ---

var resultsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored result",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsShow,
}

func runResultsShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	return withStore(func(ctx context.Context, st store.Store) error {
		r, err := st.Result(ctx, args[0])
		if err != nil {
			return fmt.Errorf("result %s: %w", args[0], err)
		}
		return writeFormatted(os.Stdout, format, r)
	})
}

// --- export subcommand ---

var resultsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every stored result to YAML or JSON",
	Long: `Export writes every stored result, keyed by id, to --out (default stdout)
in the chosen format.`,
	RunE: runResultsExport,
}

// exportedResult pairs a stored result with its id.
type exportedResult struct {
	ID     string       `json:"id" yaml:"id"`
	Result types.Result `json:"result" yaml:"result"`
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	return withStore(func(ctx context.Context, st store.Store) error {
		summaries, err := st.ListResults(ctx)
		if err != nil {
			return err
		}
		all := make([]exportedResult, 0, len(summaries))
		for _, s := range summaries {
			r, err := st.Result(ctx, s.ID)
			if err != nil {
				return fmt.Errorf("result %s: %w", s.ID, err)
			}
			all = append(all, exportedResult{ID: s.ID, Result: r})
		}

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}
		if err := writeFormatted(w, format, all); err != nil {
			return err
		}
		if out != "" {
			fmt.Fprintf(os.Stderr, "Exported %d results to %s\n", len(all), out)
		}
		return nil
	})
}

// --- shared helpers ---

func withStore(fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := appConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st)
}

func init() {
	resultsShowCmd.Flags().String("format", "yaml", "output format: yaml or json")
	resultsExportCmd.Flags().String("format", "json", "export format: yaml or json")
	resultsExportCmd.Flags().String("out", "", "output file (default: stdout)")

	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsShowCmd)
	resultsCmd.AddCommand(resultsExportCmd)

	rootCmd.AddCommand(resultsCmd)
}
