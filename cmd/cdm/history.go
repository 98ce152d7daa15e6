package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lavan1999/agentic-ai/internal/store"
)

func newHistoryCmd(configPath *string) *cobra.Command {
	var (
		limit         int
		runID         string
		declarationID string
		summary       bool
		since         time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeApp, err := openHistory(*configPath)
			if err != nil {
				return err
			}
			defer closeApp()

			out := cmd.OutOrStdout()
			var from time.Time
			if since > 0 {
				from = time.Now().Add(-since)
			}
			switch {
			case strings.TrimSpace(runID) != "":
				run, err := db.GetRun(runID)
				if err != nil {
					return err
				}
				return printRun(out, run)
			case summary:
				counts, err := db.DecisionCounts(from)
				if err != nil {
					return err
				}
				return printSummary(out, counts)
			default:
				runs, total, err := db.ListRuns(store.RunQuery{DeclarationID: declarationID, Since: from, Limit: limit})
				if err != nil {
					return err
				}
				return printRuns(out, runs, total)
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "show one run with its per-risk outcomes")
	cmd.Flags().StringVar(&declarationID, "declaration", "", "only runs for this declaration")
	cmd.Flags().BoolVar(&summary, "summary", false, "count outcomes by decision and risk type")
	cmd.Flags().DurationVar(&since, "since", 0, "only runs newer than this age, e.g. 24h")
	return cmd
}

func newPruneCmd(configPath *string) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded runs older than a given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			db, closeApp, err := openHistory(*configPath)
			if err != nil {
				return err
			}
			defer closeApp()

			removed, err := db.PruneRuns(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d runs\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the runs to delete")
	return cmd
}

func openHistory(configPath string) (*store.Database, func(), error) {
	app, err := loadApp(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := app.history()
	if err != nil {
		app.Close()
		return nil, nil, err
	}
	if db == nil {
		app.Close()
		return nil, nil, errors.New("run history is disabled in the configuration")
	}
	return db, app.Close, nil
}

func printRuns(out io.Writer, runs []store.Run, total int64) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tDECLARATION\tRISKS\tFAILED\tDURATION\tCREATED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%dms\t%s\n",
			run.ID, run.DeclarationID, run.RiskCount, run.FailedCount, run.DurationMs,
			run.CreatedAt.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "\n%d of %d runs\n", len(runs), total)
	return w.Flush()
}

func printRun(out io.Writer, run *store.Run) error {
	fmt.Fprintf(out, "run %s  declaration %s  %s  %dms\n\n",
		run.ID, run.DeclarationID, run.CreatedAt.Local().Format(time.RFC3339), run.DurationMs)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RISK\tTYPE\tVERIFIER\tDECISION\tFEEDBACK")
	for _, outcome := range run.Outcomes {
		decision, feedback := "-", outcome.Error
		if outcome.Decision != nil {
			decision = *outcome.Decision
		}
		if outcome.Feedback != nil {
			feedback = *outcome.Feedback
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			outcome.RiskID, outcome.RiskType, outcome.VerifierStatus, decision, oneLine(feedback))
	}
	return w.Flush()
}

func printSummary(out io.Writer, counts []store.DecisionCount) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DECISION\tRISK TYPE\tTOTAL")
	for _, c := range counts {
		decision := c.Decision
		if decision == "" {
			decision = "(failed)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\n", decision, c.RiskType, c.Total)
	}
	return w.Flush()
}

func oneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
