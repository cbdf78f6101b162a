package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/keyworddriven/loginharness/internal/services"
)

// HistoryReader reads run history
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	TestStats(ctx context.Context, limit int) ([]services.TestStat, error)
}

// PrintRuns writes the most recent runs as a table
func PrintRuns(ctx context.Context, out io.Writer, history HistoryReader, limit int) error {
	runs, err := history.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tBROWSER\tTOTAL\tPASSED\tFAILED\tSKIPPED")
	fmt.Fprintln(w, "--\t-------\t-------\t-----\t------\t------\t-------")
	for _, run := range runs {
		s := run.Summary()
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID,
			run.StartedAt.Format(time.RFC3339),
			run.Browser,
			s.Total,
			s.Passed,
			s.Failed,
			s.Skipped,
		)
	}
	return w.Flush()
}

// PrintTestStats writes per-test pass rates over the most recent runs
func PrintTestStats(ctx context.Context, out io.Writer, history HistoryReader, limit int) error {
	stats, err := history.TestStats(ctx, limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEST\tRUNS\tPASS RATE\tLAST\tLAST CAUSE")
	fmt.Fprintln(w, "----\t----\t---------\t----\t----------")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%.0f%%\t%s\t%s\n", s.Name, s.Runs, s.PassRate()*100, s.LastStatus, s.LastCause)
	}
	return w.Flush()
}
