package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sells-group/credenciados/internal/importer"
	"github.com/sells-group/credenciados/internal/provider"
)

func validFormat(f string) bool {
	switch f {
	case "text", "json", "yaml":
		return true
	}
	return false
}

// summaryOutput is the printed form of a run summary. Errors holds at most
// the displayed messages; ErrorCount is always the true total.
type summaryOutput struct {
	importer.Summary `yaml:",inline"`
	ErrorCount       int `json:"error_count" yaml:"error_count"`
}

// writeSummary prints s in the given format showing at most maxErrors row
// errors (0 shows all).
func writeSummary(out io.Writer, s *importer.Summary, format string, maxErrors int, outcomes bool) error {
	view := summaryOutput{Summary: *s, ErrorCount: s.ErrorCount()}
	view.Errors = s.DisplayErrors(maxErrors)
	if !outcomes {
		view.Outcomes = nil
	}

	switch format {
	case "json", "yaml":
		return encode(out, view, format)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", s.RunID)
	if s.Source != "" {
		_, _ = fmt.Fprintf(w, "Source:\t%s\n", s.Source)
	}
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Inserted:\t%d\n", s.Inserted)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", s.Updated)
	_, _ = fmt.Fprintf(w, "Duplicates skipped:\t%d\n", s.DuplicatesSkipped)
	_, _ = fmt.Fprintf(w, "Errors:\t%d\n", view.ErrorCount)
	_, _ = fmt.Fprintf(w, "Providers in registry:\t%d\n", s.StoreTotalAfter)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", s.Duration().Round(time.Millisecond))
	_ = w.Flush()

	if len(view.Errors) == 0 {
		return nil
	}
	if len(view.Errors) < view.ErrorCount {
		_, _ = fmt.Fprintf(out, "\nFirst %d of %d errors:\n", len(view.Errors), view.ErrorCount)
	} else {
		_, _ = fmt.Fprintln(out, "\nErrors:")
	}
	for _, e := range view.Errors {
		_, _ = fmt.Fprintf(out, "  %s\n", e)
	}
	return nil
}

// formatImportLogs writes a tabular list of import logs to out.
func formatImportLogs(out io.Writer, logs []provider.ImportLog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tCREATED\tTOTAL\tINSERTED\tUPDATED\tDUPLICATES\tERRORS\tSTATUS\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "--\t---\t-------\t-----\t--------\t-------\t----------\t------\t------\t-----------")

	for _, l := range logs {
		status := "finished"
		if l.FinishedAt == nil {
			status = "incomplete"
		}
		desc := l.Description
		if len([]rune(desc)) > 60 {
			desc = string([]rune(desc)[:57]) + "..."
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			l.ID,
			truncateID(l.RunID),
			l.CreatedAt.Format("2006-01-02 15:04"),
			l.Total,
			l.Inserted,
			l.Updated,
			l.Duplicates,
			l.Errors,
			status,
			desc,
		)
	}
	_ = w.Flush()
}

// formatImportLog writes one import log as a key/value block.
func formatImportLog(out io.Writer, l *provider.ImportLog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID:\t%d\n", l.ID)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", l.RunID)
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", l.Description)
	if l.Source != "" {
		_, _ = fmt.Fprintf(w, "Source:\t%s\n", l.Source)
	}
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", l.CreatedAt.Format(time.RFC3339))
	if l.FinishedAt != nil {
		_, _ = fmt.Fprintf(w, "Finished:\t%s\n", l.FinishedAt.Format(time.RFC3339))
	} else {
		_, _ = fmt.Fprintln(w, "Finished:\tincomplete")
	}
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", l.Total)
	_, _ = fmt.Fprintf(w, "Inserted:\t%d\n", l.Inserted)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", l.Updated)
	_, _ = fmt.Fprintf(w, "Duplicates skipped:\t%d\n", l.Duplicates)
	_, _ = fmt.Fprintf(w, "Errors:\t%d\n", l.Errors)
	_, _ = fmt.Fprintf(w, "Providers in registry:\t%d\n", l.StoreTotal)
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
