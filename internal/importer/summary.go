package importer

import (
	"time"

	"go.uber.org/zap"
)

// Summary is the terminal report of one import run.
type Summary struct {
	RunID             string       `json:"run_id" yaml:"run_id"`
	Source            string       `json:"source,omitempty" yaml:"source,omitempty"`
	Total             int          `json:"total" yaml:"total"`
	Inserted          int          `json:"inserted" yaml:"inserted"`
	Updated           int          `json:"updated" yaml:"updated"`
	DuplicatesSkipped int          `json:"duplicates_skipped" yaml:"duplicates_skipped"`
	Errors            []string     `json:"errors" yaml:"errors"`
	StoreTotalBefore  int          `json:"store_total_before" yaml:"store_total_before"`
	StoreTotalAfter   int          `json:"store_total_after" yaml:"store_total_after"`
	Outcomes          []RowOutcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	StartedAt         time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt        time.Time    `json:"finished_at" yaml:"finished_at"`
}

// ErrorCount is the true number of failed rows, regardless of display
// truncation.
func (s *Summary) ErrorCount() int {
	return len(s.Errors)
}

// DisplayErrors returns at most n error messages in row order. n <= 0
// returns all of them.
func (s *Summary) DisplayErrors(n int) []string {
	if n <= 0 || n >= len(s.Errors) {
		return s.Errors
	}
	return s.Errors[:n]
}

// Duration is the wall time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// record folds one row outcome into the counters.
func (s *Summary) record(o RowOutcome) {
	s.Total++
	switch o.Status {
	case StatusInserted:
		s.Inserted++
	case StatusUpdated:
		s.Updated++
	case StatusSkippedDuplicate:
		s.DuplicatesSkipped++
	case StatusFailed:
		s.Errors = append(s.Errors, o.Err.Error())
	}
	s.Outcomes = append(s.Outcomes, o)
}

// Log writes the run summary to the global logger.
func (s *Summary) Log() {
	zap.L().Info("import complete",
		zap.String("run_id", s.RunID),
		zap.String("source", s.Source),
		zap.Int("total", s.Total),
		zap.Int("inserted", s.Inserted),
		zap.Int("updated", s.Updated),
		zap.Int("duplicates_skipped", s.DuplicatesSkipped),
		zap.Int("errors", s.ErrorCount()),
		zap.Int("store_total", s.StoreTotalAfter),
		zap.Duration("duration", s.Duration()),
	)
}
