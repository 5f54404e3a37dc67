package importer

import (
	"context"

	"github.com/sells-group/credenciados/internal/provider"
)

// Status is the classification of one processed row.
type Status string

// Row statuses.
const (
	StatusInserted         Status = "inserted"
	StatusUpdated          Status = "updated"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusFailed           Status = "failed"
)

// RowOutcome is the engine's decision for one row.
type RowOutcome struct {
	Position   int       `json:"position" yaml:"position"`
	Status     Status    `json:"status" yaml:"status"`
	ProviderID int64     `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	Code       Code      `json:"code,omitempty" yaml:"code,omitempty"`
	Strategy   Strategy  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Err        *RowError `json:"-" yaml:"-"`
}

// Resolve applies a match verdict to the store: a found record is updated
// in place with every present candidate field, otherwise a new record is
// inserted. A non-empty code is stamped on the record either way.
func Resolve(ctx context.Context, store provider.Store, m Match, c Candidate, code Code) (RowOutcome, error) {
	out := RowOutcome{Code: code, Strategy: m.Strategy}

	if !m.Found() {
		id, err := store.Insert(ctx, c.NewRecord(code))
		if err != nil {
			return out, err
		}
		out.Status = StatusInserted
		out.ProviderID = id
		return out, nil
	}

	rec := *m.Record
	c.MergeInto(&rec)
	if code != "" {
		s := string(code)
		rec.Code = &s
	}
	if err := store.Update(ctx, &rec); err != nil {
		return out, err
	}
	out.Status = StatusUpdated
	out.ProviderID = rec.ID
	return out, nil
}
