// Package importer reconciles imported provider rows against the provider
// store: each row either updates the one existing record it represents or
// creates a new record, and no identifying code is inserted twice in a run.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/credenciados/internal/provider"
)

// RunError is a failure that stops the whole run, such as a failed count or
// a row transaction that cannot begin. No summary is produced.
type RunError struct {
	Op  string
	Err error
}

func (e *RunError) Error() string {
	return ErrRunFailure.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Is matches ErrRunFailure.
func (e *RunError) Is(target error) bool {
	return target == ErrRunFailure
}

// Engine runs imports against one store.
type Engine struct {
	store  provider.Store
	source string
	runID  string
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource names the input (usually the file name) in summaries and logs.
func WithSource(source string) Option {
	return func(e *Engine) { e.source = source }
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine over store. When store implements
// provider.Transactor every row is committed in its own transaction.
func New(store provider.Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// run holds the state owned by one execution of Engine.Run.
type run struct {
	store   provider.Store
	codes   *CodeSet
	summary *Summary
	log     *zap.Logger
}

// Run processes rows strictly in order. Row failures are collected in the
// summary; only failures outside the row loop return an error.
func (e *Engine) Run(ctx context.Context, rows []RawRow) (*Summary, error) {
	runID := e.runID
	if runID == "" {
		runID = uuid.New().String()
	}

	before, err := e.store.Count(ctx)
	if err != nil {
		return nil, &RunError{Op: "count providers", Err: err}
	}

	r := &run{
		store: e.store,
		codes: NewCodeSet(),
		summary: &Summary{
			RunID:            runID,
			Source:           e.source,
			Errors:           []string{},
			StoreTotalBefore: before,
			StartedAt:        e.now(),
		},
		log: zap.L().With(zap.String("run_id", runID), zap.String("source", e.source)),
	}

	r.log.Info("import started", zap.Int("rows", len(rows)), zap.Int("store_total", before))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, &RunError{Op: "cancelled", Err: err}
		}
		out, err := r.process(ctx, row)
		if err != nil {
			return nil, err
		}
		r.summary.record(out)
	}

	after, err := e.store.Count(ctx)
	if err != nil {
		return nil, &RunError{Op: "count providers", Err: err}
	}
	r.summary.StoreTotalAfter = after
	r.summary.FinishedAt = e.now()

	return r.summary, nil
}

// process runs one row through normalize, dedupe, match and resolve. A
// non-nil error means the store could not open the row's transaction and
// the run must stop.
func (r *run) process(ctx context.Context, row RawRow) (RowOutcome, error) {
	c, code, err := Normalize(row)
	if err != nil {
		return r.fail(row.Position, "", KindMissingRequiredField, err), nil
	}

	if r.codes.Observe(code) {
		r.log.Debug("importer: duplicate code in file, skipping row",
			zap.Int("row", row.Position),
			zap.String("code", string(code)),
		)
		return RowOutcome{Position: row.Position, Status: StatusSkippedDuplicate, Code: code}, nil
	}

	var out RowOutcome
	kind := KindStoreLookupFailure
	began, err := r.inTx(ctx, func(s provider.Store) error {
		m, err := MatchRecord(ctx, s, c, code)
		if err != nil {
			return err
		}
		kind = KindStoreWriteFailure
		out, err = Resolve(ctx, s, m, c, code)
		return err
	})
	if err != nil && !began {
		return RowOutcome{}, &RunError{Op: "begin row transaction", Err: err}
	}
	if err != nil {
		return r.fail(row.Position, code, kind, err), nil
	}

	out.Position = row.Position
	r.log.Debug("importer: row resolved",
		zap.Int("row", row.Position),
		zap.String("status", string(out.Status)),
		zap.String("strategy", string(out.Strategy)),
		zap.Int64("provider_id", out.ProviderID),
		zap.String("code", string(code)),
	)
	return out, nil
}

// inTx scopes fn to a transaction when the store supports one. began is
// false when the transaction failed before fn ran.
func (r *run) inTx(ctx context.Context, fn func(s provider.Store) error) (began bool, err error) {
	tx, ok := r.store.(provider.Transactor)
	if !ok {
		return true, fn(r.store)
	}
	err = tx.InTx(ctx, func(s provider.Store) error {
		began = true
		return fn(s)
	})
	return began, err
}

func (r *run) fail(pos int, code Code, kind ErrorKind, err error) RowOutcome {
	rowErr := &RowError{Position: pos, Kind: kind, Err: err}
	r.log.Warn("importer: row failed",
		zap.Int("row", pos),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return RowOutcome{Position: pos, Status: StatusFailed, Code: code, Err: rowErr}
}
