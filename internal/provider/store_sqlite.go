package provider

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Backend using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB    // nil when bound to a transaction
	q  sqlQuerier // db or the open transaction
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// A single connection keeps transactions and reads on the same view.
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, q: conn}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	code              TEXT,
	name              TEXT NOT NULL,
	crm               TEXT,
	phone             TEXT,
	email             TEXT,
	status            TEXT,
	provider_type     TEXT,
	street            TEXT,
	district          TEXT,
	number            TEXT,
	city              TEXT,
	state             TEXT,
	zip_code          TEXT,
	complexity        TEXT,
	contract_date     DATETIME,
	latitude          REAL,
	longitude         REAL,
	strategic_partner BOOLEAN NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_providers_code ON providers(code);
CREATE INDEX IF NOT EXISTS idx_providers_crm ON providers(crm);
CREATE INDEX IF NOT EXISTS idx_providers_email ON providers(email);
CREATE INDEX IF NOT EXISTS idx_providers_phone ON providers(phone);
CREATE INDEX IF NOT EXISTS idx_providers_name_city ON providers(name, city);

CREATE TABLE IF NOT EXISTS import_logs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL,
	source      TEXT,
	total       INTEGER NOT NULL DEFAULT 0,
	inserted    INTEGER NOT NULL DEFAULT 0,
	updated     INTEGER NOT NULL DEFAULT 0,
	duplicates  INTEGER NOT NULL DEFAULT 0,
	errors      INTEGER NOT NULL DEFAULT 0,
	store_total INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);
`

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, "SELECT 1")
	return eris.Wrap(err, "sqlite: ping")
}

// Migrate creates the provider tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.q.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database when the store owns it.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InTx runs fn against a store bound to a new transaction. Nested calls
// reuse the open transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(s Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&SQLiteStore{q: tx}); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

// Get fetches a provider by ID. Returns nil when it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Record, error) {
	r := &Record{}
	err := s.q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM providers WHERE id = ?`, id).
		Scan(recordDests(r)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get provider %d", id)
	}
	return r, nil
}

// FindBy returns every provider matching all filters, oldest first.
func (s *SQLiteStore) FindBy(ctx context.Context, filters ...Filter) ([]Record, error) {
	where, args, err := whereClause(filters, func(int) string { return "?" })
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx, `SELECT `+recordColumns+` FROM providers WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: find providers")
	}
	defer rows.Close() //nolint:errcheck

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(recordDests(&r)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan provider")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: find providers iterate")
}

// Insert creates a provider and sets its ID and timestamps.
func (s *SQLiteStore) Insert(ctx context.Context, r *Record) (int64, error) {
	now := time.Now().UTC()
	args := append(writeArgs(r), now, now)
	res, err := s.q.ExecContext(ctx, `
		INSERT INTO providers (
			code, name, crm, phone, email, status, provider_type,
			street, district, number, city, state, zip_code, complexity,
			contract_date, latitude, longitude, strategic_partner,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: insert provider")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: last insert id")
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return id, nil
}

// Update overwrites every mutable column of an existing provider.
func (s *SQLiteStore) Update(ctx context.Context, r *Record) error {
	now := time.Now().UTC()
	args := append(writeArgs(r), now, r.ID)
	res, err := s.q.ExecContext(ctx, `
		UPDATE providers SET
			code = ?, name = ?, crm = ?, phone = ?, email = ?, status = ?, provider_type = ?,
			street = ?, district = ?, number = ?, city = ?, state = ?, zip_code = ?, complexity = ?,
			contract_date = ?, latitude = ?, longitude = ?, strategic_partner = ?,
			updated_at = ?
		WHERE id = ?`,
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update provider %d", r.ID)
	}
	if err := checkRowsAffected(res, "provider", r.ID); err != nil {
		return err
	}
	r.UpdatedAt = now
	return nil
}

// Count returns the number of providers.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT count(*) FROM providers`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: count providers")
	}
	return n, nil
}

// CreateImportLog inserts the log entry for a starting run.
func (s *SQLiteStore) CreateImportLog(ctx context.Context, l *ImportLog) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO import_logs (run_id, description, source, total, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.RunID, l.Description, l.Source, l.Total, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: create import log")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "sqlite: last insert id")
	}
	l.ID = id
	l.CreatedAt = now
	return nil
}

// FinishImportLog stores the final counters of a run.
func (s *SQLiteStore) FinishImportLog(ctx context.Context, l *ImportLog) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `
		UPDATE import_logs SET
			total = ?, inserted = ?, updated = ?, duplicates = ?, errors = ?, store_total = ?, finished_at = ?
		WHERE id = ?`,
		l.Total, l.Inserted, l.Updated, l.Duplicates, l.Errors, l.StoreTotal, now, l.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish import log %d", l.ID)
	}
	if err := checkRowsAffected(res, "import log", l.ID); err != nil {
		return err
	}
	l.FinishedAt = &now
	return nil
}

// ListImportLogs returns the most recent import logs first.
func (s *SQLiteStore) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+importLogColumns+`
		FROM import_logs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list import logs")
	}
	defer rows.Close() //nolint:errcheck

	var logs []ImportLog
	for rows.Next() {
		l, err := scanImportLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: list import logs iterate")
}

// GetImportLog fetches one import log. Returns nil when it does not exist.
func (s *SQLiteStore) GetImportLog(ctx context.Context, id int64) (*ImportLog, error) {
	l, err := scanImportLog(s.q.QueryRowContext(ctx, `
		SELECT `+importLogColumns+`
		FROM import_logs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get import log %d", id)
	}
	return l, nil
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}
