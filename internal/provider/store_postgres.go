package provider

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/credenciados/internal/db"
)

// PostgresStore implements Backend using pgx.
type PostgresStore struct {
	pool    db.Pool    // nil when bound to a transaction
	q       db.Querier // pool or the open transaction
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}

	s := NewPostgresStore(pool)
	s.closeFn = pool.Close
	return s, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, q: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS providers (
	id                BIGSERIAL PRIMARY KEY,
	code              VARCHAR(50),
	name              VARCHAR(150) NOT NULL,
	crm               VARCHAR(20),
	phone             VARCHAR(20),
	email             VARCHAR(150),
	status            VARCHAR(50),
	provider_type     VARCHAR(50),
	street            VARCHAR(150),
	district          VARCHAR(100),
	number            VARCHAR(10),
	city              VARCHAR(100),
	state             VARCHAR(2),
	zip_code          VARCHAR(15),
	complexity        VARCHAR(50),
	contract_date     DATE,
	latitude          DOUBLE PRECISION,
	longitude         DOUBLE PRECISION,
	strategic_partner BOOLEAN NOT NULL DEFAULT false,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_providers_code ON providers(code);
CREATE INDEX IF NOT EXISTS idx_providers_crm ON providers(crm);
CREATE INDEX IF NOT EXISTS idx_providers_email ON providers(email);
CREATE INDEX IF NOT EXISTS idx_providers_phone ON providers(phone);
CREATE INDEX IF NOT EXISTS idx_providers_name_city ON providers(name, city);

CREATE TABLE IF NOT EXISTS import_logs (
	id          BIGSERIAL PRIMARY KEY,
	run_id      TEXT NOT NULL UNIQUE,
	description VARCHAR(150) NOT NULL,
	source      TEXT,
	total       INTEGER NOT NULL DEFAULT 0,
	inserted    INTEGER NOT NULL DEFAULT 0,
	updated     INTEGER NOT NULL DEFAULT 0,
	duplicates  INTEGER NOT NULL DEFAULT 0,
	errors      INTEGER NOT NULL DEFAULT 0,
	store_total INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);
`

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.q.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate creates the provider tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool when the store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// InTx runs fn against a store bound to a new transaction. Nested calls
// reuse the open transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(s Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&PostgresStore{q: tx})
	})
}

// Get fetches a provider by ID. Returns nil when it does not exist.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Record, error) {
	r := &Record{}
	err := s.q.QueryRow(ctx, `SELECT `+recordColumns+` FROM providers WHERE id = $1`, id).
		Scan(recordDests(r)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get provider %d", id)
	}
	return r, nil
}

// FindBy returns every provider matching all filters, oldest first.
func (s *PostgresStore) FindBy(ctx context.Context, filters ...Filter) ([]Record, error) {
	where, args, err := whereClause(filters, func(i int) string { return "$" + strconv.Itoa(i+1) })
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, `SELECT `+recordColumns+` FROM providers WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: find providers")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(recordDests(&r)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan provider")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: find providers iterate")
}

// Insert creates a provider and sets its ID and timestamps.
func (s *PostgresStore) Insert(ctx context.Context, r *Record) (int64, error) {
	err := s.q.QueryRow(ctx, `
		INSERT INTO providers (
			code, name, crm, phone, email, status, provider_type,
			street, district, number, city, state, zip_code, complexity,
			contract_date, latitude, longitude, strategic_partner
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18
		) RETURNING id, created_at, updated_at`,
		writeArgs(r)...,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert provider")
	}
	return r.ID, nil
}

// Update overwrites every mutable column of an existing provider.
func (s *PostgresStore) Update(ctx context.Context, r *Record) error {
	args := append([]any{r.ID}, writeArgs(r)...)
	tag, err := s.q.Exec(ctx, `
		UPDATE providers SET
			code=$2, name=$3, crm=$4, phone=$5, email=$6, status=$7, provider_type=$8,
			street=$9, district=$10, number=$11, city=$12, state=$13, zip_code=$14, complexity=$15,
			contract_date=$16, latitude=$17, longitude=$18, strategic_partner=$19,
			updated_at=now()
		WHERE id=$1`,
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update provider %d", r.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: provider not found: %d", r.ID)
	}
	return nil
}

// Count returns the number of providers.
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM providers`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count providers")
	}
	return n, nil
}

// CreateImportLog inserts the log entry for a starting run.
func (s *PostgresStore) CreateImportLog(ctx context.Context, l *ImportLog) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO import_logs (run_id, description, source, total)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		l.RunID, l.Description, l.Source, l.Total,
	).Scan(&l.ID, &l.CreatedAt)
	return eris.Wrap(err, "postgres: create import log")
}

// FinishImportLog stores the final counters of a run.
func (s *PostgresStore) FinishImportLog(ctx context.Context, l *ImportLog) error {
	now := time.Now().UTC()
	tag, err := s.q.Exec(ctx, `
		UPDATE import_logs SET
			total=$2, inserted=$3, updated=$4, duplicates=$5, errors=$6, store_total=$7, finished_at=$8
		WHERE id=$1`,
		l.ID, l.Total, l.Inserted, l.Updated, l.Duplicates, l.Errors, l.StoreTotal, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish import log %d", l.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: import log not found: %d", l.ID)
	}
	l.FinishedAt = &now
	return nil
}

// ListImportLogs returns the most recent import logs first.
func (s *PostgresStore) ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+importLogColumns+`
		FROM import_logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list import logs")
	}
	defer rows.Close()

	var logs []ImportLog
	for rows.Next() {
		l, err := scanImportLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list import logs iterate")
}

// GetImportLog fetches one import log. Returns nil when it does not exist.
func (s *PostgresStore) GetImportLog(ctx context.Context, id int64) (*ImportLog, error) {
	l, err := scanImportLog(s.q.QueryRow(ctx, `
		SELECT `+importLogColumns+`
		FROM import_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get import log %d", id)
	}
	return l, nil
}

func scanImportLog(row scannable) (*ImportLog, error) {
	var l ImportLog
	var source *string
	err := row.Scan(&l.ID, &l.RunID, &l.Description, &source, &l.Total, &l.Inserted, &l.Updated,
		&l.Duplicates, &l.Errors, &l.StoreTotal, &l.CreatedAt, &l.FinishedAt)
	if err != nil {
		return nil, eris.Wrap(err, "scan import log")
	}
	if source != nil {
		l.Source = *source
	}
	return &l, nil
}
