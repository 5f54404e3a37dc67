package provider

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Store defines the provider persistence operations used by the importer.
// Lookups must observe writes made earlier through the same Store.
type Store interface {
	Get(ctx context.Context, id int64) (*Record, error)
	FindBy(ctx context.Context, filters ...Filter) ([]Record, error)
	Insert(ctx context.Context, r *Record) (int64, error)
	Update(ctx context.Context, r *Record) error
	Count(ctx context.Context) (int, error)
}

// Transactor is implemented by stores that can scope a unit of work to a
// transaction. fn receives a Store bound to the transaction; returning an
// error rolls back everything fn wrote.
type Transactor interface {
	InTx(ctx context.Context, fn func(s Store) error) error
}

// LogStore persists the import log.
type LogStore interface {
	CreateImportLog(ctx context.Context, l *ImportLog) error
	FinishImportLog(ctx context.Context, l *ImportLog) error
	ListImportLogs(ctx context.Context, limit int) ([]ImportLog, error)
	GetImportLog(ctx context.Context, id int64) (*ImportLog, error)
}

// Backend is a complete provider database.
type Backend interface {
	Store
	Transactor
	LogStore

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// whereClause renders filters as "col = <ph>" conditions joined by AND.
// placeholder returns the bind marker for the i-th (0-based) argument.
func whereClause(filters []Filter, placeholder func(i int) string) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, eris.New("provider: find requires at least one filter")
	}

	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for i, f := range filters {
		col, ok := lookupColumns[f.Field]
		if !ok {
			return "", nil, eris.Errorf("provider: unsupported lookup field %q", f.Field)
		}
		conds = append(conds, col+" = "+placeholder(i))
		args = append(args, f.Value)
	}
	return strings.Join(conds, " AND "), args, nil
}

const recordColumns = `id, code, name, crm, phone, email, status, provider_type,
	street, district, number, city, state, zip_code, complexity,
	contract_date, latitude, longitude, strategic_partner, created_at, updated_at`

const importLogColumns = `id, run_id, description, source, total, inserted, updated, duplicates, errors,
			store_total, created_at, finished_at`

type scannable interface {
	Scan(dest ...any) error
}

func recordDests(r *Record) []any {
	return []any{
		&r.ID, &r.Code, &r.Name, &r.CRM, &r.Phone, &r.Email, &r.Status, &r.Type,
		&r.Street, &r.District, &r.Number, &r.City, &r.State, &r.ZipCode, &r.Complexity,
		&r.ContractDate, &r.Latitude, &r.Longitude, &r.StrategicPartner, &r.CreatedAt, &r.UpdatedAt,
	}
}

// writeArgs returns the mutable columns in recordColumns order, without id
// and timestamps.
func writeArgs(r *Record) []any {
	return []any{
		r.Code, r.Name, r.CRM, r.Phone, r.Email, r.Status, r.Type,
		r.Street, r.District, r.Number, r.City, r.State, r.ZipCode, r.Complexity,
		r.ContractDate, r.Latitude, r.Longitude, r.StrategicPartner,
	}
}
