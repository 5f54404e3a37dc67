// Package provider defines the accredited provider record and its persistence.
package provider

import (
	"time"
)

// Record is a persisted accredited provider ("credenciado").
type Record struct {
	ID   int64   `json:"id" db:"id"`
	Code *string `json:"code,omitempty" db:"code"`
	Name string  `json:"name" db:"name"`

	CRM    *string `json:"crm,omitempty" db:"crm"`
	Phone  *string `json:"phone,omitempty" db:"phone"`
	Email  *string `json:"email,omitempty" db:"email"`
	Status *string `json:"status,omitempty" db:"status"`
	Type   *string `json:"type,omitempty" db:"provider_type"`

	// Address
	Street   *string `json:"street,omitempty" db:"street"`
	District *string `json:"district,omitempty" db:"district"`
	Number   *string `json:"number,omitempty" db:"number"`
	City     *string `json:"city,omitempty" db:"city"`
	State    *string `json:"state,omitempty" db:"state"`
	ZipCode  *string `json:"zip_code,omitempty" db:"zip_code"`

	Complexity *string `json:"complexity,omitempty" db:"complexity"`

	// Maintained outside the importer.
	ContractDate     *time.Time `json:"contract_date,omitempty" db:"contract_date"`
	Latitude         *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64   `json:"longitude,omitempty" db:"longitude"`
	StrategicPartner bool       `json:"strategic_partner" db:"strategic_partner"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Field names a lookup column on the providers table.
type Field string

// Lookup fields.
const (
	FieldCode  Field = "code"
	FieldName  Field = "name"
	FieldCRM   Field = "crm"
	FieldPhone Field = "phone"
	FieldEmail Field = "email"
	FieldCity  Field = "city"
)

// lookupColumns guards FindBy against arbitrary column names.
var lookupColumns = map[Field]string{
	FieldCode:  "code",
	FieldName:  "name",
	FieldCRM:   "crm",
	FieldPhone: "phone",
	FieldEmail: "email",
	FieldCity:  "city",
}

// Filter is one equality condition of a FindBy lookup.
type Filter struct {
	Field Field
	Value string
}

// Eq builds an equality filter.
func Eq(field Field, value string) Filter {
	return Filter{Field: field, Value: value}
}

// ImportLog records one import run and its final counters.
type ImportLog struct {
	ID          int64      `json:"id" yaml:"id" db:"id"`
	RunID       string     `json:"run_id" yaml:"run_id" db:"run_id"`
	Description string     `json:"description" yaml:"description" db:"description"`
	Source      string     `json:"source,omitempty" yaml:"source,omitempty" db:"source"`
	Total       int        `json:"total" yaml:"total" db:"total"`
	Inserted    int        `json:"inserted" yaml:"inserted" db:"inserted"`
	Updated     int        `json:"updated" yaml:"updated" db:"updated"`
	Duplicates  int        `json:"duplicates" yaml:"duplicates" db:"duplicates"`
	Errors      int        `json:"errors" yaml:"errors" db:"errors"`
	StoreTotal  int        `json:"store_total" yaml:"store_total" db:"store_total"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at" db:"created_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty" db:"finished_at"`
}
