package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/credenciados/internal/provider"
)

// RawRow is one input record. Fields is keyed by lowercase, trimmed column
// name; a missing key means the column is absent.
type RawRow struct {
	Position int
	Fields   map[string]string
}

// Get returns the raw value for a column and whether the column is present.
func (r RawRow) Get(col string) (string, bool) {
	v, ok := r.Fields[col]
	return v, ok
}

// Source column names.
const (
	ColName       = "nome"
	ColCRM        = "crm"
	ColPhone      = "telefone"
	ColEmail      = "email"
	ColStatus     = "status"
	ColType       = "tipo"
	ColStreet     = "logradouro"
	ColDistrict   = "bairro"
	ColNumber     = "numero"
	ColCity       = "cidade"
	ColState      = "estado"
	ColZipCode    = "cep"
	ColComplexity = "complexidade"
)

// codeAliases lists the identifying-code columns in priority order.
var codeAliases = []string{"credenciamento", "codigo", "cod", "id_credenciamento", "id"}

// Code is a canonical identifying code. The empty Code means "no code".
type Code string

// Candidate is the normalized provider data extracted from one row.
// Optional fields are nil when the source value was absent or blank.
type Candidate struct {
	Name       string
	CRM        *string
	Phone      *string
	Email      *string
	Status     *string
	Type       *string
	Street     *string
	District   *string
	Number     *string
	City       *string
	State      *string
	ZipCode    *string
	Complexity *string
}

// Normalize cleans a raw row into a Candidate and its identifying code.
func Normalize(row RawRow) (Candidate, Code, error) {
	name := optional(row, ColName)
	if name == nil {
		return Candidate{}, "", eris.Wrap(ErrMissingRequiredField, ColName)
	}

	c := Candidate{
		Name:       *name,
		CRM:        optional(row, ColCRM),
		Phone:      optional(row, ColPhone),
		Email:      optional(row, ColEmail),
		Status:     optional(row, ColStatus),
		Type:       optional(row, ColType),
		Street:     optional(row, ColStreet),
		District:   optional(row, ColDistrict),
		Number:     optional(row, ColNumber),
		City:       optional(row, ColCity),
		State:      optional(row, ColState),
		ZipCode:    optional(row, ColZipCode),
		Complexity: optional(row, ColComplexity),
	}
	return c, extractCode(row), nil
}

// optional returns the trimmed value of col, or nil when absent or blank.
func optional(row RawRow, col string) *string {
	v, ok := row.Get(col)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// extractCode scans codeAliases and returns the first non-empty code.
func extractCode(row RawRow) Code {
	for _, alias := range codeAliases {
		v, ok := row.Get(alias)
		if !ok {
			continue
		}
		if code := NormalizeCode(v); code != "" {
			return code
		}
	}
	return ""
}

// NormalizeCode canonicalizes a raw code value. Integral numbers written as
// floats collapse to their decimal form ("123.0" -> "123"); anything else is
// kept as trimmed text.
func NormalizeCode(raw string) Code {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if isDigits(s) {
		return Code(s)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return Code(s)
	}
	if f == 0 {
		return "0"
	}
	return Code(strconv.FormatFloat(f, 'f', -1, 64))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MergeInto applies every present field onto r. Nil fields leave the
// existing value untouched.
func (c Candidate) MergeInto(r *provider.Record) {
	r.Name = c.Name
	mergeField(&r.CRM, c.CRM)
	mergeField(&r.Phone, c.Phone)
	mergeField(&r.Email, c.Email)
	mergeField(&r.Status, c.Status)
	mergeField(&r.Type, c.Type)
	mergeField(&r.Street, c.Street)
	mergeField(&r.District, c.District)
	mergeField(&r.Number, c.Number)
	mergeField(&r.City, c.City)
	mergeField(&r.State, c.State)
	mergeField(&r.ZipCode, c.ZipCode)
	mergeField(&r.Complexity, c.Complexity)
}

func mergeField(dst **string, src *string) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}

// NewRecord builds a provider record from the candidate, tagged with code
// when one is present.
func (c Candidate) NewRecord(code Code) *provider.Record {
	r := &provider.Record{}
	c.MergeInto(r)
	if code != "" {
		s := string(code)
		r.Code = &s
	}
	return r
}
