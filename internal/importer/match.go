package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/credenciados/internal/provider"
)

// Strategy names one lookup of the fallback chain.
type Strategy string

// Lookup strategies in the order they are tried.
const (
	StrategyCode     Strategy = "code"
	StrategyCRM      Strategy = "crm"
	StrategyEmail    Strategy = "email"
	StrategyPhone    Strategy = "phone"
	StrategyNameCity Strategy = "name_city"
)

// Match is the matcher's verdict. Record is nil when nothing matched.
type Match struct {
	Record   *provider.Record
	Strategy Strategy
}

// Found reports whether an existing record was matched.
func (m Match) Found() bool {
	return m.Record != nil
}

// ID is the matched record's ID, or 0.
func (m Match) ID() int64 {
	if m.Record == nil {
		return 0
	}
	return m.Record.ID
}

// lookup is one step of a fallback chain. filters returns nil when the
// candidate lacks the fields that drive the lookup.
type lookup struct {
	strategy Strategy
	filters  func(c Candidate, code Code) []provider.Filter
	// oldestWins resolves several hits to the lowest ID instead of treating
	// them as ambiguous.
	oldestWins bool
	// tolerant lookups log a store error and fall through to the next
	// strategy instead of failing the row.
	tolerant bool
}

var (
	byCode = lookup{
		strategy: StrategyCode,
		filters: func(_ Candidate, code Code) []provider.Filter {
			return []provider.Filter{provider.Eq(provider.FieldCode, string(code))}
		},
		oldestWins: true,
		tolerant:   true,
	}
	byCRM      = fieldLookup(StrategyCRM, provider.FieldCRM, func(c Candidate) *string { return c.CRM })
	byEmail    = fieldLookup(StrategyEmail, provider.FieldEmail, func(c Candidate) *string { return c.Email })
	byPhone    = fieldLookup(StrategyPhone, provider.FieldPhone, func(c Candidate) *string { return c.Phone })
	byNameCity = lookup{
		strategy: StrategyNameCity,
		filters: func(c Candidate, _ Code) []provider.Filter {
			if c.City == nil {
				return nil
			}
			return []provider.Filter{
				provider.Eq(provider.FieldName, c.Name),
				provider.Eq(provider.FieldCity, *c.City),
			}
		},
	}
)

// coded is the chain for rows carrying an identifying code; uncoded is the
// reduced chain for rows without one.
var (
	coded   = []lookup{byCode, byCRM, byEmail, byPhone, byNameCity}
	uncoded = []lookup{byCRM, byEmail}
)

func fieldLookup(s Strategy, field provider.Field, get func(Candidate) *string) lookup {
	return lookup{
		strategy: s,
		filters: func(c Candidate, _ Code) []provider.Filter {
			v := get(c)
			if v == nil {
				return nil
			}
			return []provider.Filter{provider.Eq(field, *v)}
		},
	}
}

// Chain returns the strategies tried for a row with or without a code.
func Chain(code Code) []Strategy {
	chain := uncoded
	if code != "" {
		chain = coded
	}
	out := make([]Strategy, len(chain))
	for i, l := range chain {
		out[i] = l.strategy
	}
	return out
}

// MatchRecord finds the single existing record the candidate represents.
// Each strategy must yield exactly one record to win; zero or several hits
// are inconclusive and the next strategy is tried. A failed code lookup is
// also inconclusive; a failed fallback lookup is returned as an error.
func MatchRecord(ctx context.Context, store provider.Store, c Candidate, code Code) (Match, error) {
	chain := uncoded
	if code != "" {
		chain = coded
	}

	for _, l := range chain {
		filters := l.filters(c, code)
		if filters == nil {
			continue
		}

		found, err := store.FindBy(ctx, filters...)
		if err != nil && l.tolerant {
			zap.L().Warn("importer: lookup failed, trying next strategy",
				zap.String("strategy", string(l.strategy)),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return Match{}, eris.Wrapf(err, "match by %s", l.strategy)
		}

		switch {
		case len(found) == 1, len(found) > 1 && l.oldestWins:
			rec := found[0]
			return Match{Record: &rec, Strategy: l.strategy}, nil
		case len(found) > 1:
			zap.L().Debug("importer: ambiguous match, trying next strategy",
				zap.String("strategy", string(l.strategy)),
				zap.Int("candidates", len(found)),
			)
		}
	}

	return Match{}, nil
}
