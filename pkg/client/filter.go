package client

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxORValues is the API's hard cap on values in a single OR clause.
const MaxORValues = 100

// Filter builds an OpenAlex filter expression. Clauses are joined by
// "," (AND); values inside a clause are joined by "|" (OR).
//
// Example:
//
//	NewFilter().
//		Eq("publication_year", "2020-2024").
//		AnyOf("author.id", []string{"A1", "A2"}).
//		String()
//	// "publication_year:2020-2024,author.id:A1|A2"
type Filter struct {
	clauses []string
}

// NewFilter creates an empty filter expression.
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds a field:value clause.
func (f *Filter) Eq(field, value string) *Filter {
	f.clauses = append(f.clauses, fmt.Sprintf("%s:%s", field, value))
	return f
}

// AnyOf adds a field:v1|v2|... OR clause. Values beyond MaxORValues are
// dropped with a warning; the API rejects larger clauses outright.
func (f *Filter) AnyOf(field string, values []string) *Filter {
	if len(values) == 0 {
		return f
	}
	if len(values) > MaxORValues {
		log.Warn().
			Str("field", field).
			Int("values", len(values)).
			Int("cap", MaxORValues).
			Msg("OR clause exceeds API cap, truncating")
		values = values[:MaxORValues]
	}
	f.clauses = append(f.clauses, fmt.Sprintf("%s:%s", field, strings.Join(values, "|")))
	return f
}

// YearRange adds a publication_year:min-max clause.
func (f *Filter) YearRange(min, max int) *Filter {
	return f.Eq("publication_year", fmt.Sprintf("%d-%d", min, max))
}

// String renders the filter expression. An empty filter renders as "".
func (f *Filter) String() string {
	return strings.Join(f.clauses, ",")
}
