// Package dialect holds the building blocks shared by provider export formats:
// raw records, header layouts, cell normalization and classification tables.
package dialect

import (
	"strings"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

// Settings is the immutable configuration every provider may need while assembling activities.
type Settings struct {
	AccountID string
	// RewardAssetID is the synthetic asset that cash-equivalent reward bookings are made against.
	RewardAssetID string
}

// Dialect is the set of rules for one provider's export. R is the provider's typed row.
type Dialect[R any] interface {
	Layout() Layout
	// Ignore drops structurally irrelevant rows before any cell is interpreted.
	Ignore(rec Record) bool
	Normalize(rec Record) (R, error)
	// Classify returns false when no rule applies; the row is then dropped.
	Classify(row R) (activity.Kind, bool)
	// Lookup returns false when the row needs no security resolution.
	Lookup(row R, kind activity.Kind) (Lookup, bool)
	Assemble(row R, kind activity.Kind, sec *security.Security, s Settings) []activity.Activity
}

// Lookup is the security resolution a row asks for.
type Lookup struct {
	Query security.Query
	// Required rows are skipped when nothing is found and abort the run when the
	// lookup fails. Optional rows fall back to provider identifiers in both cases.
	Required bool
}

// Record is one tokenized data row keyed by column name.
type Record struct {
	// Line is the 1-based physical line in the export.
	Line   int
	fields map[string]string
}

// NewRecord zips columns with cells. Cells beyond the schema are dropped and
// missing cells read as empty.
func NewRecord(line int, columns, cells []string) Record {
	fields := make(map[string]string, len(columns))

	for i, col := range columns {
		if i < len(cells) {
			fields[col] = cells[i]
		} else {
			fields[col] = ""
		}
	}

	return Record{Line: line, fields: fields}
}

// Get returns the trimmed cell for col, or "" when the column does not exist.
func (r Record) Get(col string) string {
	return strings.TrimSpace(r.fields[col])
}

func (r Record) Has(col string) bool {
	_, ok := r.fields[col]
	return ok
}

// Blank reports whether every cell is empty or holds only the placeholder.
func (r Record) Blank(placeholder string) bool {
	for _, v := range r.fields {
		if !IsBlank(v, placeholder) {
			return false
		}
	}

	return true
}

// Rule is one row of a classification table.
type Rule[R any] struct {
	Match func(row R) bool
	Kind  activity.Kind
}

// Classify evaluates rules top to bottom; the first match wins.
func Classify[R any](rules []Rule[R], row R) (activity.Kind, bool) {
	for _, r := range rules {
		if r.Match(row) {
			return r.Kind, true
		}
	}

	return "", false
}

// ContainsAny reports whether s contains any of the substrings, ignoring case.
func ContainsAny(s string, substrs ...string) bool {
	s = strings.ToLower(s)

	for _, sub := range substrs {
		if strings.Contains(s, strings.ToLower(sub)) {
			return true
		}
	}

	return false
}
