// Package filter applies sidebar selections to the dataset.
//
// A Selection is an AND across columns of an OR within each column: a record
// passes when, for every column with at least one selected value, its value
// is one of the selected ones. Columns with nothing selected do not restrict.
package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/okian/bizmap/internal/domain/model"
)

// Selection maps a filterable column to its selected values.
type Selection map[model.Column][]string

// Active returns only the entries that restrict the view.
func (s Selection) Active() Selection {
	out := make(Selection, len(s))
	for c, vals := range s {
		if len(vals) > 0 {
			out[c] = append([]string(nil), vals...)
		}
	}
	return out
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for c, vals := range s {
		out[c] = append([]string(nil), vals...)
	}
	return out
}

// Has reports whether value is selected for column.
func (s Selection) Has(c model.Column, value string) bool {
	for _, v := range s[c] {
		if v == value {
			return true
		}
	}
	return false
}

// Columns returns the active columns in source order.
func (s Selection) Columns() []model.Column {
	var cols []model.Column
	for _, c := range model.AllColumns {
		if len(s[c]) > 0 {
			cols = append(cols, c)
		}
	}
	return cols
}

// Matches reports whether r satisfies every active column of s.
func (s Selection) Matches(r model.Record) bool {
	for c, vals := range s {
		if len(vals) == 0 {
			continue
		}
		if !contains(vals, r.Value(c)) {
			return false
		}
	}
	return true
}

// Apply returns the records matching sel, in input order. records is not modified.
func Apply(records []model.Record, sel Selection) []model.Record {
	active := sel.Active()
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if active.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// View is Apply followed by dropping records without usable coordinates.
// Its result is what both the map and the table display.
func View(records []model.Record, sel Selection) []model.Record {
	matched := Apply(records, sel)
	out := matched[:0]
	for _, r := range matched {
		if r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out
}

// Distinct returns the non-blank values of c in first-seen order.
func Distinct(records []model.Record, c model.Column) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		v := r.Value(c)
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseQuery builds a Selection from query parameters. Keys are column names
// matched case-insensitively; repeated keys add values. Blank values are
// ignored. Keys naming unknown or non-filterable columns fail with
// ErrUnknownColumn.
func ParseQuery(q url.Values) (Selection, error) {
	sel := make(Selection)
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c, ok := model.ParseColumn(k)
		if !ok || !c.Filterable() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
		for _, v := range q[k] {
			if strings.TrimSpace(v) == "" || contains(sel[c], v) {
				continue
			}
			sel[c] = append(sel[c], v)
		}
	}
	return sel.Active(), nil
}

// ParseQueryLenient is ParseQuery that drops unknown keys instead of failing.
// The rejected keys are returned so callers can report them.
func ParseQueryLenient(q url.Values) (Selection, []string) {
	known := make(url.Values, len(q))
	var rejected []string
	for k, vals := range q {
		if c, ok := model.ParseColumn(k); ok && c.Filterable() {
			known[k] = vals
			continue
		}
		rejected = append(rejected, k)
	}
	sort.Strings(rejected)
	sel, _ := ParseQuery(known)
	return sel, rejected
}

// Encode renders sel as query parameters. Values keep their selection order.
func Encode(sel Selection) url.Values {
	q := make(url.Values, len(sel))
	for _, c := range sel.Columns() {
		q[string(c)] = append([]string(nil), sel[c]...)
	}
	return q
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
