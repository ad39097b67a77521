// Package ordering decides the display order of filter options.
//
// Ordinal columns (employee bucket, sales band, credit rating, fleet size,
// ZIP) follow a fixed reference sequence; every other column keeps the
// order in which values were first seen.
package ordering

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/bizmap/internal/domain/model"
)

// Policy controls what happens to values missing from a reference sequence.
type Policy int

const (
	// PolicyAppend keeps unknown values after the known ones, in arrival order.
	PolicyAppend Policy = iota
	// PolicySkip drops unknown values from the options.
	PolicySkip
)

func (p Policy) String() string {
	switch p {
	case PolicyAppend:
		return "append"
	case PolicySkip:
		return "skip"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration string to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return PolicyAppend, nil
	case "skip":
		return PolicySkip, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Reference sequences for the ordinal columns.
var (
	EmployeesOrder = []string{
		"5 to 9",
		"10 to 19",
		"20 to 49",
		"50 to 99",
		"100 to 249",
		"250 to 499",
		"500 to 999",
		"1000 to 4999",
		"5000 to 9999",
	}

	SalesOrder = []string{
		"$20 - 50 MILLION",
		"$50 - 100 MILLION",
		"$100 - 500 MILLION",
		"$500 MILLION - $1 BILLION",
		"OVER $1 BILLION",
	}

	CreditOrder = []string{"I", "B", "B+", "A", "A+"}

	FleetOrder = []string{
		"Unknown",
		"1 to 10",
		"11 to 19",
		"20 to 49",
		"50+",
		"50 to 99",
	}
)

// Option applies a configuration option to the Orderer.
type Option func(*Orderer)

// WithPolicy sets the unknown-value policy.
func WithPolicy(p Policy) Option {
	return func(o *Orderer) {
		o.policy = p
	}
}

// WithReference overrides (or adds) the reference sequence for a column.
// A nil sequence removes the column's fixed order.
func WithReference(c model.Column, seq []string) Option {
	return func(o *Orderer) {
		if seq == nil {
			delete(o.references, c)
			return
		}
		o.references[c] = indexOf(seq)
	}
}

// WithUnknownHook registers a callback fired once per unknown value seen by Order.
func WithUnknownHook(fn func(c model.Column, value string)) Option {
	return func(o *Orderer) {
		o.onUnknown = fn
	}
}

// Result is the ordered option list for one column.
type Result struct {
	// Values is the display order.
	Values []string
	// Unknown lists values missing from the reference sequence, in arrival
	// order, regardless of policy. Empty for columns without a reference.
	Unknown []string
}

// Orderer orders filter options. It is immutable after construction and
// safe for concurrent use.
type Orderer struct {
	references map[model.Column]map[string]int
	policy     Policy
	onUnknown  func(c model.Column, value string)
}

// New creates an Orderer with the built-in reference sequences.
// ZIP has no static sequence: its reference is the ascending sort of the
// values observed in the data, so every ZIP is always known.
func New(opts ...Option) *Orderer {
	o := &Orderer{
		references: map[model.Column]map[string]int{
			model.ColEmployees: indexOf(EmployeesOrder),
			model.ColSales:     indexOf(SalesOrder),
			model.ColCredit:    indexOf(CreditOrder),
			model.ColFleet:     indexOf(FleetOrder),
		},
		policy: PolicyAppend,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Policy returns the configured unknown-value policy.
func (o *Orderer) Policy() Policy { return o.policy }

// Ordinal reports whether c has a fixed display order.
func (o *Orderer) Ordinal(c model.Column) bool {
	if c == model.ColZIP {
		return true
	}
	_, ok := o.references[c]
	return ok
}

// Order returns values (duplicates collapsed) in display order for column c.
func (o *Orderer) Order(c model.Column, values []string) Result {
	distinct := dedupe(values)

	if c == model.ColZIP {
		if _, overridden := o.references[c]; !overridden {
			sorted := append([]string(nil), distinct...)
			sort.Strings(sorted)
			return Result{Values: sorted}
		}
	}

	ref, ok := o.references[c]
	if !ok {
		return Result{Values: distinct}
	}

	known := make([]string, 0, len(distinct))
	var unknown []string
	for _, v := range distinct {
		if _, found := ref[v]; found {
			known = append(known, v)
			continue
		}
		unknown = append(unknown, v)
		if o.onUnknown != nil {
			o.onUnknown(c, v)
		}
	}

	sort.SliceStable(known, func(i, j int) bool {
		return ref[known[i]] < ref[known[j]]
	})

	out := known
	if o.policy == PolicyAppend {
		out = append(out, unknown...)
	}
	return Result{Values: out, Unknown: unknown}
}

// Reference returns a copy of the fixed sequence for c, or nil when the
// column has none (ZIP included, since its order is data-derived).
func (o *Orderer) Reference(c model.Column) []string {
	ref, ok := o.references[c]
	if !ok {
		return nil
	}
	seq := make([]string, len(ref))
	for v, i := range ref {
		seq[i] = v
	}
	return seq
}

func indexOf(seq []string) map[string]int {
	idx := make(map[string]int, len(seq))
	for i, v := range seq {
		if _, dup := idx[v]; !dup {
			idx[v] = i
		}
	}
	return idx
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
