package rules

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Table is an immutable index of workflow rules.
//
// Rules are indexed two ways: by (category, from) for "what can happen
// next" queries, and by (category, from, command) for exact transition
// lookup. The table is never mutated after construction; Provider swaps
// whole tables for reload.
type Table struct {
	rules    []Rule
	byState  map[stateKey][]Rule
	byTriple map[tripleKey]Rule
}

type stateKey struct {
	category string
	from     string
}

type tripleKey struct {
	category string
	from     string
	command  string
}

// NewTable builds an indexed table from a rule list.
//
// Duplicate (category, from, command) triples are a configuration error:
// the table must be unambiguous, so conflicts are rejected here at load
// time rather than resolved by runtime precedence.
func NewTable(list []Rule) (*Table, error) {
	t := &Table{
		rules:    make([]Rule, len(list)),
		byState:  make(map[stateKey][]Rule),
		byTriple: make(map[tripleKey]Rule, len(list)),
	}
	copy(t.rules, list)

	for _, r := range t.rules {
		tk := tripleKey{r.Category, r.From, r.Command}
		if dup, exists := t.byTriple[tk]; exists {
			return nil, fmt.Errorf("duplicate rule (%s, %q, %q): %q conflicts with %q",
				r.Category, r.From, r.Command, r.To, dup.To)
		}
		t.byTriple[tk] = r

		sk := stateKey{r.Category, r.From}
		t.byState[sk] = append(t.byState[sk], r)
	}

	return t, nil
}

// RulesFor returns the rules applicable to a task of the given category
// at the given status, in declaration order. A lookup miss returns an
// empty slice, never an error: "no commands available" is a valid
// terminal-looking state, not a fault.
func (t *Table) RulesFor(category, from string) []Rule {
	rs := t.byState[stateKey{category, from}]
	out := make([]Rule, len(rs))
	copy(out, rs)
	return out
}

// Find returns the unique rule for an exact (category, from, command)
// triple, if one exists.
func (t *Table) Find(category, from, command string) (Rule, bool) {
	r, ok := t.byTriple[tripleKey{category, from, command}]
	return r, ok
}

// Commands returns the sorted distinct command names declared for a
// category across all statuses.
func (t *Table) Commands(category string) []string {
	seen := make(map[string]bool)
	for _, r := range t.rules {
		if r.Category == category {
			seen[r.Command] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Categories returns the sorted categories the table has rules for.
func (t *Table) Categories() []string {
	seen := make(map[string]bool)
	for _, r := range t.rules {
		seen[r.Category] = true
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Statuses returns the sorted statuses reachable for a category: every
// from-status and to-status mentioned by its rules.
func (t *Table) Statuses(category string) []string {
	seen := make(map[string]bool)
	for _, r := range t.rules {
		if r.Category == category {
			seen[r.From] = true
			seen[r.To] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// IsTerminal reports whether a status has no outgoing rules for the
// category. The canonical terminal status [xx] is terminal this way
// unless an explicit reopen rule is configured.
func (t *Table) IsTerminal(category, from string) bool {
	return len(t.byState[stateKey{category, from}]) == 0
}

// Len returns the number of rules in the table.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns all rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Provider hands out the current rule table and supports atomic reload.
//
// Readers either see the fully-old table or the fully-new table, never a
// partial mix. No locking is needed for reads.
type Provider struct {
	current atomic.Pointer[Table]
}

// NewProvider creates a provider serving the given table.
func NewProvider(t *Table) *Provider {
	p := &Provider{}
	p.current.Store(t)
	return p
}

// Load returns the current table. Safe from any goroutine.
func (p *Provider) Load() *Table {
	return p.current.Load()
}

// Replace atomically swaps in a new table. Safe from any goroutine.
func (p *Provider) Replace(t *Table) {
	p.current.Store(t)
}
