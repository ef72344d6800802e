package docs

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/taskdeck/taskdeck/internal/rules"
	"github.com/taskdeck/taskdeck/internal/status"
)

// Document is one entry in the reconciled view of a task's folder.
//
// Command and ExpectedAfter are populated only for expected-stage
// entries: the command that produces the document and the status the
// task reaches once it runs.
type Document struct {
	Name          string  `json:"name"`
	Type          DocType `json:"type"`
	Stage         Stage   `json:"stage"`
	Exists        bool    `json:"exists"`
	Ordinal       int     `json:"ordinal"`
	Command       string  `json:"command,omitempty"`
	ExpectedAfter string  `json:"expected_after,omitempty"`
}

// Reconcile merges the files present in a task's folder with the
// documents the rule table expects for the task's category and current
// status.
//
// The result is ordered current-stage first, then expected-stage, with
// ordinal ascending (name as tie break) inside each stage. Callers rely
// on no current entry ever appearing after an expected one.
//
// Reconcile is a pure function over its inputs: it never mutates the
// existing slice and identical inputs produce identical output. Names
// outside the lifecycle naming convention are skipped silently.
func Reconcile(existing []string, category, statusCode string, table *rules.Table) []Document {
	var current []Document
	present := make(map[string]bool, len(existing))

	for _, name := range existing {
		canonical := norm.NFC.String(name)
		ordinal, docType, ok := ParseName(name)
		if !ok {
			continue
		}
		present[canonical] = true
		current = append(current, Document{
			Name:    canonical,
			Type:    docType,
			Stage:   StageCurrent,
			Exists:  true,
			Ordinal: ordinal,
		})
	}

	// statusCode may arrive in the on-file "slug [bd]" form; the rule
	// table speaks bare codes.
	var expected []Document
	for _, r := range table.RulesFor(category, status.Code(statusCode)) {
		if r.Doc == "" {
			continue
		}
		canonical := norm.NFC.String(r.Doc)
		if present[canonical] {
			continue
		}
		ordinal, docType, ok := ParseName(canonical)
		if !ok {
			// A rule naming a document outside the convention is a
			// configuration oddity, not a reconciler failure.
			continue
		}
		present[canonical] = true
		expected = append(expected, Document{
			Name:          canonical,
			Type:          docType,
			Stage:         StageExpected,
			Exists:        false,
			Ordinal:       ordinal,
			Command:       r.Command,
			ExpectedAfter: r.To,
		})
	}

	sortStage(current)
	sortStage(expected)
	return append(current, expected...)
}

func sortStage(ds []Document) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Ordinal != ds[j].Ordinal {
			return ds[i].Ordinal < ds[j].Ordinal
		}
		return ds[i].Name < ds[j].Name
	})
}
