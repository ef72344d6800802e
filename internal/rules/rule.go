// Package rules holds the workflow rule table: the configuration-driven
// mapping of legal commands and their resulting status per category and
// current status.
//
// Rule tables are authored in CUE and compiled once at process start.
// After compilation the table is immutable; reload happens by building a
// fresh table and atomically swapping it in via Provider.
package rules

// Rule is a single workflow transition rule.
//
// A rule states that a task of Category currently at From may accept
// Command, moving it to To. Doc optionally names the lifecycle document
// the transition is expected to produce.
type Rule struct {
	Category string `json:"category"`
	From     string `json:"from"`
	Command  string `json:"command"`
	To       string `json:"to"`
	Doc      string `json:"doc,omitempty"`
}

// ValidCategories is the closed category enumeration. A task's category
// is fixed at creation and selects which rows of the table apply.
var ValidCategories = map[string]bool{
	"development":    true,
	"defect":         true,
	"infrastructure": true,
}
