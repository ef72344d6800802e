// Package status parses bracketed task status codes.
//
// A raw status string carries a human slug and a short bracketed code,
// e.g. "basic-design [bd]". Only the bracketed token is authoritative;
// the slug exists for readability in project files.
package status

import "regexp"

// Status is a parsed status code with its display label.
type Status struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Terminal is the terminal status code. A task at Terminal has no
// outgoing transitions unless the rule table declares an explicit
// reopen command.
const Terminal = "[xx]"

// Initial is the status every task is created with.
const Initial = "[ ]"

// codePattern extracts the bracketed token from a raw status string.
var codePattern = regexp.MustCompile(`\[([^\]]*)\]`)

// labels maps known status codes to display labels.
var labels = map[string]string{
	"[ ]":  "Todo",
	"[an]": "Analyze",
	"[bd]": "Design",
	"[dd]": "Detail",
	"[im]": "Implement",
	"[vf]": "Verify",
	"[rv]": "Review",
	"[xx]": "Done",
}

// Parse extracts the canonical status code and label from a raw status
// string. If no bracketed token is present, or the token is not a known
// code, the raw string is returned as both code and label. Parse never
// fails; unrecognized input degrades to identity rather than an error.
func Parse(raw string) Status {
	m := codePattern.FindString(raw)
	if m == "" {
		return Status{Code: raw, Label: raw}
	}
	label, ok := labels[m]
	if !ok {
		return Status{Code: raw, Label: raw}
	}
	return Status{Code: m, Label: label}
}

// Code extracts the bracketed token from a raw status string, falling
// back to the raw string when no bracketed token is present. Unlike
// Parse it does not require the token to be a known code, so rule
// tables may use codes outside the label table. Lookups against the
// rule table canonicalize through Code, never the raw status.
func Code(raw string) string {
	if m := codePattern.FindString(raw); m != "" {
		return m
	}
	return raw
}

// Known reports whether code is a recognized status code.
func Known(code string) bool {
	_, ok := labels[code]
	return ok
}

// IsTerminal reports whether code is the terminal status.
func IsTerminal(code string) bool {
	return code == Terminal
}

// Label returns the display label for a code, or the code itself when
// unrecognized.
func Label(code string) string {
	if l, ok := labels[code]; ok {
		return l
	}
	return code
}
