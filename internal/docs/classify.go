// Package docs reconciles the lifecycle documents of a task: the files
// actually present in its folder merged with the documents the rule
// table says should eventually exist at the current status.
package docs

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DocType classifies a lifecycle document by its slug segment.
type DocType string

const (
	TypeDesign         DocType = "design"
	TypeImplementation DocType = "implementation"
	TypeTest           DocType = "test"
	TypeManual         DocType = "manual"
	TypeAnalysis       DocType = "analysis"
	TypeReview         DocType = "review"
)

// Stage distinguishes documents that exist from documents the current
// status still expects. Stage is a derived view: a document moves from
// expected to current the moment its file appears, and the reconciler
// recomputes that on every call rather than persisting it.
type Stage string

const (
	StageCurrent  Stage = "current"
	StageExpected Stage = "expected"
)

// namePattern matches the lifecycle document naming convention: a
// numeric ordinal prefix, a descriptive slug, and a known extension.
// Hangul slugs are allowed alongside ASCII.
var namePattern = regexp.MustCompile(`^(\d{2,3})-([0-9A-Za-z가-힣][0-9A-Za-z가-힣\-]*)\.(md|json)$`)

// typeKeywords maps slug segments to document types. Checked in order
// so "test-report" classifies as test before the generic fallbacks.
var typeKeywords = []struct {
	keyword string
	docType DocType
}{
	{"implementation", TypeImplementation},
	{"impl", TypeImplementation},
	{"test", TypeTest},
	{"manual", TypeManual},
	{"analysis", TypeAnalysis},
	{"review", TypeReview},
	{"design", TypeDesign},
	{"구현", TypeImplementation},
	{"테스트", TypeTest},
	{"매뉴얼", TypeManual},
	{"분석", TypeAnalysis},
	{"검토", TypeReview},
	{"설계", TypeDesign},
}

// ParseName parses a filename against the lifecycle naming convention.
// Returns the ordinal, slug, and document type. ok is false for names
// outside the convention, which the reconciler silently skips: they are
// not lifecycle documents, and a malformed name is never an error.
//
// Names are NFC-normalized before matching. Task folders created on
// macOS arrive NFD-decomposed for Hangul and accented slugs, and the
// two byte forms must compare equal.
func ParseName(name string) (ordinal int, docType DocType, ok bool) {
	name = norm.NFC.String(name)
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	t, ok := classifySlug(m[2])
	if !ok {
		return 0, "", false
	}
	return n, t, true
}

// classifySlug derives the document type from a slug segment.
func classifySlug(slug string) (DocType, bool) {
	slug = strings.ToLower(slug)
	for _, kw := range typeKeywords {
		if strings.Contains(slug, kw.keyword) {
			return kw.docType, true
		}
	}
	return "", false
}
