package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error code constants for rule-table loading and validation.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	// Rule validation errors
	ErrCodeUnknownCategory = "E121" // category not in closed enumeration
	ErrCodeEmptyCommand    = "E122" // command is empty
	ErrCodeBadStatus       = "E123" // status is not a bracketed code
	ErrCodeDuplicateRule   = "E124" // duplicate (category, from, command)
	ErrCodeNoTransitions   = "E125" // category declares no transitions
)

// LoadError represents an error that occurred while loading a rule table.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// statusForm matches a bracketed status code such as "[bd]" or "[ ]".
var statusForm = regexp.MustCompile(`^\[[^\]]*\]$`)

// CompileDir loads and compiles every CUE file in dir into a rule table.
//
// The expected shape is:
//
//	workflow: development: transitions: [
//		{from: "[ ]", command: "start-design", to: "[bd]", doc: "010-basic-design.md"},
//	]
//
// All validation errors are collected rather than failing fast, so a
// misconfigured table reports every problem in one pass. Malformed or
// duplicate rules fail loudly here at load, never at query time.
func CompileDir(dir string) (*Table, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rules directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing rules directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	var list []Rule
	workflowVal := value.LookupPath(cue.ParsePath("workflow"))
	if !workflowVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no workflow declaration found"}}
	}

	iter, iterErr := workflowVal.Fields()
	if iterErr != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating workflow categories: %v", iterErr)}}
	}
	for iter.Next() {
		category := strings.Trim(iter.Label(), `"`)
		catRules, catErrs := compileCategory(category, iter.Value())
		errs = append(errs, catErrs...)
		list = append(list, catRules...)
	}

	if len(errs) > 0 {
		return nil, errs
	}

	table, err := NewTable(list)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeDuplicateRule, Message: err.Error()}}
	}
	return table, nil
}

// compileCategory compiles the transitions list of one workflow category.
// Collects all validation errors for the category.
func compileCategory(category string, v cue.Value) ([]Rule, []error) {
	var errs []error

	if !ValidCategories[category] {
		errs = append(errs, &LoadError{
			Code:    ErrCodeUnknownCategory,
			Message: fmt.Sprintf("unknown category %q (must be development, defect, or infrastructure)", category),
			Pos:     v.Pos(),
		})
	}

	transVal := v.LookupPath(cue.ParsePath("transitions"))
	if !transVal.Exists() {
		errs = append(errs, &LoadError{
			Code:    ErrCodeNoTransitions,
			Message: fmt.Sprintf("category %q declares no transitions", category),
			Pos:     v.Pos(),
		})
		return nil, errs
	}

	listIter, err := transVal.List()
	if err != nil {
		errs = append(errs, &LoadError{
			Code:    ErrCodeNoTransitions,
			Message: fmt.Sprintf("category %q: transitions must be a list: %v", category, err),
			Pos:     transVal.Pos(),
		})
		return nil, errs
	}

	var list []Rule
	for i := 0; listIter.Next(); i++ {
		rule, ruleErrs := compileRule(category, i, listIter.Value())
		if len(ruleErrs) > 0 {
			errs = append(errs, ruleErrs...)
			continue
		}
		list = append(list, rule)
	}

	if len(list) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{
			Code:    ErrCodeNoTransitions,
			Message: fmt.Sprintf("category %q declares no transitions", category),
			Pos:     transVal.Pos(),
		})
	}

	return list, errs
}

// compileRule compiles a single transition entry.
func compileRule(category string, idx int, v cue.Value) (Rule, []error) {
	var errs []error
	rule := Rule{Category: category}

	from, err := stringField(v, "from")
	if err != nil {
		errs = append(errs, wrapFieldError(category, idx, "from", err))
	}
	rule.From = from

	command, err := stringField(v, "command")
	if err != nil {
		errs = append(errs, wrapFieldError(category, idx, "command", err))
	}
	rule.Command = command

	to, err := stringField(v, "to")
	if err != nil {
		errs = append(errs, wrapFieldError(category, idx, "to", err))
	}
	rule.To = to

	// doc is optional
	docVal := v.LookupPath(cue.ParsePath("doc"))
	if docVal.Exists() {
		doc, err := docVal.String()
		if err != nil {
			errs = append(errs, wrapFieldError(category, idx, "doc", err))
		}
		rule.Doc = doc
	}

	if len(errs) > 0 {
		return rule, errs
	}

	if rule.Command == "" {
		errs = append(errs, &LoadError{
			Code:    ErrCodeEmptyCommand,
			Message: fmt.Sprintf("%s transitions[%d]: command must be non-empty", category, idx),
			Pos:     v.Pos(),
		})
	}
	if !statusForm.MatchString(rule.From) {
		errs = append(errs, &LoadError{
			Code:    ErrCodeBadStatus,
			Message: fmt.Sprintf("%s transitions[%d]: from status %q is not a bracketed code", category, idx, rule.From),
			Pos:     v.Pos(),
		})
	}
	if !statusForm.MatchString(rule.To) {
		errs = append(errs, &LoadError{
			Code:    ErrCodeBadStatus,
			Message: fmt.Sprintf("%s transitions[%d]: to status %q is not a bracketed code", category, idx, rule.To),
			Pos:     v.Pos(),
		})
	}

	return rule, errs
}

// stringField extracts a required string field from a CUE struct.
func stringField(v cue.Value, name string) (string, error) {
	fieldVal := v.LookupPath(cue.ParsePath(name))
	if !fieldVal.Exists() {
		return "", fmt.Errorf("%s is required", name)
	}
	s, err := fieldVal.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func wrapFieldError(category string, idx int, field string, err error) error {
	var loadErr *LoadError
	if le, ok := err.(*LoadError); ok {
		loadErr = le
	} else {
		loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	loadErr.Message = fmt.Sprintf("%s transitions[%d].%s: %s", category, idx, field, loadErr.Message)
	return loadErr
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &LoadError{
			Code:    ErrCodeGeneric,
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
