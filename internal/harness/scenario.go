// Package harness runs declarative workflow scenarios.
//
// A scenario is a YAML file describing a rule table, an initial task,
// and a sequence of commands with expected outcomes. The harness
// drives a real engine over the scenario and records a transition
// trace suitable for golden-file comparison.
package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taskdeck/taskdeck/internal/rules"
)

// Scenario defines a workflow conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Rules is the inline workflow rule table for the scenario.
	Rules []ScenarioRule `yaml:"rules"`

	// Task is the initial task state.
	Task ScenarioTask `yaml:"task"`

	// Steps are the commands to attempt, in order.
	Steps []Step `yaml:"steps"`

	// Documents optionally asserts on the reconciled document view
	// after the final step.
	Documents *DocCheck `yaml:"documents,omitempty"`
}

// ScenarioRule mirrors rules.Rule in YAML form.
type ScenarioRule struct {
	Category string `yaml:"category"`
	From     string `yaml:"from"`
	Command  string `yaml:"command"`
	To       string `yaml:"to"`
	Doc      string `yaml:"doc,omitempty"`
}

// ScenarioTask is the initial task state for a scenario.
type ScenarioTask struct {
	ID       string `yaml:"id"`
	Category string `yaml:"category"`
	Status   string `yaml:"status"`
}

// Step is one command attempt with its expected outcome.
type Step struct {
	// Command is the transition command to attempt.
	Command string `yaml:"command"`

	// Expect specifies the expected outcome. If nil, the step is
	// assumed to succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step: either a resulting
// status on success, or a workflow error code on failure.
type Expect struct {
	Status string `yaml:"status,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

// DocCheck asserts on the reconciled document list after the run.
type DocCheck struct {
	// Existing is the simulated task folder content.
	Existing []string `yaml:"existing"`

	// Expect lists (name, stage) pairs that must appear, in order.
	Expect []DocExpect `yaml:"expect"`
}

// DocExpect is one expected reconciled entry.
type DocExpect struct {
	Name  string `yaml:"name"`
	Stage string `yaml:"stage"`
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Rules) == 0 {
		return fmt.Errorf("rules are required")
	}
	if s.Task.ID == "" || s.Task.Category == "" || s.Task.Status == "" {
		return fmt.Errorf("task id, category, and status are required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, st := range s.Steps {
		if st.Command == "" {
			// An explicitly empty command is allowed only when the step
			// expects INVALID_COMMAND.
			if st.Expect == nil || st.Expect.Error != "INVALID_COMMAND" {
				return fmt.Errorf("steps[%d]: empty command without INVALID_COMMAND expectation", i)
			}
		}
		if st.Expect != nil && st.Expect.Status != "" && st.Expect.Error != "" {
			return fmt.Errorf("steps[%d]: expect.status and expect.error are mutually exclusive", i)
		}
	}
	return nil
}

// table builds the rule table declared by the scenario.
func (s *Scenario) table() (*rules.Table, error) {
	list := make([]rules.Rule, len(s.Rules))
	for i, r := range s.Rules {
		list[i] = rules.Rule{Category: r.Category, From: r.From, Command: r.Command, To: r.To, Doc: r.Doc}
	}
	return rules.NewTable(list)
}
