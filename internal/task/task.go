// Package task defines the WBS data model: Project → WorkPackage →
// Activity → Task, serialized as flat JSON in the project directory.
package task

import (
	"fmt"
	"time"
)

// Category selects which rows of the workflow rule table apply to a
// task. It is fixed at task creation and immutable thereafter.
type Category string

const (
	CategoryDevelopment    Category = "development"
	CategoryDefect         Category = "defect"
	CategoryInfrastructure Category = "infrastructure"
)

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case CategoryDevelopment, CategoryDefect, CategoryInfrastructure:
		return Category(raw), nil
	default:
		return "", fmt.Errorf("unknown category %q", raw)
	}
}

// Priority is the task priority enumeration.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Task is a leaf work item in the WBS tree.
//
// Status holds the raw status string (slug plus bracketed code, or a
// bare code). It is mutated exclusively through the transition engine;
// nothing else writes it.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  Category  `json:"category"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee,omitempty"`
	Priority  Priority  `json:"priority,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Activity groups tasks under a work package.
type Activity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// WorkPackage groups activities under a project.
type WorkPackage struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Activities []Activity `json:"activities"`
}

// Project is the root of the WBS tree.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	WorkPackages []WorkPackage `json:"work_packages"`
}

// FindTask returns a pointer into the tree for the task with the given
// id, or nil if no such task exists. The pointer remains valid for the
// lifetime of the Project value; callers that persist changes go back
// through the file store.
func (p *Project) FindTask(id string) *Task {
	for wi := range p.WorkPackages {
		wp := &p.WorkPackages[wi]
		for ai := range wp.Activities {
			act := &wp.Activities[ai]
			for ti := range act.Tasks {
				if act.Tasks[ti].ID == id {
					return &act.Tasks[ti]
				}
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the tree.
func (p *Project) TaskCount() int {
	n := 0
	for _, wp := range p.WorkPackages {
		for _, act := range wp.Activities {
			n += len(act.Tasks)
		}
	}
	return n
}

// Walk visits every task in document order. Returning false from fn
// stops the walk.
func (p *Project) Walk(fn func(wp *WorkPackage, act *Activity, t *Task) bool) {
	for wi := range p.WorkPackages {
		wp := &p.WorkPackages[wi]
		for ai := range wp.Activities {
			act := &wp.Activities[ai]
			for ti := range act.Tasks {
				if !fn(wp, act, &act.Tasks[ti]) {
					return
				}
			}
		}
	}
}
