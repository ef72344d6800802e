package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/task"
)

const testWorkflow = `package workflow

workflow: {
	development: {
		transitions: [
			{from: "[bd]", command: "start-detail-design", to: "[dd]", doc: "020-detail-design.md"},
			{from: "[dd]", command: "start-implementation", to: "[im]", doc: "030-implementation.md"},
		]
	}
}
`

// setupWorkspace writes a project directory and a rules directory and
// returns both paths.
func setupWorkspace(t *testing.T) (projectDir, rulesDir string) {
	t.Helper()

	rulesDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "workflow.cue"), []byte(testWorkflow), 0o644))

	projectDir = t.TempDir()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	p := &task.Project{
		ID:   "proj-1",
		Name: "Billing Revamp",
		WorkPackages: []task.WorkPackage{
			{
				ID:   "wp-1",
				Name: "Invoicing",
				Activities: []task.Activity{
					{
						ID:   "act-1",
						Name: "Core",
						Tasks: []task.Task{
							{
								ID:        "dev-101",
								Name:      "Invoice engine",
								Category:  task.CategoryDevelopment,
								Status:    "[bd]",
								CreatedAt: now,
								UpdatedAt: now,
							},
						},
					},
				},
			},
		},
	}
	require.NoError(t, store.NewDirStore(projectDir).Init(p))
	return projectDir, rulesDir
}

// execute runs the root command with args and returns stdout and the
// command error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate_ValidRules(t *testing.T) {
	_, rulesDir := setupWorkspace(t)

	out, err := execute(t, "validate", rulesDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Rules valid")
	// Commands are listed per category, sorted and distinct.
	assert.Contains(t, out, "development: start-detail-design, start-implementation")
}

func TestValidate_JSON(t *testing.T) {
	_, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--format", "json", "validate", rulesDir)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidate_DuplicateRule(t *testing.T) {
	rulesDir := t.TempDir()
	dup := `package workflow

workflow: {
	development: {
		transitions: [
			{from: "[bd]", command: "start-detail-design", to: "[dd]"},
			{from: "[bd]", command: "start-detail-design", to: "[im]"},
		]
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "workflow.cue"), []byte(dup), 0o644))

	out, err := execute(t, "validate", rulesDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Validation failed")
}

func TestValidate_MissingDir(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E005")
}

func TestTransition_Success(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir,
		"transition", "dev-101", "start-detail-design")
	require.NoError(t, err)
	assert.Contains(t, out, "[bd] → [dd]")

	// Persisted through the store.
	p, err := store.NewDirStore(projectDir).LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[dd]", p.FindTask("dev-101").Status)
}

func TestTransition_JSON(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "--format", "json",
		"transition", "dev-101", "start-detail-design")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTransition_Illegal(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir,
		"transition", "dev-101", "complete")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INVALID_TRANSITION")
}

func TestTransition_UnknownTask(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir,
		"transition", "ghost", "start-detail-design")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "NOT_FOUND")
}

func TestTransition_WithAuditDB(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)
	dbPath := filepath.Join(t.TempDir(), "audit.db")

	_, err := execute(t, "--project", projectDir, "--rules", rulesDir, "--audit-db", dbPath,
		"transition", "dev-101", "start-detail-design")
	require.NoError(t, err)

	// The audit database was created and holds the transition.
	_, statErr := os.Stat(dbPath)
	require.NoError(t, statErr)
}

func TestDocs_Listing(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	taskDir := filepath.Join(projectDir, store.TasksDir, "dev-101")
	require.NoError(t, os.MkdirAll(taskDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(taskDir, "010-basic-design.md"), []byte("# bd\n"), 0o644))

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "docs", "dev-101")
	require.NoError(t, err)
	assert.Contains(t, out, "010-basic-design.md")
	assert.Contains(t, out, "020-detail-design.md")
	assert.Contains(t, out, "expected by start-detail-design")
}

func TestDocs_SlugStatusForm(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	st := store.NewDirStore(projectDir)
	p, err := st.LoadProject()
	require.NoError(t, err)
	p.FindTask("dev-101").Status = "basic-design [bd]"
	require.NoError(t, st.SaveProject(p))

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "docs", "dev-101")
	require.NoError(t, err)
	assert.Contains(t, out, "020-detail-design.md")
	assert.Contains(t, out, "expected by start-detail-design")
}

func TestDocs_JSON(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "--format", "json",
		"docs", "dev-101")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCommands_Listing(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "commands", "dev-101")
	require.NoError(t, err)
	assert.Contains(t, out, "start-detail-design")
}

func TestTree_Outline(t *testing.T) {
	projectDir, rulesDir := setupWorkspace(t)

	out, err := execute(t, "--project", projectDir, "--rules", rulesDir, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "Billing Revamp")
	assert.Contains(t, out, "[bd] Design (dev-101)")
	assert.Contains(t, out, "1 task(s)")
}

func TestTree_MissingProject(t *testing.T) {
	out, err := execute(t, "--project", t.TempDir(), "tree")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "NOT_FOUND")
}
