package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/task"
)

func newProjectStore(t *testing.T, statusCode string) *store.DirStore {
	t.Helper()
	s := store.NewDirStore(t.TempDir())
	p := &task.Project{
		ID:   "proj-1",
		Name: "Sample",
		WorkPackages: []task.WorkPackage{{
			ID: "wp-1", Name: "Core",
			Activities: []task.Activity{{
				ID: "act-1", Name: "Engine",
				Tasks: []task.Task{{ID: "t-1", Name: "Parser", Category: task.CategoryDevelopment, Status: statusCode}},
			}},
		}},
	}
	require.NoError(t, s.Init(p))
	return s
}

func TestStatusExecutor_PersistsComputedStatus(t *testing.T) {
	s := newProjectStore(t, "[bd]")
	exec := &engine.StatusExecutor{Store: s}

	res, err := exec.Execute(context.Background(), "t-1", "start-detail-design", "[dd]")
	require.NoError(t, err)
	assert.Equal(t, "[dd]", res.NewStatus)

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[dd]", p.FindTask("t-1").Status)
}

func TestStatusExecutor_UnknownTask(t *testing.T) {
	s := newProjectStore(t, "[bd]")
	exec := &engine.StatusExecutor{Store: s}

	_, err := exec.Execute(context.Background(), "t-99", "complete", "[xx]")
	assert.Error(t, err)
}

func TestStatusExecutor_CancelledContext(t *testing.T) {
	s := newProjectStore(t, "[bd]")
	exec := &engine.StatusExecutor{Store: s}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := exec.Execute(ctx, "t-1", "complete", "[xx]")
	assert.Error(t, err)

	// Status untouched.
	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[bd]", p.FindTask("t-1").Status)
}

func TestHookExecutor_SuccessPersistsStatus(t *testing.T) {
	s := newProjectStore(t, "[im]")
	exec := &engine.HookExecutor{
		Store:   s,
		Program: "sh",
		Args:    []string{"-c", "echo done"},
	}

	res, err := exec.Execute(context.Background(), "t-1", "start-verification", "[vf]")
	require.NoError(t, err)
	assert.Equal(t, "[vf]", res.NewStatus)
	assert.Equal(t, "done", res.Message)

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[vf]", p.FindTask("t-1").Status)
}

func TestHookExecutor_StatusOverride(t *testing.T) {
	s := newProjectStore(t, "[im]")
	exec := &engine.HookExecutor{
		Store:   s,
		Program: "sh",
		Args:    []string{"-c", `echo "status=[rv]"`},
	}

	res, err := exec.Execute(context.Background(), "t-1", "start-verification", "[vf]")
	require.NoError(t, err)
	assert.Equal(t, "[rv]", res.NewStatus, "hook-reported status wins")

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[rv]", p.FindTask("t-1").Status)
}

func TestHookExecutor_FailureLeavesStatus(t *testing.T) {
	s := newProjectStore(t, "[im]")
	exec := &engine.HookExecutor{
		Store:   s,
		Program: "sh",
		Args:    []string{"-c", "echo boom >&2; exit 3"},
	}

	_, err := exec.Execute(context.Background(), "t-1", "start-verification", "[vf]")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, "[im]", p.FindTask("t-1").Status, "status unchanged after hook failure")
}
