package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/docs"
	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/task"
)

type transitionRequest struct {
	Command string `json:"command"`
}

type documentsResponse struct {
	TaskID    string          `json:"task_id"`
	Status    string          `json:"status"`
	Documents []docs.Document `json:"documents"`
}

type commandsResponse struct {
	TaskID   string   `json:"task_id"`
	Status   string   `json:"status"`
	Commands []string `json:"commands"`
	Terminal bool     `json:"terminal"`
}

// loadTask resolves the task for the request's {id} path segment.
// Writes the error response itself on failure; callers stop when the
// returned task is nil. The unknown-task check runs before any rule
// table access, so a bad id is NOT_FOUND even when the command would
// also be illegal.
func (s *Server) loadTask(w http.ResponseWriter, r *http.Request) (*task.Project, *task.Task) {
	p, err := s.store.LoadProject()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, string(engine.ErrCodeNotFound), "project not found")
		} else {
			writeError(w, http.StatusInternalServerError, string(engine.ErrCodeFileReadError), err.Error())
		}
		return nil, nil
	}
	id := r.PathValue("id")
	t := p.FindTask(id)
	if t == nil {
		writeError(w, http.StatusNotFound, string(engine.ErrCodeNotFound), "task not found: "+id)
		return nil, nil
	}
	return p, t
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(engine.ErrCodeInvalidCommand), "malformed request body")
		return
	}

	_, t := s.loadTask(w, r)
	if t == nil {
		return
	}

	result, err := s.engine.AttemptTransition(r.Context(), t, req.Command)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	_, t := s.loadTask(w, r)
	if t == nil {
		return
	}

	existing, err := s.store.ListFiles(s.store.TaskDir(t.ID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, string(engine.ErrCodeFileReadError), err.Error())
		return
	}

	list := docs.Reconcile(existing, string(t.Category), t.Status, s.provider.Load())
	if list == nil {
		list = []docs.Document{}
	}
	writeJSON(w, http.StatusOK, documentsResponse{
		TaskID:    t.ID,
		Status:    t.Status,
		Documents: list,
	})
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	_, t := s.loadTask(w, r)
	if t == nil {
		return
	}

	writeJSON(w, http.StatusOK, commandsResponse{
		TaskID:   t.ID,
		Status:   t.Status,
		Commands: s.engine.AvailableCommands(t),
		Terminal: s.engine.IsTerminal(t),
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.LoadProject()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, string(engine.ErrCodeNotFound), "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, string(engine.ErrCodeFileReadError), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
