package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/taskdeck/taskdeck/internal/task"
)

// ProjectFile is the name of the WBS tree file inside a project root.
const ProjectFile = "project.json"

// TasksDir is the directory under the project root holding per-task
// document folders.
const TasksDir = "tasks"

// DirStore is the flat-file store rooted at a project directory.
type DirStore struct {
	root string
}

var _ FS = (*DirStore)(nil)

// NewDirStore creates a store rooted at dir. The directory does not
// need to exist yet; Init creates it.
func NewDirStore(dir string) *DirStore {
	return &DirStore{root: dir}
}

// Root returns the project root directory.
func (s *DirStore) Root() string {
	return s.root
}

// TaskDir returns the document folder for a task.
func (s *DirStore) TaskDir(taskID string) string {
	return filepath.Join(s.root, TasksDir, taskID)
}

// ListFiles returns the sorted file names in dir. An absent directory
// yields an empty slice and no error; any other failure is a read
// error.
func (s *DirStore) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile returns the content of path. A missing file reports
// ErrNotFound; other failures are read errors.
func (s *DirStore) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// StatFile returns size and modification time for path. A missing file
// reports ErrNotFound.
func (s *DirStore) StatFile(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return FileInfo{Size: info.Size(), ModTime: isoTime(info.ModTime())}, nil
}

// Init creates the project directory layout and writes an initial
// project file. Idempotent for the directory structure; fails if a
// project file already exists.
func (s *DirStore) Init(p *task.Project) error {
	if err := os.MkdirAll(filepath.Join(s.root, TasksDir), 0o755); err != nil {
		return fmt.Errorf("create project layout: %w", err)
	}
	path := filepath.Join(s.root, ProjectFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("project file already exists: %s", path)
	}
	return s.SaveProject(p)
}

// LoadProject reads and decodes the WBS tree. A missing project file
// reports ErrNotFound.
func (s *DirStore) LoadProject() (*task.Project, error) {
	data, err := s.ReadFile(filepath.Join(s.root, ProjectFile))
	if err != nil {
		return nil, err
	}
	var p task.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ProjectFile, err)
	}
	return &p, nil
}

// SaveProject writes the WBS tree atomically: encode to a temp file in
// the same directory, then rename over the target. Readers never see a
// partially written project file.
func (s *DirStore) SaveProject(p *task.Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.root, ".project-*.json")
	if err != nil {
		return fmt.Errorf("create temp project file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp project file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.root, ProjectFile)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace project file: %w", err)
	}
	return nil
}

// UpdateTaskStatus sets a task's status and bumps its UpdatedAt, then
// persists the tree. Reports ErrNotFound if the task does not exist.
func (s *DirStore) UpdateTaskStatus(taskID, newStatus string) error {
	p, err := s.LoadProject()
	if err != nil {
		return err
	}
	t := p.FindTask(taskID)
	if t == nil {
		return fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	t.Status = newStatus
	t.UpdatedAt = time.Now().UTC()
	return s.SaveProject(p)
}
