package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// File keeps project metadata in config.yml and each task in its own
// markdown file under the tasks directory.
type File struct {
	cfg *config.Config
}

// NewFile returns a repository rooted at cfg's plan directory.
func NewFile(cfg *config.Config) *File {
	return &File{cfg: cfg}
}

// Load implements Repository.
func (r *File) Load(_ context.Context) (*project.Project, error) {
	tasks, err := task.ReadAll(r.cfg.TasksPath())
	if err != nil {
		return nil, err
	}
	p := r.cfg.Project.Clone()
	p.Tasks = tasks
	p.SortTasks()
	return p, nil
}

// Save implements Repository. Task files are rewritten, renamed when a
// task's name changes, and removed when the task is gone.
func (r *File) Save(_ context.Context, p *project.Project) error {
	dir := r.cfg.TasksPath()
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:mnd // standard dir permissions
		return fmt.Errorf("creating tasks directory: %w", err)
	}

	keep := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		name := task.Filename(t)
		if err := task.Write(filepath.Join(dir, name), t); err != nil {
			return fmt.Errorf("writing task #%d: %w", t.ID, err)
		}
		keep[name] = true
	}

	names, err := task.Files(dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		if keep[name] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("removing stale task file: %w", err)
		}
	}

	meta := p.Clone()
	meta.Tasks = nil
	r.cfg.Project = meta
	return r.cfg.Save()
}

// List implements Catalog. A plan directory holds exactly one project.
func (r *File) List(ctx context.Context) ([]Summary, error) {
	p, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return []Summary{Summarize(p)}, nil
}

// Delete implements Catalog by removing the whole plan directory.
func (r *File) Delete(_ context.Context, id uuid.UUID) error {
	if r.cfg.Project == nil || r.cfg.Project.ID != id {
		return clierr.Newf(clierr.PlanNotFound, "project %s not found in %s", id, r.cfg.Dir()).
			WithDetails(map[string]any{"id": id.String()})
	}
	if err := os.RemoveAll(r.cfg.Dir()); err != nil {
		return fmt.Errorf("removing plan directory: %w", err)
	}
	return nil
}
