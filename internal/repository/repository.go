// Package repository persists projects and their tasks.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
)

// Repository loads and saves one project. Loaded dates are a stale
// projection; callers recompute before trusting them.
type Repository interface {
	Load(ctx context.Context) (*project.Project, error)
	Save(ctx context.Context, p *project.Project) error
}

// Catalog lists and removes the projects a backend stores.
type Catalog interface {
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Summary describes a stored project without its tasks.
type Summary struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Status   project.Status `json:"status"`
	Deadline date.Date      `json:"deadline"`
	Start    *date.Date     `json:"start,omitempty"`
	Tasks    int            `json:"tasks"`
}

// Summarize returns p's summary.
func Summarize(p *project.Project) Summary {
	s := Summary{
		ID:       p.ID,
		Name:     p.Name,
		Status:   p.Status,
		Deadline: p.Deadline,
		Tasks:    len(p.Tasks),
	}
	if p.Start != nil {
		s.Start = p.Start.Ptr()
	}
	return s
}
