package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// Schema creates the tables the Postgres repository uses.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
    id          uuid PRIMARY KEY,
    name        text NOT NULL,
    description text NOT NULL DEFAULT '',
    status      text NOT NULL,
    deadline    date NOT NULL,
    start_date  date,
    preset      text NOT NULL DEFAULT '',
    countries   text[] NOT NULL DEFAULT '{}',
    next_id     integer NOT NULL DEFAULT 1,
    updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS tasks (
    project_id  uuid NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    task_id     integer NOT NULL,
    name        text NOT NULL,
    duration    integer NOT NULL CHECK (duration >= 1),
    depends_on  integer[] NOT NULL DEFAULT '{}',
    assignee    text NOT NULL DEFAULT '',
    start_date  date,
    end_date    date,
    notes       text NOT NULL DEFAULT '',
    PRIMARY KEY (project_id, task_id)
);`

// Postgres stores projects in PostgreSQL, one row per task.
type Postgres struct {
	db        *pgxpool.Pool
	projectID uuid.UUID
	logger    *zap.Logger
}

// NewPostgres returns a repository for the project with projectID.
func NewPostgres(db *pgxpool.Pool, projectID uuid.UUID, logger *zap.Logger) *Postgres {
	return &Postgres{db: db, projectID: projectID, logger: logger}
}

// Connect opens a pool for dsn and checks it answers.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	logger.Debug("PostgreSQL connection established",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("db", poolCfg.ConnConfig.Database),
	)
	return pool, nil
}

// Migrate creates the schema if it does not exist.
func (r *Postgres) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		r.logger.Error("Failed to create schema", zap.Error(err))
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Load implements Repository.
func (r *Postgres) Load(ctx context.Context) (*project.Project, error) {
	var (
		row   projectRow
		start *time.Time
	)
	err := r.db.QueryRow(ctx, `
        SELECT id, name, description, status, deadline, start_date, preset, countries, next_id
        FROM projects WHERE id = $1`, r.projectID,
	).Scan(&row.ID, &row.Name, &row.Description, &row.Status, &row.Deadline, &start,
		&row.Preset, &row.Countries, &row.NextID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, clierr.Newf(clierr.PlanNotFound, "project %s not found in database", r.projectID).
			WithDetails(map[string]any{"id": r.projectID.String()})
	}
	if err != nil {
		r.logger.Error("Failed to load project", zap.String("id", r.projectID.String()), zap.Error(err))
		return nil, fmt.Errorf("loading project: %w", err)
	}
	row.Start = start

	rows, err := r.db.Query(ctx, `
        SELECT task_id, name, duration, depends_on, assignee, start_date, end_date, notes
        FROM tasks WHERE project_id = $1 ORDER BY task_id`, r.projectID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tr taskRow
		if err := rows.Scan(&tr.ID, &tr.Name, &tr.Duration, &tr.DependsOn, &tr.Assignee,
			&tr.Start, &tr.End, &tr.Notes); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		row.Tasks = append(row.Tasks, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	r.logger.Debug("Project loaded",
		zap.String("id", r.projectID.String()),
		zap.Int("tasks", len(row.Tasks)),
	)
	return row.toProject(), nil
}

// Save implements Repository. The project row is upserted and its task rows
// replaced inside one transaction.
func (r *Postgres) Save(ctx context.Context, p *project.Project) error {
	row := fromProject(p)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
        INSERT INTO projects (id, name, description, status, deadline, start_date, preset, countries, next_id, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            status = EXCLUDED.status,
            deadline = EXCLUDED.deadline,
            start_date = EXCLUDED.start_date,
            preset = EXCLUDED.preset,
            countries = EXCLUDED.countries,
            next_id = EXCLUDED.next_id,
            updated_at = now()`,
		row.ID, row.Name, row.Description, row.Status, row.Deadline, row.Start,
		row.Preset, row.Countries, row.NextID,
	)
	if err != nil {
		r.logger.Error("Failed to upsert project", zap.String("id", row.ID.String()), zap.Error(err))
		return fmt.Errorf("saving project: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, row.ID); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, tr := range row.Tasks {
		batch.Queue(`
            INSERT INTO tasks (project_id, task_id, name, duration, depends_on, assignee, start_date, end_date, notes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			row.ID, tr.ID, tr.Name, tr.Duration, tr.DependsOn, tr.Assignee, tr.Start, tr.End, tr.Notes)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error("Failed to insert tasks", zap.String("id", row.ID.String()), zap.Error(err))
		return fmt.Errorf("saving tasks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("committing project: %w", err)
	}

	r.logger.Debug("Project saved",
		zap.String("id", row.ID.String()),
		zap.Int("tasks", len(row.Tasks)),
	)
	return nil
}

// List implements Catalog. Projects are ordered by deadline, then name.
func (r *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.Query(ctx, `
        SELECT p.id, p.name, p.status, p.deadline, p.start_date, count(t.task_id)
        FROM projects p LEFT JOIN tasks t ON t.project_id = p.id
        GROUP BY p.id
        ORDER BY p.deadline, p.name`)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sr summaryRow
		if err := rows.Scan(&sr.ID, &sr.Name, &sr.Status, &sr.Deadline, &sr.Start, &sr.Tasks); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		out = append(out, sr.toSummary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return out, nil
}

// Delete implements Catalog. Task rows go with the project.
func (r *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return clierr.Newf(clierr.PlanNotFound, "project %s not found in database", id).
			WithDetails(map[string]any{"id": id.String()})
	}
	r.logger.Info("Project deleted", zap.String("id", id.String()))
	return nil
}

// summaryRow is one row of the List query.
type summaryRow struct {
	ID       uuid.UUID
	Name     string
	Status   string
	Deadline time.Time
	Start    *time.Time
	Tasks    int64
}

func (sr summaryRow) toSummary() Summary {
	return Summary{
		ID:       sr.ID,
		Name:     sr.Name,
		Status:   project.Status(sr.Status),
		Deadline: date.FromTime(sr.Deadline),
		Start:    datePtr(sr.Start),
		Tasks:    int(sr.Tasks),
	}
}

// projectRow mirrors the projects table.
type projectRow struct {
	ID          uuid.UUID
	Name        string
	Description string
	Status      string
	Deadline    time.Time
	Start       *time.Time
	Preset      string
	Countries   []string
	NextID      int32
	Tasks       []taskRow
}

// taskRow mirrors the tasks table.
type taskRow struct {
	ID        int32
	Name      string
	Duration  int32
	DependsOn []int32
	Assignee  string
	Start     *time.Time
	End       *time.Time
	Notes     string
}

func fromProject(p *project.Project) projectRow {
	row := projectRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		Deadline:    p.Deadline.Time,
		Start:       timePtr(p.Start),
		Preset:      p.Preset,
		Countries:   p.Countries,
		NextID:      int32(p.NextID), //nolint:gosec // task ids are small
	}
	if row.Countries == nil {
		row.Countries = []string{}
	}
	for _, t := range p.Tasks {
		deps := make([]int32, len(t.DependsOn))
		for i, dep := range t.DependsOn {
			deps[i] = int32(dep) //nolint:gosec // task ids are small
		}
		row.Tasks = append(row.Tasks, taskRow{
			ID:        int32(t.ID),       //nolint:gosec // task ids are small
			Name:      t.Name,
			Duration:  int32(t.Duration), //nolint:gosec // durations are small
			DependsOn: deps,
			Assignee:  t.Assignee,
			Start:     timePtr(t.Start),
			End:       timePtr(t.End),
			Notes:     t.Notes,
		})
	}
	return row
}

func (row projectRow) toProject() *project.Project {
	p := &project.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Status:      project.Status(row.Status),
		Deadline:    date.FromTime(row.Deadline),
		Start:       datePtr(row.Start),
		Preset:      row.Preset,
		Countries:   row.Countries,
		NextID:      int(row.NextID),
	}
	for _, tr := range row.Tasks {
		var deps []int
		for _, dep := range tr.DependsOn {
			deps = append(deps, int(dep))
		}
		p.Tasks = append(p.Tasks, &task.Task{
			ID:        int(tr.ID),
			Name:      tr.Name,
			Duration:  int(tr.Duration),
			DependsOn: deps,
			Assignee:  tr.Assignee,
			Start:     datePtr(tr.Start),
			End:       datePtr(tr.End),
			Notes:     tr.Notes,
		})
	}
	p.SortTasks()
	return p
}

func timePtr(d *date.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func datePtr(t *time.Time) *date.Date {
	if t == nil {
		return nil
	}
	return date.FromTime(*t).Ptr()
}
