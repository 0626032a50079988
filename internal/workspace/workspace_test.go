package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/twiced-technology-gmbh/backplan/internal/activity"
	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/repository"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

type memRepo struct {
	p       *project.Project
	others  []repository.Summary
	saves   int
	saveErr error
}

func (m *memRepo) Load(context.Context) (*project.Project, error) {
	if m.p == nil {
		return nil, clierr.New(clierr.PlanNotFound, "no project stored")
	}
	return m.p.Clone(), nil
}

func (m *memRepo) Save(_ context.Context, p *project.Project) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.p = p.Clone()
	return nil
}

func (m *memRepo) List(context.Context) ([]repository.Summary, error) {
	var out []repository.Summary
	if m.p != nil {
		out = append(out, repository.Summarize(m.p))
	}
	return append(out, m.others...), nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if m.p != nil && m.p.ID == id {
		m.p = nil
		return nil
	}
	for i, s := range m.others {
		if s.ID == id {
			m.others = append(m.others[:i], m.others[i+1:]...)
			return nil
		}
	}
	return clierr.New(clierr.PlanNotFound, "no such project")
}

type failingHolidays struct{}

func (failingHolidays) Holidays(context.Context, []string) (calendar.Holidays, error) {
	return nil, errors.New("service down")
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{config.EnvDatabaseURL, config.EnvRedisAddr, config.EnvHolidaysURL, config.EnvAMQPURL} {
		t.Setenv(key, "")
	}
}

func newWorkspace(t *testing.T, repo *memRepo, opts ...Option) *Workspace {
	t.Helper()
	clearEnv(t)
	deadline, err := date.Parse("2025-03-14")
	require.NoError(t, err)
	cfg, err := config.Init(t.TempDir(), "Launch", deadline)
	require.NoError(t, err)
	if repo.p == nil {
		repo.p = cfg.Project.Clone()
	}

	opts = append([]Option{WithRepository(repo)}, opts...)
	w, err := Open(context.Background(), cfg, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	t.Cleanup(w.Close)
	return w
}

func TestMutateSavesAndLogs(t *testing.T) {
	repo := &memRepo{}
	w := newWorkspace(t, repo)

	store, err := w.Mutate(context.Background(), func(s *project.Store) error {
		_, err := s.AddTask(project.TaskInput{Name: "Build", Duration: 2})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.saves)
	require.Len(t, repo.p.Tasks, 1)
	assert.Equal(t, "2025-03-13", repo.p.Tasks[0].Start.String())
	assert.Equal(t, "2025-03-13", store.Project().Tasks[0].Start.String())

	entries, err := activity.ReadLog(w.Config().Dir(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, project.ActionAddTask, entries[0].Action)
}

func TestMutateFailureSavesNothing(t *testing.T) {
	repo := &memRepo{}
	w := newWorkspace(t, repo)

	_, err := w.Mutate(context.Background(), func(s *project.Store) error {
		_, err := s.AddTask(project.TaskInput{Name: "Build", Duration: 0})
		return err
	})
	assert.True(t, clierr.HasCode(err, clierr.InvalidDuration))
	assert.Zero(t, repo.saves)
}

func TestObserversHearOnlySavedChanges(t *testing.T) {
	repo := &memRepo{}
	var actions []string
	w := newWorkspace(t, repo, WithObserver(project.ObserverFunc(func(e project.Event) {
		actions = append(actions, e.Action)
	})))
	ctx := context.Background()

	repo.saveErr = errors.New("disk full")
	_, err := w.Mutate(ctx, func(s *project.Store) error {
		_, err := s.AddTask(project.TaskInput{Name: "Build", Duration: 2})
		return err
	})
	require.ErrorContains(t, err, "disk full")
	entries, err := activity.ReadLog(w.Config().Dir(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, actions)

	repo.saveErr = nil
	_, err = w.Mutate(ctx, func(s *project.Store) error {
		if err := s.SetHolidays(calendar.Holidays{}); err != nil {
			return err
		}
		return s.SetCalendarSelection([]string{"usa"})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{project.ActionHolidays, project.ActionCalendar}, actions)
	entries, err = activity.ReadLog(w.Config().Dir(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLoadReportsUnavailableHolidays(t *testing.T) {
	var warnings []error
	w := newWorkspace(t, &memRepo{},
		WithHolidays(failingHolidays{}),
		WithWarnings(func(err error) { warnings = append(warnings, err) }))

	store, err := w.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Len(t, warnings, 1)
	assert.Equal(t, clierr.KindCalendar, clierr.KindOf(warnings[0]))
}

func TestBrokenPlanCanBeRepaired(t *testing.T) {
	repo := &memRepo{}
	w := newWorkspace(t, repo)
	repo.p.Tasks = []*task.Task{
		{ID: 1, Name: "A", Duration: 1, DependsOn: []int{2}},
		{ID: 2, Name: "B", Duration: 1, DependsOn: []int{1}},
	}

	store, err := w.Load(context.Background())
	require.NotNil(t, store)
	assert.True(t, clierr.HasCode(err, clierr.CycleDetected))

	none := []int{}
	_, err = w.Mutate(context.Background(), func(s *project.Store) error {
		_, err := s.UpdateTask(1, project.TaskPatch{DependsOn: &none})
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, repo.p.Task(1).DependsOn)
	assert.NotNil(t, repo.p.Task(1).Start)
}

func TestLoadSeedsEmptyBackend(t *testing.T) {
	seed := &memRepo{}
	w := newWorkspace(t, seed)
	seed.p.Tasks = []*task.Task{{ID: 1, Name: "A", Duration: 1}}

	empty := &memRepo{}
	w.repo = empty
	w.seed = seed
	empty.p = nil

	store, err := w.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.Project().Tasks, 1)
	assert.Equal(t, 1, empty.saves)
}

func TestWatchPaths(t *testing.T) {
	w := newWorkspace(t, &memRepo{})
	assert.Equal(t, []string{w.Config().TasksPath(), w.Config().Dir()}, w.WatchPaths())
	assert.NotEmpty(t, w.Countries())
}

func TestDeleteProjectByPrefix(t *testing.T) {
	repo := &memRepo{}
	w := newWorkspace(t, repo)
	ctx := context.Background()

	a := uuid.MustParse("aaaa0000-0000-4000-8000-000000000001")
	b := uuid.MustParse("aaaa0000-0000-4000-8000-000000000002")
	repo.others = []repository.Summary{{ID: a, Name: "Old"}, {ID: b, Name: "Older"}}

	list, err := w.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = w.DeleteProject(ctx, "AAAA0000")
	assert.True(t, clierr.HasCode(err, clierr.InvalidInput), "ambiguous prefix")
	_, err = w.DeleteProject(ctx, "ffff0000-0000-4000")
	assert.True(t, clierr.HasCode(err, clierr.PlanNotFound))
	_, err = w.DeleteProject(ctx, "")
	assert.True(t, clierr.HasCode(err, clierr.PlanNotFound))

	deleted, err := w.DeleteProject(ctx, b.String())
	require.NoError(t, err)
	assert.Equal(t, "Older", deleted.Name)

	list, err = w.Projects(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
