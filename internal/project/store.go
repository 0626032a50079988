package project

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/graph"
	"github.com/twiced-technology-gmbh/backplan/internal/preset"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
	"github.com/twiced-technology-gmbh/backplan/internal/task"
)

// TaskInput holds the fields of a new task.
type TaskInput struct {
	Name      string
	Duration  int
	DependsOn []int
	Assignee  string
	Notes     string
}

// TaskPatch holds the fields to change on a task; nil leaves a field as is.
type TaskPatch struct {
	Name      *string
	Duration  *int
	DependsOn *[]int
	Assignee  *string
	Notes     *string
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Name == nil && p.Duration == nil && p.DependsOn == nil &&
		p.Assignee == nil && p.Notes == nil
}

// Store owns a project and recomputes its schedule on every mutation.
// A mutation is validated, applied to a copy, scheduled, and only then
// committed, so a failure never leaves partial dates behind.
type Store struct {
	mu        sync.Mutex
	project   *Project
	result    *schedule.Result
	holidays  calendar.Holidays
	scheduler *schedule.Scheduler
	presets   preset.Catalog
	observers []Observer
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers o for change events.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// WithPresets sets the catalog used by SelectPreset.
func WithPresets(c preset.Catalog) Option {
	return func(s *Store) { s.presets = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithScheduler replaces the default literal-anchor scheduler.
func WithScheduler(sch *schedule.Scheduler) Option {
	return func(s *Store) { s.scheduler = sch }
}

// NewStore wraps p. Its dates are not trusted until Recompute runs.
func NewStore(p *Project, holidays calendar.Holidays, opts ...Option) *Store {
	if holidays == nil {
		holidays = calendar.Holidays{}
	}
	s := &Store{
		project:   p.Clone(),
		holidays:  holidays,
		scheduler: schedule.New(schedule.Options{}),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.project.SortTasks()
	s.project.ClearDates()
	return s
}

// Project returns a snapshot of the committed project.
func (s *Store) Project() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// Result returns the last successful schedule, or nil before the first one.
func (s *Store) Result() *schedule.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Calendar returns the calendar the project is scheduled on.
func (s *Store) Calendar() calendar.Calendar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return calendar.New(s.holidays, slices.Clone(s.project.Countries)...)
}

// Subscribe registers o for events committed after the call.
func (s *Store) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Recompute reschedules the committed project without changing its input.
func (s *Store) Recompute() error {
	return s.apply(ActionRecompute, 0, "", true, func(*Project) error { return nil })
}

// SetDeadline moves the project deadline.
func (s *Store) SetDeadline(d date.Date) error {
	if d.IsZero() {
		return clierr.New(clierr.InvalidDate, "deadline must be set")
	}
	return s.apply(ActionDeadline, 0, d.String(), true, func(p *Project) error {
		p.Deadline = d
		return nil
	})
}

// SetCalendarSelection replaces the active country codes. Codes are
// lower-cased and deduplicated; codes without holiday data are kept and
// contribute no holidays.
func (s *Store) SetCalendarSelection(codes []string) error {
	normalized := NormalizeCodes(codes)
	return s.apply(ActionCalendar, 0, strings.Join(normalized, ","), true, func(p *Project) error {
		p.Countries = normalized
		return nil
	})
}

// SetHolidays swaps in freshly fetched holiday data. The data is kept only
// if the project schedules with it.
func (s *Store) SetHolidays(h calendar.Holidays) error {
	if h == nil {
		h = calendar.Holidays{}
	}
	return s.commit(ActionHolidays, 0, "", true, h, func(*Project) error { return nil })
}

// AddTask validates in and appends it as a new task with the next free id.
func (s *Store) AddTask(in TaskInput) (*task.Task, error) {
	var added *task.Task
	err := s.apply(ActionAddTask, 0, in.Name, true, func(p *Project) error {
		t := &task.Task{
			ID:        task.NextID(p.Tasks),
			Name:      strings.TrimSpace(in.Name),
			Duration:  in.Duration,
			DependsOn: slices.Clone(in.DependsOn),
			Assignee:  in.Assignee,
			Notes:     in.Notes,
		}
		if err := validateTask(t, p.Tasks); err != nil {
			return err
		}
		p.Tasks = append(p.Tasks, t)
		p.Preset = CustomPreset
		added = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.taskSnapshot(added.ID), nil
}

// UpdateTask applies patch to the task with id.
func (s *Store) UpdateTask(id int, patch TaskPatch) (*task.Task, error) {
	if patch.Empty() {
		return nil, clierr.New(clierr.NoChanges, "no changes specified").
			WithDetails(map[string]any{"id": id})
	}
	err := s.apply(ActionUpdateTask, id, "", true, func(p *Project) error {
		t := p.Task(id)
		if t == nil {
			return task.NotFound(id)
		}
		if patch.Name != nil {
			t.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Duration != nil {
			t.Duration = *patch.Duration
		}
		if patch.DependsOn != nil {
			t.DependsOn = slices.Clone(*patch.DependsOn)
		}
		if patch.Assignee != nil {
			t.Assignee = *patch.Assignee
		}
		if patch.Notes != nil {
			t.Notes = *patch.Notes
		}
		if err := validateTask(t, p.Tasks); err != nil {
			return err
		}
		p.Preset = CustomPreset
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.taskSnapshot(id), nil
}

// DeleteTask removes the task with id and drops it from every dependency list.
func (s *Store) DeleteTask(id int) error {
	return s.apply(ActionDeleteTask, id, "", true, func(p *Project) error {
		t := p.Task(id)
		if t == nil {
			return task.NotFound(id)
		}
		p.Tasks = slices.DeleteFunc(p.Tasks, func(x *task.Task) bool { return x.ID == id })
		for _, other := range p.Tasks {
			other.DependsOn = slices.DeleteFunc(other.DependsOn, func(dep int) bool { return dep == id })
		}
		p.Preset = CustomPreset
		return nil
	})
}

// SelectPreset replaces every task with the template's tasks.
func (s *Store) SelectPreset(id string) error {
	if s.presets == nil {
		return clierr.Newf(clierr.PresetNotFound, "preset %q not found", id)
	}
	pr, err := s.presets.Get(id)
	if err != nil {
		return err
	}
	return s.apply(ActionPreset, 0, id, true, func(p *Project) error {
		p.Tasks = pr.Instantiate()
		p.Preset = pr.ID
		return nil
	})
}

// SetName renames the project.
func (s *Store) SetName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return clierr.New(clierr.InvalidInput, "project name must not be empty")
	}
	return s.apply(ActionProjectMeta, 0, "name", false, func(p *Project) error {
		p.Name = name
		return nil
	})
}

// SetDescription replaces the project description.
func (s *Store) SetDescription(desc string) error {
	return s.apply(ActionProjectMeta, 0, "description", false, func(p *Project) error {
		p.Description = desc
		return nil
	})
}

// SetStatus changes the advisory project status.
func (s *Store) SetStatus(status string) error {
	if err := ValidateStatus(status); err != nil {
		return err
	}
	return s.apply(ActionProjectMeta, 0, "status="+status, false, func(p *Project) error {
		p.Status = Status(status)
		return nil
	})
}

// apply runs mutate on a copy of the project, reschedules it when
// reschedule is set, and commits the copy only if every step succeeded.
func (s *Store) apply(action string, taskID int, detail string, reschedule bool, mutate func(*Project) error) error {
	return s.commit(action, taskID, detail, reschedule, nil, mutate)
}

// commit is apply with optional replacement holiday data. Non-nil holidays
// are scheduled against and committed together with the project.
func (s *Store) commit(action string, taskID int, detail string, reschedule bool,
	holidays calendar.Holidays, mutate func(*Project) error,
) error {
	s.mu.Lock()
	if holidays == nil {
		holidays = s.holidays
	}

	candidate := s.project.Clone()
	if err := mutate(candidate); err != nil {
		s.mu.Unlock()
		return err
	}
	candidate.SortTasks()

	res := s.result
	if reschedule {
		cal := calendar.New(holidays, candidate.Countries...)
		var err error
		res, err = s.scheduler.Schedule(candidate.Tasks, candidate.Deadline, cal)
		if err != nil {
			s.mu.Unlock()
			s.logger.Debug("schedule rejected", zap.String("action", action), zap.Error(err))
			return MapError(err)
		}
		applyResult(candidate, res)
	}

	s.project = candidate
	s.result = res
	s.holidays = holidays
	snapshot := candidate.Clone()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	s.logger.Debug("project committed",
		zap.String("action", action),
		zap.Int("tasks", len(snapshot.Tasks)),
		zap.Stringer("deadline", snapshot.Deadline))

	ev := Event{
		Timestamp: s.now(),
		Action:    action,
		TaskID:    taskID,
		Detail:    detail,
		Project:   snapshot,
	}
	for _, o := range observers {
		o.ProjectChanged(ev)
	}
	return nil
}

func (s *Store) taskSnapshot(id int) *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.project.Task(id); t != nil {
		return t.Clone()
	}
	return nil
}

func applyResult(p *Project, res *schedule.Result) {
	p.Start = nil
	if res.Start != nil {
		p.Start = res.Start.Ptr()
	}
	for _, t := range p.Tasks {
		scheduled := res.Task(t.ID)
		t.Start = scheduled.Start.Ptr()
		t.End = scheduled.End.Ptr()
	}
}

// validateTask checks t and its dependency list against the rest of tasks.
func validateTask(t *task.Task, tasks []*task.Task) error {
	if err := task.Validate(t); err != nil {
		return err
	}
	others := slices.DeleteFunc(slices.Clone(tasks), func(x *task.Task) bool { return x.ID == t.ID })
	if err := task.ValidateDependencies(t.ID, t.DependsOn, others); err != nil {
		return err
	}
	if path := graph.CyclePath(t.ID, t.DependsOn, tasks); path != nil {
		return cycleDetected(t.ID, path)
	}
	return nil
}

// NormalizeCodes lower-cases, trims and deduplicates country codes,
// keeping first-seen order.
func NormalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
