// Package workspace connects a plan directory to its storage backend,
// holiday source, preset catalog and change observers.
package workspace

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/twiced-technology-gmbh/backplan/internal/activity"
	"github.com/twiced-technology-gmbh/backplan/internal/calendar"
	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/filelock"
	"github.com/twiced-technology-gmbh/backplan/internal/holiday"
	"github.com/twiced-technology-gmbh/backplan/internal/preset"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/repository"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
)

// Workspace is an opened plan. Load gives a read-only view; Mutate runs a
// locked load, change and save cycle.
type Workspace struct {
	cfg       *config.Config
	eff       *config.Config
	repo      repository.Repository
	seed      repository.Repository
	embedded  *holiday.Embedded
	holidays  holiday.Provider
	presets   preset.Catalog
	observers []project.Observer
	logger    *zap.Logger
	warn      func(error)
	closers   []func()
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithWarnings routes non-fatal problems, such as unavailable holiday data,
// to fn. The default drops them after logging.
func WithWarnings(fn func(error)) Option {
	return func(w *Workspace) { w.warn = fn }
}

// WithRepository replaces the configured storage backend.
func WithRepository(r repository.Repository) Option {
	return func(w *Workspace) { w.repo = r }
}

// WithHolidays replaces the configured holiday provider.
func WithHolidays(p holiday.Provider) Option {
	return func(w *Workspace) { w.holidays = p }
}

// WithObserver adds an observer besides the activity log.
func WithObserver(o project.Observer) Option {
	return func(w *Workspace) { w.observers = append(w.observers, o) }
}

// Open wires cfg's backends. Environment overrides apply to the wiring only
// and are never written back to config.yml.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Workspace, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Workspace{
		cfg:    cfg,
		eff:    cfg.Effective(),
		logger: logger,
	}
	w.warn = func(err error) { w.logger.Warn("Continuing without holiday data", zap.Error(err)) }

	embedded, err := holiday.NewEmbedded()
	if err != nil {
		return nil, err
	}
	w.embedded = embedded

	presets, err := preset.Load(cfg.Dir())
	if err != nil {
		return nil, err
	}
	w.presets = presets
	w.observers = []project.Observer{activity.NewLog(cfg.Dir(), logger)}

	for _, opt := range opts {
		opt(w)
	}

	if w.repo == nil {
		if err := w.openRepository(ctx); err != nil {
			w.Close()
			return nil, err
		}
	}
	if w.holidays == nil {
		w.openHolidays()
	}
	w.openPublisher()
	return w, nil
}

func (w *Workspace) openRepository(ctx context.Context) error {
	file := repository.NewFile(w.cfg)
	if w.eff.Storage.Driver != config.DriverPostgres {
		w.repo = file
		return nil
	}

	pool, err := repository.Connect(ctx, w.eff.Storage.DSN, w.logger)
	if err != nil {
		return clierr.Wrap(clierr.InternalError, err)
	}
	w.closers = append(w.closers, pool.Close)

	pg := repository.NewPostgres(pool, w.cfg.Project.ID, w.logger)
	if err := pg.Migrate(ctx); err != nil {
		return clierr.Wrap(clierr.InternalError, err)
	}
	w.repo = pg
	w.seed = file
	return nil
}

func (w *Workspace) openHolidays() {
	var p holiday.Provider = w.embedded
	if w.eff.Holidays.Source == config.SourceHTTP && w.eff.Holidays.URL != "" {
		p = holiday.NewHTTP(w.eff.Holidays.URL, nil, w.logger)
	}
	if addr := w.eff.Holidays.RedisAddr; addr != "" {
		client := holiday.NewRedisClient(addr)
		w.closers = append(w.closers, func() { _ = client.Close() })
		p = holiday.NewCached(client, p, w.eff.CacheTTL(), w.logger)
	}
	w.holidays = p
}

// openPublisher attaches the AMQP publisher when a broker is configured.
// An unreachable broker costs the events, not the command.
func (w *Workspace) openPublisher() {
	url := w.eff.Notify.AMQPURL
	if url == "" {
		return
	}
	pub, err := activity.DialPublisher(url, w.eff.Exchange(), w.logger)
	if err != nil {
		w.logger.Warn("Schedule events disabled", zap.Error(err))
		return
	}
	w.closers = append(w.closers, pub.Close)
	w.observers = append(w.observers, pub)
}

// Close releases connections opened by Open.
func (w *Workspace) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
	w.closers = nil
}

// Config returns the plan configuration as stored on disk.
func (w *Workspace) Config() *config.Config { return w.cfg }

// Presets returns the preset catalog, including plan-local presets.
func (w *Workspace) Presets() preset.Catalog { return w.presets }

// Countries lists the countries holiday data is known for.
func (w *Workspace) Countries() []holiday.Country { return w.embedded.Countries() }

// WatchPaths returns the directories whose changes affect the plan.
func (w *Workspace) WatchPaths() []string {
	paths := []string{w.cfg.TasksPath()}
	if w.cfg.Dir() != w.cfg.TasksPath() {
		paths = append(paths, w.cfg.Dir())
	}
	return paths
}

// Holidays resolves holiday data for codes, degrading to weekends only.
func (w *Workspace) Holidays(ctx context.Context, codes []string) calendar.Holidays {
	h, warn := holiday.Resolve(ctx, w.holidays, codes)
	if warn != nil {
		w.warn(warn)
	}
	return h
}

// Load reads the plan and computes its schedule. When the stored plan
// cannot be scheduled the store is still returned, without dates, along
// with the error.
func (w *Workspace) Load(ctx context.Context) (*project.Store, error) {
	p, err := w.loadProject(ctx)
	if err != nil {
		return nil, err
	}
	store := project.NewStore(p, w.Holidays(ctx, p.Countries),
		project.WithPresets(w.presets),
		project.WithLogger(w.logger),
		project.WithScheduler(schedule.New(w.cfg.SchedulerOptions())),
	)
	return store, store.Recompute()
}

// Mutate loads the plan under the directory lock, applies fn and saves the
// result. Nothing is saved when fn fails. Observers hear about the changes
// only once they are saved. A stored plan that cannot be
// scheduled can still be mutated, so the change that repairs it goes through.
func (w *Workspace) Mutate(ctx context.Context, fn func(*project.Store) error) (*project.Store, error) {
	var out *project.Store
	err := filelock.WithDir(w.cfg.Dir(), func() error {
		store, err := w.Load(ctx)
		if store == nil {
			return err
		}
		if err != nil {
			w.logger.Debug("Stored plan does not schedule", zap.Error(err))
		}
		var pending []project.Event
		store.Subscribe(project.ObserverFunc(func(e project.Event) {
			pending = append(pending, e)
		}))
		if err := fn(store); err != nil {
			return err
		}
		if err := w.repo.Save(ctx, store.Project()); err != nil {
			return fmt.Errorf("saving plan: %w", err)
		}
		for _, e := range pending {
			for _, o := range w.observers {
				o.ProjectChanged(e)
			}
		}
		out = store
		return nil
	})
	return out, err
}

// Projects lists the projects stored by the backend. The file backend
// reports its single plan.
func (w *Workspace) Projects(ctx context.Context) ([]repository.Summary, error) {
	cat, err := w.catalog()
	if err != nil {
		return nil, err
	}
	return cat.List(ctx)
}

// DeleteProject removes the project whose id is ref or starts with ref.
// An ambiguous prefix is rejected.
func (w *Workspace) DeleteProject(ctx context.Context, ref string) (repository.Summary, error) {
	cat, err := w.catalog()
	if err != nil {
		return repository.Summary{}, err
	}
	list, err := cat.List(ctx)
	if err != nil {
		return repository.Summary{}, err
	}

	ref = strings.ToLower(strings.TrimSpace(ref))
	var matches []repository.Summary
	for _, s := range list {
		if ref != "" && strings.HasPrefix(s.ID.String(), ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return repository.Summary{}, clierr.Newf(clierr.PlanNotFound, "no project matches %q", ref).
			WithDetails(map[string]any{"id": ref})
	case 1:
	default:
		return repository.Summary{}, clierr.Newf(clierr.InvalidInput, "%q matches %d projects", ref, len(matches)).
			WithDetails(map[string]any{"id": ref})
	}

	target := matches[0]
	if err := cat.Delete(ctx, target.ID); err != nil {
		return repository.Summary{}, err
	}
	w.logger.Info("Deleted project", zap.String("id", target.ID.String()), zap.String("name", target.Name))
	return target, nil
}

func (w *Workspace) catalog() (repository.Catalog, error) {
	cat, ok := w.repo.(repository.Catalog)
	if !ok {
		return nil, clierr.New(clierr.InvalidInput, "storage backend cannot list projects")
	}
	return cat, nil
}

// loadProject reads from the repository. A Postgres backend without the
// project yet is seeded from the plan directory.
func (w *Workspace) loadProject(ctx context.Context) (*project.Project, error) {
	p, err := w.repo.Load(ctx)
	if err == nil || w.seed == nil || !clierr.HasCode(err, clierr.PlanNotFound) {
		return p, err
	}

	p, err = w.seed.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := w.repo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("seeding database: %w", err)
	}
	w.logger.Info("Seeded database from plan directory", zap.Int("tasks", len(p.Tasks)))
	return p, nil
}
