package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/date"
	"github.com/twiced-technology-gmbh/backplan/internal/project"
	"github.com/twiced-technology-gmbh/backplan/internal/schedule"
)

const fileMode = 0o600

// Sentinel errors.
var (
	ErrNotFound = errors.New("no plan found (run 'backplan init' to create one)")
	ErrInvalid  = errors.New("invalid config")
)

// Config represents the plan directory configuration.
type Config struct {
	Version  int              `yaml:"version"`
	Project  *project.Project `yaml:"project"`
	TasksDir string           `yaml:"tasks_dir"`
	Schedule ScheduleConfig   `yaml:"schedule"`
	Holidays HolidaysConfig   `yaml:"holidays"`
	Storage  StorageConfig    `yaml:"storage"`
	Notify   NotifyConfig     `yaml:"notify,omitempty"`

	// dir is the absolute path to the plan directory (not serialized).
	dir string `yaml:"-"`
}

// ScheduleConfig tunes the scheduler.
type ScheduleConfig struct {
	DeadlineAnchor string `yaml:"deadline_anchor"`
	MaxPasses      int    `yaml:"max_passes,omitempty"`
}

// HolidaysConfig selects where holiday data comes from.
type HolidaysConfig struct {
	Source    string `yaml:"source"`
	URL       string `yaml:"url,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
	CacheTTL  string `yaml:"cache_ttl,omitempty"`
}

// StorageConfig selects the repository backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn,omitempty"`
}

// NotifyConfig configures the schedule event publisher.
type NotifyConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange,omitempty"`
}

// Dir returns the absolute path to the plan directory.
func (c *Config) Dir() string {
	return c.dir
}

// SetDir sets the plan directory path on the config.
func (c *Config) SetDir(dir string) {
	c.dir = dir
}

// TasksPath returns the absolute path to the tasks directory.
func (c *Config) TasksPath() string {
	return filepath.Join(c.dir, c.TasksDir)
}

// ConfigPath returns the absolute path to the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.dir, ConfigFileName)
}

// NewDefault creates a Config for a new project.
func NewDefault(name string, deadline date.Date) *Config {
	p := project.New(name, deadline)
	p.Countries = slices.Clone(DefaultCountries)
	return &Config{
		Version:  CurrentVersion,
		Project:  p,
		TasksDir: DefaultTasksDir,
		Schedule: ScheduleConfig{DeadlineAnchor: DefaultAnchor},
		Holidays: HolidaysConfig{Source: DefaultHolidaySource},
		Storage:  StorageConfig{Driver: DriverFile},
	}
}

// Anchor returns the parsed deadline anchor policy.
func (c *Config) Anchor() schedule.Anchor {
	a, err := schedule.ParseAnchor(c.Schedule.DeadlineAnchor)
	if err != nil {
		return schedule.AnchorLiteral
	}
	return a
}

// SchedulerOptions returns the scheduler settings.
func (c *Config) SchedulerOptions() schedule.Options {
	return schedule.Options{Anchor: c.Anchor(), MaxPasses: c.Schedule.MaxPasses}
}

// CacheTTL returns the parsed holiday cache TTL.
func (c *Config) CacheTTL() time.Duration {
	if c.Holidays.CacheTTL == "" {
		return DefaultCacheTTL
	}
	d, err := time.ParseDuration(c.Holidays.CacheTTL)
	if err != nil {
		return DefaultCacheTTL
	}
	return d
}

// Exchange returns the AMQP exchange name.
func (c *Config) Exchange() string {
	if c.Notify.Exchange == "" {
		return DefaultExchange
	}
	return c.Notify.Exchange
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d (expected %d)", ErrInvalid, c.Version, CurrentVersion)
	}
	if c.Project == nil || c.Project.Name == "" {
		return fmt.Errorf("%w: project.name is required", ErrInvalid)
	}
	if c.Project.Deadline.IsZero() {
		return fmt.Errorf("%w: project.deadline is required", ErrInvalid)
	}
	if c.TasksDir == "" {
		return fmt.Errorf("%w: tasks_dir is required", ErrInvalid)
	}
	if _, err := schedule.ParseAnchor(c.Schedule.DeadlineAnchor); err != nil {
		return fmt.Errorf("%w: schedule.deadline_anchor: %v", ErrInvalid, err)
	}
	if c.Schedule.MaxPasses < 0 {
		return fmt.Errorf("%w: schedule.max_passes must not be negative", ErrInvalid)
	}
	switch c.Holidays.Source {
	case SourceEmbedded:
	case SourceHTTP:
		if c.Holidays.URL == "" {
			return fmt.Errorf("%w: holidays.url is required for source %q", ErrInvalid, SourceHTTP)
		}
	default:
		return fmt.Errorf("%w: holidays.source must be %q or %q", ErrInvalid, SourceEmbedded, SourceHTTP)
	}
	if c.Holidays.CacheTTL != "" {
		if _, err := time.ParseDuration(c.Holidays.CacheTTL); err != nil {
			return fmt.Errorf("%w: holidays.cache_ttl: %v", ErrInvalid, err)
		}
	}
	switch c.Storage.Driver {
	case DriverFile:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%w: storage.dsn is required for driver %q", ErrInvalid, DriverPostgres)
		}
	default:
		return fmt.Errorf("%w: storage.driver must be %q or %q", ErrInvalid, DriverFile, DriverPostgres)
	}
	if err := project.ValidateStatus(string(c.Project.Status)); err != nil {
		return fmt.Errorf("%w: project.status: %v", ErrInvalid, err)
	}
	return nil
}

// Effective returns a copy with environment overrides applied. Overrides
// never reach the file through Save on the original.
func (c *Config) Effective() *Config {
	eff := *c
	overrideFromEnv(&eff)
	return &eff
}

func overrideFromEnv(cfg *Config) {
	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		cfg.Storage.Driver = DriverPostgres
		cfg.Storage.DSN = dsn
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		cfg.Holidays.RedisAddr = addr
	}
	if url := os.Getenv(EnvHolidaysURL); url != "" {
		cfg.Holidays.Source = SourceHTTP
		cfg.Holidays.URL = url
	}
	if url := os.Getenv(EnvAMQPURL); url != "" {
		cfg.Notify.AMQPURL = url
	}
}

// Init creates a new plan directory with default config and tasks subdirectory.
func Init(dir, name string, deadline date.Date) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if _, err := os.Stat(filepath.Join(absDir, ConfigFileName)); err == nil {
		return nil, clierr.Newf(clierr.PlanAlreadyExists, "plan already exists in %s", absDir).
			WithDetails(map[string]any{"dir": absDir})
	}

	cfg := NewDefault(name, deadline)
	cfg.dir = absDir

	if err := os.MkdirAll(cfg.TasksPath(), 0o750); err != nil { //nolint:mnd // standard dir permissions
		return nil, fmt.Errorf("creating tasks directory: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to its file.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, fileMode); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load reads and validates the config in dir, migrating old versions forward.
func Load(dir string) (*Config, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	path := filepath.Join(absDir, ConfigFileName)
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted source
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.dir = absDir

	oldVersion := cfg.Version
	if err := migrate(&cfg); err != nil {
		return nil, err
	}
	if cfg.Version != oldVersion {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("saving migrated config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindDir walks up from startDir looking for a plan directory.
func FindDir(startDir string) (string, error) {
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	dir := absStart
	for {
		candidate := filepath.Join(dir, DefaultDir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Join(dir, DefaultDir), nil
		}

		candidate = filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", clierr.New(clierr.PlanNotFound,
				"no plan found (run 'backplan init' to create one)")
		}
		dir = parent
	}
}
