package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/backplan/internal/clierr"
	"github.com/twiced-technology-gmbh/backplan/internal/config"
	"github.com/twiced-technology-gmbh/backplan/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify plan configuration",
	Long: `View the full configuration, get a specific key, or set a writable value.
Environment overrides (BACKPLAN_DATABASE_URL, BACKPLAN_REDIS_ADDR,
BACKPLAN_HOLIDAYS_URL, BACKPLAN_AMQP_URL) apply at run time and are
never written to config.yml.`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2), //nolint:mnd // key and value
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configAccessor describes how to get and set a config key.
type configAccessor struct {
	get      func(*config.Config) any
	set      func(*config.Config, string) error
	writable bool
}

func stringAccessor(field func(*config.Config) *string) configAccessor {
	return configAccessor{
		get:      func(c *config.Config) any { return *field(c) },
		set:      func(c *config.Config, v string) error { *field(c) = v; return nil },
		writable: true,
	}
}

func configAccessors() map[string]configAccessor {
	return map[string]configAccessor{
		"version": {
			get: func(c *config.Config) any { return c.Version },
		},
		"tasks_dir": {
			get: func(c *config.Config) any { return c.TasksDir },
		},
		"project.id": {
			get: func(c *config.Config) any { return c.Project.ID.String() },
		},
		"schedule.deadline_anchor": stringAccessor(func(c *config.Config) *string { return &c.Schedule.DeadlineAnchor }),
		"schedule.max_passes": {
			get: func(c *config.Config) any { return c.Schedule.MaxPasses },
			set: func(c *config.Config, v string) error {
				n, err := strconv.Atoi(v)
				if err != nil {
					return clierr.Newf(clierr.InvalidInput, "invalid max_passes %q: must be an integer", v)
				}
				c.Schedule.MaxPasses = n
				return nil
			},
			writable: true,
		},
		"holidays.source":     stringAccessor(func(c *config.Config) *string { return &c.Holidays.Source }),
		"holidays.url":        stringAccessor(func(c *config.Config) *string { return &c.Holidays.URL }),
		"holidays.redis_addr": stringAccessor(func(c *config.Config) *string { return &c.Holidays.RedisAddr }),
		"holidays.cache_ttl":  stringAccessor(func(c *config.Config) *string { return &c.Holidays.CacheTTL }),
		"storage.driver":      stringAccessor(func(c *config.Config) *string { return &c.Storage.Driver }),
		"storage.dsn":         stringAccessor(func(c *config.Config) *string { return &c.Storage.DSN }),
		"notify.amqp_url":     stringAccessor(func(c *config.Config) *string { return &c.Notify.AMQPURL }),
		"notify.exchange":     stringAccessor(func(c *config.Config) *string { return &c.Notify.Exchange }),
	}
}

// allConfigKeys returns config keys in display order.
func allConfigKeys() []string {
	return []string{
		"version",
		"project.id",
		"tasks_dir",
		"schedule.deadline_anchor",
		"schedule.max_passes",
		"holidays.source",
		"holidays.url",
		"holidays.redis_addr",
		"holidays.cache_ttl",
		"storage.driver",
		"storage.dsn",
		"notify.amqp_url",
		"notify.exchange",
	}
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	accessors := configAccessors()

	if outputFormat() == output.FormatJSON {
		m := make(map[string]any, len(accessors))
		for _, key := range allConfigKeys() {
			m[key] = accessors[key].get(cfg)
		}
		return output.JSON(os.Stdout, m)
	}

	for _, key := range allConfigKeys() {
		val := accessors[key].get(cfg)
		fmt.Fprintf(os.Stdout, "%-26s %v\n", key, formatConfigValue(val))
	}
	return nil
}

func runConfigGet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key := args[0]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key).
			WithDetails(map[string]any{"keys": allConfigKeys()})
	}

	val := acc.get(cfg)

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, val)
	}

	fmt.Fprintln(os.Stdout, formatConfigValue(val))
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	acc, ok := configAccessors()[key]
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown config key %q", key).
			WithDetails(map[string]any{"keys": allConfigKeys()})
	}
	if !acc.writable {
		return clierr.Newf(clierr.InvalidInput, "config key %q is read-only", key)
	}

	if err := acc.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return clierr.Wrap(clierr.InvalidInput, err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, map[string]any{"key": key, "value": acc.get(cfg)})
	}

	output.Messagef(os.Stdout, "Set %s = %v", key, formatConfigValue(acc.get(cfg)))
	return nil
}

func formatConfigValue(val any) string {
	switch v := val.(type) {
	case string:
		if v == "" {
			return "--"
		}
		return v
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
