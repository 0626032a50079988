// Package config handles plan directory configuration.
package config

import "time"

const (
	// DefaultDir is the default plan directory name.
	DefaultDir = "plan"
	// DefaultTasksDir is the default tasks subdirectory name.
	DefaultTasksDir = "tasks"
	// DefaultAnchor is the default deadline anchor policy.
	DefaultAnchor = "literal"
	// DefaultHolidaySource serves holidays from the built-in data set.
	DefaultHolidaySource = "embedded"
	// DefaultCacheTTL is how long fetched holidays stay in Redis.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultExchange is the AMQP exchange schedule events are published to.
	DefaultExchange = "backplan.events"

	// ConfigFileName is the name of the config file within the plan directory.
	ConfigFileName = "config.yml"

	// CurrentVersion is the current config schema version.
	CurrentVersion = 2
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Holiday sources.
const (
	SourceEmbedded = "embedded"
	SourceHTTP     = "http"
)

// Environment overrides, applied by Effective.
const (
	EnvDatabaseURL = "BACKPLAN_DATABASE_URL"
	EnvRedisAddr   = "BACKPLAN_REDIS_ADDR"
	EnvHolidaysURL = "BACKPLAN_HOLIDAYS_URL"
	EnvAMQPURL     = "BACKPLAN_AMQP_URL"
)

// DefaultCountries is the holiday selection of a new plan.
var DefaultCountries = []string{"japan"}
