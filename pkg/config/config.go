package config

import "time"

// Config is the root configuration for the charge-planning service. It
// follows the teacher's flat-section-per-concern mapstructure shape, trimmed
// to the concerns this core and its adapters actually read: everything the
// GraphQL façade, auth layer, vendor adapters, and web UI need lives outside
// this process and is not this config's job.
type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	Queue          QueueConfig          `mapstructure:"queue"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Security       SecurityConfig       `mapstructure:"security"`
	Planner        PlannerConfig        `mapstructure:"planner"`
	Cache          CacheConfig          `mapstructure:"cache"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// QueueConfig picks which MessageQueue backend the Action channel fans
// actions.dispatch out over. "nats" and "rabbitmq" are the only backends
// this core wires; an empty/unrecognized value falls back to "nats".
type QueueConfig struct {
	Backend string `mapstructure:"backend"`
}

type OpenTelemetryConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	ServiceName string            `mapstructure:"service_name"`
	Attributes  map[string]string `mapstructure:"attributes"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level    string          `mapstructure:"level"`
	Format   string          `mapstructure:"format"`
	Output   string          `mapstructure:"output"`
	Sampling LoggingSampling `mapstructure:"sampling"`
}

type LoggingSampling struct {
	Enabled    bool `mapstructure:"enabled"`
	Initial    int  `mapstructure:"initial"`
	Thereafter int  `mapstructure:"thereafter"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      int           `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MaxRetries       int           `mapstructure:"max_retries"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// SecurityConfig holds the shared-secret used to authenticate the narrow set
// of mutation paths that require internal-service identity (§7 AuthDenied),
// e.g. updatePrice. Full authentication/authorization remains an external
// collaborator (spec.md §1).
type SecurityConfig struct {
	InternalServiceSecret string `mapstructure:"internal_service_secret"`
}

// PlannerConfig holds the tunables §9 of the spec calls out explicitly:
// the history window, the routine-prediction lookback, the scheduled-trip
// window and the per-percent charge-time fallback.
type PlannerConfig struct {
	HistoryWindow        time.Duration `mapstructure:"history_window"`         // 3 weeks, §4.4
	RoutineLookback       time.Duration `mapstructure:"routine_lookback"`       // 6 weeks, §4.5 step 3
	ScheduledTripWindow   time.Duration `mapstructure:"scheduled_trip_window"`  // 36h before / 1h after, §4.5 step 5
	DefaultLevelChargeSec int           `mapstructure:"default_level_charge_seconds"` // fallback 100s/%, §4.2
}

type CacheConfig struct {
	CurrentStatsTTL    time.Duration `mapstructure:"current_stats_ttl"`
	KnownLocationTTL   time.Duration `mapstructure:"known_location_ttl"`
}

// DefaultPlannerConfig returns the spec-literal defaults.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		HistoryWindow:         21 * 24 * time.Hour,
		RoutineLookback:       6 * 7 * 24 * time.Hour,
		ScheduledTripWindow:   36 * time.Hour,
		DefaultLevelChargeSec: 100,
	}
}
