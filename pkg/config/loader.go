package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("app.name", "chargeplan-core")
	viper.SetDefault("app.environment", "development")

	viper.SetDefault("http.port", 8080)
	viper.SetDefault("http.read_timeout", 10*time.Second)
	viper.SetDefault("http.write_timeout", 10*time.Second)
	viper.SetDefault("http.idle_timeout", 60*time.Second)

	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", time.Hour)

	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.dial_timeout", 5*time.Second)

	viper.SetDefault("nats.max_reconnects", 10)
	viper.SetDefault("nats.reconnect_wait", 2*time.Second)

	viper.SetDefault("queue.backend", "nats")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("prometheus.enabled", true)
	viper.SetDefault("prometheus.path", "/metrics")

	viper.SetDefault("opentelemetry.enabled", false)
	viper.SetDefault("opentelemetry.service_name", "chargeplan-core")

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60*time.Second)
	viper.SetDefault("circuit_breaker.timeout", 30*time.Second)
	viper.SetDefault("circuit_breaker.failure_threshold", 0.6)
	viper.SetDefault("circuit_breaker.max_retries", 3)

	viper.SetDefault("cors.enabled", true)
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST"})
	viper.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})

	viper.SetDefault("planner.history_window", 21*24*time.Hour)
	viper.SetDefault("planner.routine_lookback", 6*7*24*time.Hour)
	viper.SetDefault("planner.scheduled_trip_window", 36*time.Hour)
	viper.SetDefault("planner.default_level_charge_seconds", 100)

	viper.SetDefault("cache.current_stats_ttl", 5*time.Minute)
	viper.SetDefault("cache.known_location_ttl", time.Hour)
}

// Load reads configuration from ./configs/config.yaml (or /app/configs in a
// container), overlaying environment variables under the APP_ prefix. Missing
// config file is not an error: production deploys run on env vars alone.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/app/configs")

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Allow common env vars without the APP_ prefix for Docker/VM deploys.
	viper.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	viper.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	viper.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	viper.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	viper.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	viper.BindEnv("security.internal_service_secret", "INTERNAL_SERVICE_SECRET")
	viper.BindEnv("app.environment", "APP_ENVIRONMENT")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
