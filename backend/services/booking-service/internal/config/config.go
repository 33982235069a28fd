package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargebook/backend/libs/config"
	"chargebook/backend/services/booking-service/internal/scheduling"
)

// CleanupDisabled turns the periodic expiry sweep off.
const CleanupDisabled = "-"

// Config defines booking service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"BOOKING_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"BOOKING_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"BOOKING_REDIS_ADDR"`
		Password string `yaml:"password" env:"BOOKING_REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"BOOKING_REDIS_DB"`
		TTL      int    `yaml:"ttlSeconds" env:"BOOKING_REDIS_TTL"`
		Channel  string `yaml:"channel" env:"BOOKING_REDIS_CHANNEL"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers []string `yaml:"brokers" env:"BOOKING_KAFKA_BROKERS"`
		Topic   string   `yaml:"topic" env:"BOOKING_KAFKA_TOPIC"`
	} `yaml:"kafka"`
	JWT struct {
		Secret string `yaml:"secret" env:"BOOKING_JWT_SECRET"`
	} `yaml:"jwt"`
	Scheduling struct {
		Timezone      string `yaml:"timezone" env:"BOOKING_TIMEZONE"`
		MarginMinutes int    `yaml:"marginMinutes" env:"BOOKING_MARGIN_MINUTES"`
		CleanupCron   string `yaml:"cleanupCron" env:"BOOKING_CLEANUP_CRON"`
	} `yaml:"scheduling"`
	WS struct {
		PingInterval time.Duration `yaml:"pingInterval" env:"BOOKING_WS_PING_INTERVAL"`
		WriteTimeout time.Duration `yaml:"writeTimeout" env:"BOOKING_WS_WRITE_TIMEOUT"`
	} `yaml:"ws"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8083"
	cfg.Redis.TTL = 300
	cfg.Redis.Channel = "reservations:events"
	cfg.Kafka.Topic = "reservations.events"
	cfg.Scheduling.Timezone = scheduling.DefaultZone
	cfg.Scheduling.CleanupCron = "*/15 * * * *"
	cfg.WS.PingInterval = 30 * time.Second
	cfg.WS.WriteTimeout = 10 * time.Second
	return cfg
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	if c.Scheduling.MarginMinutes < 0 {
		return errors.New("config: scheduling margin must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && strings.TrimSpace(c.Kafka.Topic) == "" {
		return errors.New("config: kafka topic required when brokers are set")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8083"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// RedisEnabled reports whether a redis address is configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}

// ChargerCacheTTL returns ttl as duration.
func (c *Config) ChargerCacheTTL() time.Duration {
	if c.Redis.TTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Redis.TTL) * time.Second
}

// Margin returns the idle gap required between reservations.
func (c *Config) Margin() time.Duration {
	return time.Duration(c.Scheduling.MarginMinutes) * time.Minute
}

// CleanupEnabled reports whether the periodic sweep should run.
func (c *Config) CleanupEnabled() bool {
	spec := strings.TrimSpace(c.Scheduling.CleanupCron)
	return spec != "" && spec != CleanupDisabled
}
