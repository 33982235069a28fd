package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "chargebook/backend/libs/config"
)

// Config represents service configuration loaded from YAML/env.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"AUTH_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"AUTH_POSTGRES_DSN"`
	} `yaml:"database"`
	JWT struct {
		Secret           string `yaml:"secret" env:"AUTH_JWT_SECRET"`
		ExpiresInMinutes int    `yaml:"expiresInMinutes" env:"AUTH_JWT_EXPIRES_MINUTES"`
	} `yaml:"jwt"`
	Password struct {
		BcryptCost int `yaml:"bcryptCost" env:"AUTH_BCRYPT_COST"`
	} `yaml:"password"`
}

// Default returns the baseline configuration.
func Default() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8081"
	cfg.JWT.ExpiresInMinutes = 60
	return cfg
}

// Load reads configuration using the shared config loader.
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

// Validate checks required settings and fills safe fallbacks.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database DSN is required")
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret is required")
	}
	if c.JWT.ExpiresInMinutes <= 0 {
		c.JWT.ExpiresInMinutes = 60
	}
	if c.Password.BcryptCost < 0 || c.Password.BcryptCost > 31 {
		return fmt.Errorf("config: bcrypt cost %d out of range", c.Password.BcryptCost)
	}
	return nil
}

// HTTPAddress ensures we always return host:port formatted string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8081"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.JWT.ExpiresInMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.JWT.ExpiresInMinutes) * time.Minute
}
