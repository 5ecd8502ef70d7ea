// Package config содержит логику чтения конфигурации ядра бронирования.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации ядра бронирования.
type Config struct {
	RunAddress           string `env:"RUN_ADDRESS"`
	DatabaseURI          string `env:"DATABASE_URI"`
	RedisAddress         string `env:"REDIS_ADDRESS"`
	AMQPURL              string `env:"AMQP_URL"`
	LoyaltySystemAddress string `env:"LOYALTY_SYSTEM_ADDRESS"`

	StaffSecret          string        `env:"STAFF_SECRET"`
	GateTimeout          time.Duration `env:"GATE_TIMEOUT" envDefault:"5s"`
	SweepSchedule        string        `env:"SWEEP_SCHEDULE" envDefault:"5 0 * * *"`
	AllowCheckedInCancel bool          `env:"ALLOW_CHECKED_IN_CANCEL" envDefault:"false"`
	SkipCleaning         bool          `env:"HOUSEKEEPING_SKIP_CLEANING" envDefault:"false"`
	PointsPerDollar      int64         `env:"POINTS_PER_DOLLAR" envDefault:"10"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	Timezone             string        `env:"HOTEL_TIMEZONE" envDefault:"UTC"`
}

// Location возвращает часовой пояс отеля.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envRedisAddress := cfg.RedisAddress
	envAMQPURL := cfg.AMQPURL
	envLoyaltyAddress := cfg.LoyaltySystemAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, empty runs on the in-memory store")
	flag.StringVar(&cfg.RedisAddress, "redis", "", "redis address for the availability cache")
	flag.StringVar(&cfg.AMQPURL, "amqp", "", "RabbitMQ URL for guest notifications")
	flag.StringVar(&cfg.LoyaltySystemAddress, "l", "", "loyalty system address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envRedisAddress != "" {
		cfg.RedisAddress = envRedisAddress
	}
	if envAMQPURL != "" {
		cfg.AMQPURL = envAMQPURL
	}
	if envLoyaltyAddress != "" {
		cfg.LoyaltySystemAddress = envLoyaltyAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.GateTimeout <= 0 {
		return nil, fmt.Errorf("GATE_TIMEOUT must be positive, got %s", cfg.GateTimeout)
	}
	if cfg.PointsPerDollar < 0 {
		return nil, fmt.Errorf("POINTS_PER_DOLLAR must not be negative, got %d", cfg.PointsPerDollar)
	}

	return cfg, nil
}
