package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config is the runtime configuration of the API server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Events    EventsConfig    `yaml:"events"`
	Seed      SeedConfig      `yaml:"seed"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
	// MaxWorkers bounds concurrent River jobs on the default queue.
	MaxWorkers int `yaml:"max_workers"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type OptimizerConfig struct {
	// Strategy is the default for runs that do not name one: "matching" or "remote".
	Strategy string `yaml:"strategy"`
	// Solver is "hungarian" or "greedy".
	Solver            string        `yaml:"solver"`
	SolveTimeout      time.Duration `yaml:"solve_timeout"`
	SkipAcceptedTasks bool          `yaml:"skip_accepted_tasks"`
}

type SchedulerConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	BreakMinutes int           `yaml:"break_minutes"`
	MaxRetries   uint64        `yaml:"max_retries"`
	// FailureThreshold consecutive failures open the circuit breaker.
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

type EventsConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type SeedConfig struct {
	File string `yaml:"file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file or environment overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{MaxWorkers: 10},
		Auth: AuthConfig{
			JWTSecret: "change-me-in-production",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Optimizer: OptimizerConfig{
			Strategy:          "matching",
			Solver:            "hungarian",
			SolveTimeout:      30 * time.Second,
			SkipAcceptedTasks: true,
		},
		Scheduler: SchedulerConfig{
			Timeout:          30 * time.Second,
			BreakMinutes:     60,
			MaxRetries:       3,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Events: EventsConfig{SubjectPrefix: "wms"},
		Log:    LogConfig{Level: "info"},
	}
}

// SlogLevel maps Log.Level to a slog level. Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
