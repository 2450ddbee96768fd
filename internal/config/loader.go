package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error; malformed YAML is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	// Unmarshalling into the populated struct keeps defaults for absent keys.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := getenv("SCHEDULER_URL"); v != "" {
		cfg.Scheduler.URL = v
	}
	if v := getenv("NATS_URL"); v != "" {
		cfg.Events.NATSURL = v
	}
	if v := getenv("SEED_FILE"); v != "" {
		cfg.Seed.File = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORSOrigins = origins
	}
	if v := getenv("SOLVE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SOLVE_TIMEOUT: %w", err)
		}
		cfg.Optimizer.SolveTimeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Optimizer.Strategy {
	case "matching", "remote":
	default:
		return fmt.Errorf("optimizer.strategy: unknown value %q", c.Optimizer.Strategy)
	}
	switch c.Optimizer.Solver {
	case "hungarian", "greedy":
	default:
		return fmt.Errorf("optimizer.solver: unknown value %q", c.Optimizer.Solver)
	}
	if c.Optimizer.SolveTimeout <= 0 {
		return errors.New("optimizer.solve_timeout must be positive")
	}
	if c.Optimizer.Strategy == "remote" && c.Scheduler.URL == "" {
		return errors.New("scheduler.url is required when the default strategy is remote")
	}
	if c.Scheduler.BreakMinutes < 0 {
		return errors.New("scheduler.break_minutes must not be negative")
	}
	return nil
}
