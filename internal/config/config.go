package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Merit/internal/ahp"
)

var validate = validator.New()

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Hermes     HermesConfig     `yaml:"hermes"`
	AHP        AHPConfig        `yaml:"ahp"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	MetricsPort int    `yaml:"metrics_port" validate:"min=1,max=65535,nefield=Port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit_per_minute" validate:"min=0"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// HermesConfig points at NATS. An empty URL disables events.
type HermesConfig struct {
	URL string `yaml:"url"`
}

type AHPConfig struct {
	Method              string  `yaml:"method" validate:"oneof=eigenvector row_average"`
	MissingComparisons  string  `yaml:"missing_comparisons" validate:"oneof=neutral reject"`
	ConsistentThreshold float64 `yaml:"consistent_threshold" validate:"gt=0"`
	ModerateThreshold   float64 `yaml:"moderate_threshold" validate:"gtfield=ConsistentThreshold"`
}

type EvaluationConfig struct {
	AutoRecompute       bool `yaml:"auto_recompute"`
	RecomputeIntervalMs int  `yaml:"recompute_interval_ms" validate:"min=100"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

func (c *Config) RecomputeInterval() time.Duration {
	return time.Duration(c.Evaluation.RecomputeIntervalMs) * time.Millisecond
}

// EngineOptions converts the ahp section. Load has already validated it.
func (c *Config) EngineOptions() (ahp.Options, error) {
	method, err := ahp.ParseMethod(c.AHP.Method)
	if err != nil {
		return ahp.Options{}, err
	}
	missing, err := ahp.ParseMissingPolicy(c.AHP.MissingComparisons)
	if err != nil {
		return ahp.Options{}, err
	}
	return ahp.Options{
		Method:  method,
		Missing: missing,
		Thresholds: ahp.Thresholds{
			Consistent: c.AHP.ConsistentThreshold,
			Moderate:   c.AHP.ModerateThreshold,
		},
	}, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		AHP: AHPConfig{
			Method:              string(ahp.MethodEigenvector),
			MissingComparisons:  string(ahp.MissingNeutral),
			ConsistentThreshold: 0.10,
			ModerateThreshold:   0.20,
		},
		Evaluation: EvaluationConfig{
			AutoRecompute:       true,
			RecomputeIntervalMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MERIT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("MERIT_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("MERIT_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("MERIT_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v, ok := os.LookupEnv("MERIT_HERMES_URL"); ok {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("MERIT_AHP_METHOD"); v != "" {
		cfg.AHP.Method = v
	}
	if v := os.Getenv("MERIT_MISSING_COMPARISONS"); v != "" {
		cfg.AHP.MissingComparisons = v
	}
	if v := os.Getenv("MERIT_AUTO_RECOMPUTE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Evaluation.AutoRecompute = b
		}
	}
	if v := os.Getenv("MERIT_RECOMPUTE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.RecomputeIntervalMs = n
		}
	}
	if v := os.Getenv("MERIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
