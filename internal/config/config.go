// Package config loads mathquest settings from defaults, an optional YAML
// file and MATHQUEST_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/mathquest/internal/challenge"
	"github.com/abhisek/mathquest/internal/curriculum"
	"github.com/abhisek/mathquest/internal/llm"
)

// Backend names accepted in Config.Backend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	// DBPath is the SQLite file. Empty resolves to the XDG data directory.
	DBPath string `yaml:"db" env:"MATHQUEST_DB"`

	// Backend selects where rewards and challenges live. Answers, summaries
	// and LLM events always go to SQLite.
	Backend string `yaml:"backend" env:"MATHQUEST_BACKEND"`

	LogLevel string `yaml:"log_level" env:"MATHQUEST_LOG_LEVEL"`

	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Rewards   RewardsConfig   `yaml:"rewards"`
	Challenge ChallengeConfig `yaml:"challenge"`
	LLM       llm.Config      `yaml:"llm"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"MATHQUEST_HTTP_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"MATHQUEST_HTTP_SHUTDOWN_TIMEOUT"`
}

// RedisConfig locates the Redis server behind challenges and rewards.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"MATHQUEST_REDIS_ADDR"`
	Password string `yaml:"password" env:"MATHQUEST_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"MATHQUEST_REDIS_DB"`

	// ChallengeTTL expires idle challenges. Zero keeps them.
	ChallengeTTL time.Duration `yaml:"challenge_ttl" env:"MATHQUEST_REDIS_CHALLENGE_TTL"`
}

// RewardsConfig tunes the reward engine.
type RewardsConfig struct {
	DailyGoal int `yaml:"daily_goal" env:"MATHQUEST_DAILY_GOAL"`
}

// ChallengeConfig holds challenge defaults.
type ChallengeConfig struct {
	QuestionCount int           `yaml:"question_count" env:"MATHQUEST_CHALLENGE_QUESTIONS"`
	PollInterval  time.Duration `yaml:"poll_interval" env:"MATHQUEST_CHALLENGE_POLL_INTERVAL"`
	DefaultGrade  string        `yaml:"default_grade" env:"MATHQUEST_DEFAULT_GRADE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:  BackendSQLite,
		LogLevel: "info",
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Rewards: RewardsConfig{DailyGoal: 20},
		Challenge: ChallengeConfig{
			QuestionCount: challenge.DefaultQuestionCount,
			PollInterval:  250 * time.Millisecond,
			DefaultGrade:  string(curriculum.DefaultGrade),
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	llmCfg, err := llm.ConfigFromEnv(cfg.LLM)
	if err != nil {
		return cfg, err
	}
	cfg.LLM = llmCfg

	// Setting a Redis address is enough to switch backends.
	if cfg.Redis.Addr != "" && os.Getenv("MATHQUEST_BACKEND") == "" && cfg.Backend == BackendSQLite {
		cfg.Backend = BackendRedis
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis backend requires MATHQUEST_REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Rewards.DailyGoal < 1 {
		errs = append(errs, fmt.Errorf("daily goal must be positive, got %d", c.Rewards.DailyGoal))
	}
	if n := c.Challenge.QuestionCount; n < 1 || n > challenge.MaxQuestionCount {
		errs = append(errs, fmt.Errorf("challenge question count must be 1..%d, got %d", challenge.MaxQuestionCount, n))
	}
	if c.Challenge.PollInterval <= 0 {
		errs = append(errs, errors.New("challenge poll interval must be positive"))
	}
	if _, err := curriculum.ParseGrade(c.Challenge.DefaultGrade); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Provider != llm.ProviderNone && c.LLM.Provider != "" {
		if err := c.LLM.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
