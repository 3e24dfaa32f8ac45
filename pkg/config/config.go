// Package config loads and validates the arena's operator configuration:
// logging, the online-judge sandbox endpoint, rate limiting, the database
// path, data source locations and the HTTP server (spec.md §6). Loading is
// layered file -> environment -> CLI flags, matching the teacher's
// file-then-merge convention but delegated to koanf instead of a hand
// rolled merge pass.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the fully resolved, validated configuration for one arena
// process.
type Config struct {
	Logging     LoggingConfig     `koanf:"logging"`
	OnlineJudge OnlineJudgeConfig `koanf:"online_judge"`
	RateLimit   RateLimitConfig   `koanf:"rate_limiting"`
	Database    DatabaseConfig    `koanf:"database"`
	DataSources DataSourcesConfig `koanf:"data_sources"`
	Server      ServerConfig      `koanf:"server"`
}

// LoggingConfig controls the slog handler (§6 "logging").
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// OnlineJudgeConfig points at the compile-and-execute sandbox (§6
// "online_judge").
type OnlineJudgeConfig struct {
	Endpoint   string        `koanf:"endpoint" validate:"required,url"`
	TimeoutRaw string        `koanf:"timeout" validate:"omitempty"`
	Timeout    time.Duration `koanf:"-"`
}

// RateLimitConfig controls the global action-endpoint limiter (§5).
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int     `koanf:"burst" validate:"gt=0"`
}

// DatabaseConfig locates the embedded SQL store (§4.4).
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// DataSourcesConfig locates the static corpora loaded at startup (§6
// "data_sources").
type DataSourcesConfig struct {
	ProblemDictPath string `koanf:"problem_dict_path" validate:"required"`
	TestsDir        string `koanf:"tests_dir" validate:"required"`
	TextbookPath    string `koanf:"textbook_path" validate:"required"`
	StrategyPath    string `koanf:"strategy_path" validate:"required"`
	GuidePath       string `koanf:"guide_path" validate:"required"`
}

// ServerConfig controls the HTTP action service (§4.7).
type ServerConfig struct {
	Address     string `koanf:"address" validate:"required"`
	TokenSecret string `koanf:"token_secret" validate:"required"`
}

// Defaults returns the configuration applied before any file, environment
// or CLI overrides are merged in.
func Defaults() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		OnlineJudge: OnlineJudgeConfig{
			Endpoint:   "http://localhost:10086/compile-and-execute",
			TimeoutRaw: "30s",
			Timeout:    30 * time.Second,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 10, Burst: 20},
		Database:  DatabaseConfig{Path: "arena.db"},
		DataSources: DataSourcesConfig{
			ProblemDictPath: "data/problems.json",
			TestsDir:        "data/tests",
			TextbookPath:    "data/textbook.json",
			StrategyPath:    "data/strategy.md",
			GuidePath:       "data/guide.json",
		},
		Server: ServerConfig{Address: ":8080", TokenSecret: ""},
	}
}

func (c *Config) resolveDerived() error {
	if c.OnlineJudge.TimeoutRaw != "" {
		d, err := time.ParseDuration(c.OnlineJudge.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("online_judge.timeout: %w", err)
		}
		c.OnlineJudge.Timeout = d
	}
	return nil
}

// Validate runs struct-tag validation via go-playground/validator.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
