package config

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/arenahq/arena/pkg/models"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "ARENA_"

// Load resolves configuration with precedence CLI flags > environment
// variables > config file > built-in defaults (§6). configPath may be
// empty, in which case only environment and flags are applied over the
// defaults. flags may be nil when called outside a cobra command (e.g.
// tests).
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(structProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flag config: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.resolveDerived(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// structProvider adapts an already-populated struct into a koanf.Provider
// by round tripping it through koanf's confmap provider, used to seed the
// store with compiled-in defaults before any file/env/flag layer.
func structProvider(v Config) koanf.Provider {
	m := map[string]any{
		"logging": map[string]any{
			"level":  v.Logging.Level,
			"format": v.Logging.Format,
		},
		"online_judge": map[string]any{
			"endpoint": v.OnlineJudge.Endpoint,
			"timeout":  v.OnlineJudge.TimeoutRaw,
		},
		"rate_limiting": map[string]any{
			"requests_per_second": v.RateLimit.RequestsPerSecond,
			"burst":               v.RateLimit.Burst,
		},
		"database": map[string]any{
			"path": v.Database.Path,
		},
		"data_sources": map[string]any{
			"problem_dict_path": v.DataSources.ProblemDictPath,
			"tests_dir":         v.DataSources.TestsDir,
			"textbook_path":     v.DataSources.TextbookPath,
			"strategy_path":     v.DataSources.StrategyPath,
			"guide_path":        v.DataSources.GuidePath,
		},
		"server": map[string]any{
			"address":      v.Server.Address,
			"token_secret": v.Server.TokenSecret,
		},
	}
	return confmapProvider{m: m}
}

type confmapProvider struct {
	m map[string]any
}

func (c confmapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("confmapProvider: ReadBytes not supported")
}

func (c confmapProvider) Read() (map[string]any, error) {
	return c.m, nil
}

// MergeRules layers an operator-supplied partial rules override onto the
// built-in default scoring rules, with the override winning on every field
// it sets. Used by POST /competitions/create when the caller supplies a
// partial "rules" object (§3).
func MergeRules(defaults, override models.Rules) (models.Rules, error) {
	merged := defaults
	if err := mergo.Merge(&merged, override, mergo.WithOverride); err != nil {
		return models.Rules{}, fmt.Errorf("merge rules: %w", err)
	}
	return merged, nil
}
