// Package config loads engine configuration from defaults, an optional
// YAML or JSON file, and INSIGHT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "INSIGHT_"

// ConfigFileEnv names the variable holding the config file path.
const ConfigFileEnv = EnvPrefix + "CONFIG"

// Config holds engine configuration. Keys are flat; the env var for a key
// is the prefix plus the upper-cased key (exploration_pct -> INSIGHT_EXPLORATION_PCT).
type Config struct {
	LogLevel    string `koanf:"log_level"`
	Port        int    `koanf:"port"`
	DatabaseURL string `koanf:"database_url"`
	APIKey      string `koanf:"api_key"`

	// Ranking
	ExplorationPct        float64 `koanf:"exploration_pct"`
	HybridLearningEnabled bool    `koanf:"hybrid_learning_enabled"`
	MaxCards              int     `koanf:"max_cards"`
	// Cards a run or /rank returns. Zero returns every surviving card,
	// which leaves exploration nothing to swap in.
	RankLimit             int     `koanf:"rank_limit"`

	// Skills
	MaxSkills            int           `koanf:"max_skills"`
	PartnerSkillsEnabled bool          `koanf:"partner_skills_enabled"`
	SkillFeedPath        string        `koanf:"skill_feed_path"`
	WatchSkillFeed       bool          `koanf:"watch_skill_feed"`
	SkillFeedURL         string        `koanf:"skill_feed_url"`
	SkillFeedRefresh     time.Duration `koanf:"skill_feed_refresh"`

	// Server
	MetricsEnabled     bool `koanf:"metrics_enabled"`
	RateLimitEnabled   bool `koanf:"rate_limit_enabled"`
	RateLimitPerMinute int  `koanf:"rate_limit_per_minute"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogLevel:           "info",
		Port:               8080,
		ExplorationPct:     0.2,
		MaxCards:           8,
		RankLimit:          5,
		MaxSkills:          3,
		MetricsEnabled:     true,
		RateLimitEnabled:   true,
		RateLimitPerMinute: 1000,
	}
}

// Load builds a Config by layering, from low to high precedence:
//  1. Defaults()
//  2. the file at path, or at $INSIGHT_CONFIG when path is empty
//  3. INSIGHT_* environment variables
//
// GEMINI_API_KEY and DATABASE_URL fill api_key and database_url when those
// are still empty.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	if path != "" {
		// YAML is a superset of JSON, so one parser handles both.
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Empty variables are treated as unset.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// It does not require api_key or database_url; commands that need them
// check for themselves.
func (c *Config) Validate() error {
	if c.ExplorationPct < 0 || c.ExplorationPct > 1 {
		return fmt.Errorf("config error: 'exploration_pct' must be between 0.0 and 1.0")
	}
	if c.MaxSkills < 1 {
		return fmt.Errorf("config error: 'max_skills' must be at least 1")
	}
	if c.MaxCards < 1 {
		return fmt.Errorf("config error: 'max_cards' must be at least 1")
	}
	if c.RankLimit < 0 {
		return fmt.Errorf("config error: 'rank_limit' must not be negative")
	}
	if c.RateLimitEnabled && c.RateLimitPerMinute < 1 {
		return fmt.Errorf("config error: 'rate_limit_per_minute' must be at least 1")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}
	if c.WatchSkillFeed && c.SkillFeedPath == "" {
		return fmt.Errorf("config error: 'watch_skill_feed' requires 'skill_feed_path'")
	}
	if c.SkillFeedPath != "" && c.SkillFeedURL != "" {
		return fmt.Errorf("config error: 'skill_feed_path' and 'skill_feed_url' are mutually exclusive")
	}
	if c.SkillFeedRefresh < 0 {
		return fmt.Errorf("config error: 'skill_feed_refresh' must not be negative")
	}
	if c.SkillFeedRefresh > 0 && c.SkillFeedURL == "" {
		return fmt.Errorf("config error: 'skill_feed_refresh' requires 'skill_feed_url'")
	}
	return nil
}
