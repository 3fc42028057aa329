package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets variables that would leak into Load from the host.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{ConfigFileEnv, "GEMINI_API_KEY", "DATABASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Defaults(), *cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	content := `
log_level: debug
port: 9090
exploration_pct: 0.35
partner_skills_enabled: true
skill_feed_path: /etc/insight/skills.json
watch_skill_feed: true
`
	path := filepath.Join(t.TempDir(), "insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 0.35, cfg.ExplorationPct)
	assert.True(t, cfg.PartnerSkillsEnabled)
	assert.True(t, cfg.WatchSkillFeed)
	assert.Equal(t, 3, cfg.MaxSkills)
	require.NoError(t, cfg.Validate())
}

func TestLoad_SkillFeedURLFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSIGHT_SKILL_FEED_URL", "https://example.com/skills.json")
	t.Setenv("INSIGHT_SKILL_FEED_REFRESH", "5m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/skills.json", cfg.SkillFeedURL)
	assert.Equal(t, 5*time.Minute, cfg.SkillFeedRefresh)
	require.NoError(t, cfg.Validate())
}

func TestLoad_JSONFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "insight.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_skills": 5, "hybrid_learning_enabled": true}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxSkills)
	assert.True(t, cfg.HybridLearningEnabled)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_cards: 4\n"), 0644))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxCards)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exploration_pct: 0.5\nport: 9000\n"), 0644))
	t.Setenv("INSIGHT_EXPLORATION_PCT", "0.1")
	t.Setenv("INSIGHT_PARTNER_SKILLS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, cfg.ExplorationPct)
	assert.True(t, cfg.PartnerSkillsEnabled)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_FallbackEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/insight")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-key", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/insight", cfg.DatabaseURL)

	t.Setenv("INSIGHT_API_KEY", "insight-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "insight-key", cfg.APIKey)
}

func TestLoad_EmptyEnvIsUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("INSIGHT_SKILL_FEED_REFRESH", "")
	t.Setenv("INSIGHT_PORT", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.SkillFeedRefresh)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("/nonexistent/path/insight.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "insight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "exploration too high", mutate: func(c *Config) { c.ExplorationPct = 1.5 }, wantErr: "exploration_pct"},
		{name: "exploration negative", mutate: func(c *Config) { c.ExplorationPct = -0.1 }, wantErr: "exploration_pct"},
		{name: "zero max skills", mutate: func(c *Config) { c.MaxSkills = 0 }, wantErr: "max_skills"},
		{name: "zero max cards", mutate: func(c *Config) { c.MaxCards = 0 }, wantErr: "max_cards"},
		{name: "uncapped rank limit", mutate: func(c *Config) { c.RankLimit = 0 }},
		{name: "negative rank limit", mutate: func(c *Config) { c.RankLimit = -1 }, wantErr: "rank_limit"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "rate_limit_per_minute"},
		{name: "zero rate limit when disabled", mutate: func(c *Config) { c.RateLimitEnabled = false; c.RateLimitPerMinute = 0 }},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log_level"},
		{name: "watch without path", mutate: func(c *Config) { c.WatchSkillFeed = true }, wantErr: "watch_skill_feed"},
		{
			name:    "path and url",
			mutate:  func(c *Config) { c.SkillFeedPath = "skills.json"; c.SkillFeedURL = "https://example.com/skills.json" },
			wantErr: "mutually exclusive",
		},
		{name: "refresh without url", mutate: func(c *Config) { c.SkillFeedRefresh = time.Minute }, wantErr: "skill_feed_refresh"},
		{name: "negative refresh", mutate: func(c *Config) { c.SkillFeedRefresh = -time.Second }, wantErr: "skill_feed_refresh"},
		{
			name:   "url with refresh",
			mutate: func(c *Config) { c.SkillFeedURL = "https://example.com/skills.json"; c.SkillFeedRefresh = time.Minute },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
