package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSettingsJSON = `{
  "brand": {"name": "联想", "spellings": ["联想", "Lenovo", "lenovo"]},
  "providers": [
    {"name": "Deepseek", "base_url": "https://api.deepseek.com", "model": "deepseek-chat", "api_key": "file-key", "enabled": true},
    {"name": "Kimi", "base_url": "https://api.moonshot.cn/v1", "model": "moonshot-v1-8k", "api_key": "", "enabled": true},
    {"name": "Doubao", "base_url": "https://ark.cn-beijing.volces.com/api/v3", "model": "doubao", "api_key": "k", "enabled": false}
  ],
  "intents": [
    {"label": "绿色低碳", "keywords": ["碳中和"], "questions": ["哪些公司在绿色低碳方面做得好？"]}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	settingsPath := writeFile(t, dir, "config.json", testSettingsJSON)
	secretsPath := writeFile(t, dir, "secrets.toml", "[providers.Kimi]\napi_key = \"secret-kimi\"\n")

	t.Setenv("SETTINGS_PATH", settingsPath)
	t.Setenv("SECRETS_PATH", secretsPath)
	t.Setenv("DEEPSEEK_API_KEY", "env-key")
	t.Setenv("PACING_DELAY", "1s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Second, cfg.PacingDelay)
	assert.Equal(t, 3, cfg.FailureThreshold)
	assert.Equal(t, 0.8, cfg.GapThreshold)
	assert.Equal(t, "Deepseek", cfg.Settings.Generator)

	active := cfg.ActiveProviders()
	require.Len(t, active, 2)
	assert.Equal(t, "Deepseek", active[0].Name)
	assert.Equal(t, "env-key", active[0].APIKey, "environment override wins over the file")
	assert.Equal(t, "Kimi", active[1].Name)
	assert.Equal(t, "secret-kimi", active[1].APIKey)

	assert.Equal(t, []string{"Deepseek", "Kimi", "Doubao"}, cfg.ProviderNames())
	assert.True(t, cfg.Extractor().IsBrandMentioned("Lenovo"))
}

func TestLoad_FallsBackToExample(t *testing.T) {
	dir := t.TempDir()
	examplePath := writeFile(t, dir, "config.example.json", testSettingsJSON)

	t.Setenv("SETTINGS_PATH", filepath.Join(dir, "missing.json"))
	t.Setenv("SETTINGS_EXAMPLE_PATH", examplePath)
	t.Setenv("SECRETS_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Settings.Providers, 3)
}

func TestLoadSettings_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "settings.yaml", `
generator: Kimi
providers:
  - name: Kimi
    base_url: https://api.moonshot.cn/v1
    model: moonshot-v1-8k
    enabled: true
    driver: openai
intents:
  - label: AI
    keywords: [大模型]
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "Kimi", settings.Generator)
	assert.Equal(t, []string{"Deepseek", "Kimi"}, settings.Analysts)
	require.Len(t, settings.Providers, 1)
	assert.Equal(t, "openai", settings.Providers[0].Driver)
	assert.Equal(t, "AI", settings.Intents[0].Label)
}

func TestLoadSettings_ProviderMap(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
  "providers": {
    "Kimi": {"api_key": "", "base_url": "https://api.moonshot.cn/v1", "model": "moonshot-v1-8k", "enabled": true},
    "Deepseek": {"api_key": "k", "base_url": "https://api.deepseek.com", "model": "deepseek-chat", "enabled": true},
    "Doubao": {"name": "豆包", "enabled": false}
  }
}`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	require.Len(t, settings.Providers, 3)

	var names []string
	for _, p := range settings.Providers {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Kimi", "Deepseek", "豆包"}, names, "document order is kept")
	assert.Equal(t, "k", settings.Providers[1].APIKey)
	assert.Equal(t, "https://api.moonshot.cn/v1", settings.Providers[0].BaseURL)

	bad := writeFile(t, dir, "bad.json", `{"providers": "Kimi"}`)
	_, err = LoadSettings(bad)
	assert.Error(t, err)
}

func TestConfig_validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			ReportSchedule:   "daily",
			StorageBackend:   "file",
			QuestionCount:    30,
			MaxAttempts:      3,
			FailureThreshold: 3,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "Valid", mutate: func(c *Config) {}},
		{name: "Bad schedule", mutate: func(c *Config) { c.ReportSchedule = "hourly" }, wantErr: true},
		{name: "Azure without account", mutate: func(c *Config) { c.StorageBackend = "azure" }, wantErr: true},
		{name: "Email without SMTP", mutate: func(c *Config) { c.NotificationEmail = "a@b.c" }, wantErr: true},
		{name: "Zero questions", mutate: func(c *Config) { c.QuestionCount = 0 }, wantErr: true},
		{
			name: "Duplicate providers",
			mutate: func(c *Config) {
				c.Settings.Providers = []ProviderConfig{{Name: "Kimi"}, {Name: "Kimi"}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "DEEPSEEK_API_KEY", EnvKey("Deepseek"))
	assert.Equal(t, "KIMI_API_KEY", EnvKey("kimi"))
}
