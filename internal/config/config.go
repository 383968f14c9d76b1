package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/openclaw/geo-monitor/internal/extract"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// Location is the canonical monitoring time zone (UTC+8). Partition dates and
// record timestamps use it regardless of where the process runs.
var Location = time.FixedZone("UTC+8", 8*60*60)

// Now returns the current time in the monitoring time zone
func Now() time.Time {
	return time.Now().In(Location)
}

// APIKeySuffix is appended to the upper-cased provider name to form its env override
const APIKeySuffix = "_API_KEY"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string `env:"PORT" envDefault:"8080"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	// Settings and secrets files
	SettingsPath        string `env:"SETTINGS_PATH" envDefault:"config.json"`
	SettingsExamplePath string `env:"SETTINGS_EXAMPLE_PATH" envDefault:"config.example.json"`
	SecretsPath         string `env:"SECRETS_PATH" envDefault:"secrets.toml"`

	// Result log storage
	DataDir          string `env:"DATA_DIR" envDefault:"data"`
	StorageBackend   string `env:"STORAGE_BACKEND" envDefault:"file"`
	StorageAccount   string `env:"AZURE_STORAGE_ACCOUNT"`
	StorageContainer string `env:"AZURE_STORAGE_CONTAINER" envDefault:"geo-results"`

	// Schedule configuration: "daily" or "weekly"
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"daily"`

	// Notification configuration
	TeamsWebhookURL   string `env:"TEAMS_WEBHOOK_URL"`
	NotificationEmail string `env:"NOTIFICATION_EMAIL"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`

	// Monitoring loop
	QuestionCount           int           `env:"QUESTION_COUNT" envDefault:"30"`
	PacingDelay             time.Duration `env:"PACING_DELAY" envDefault:"500ms"`
	RetryDelay              time.Duration `env:"RETRY_DELAY" envDefault:"2s"`
	MaxAttempts             int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	FailureThreshold        int           `env:"FAILURE_THRESHOLD" envDefault:"3"`
	EnableStrategyAnalysis  bool          `env:"ENABLE_STRATEGY_ANALYSIS" envDefault:"true"`
	EnableStructuredSources bool          `env:"ENABLE_STRUCTURED_SOURCES" envDefault:"true"`
	ParallelProviders       bool          `env:"PARALLEL_PROVIDERS" envDefault:"false"`

	// Reporting
	GapThreshold float64 `env:"GAP_THRESHOLD" envDefault:"0.8"`
	ReportDays   int     `env:"REPORT_DAYS" envDefault:"7"`
	TopN         int     `env:"REPORT_TOP_N" envDefault:"5"`

	Settings Settings
}

// Load reads process settings from the environment, then the settings file,
// the secrets file and the per-provider credential overrides
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	settings, err := LoadSettings(cfg.SettingsPath)
	if errors.Is(err, os.ErrNotExist) && cfg.SettingsExamplePath != "" {
		logrus.Warnf("Settings file %s not found, using %s", cfg.SettingsPath, cfg.SettingsExamplePath)
		settings, err = LoadSettings(cfg.SettingsExamplePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := ApplySecrets(settings, cfg.SecretsPath); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	ApplyEnvOverrides(settings)

	cfg.Settings = *settings

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ReportSchedule != "daily" && c.ReportSchedule != "weekly" {
		return fmt.Errorf("REPORT_SCHEDULE must be 'daily' or 'weekly'")
	}

	switch c.StorageBackend {
	case "file":
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'file' or 'azure'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.QuestionCount <= 0 {
		return fmt.Errorf("QUESTION_COUNT must be positive")
	}
	if c.MaxAttempts <= 0 || c.FailureThreshold <= 0 {
		return fmt.Errorf("MAX_ATTEMPTS and FAILURE_THRESHOLD must be positive")
	}

	return c.Settings.validate()
}

// ActiveProviders returns enabled providers that have a credential, in configuration order
func (c *Config) ActiveProviders() []ProviderConfig {
	var active []ProviderConfig
	for _, p := range c.Settings.Providers {
		if p.Enabled && p.APIKey != "" {
			active = append(active, p)
		}
	}
	return active
}

// ProviderNames returns every configured provider name, active or not
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Settings.Providers))
	for _, p := range c.Settings.Providers {
		names = append(names, p.Name)
	}
	return names
}

// Extractor builds the text extractor from the configured tables
func (c *Config) Extractor() *extract.Extractor {
	s := c.Settings
	return extract.New(s.Brand.Spellings, s.Competitors, s.MediaDomains, s.MediaKeywords)
}

// Intents returns the configured intents
func (c *Config) Intents() []models.Intent {
	return c.Settings.Intents
}

// EnvKey returns the environment variable that overrides a provider's credential
func EnvKey(providerName string) string {
	return strings.ToUpper(providerName) + APIKeySuffix
}
