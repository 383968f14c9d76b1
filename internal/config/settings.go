package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/openclaw/geo-monitor/internal/extract"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ProviderConfig describes one chat-completion backend
type ProviderConfig struct {
	Name    string `json:"name" yaml:"name"`
	BaseURL string `json:"base_url" yaml:"base_url"`
	Model   string `json:"model" yaml:"model"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
	// Driver selects the client implementation: "http" (default) or "openai"
	Driver string `json:"driver,omitempty" yaml:"driver"`
}

// ProviderList is decoded from either a list of providers or a map keyed by
// provider name. Map order is kept.
type ProviderList []ProviderConfig

func (l *ProviderList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []ProviderConfig
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	case yaml.MappingNode:
		list := make([]ProviderConfig, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			var p ProviderConfig
			if err := node.Content[i+1].Decode(&p); err != nil {
				return fmt.Errorf("provider %s: %w", name, err)
			}
			if p.Name == "" {
				p.Name = name
			}
			list = append(list, p)
		}
		*l = list
		return nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: providers must be a list or a map", node.Line)
}

// BrandSettings names the monitored brand
type BrandSettings struct {
	Name      string   `json:"name" yaml:"name"`
	Spellings []string `json:"spellings" yaml:"spellings"`
}

// Settings is the domain configuration file. Both YAML and JSON documents are accepted.
type Settings struct {
	Brand         BrandSettings             `json:"brand" yaml:"brand"`
	Generator     string                    `json:"generator" yaml:"generator"`
	Analysts      []string                  `json:"analysts" yaml:"analysts"`
	Providers     ProviderList              `json:"providers" yaml:"providers"`
	Intents       []models.Intent           `json:"intents" yaml:"intents"`
	Competitors   []extract.CompetitorAlias `json:"competitors" yaml:"competitors"`
	MediaDomains  []extract.MediaDomain     `json:"media_domains" yaml:"media_domains"`
	MediaKeywords []string                  `json:"media_keywords" yaml:"media_keywords"`
}

type secretsFile struct {
	Providers map[string]struct {
		APIKey string `toml:"api_key"`
	} `toml:"providers"`
}

// LoadSettings reads and decodes a settings file
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if settings.Brand.Name == "" {
		settings.Brand.Name = "联想 (Lenovo)"
	}
	if settings.Generator == "" {
		settings.Generator = "Deepseek"
	}
	if len(settings.Analysts) == 0 {
		settings.Analysts = []string{"Deepseek", "Kimi"}
	}

	return settings, nil
}

// ApplySecrets copies credentials from a TOML secrets file. A missing file is not an error.
func ApplySecrets(settings *Settings, path string) error {
	if path == "" {
		return nil
	}

	var secrets secretsFile
	if _, err := toml.DecodeFile(path, &secrets); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("No secrets file at %s", path)
			return nil
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range settings.Providers {
		if secret, ok := secrets.Providers[settings.Providers[i].Name]; ok && secret.APIKey != "" {
			settings.Providers[i].APIKey = secret.APIKey
			logrus.Infof("Loaded API key for %s from secrets file", settings.Providers[i].Name)
		}
	}

	return nil
}

// ApplyEnvOverrides replaces provider credentials with <NAME>_API_KEY when set
func ApplyEnvOverrides(settings *Settings) {
	for i := range settings.Providers {
		key := EnvKey(settings.Providers[i].Name)
		if value, ok := os.LookupEnv(key); ok && value != "" {
			settings.Providers[i].APIKey = value
			logrus.Infof("Loaded API key for %s from environment variable", settings.Providers[i].Name)
		}
	}
}

func (s *Settings) validate() error {
	seen := make(map[string]bool)
	for _, p := range s.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider %q", p.Name)
		}
		seen[p.Name] = true
	}

	for _, intent := range s.Intents {
		if intent.Label == "" {
			return fmt.Errorf("intent without a label")
		}
	}

	return nil
}
