package providers

import (
	"fmt"
	"strings"

	"github.com/openclaw/geo-monitor/internal/config"
)

const (
	DriverHTTP   = "http"
	DriverOpenAI = "openai"
)

// New creates the provider for one configured backend
func New(cfg config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverHTTP:
		return NewHTTPProvider(cfg), nil
	case DriverOpenAI:
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider driver %q for %s", cfg.Driver, cfg.Name)
	}
}

// NewActive builds providers for every active backend, in configuration order
func NewActive(cfg *config.Config) ([]Provider, error) {
	var active []Provider
	for _, pc := range cfg.ActiveProviders() {
		p, err := New(pc)
		if err != nil {
			return nil, err
		}
		active = append(active, p)
	}
	return active, nil
}

// Pick returns the first provider whose name matches one of the preferred names
// (case-insensitive), falling back to the first provider
func Pick(candidates []Provider, preferred ...string) Provider {
	for _, name := range preferred {
		for _, p := range candidates {
			if strings.EqualFold(p.GetName(), name) {
				return p
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return nil
}
