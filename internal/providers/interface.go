package providers

import (
	"context"
	"errors"
	"time"

	"github.com/openclaw/geo-monitor/internal/models"
)

// RequestTimeout bounds one chat call; reasoning models can take well over a minute
const RequestTimeout = 120 * time.Second

var (
	// ErrNotConfigured is returned when a provider has no credential or endpoint
	ErrNotConfigured = errors.New("provider is not configured")
	// ErrMalformedResponse is returned when the completion has no choices
	ErrMalformedResponse = errors.New("malformed chat completion response")
	// ErrEmptyResponse is returned when the completion content is blank
	ErrEmptyResponse = errors.New("empty chat completion content")
)

// Provider defines the contract for all chat-completion backends
type Provider interface {
	GetName() string
	IsEnabled() bool
	Chat(ctx context.Context, messages []models.Message, temperature float64) (*models.ChatResult, error)
}

// UserMessage wraps a single prompt as a one-turn conversation
func UserMessage(content string) []models.Message {
	return []models.Message{{Role: "user", Content: content}}
}
