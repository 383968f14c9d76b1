package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the go-openai SDK against an OpenAI-compatible base URL
type OpenAIProvider struct {
	name    string
	model   string
	apiKey  string
	enabled bool
	client  *openai.Client
}

// NewOpenAIProvider creates a provider backed by the go-openai client
func NewOpenAIProvider(cfg config.ProviderConfig) *OpenAIProvider {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		// the SDK appends /chat/completions itself
		clientConfig.BaseURL = strings.TrimSuffix(strings.TrimRight(cfg.BaseURL, "/"), "/chat/completions")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: RequestTimeout}

	return &OpenAIProvider{
		name:    cfg.Name,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		enabled: cfg.Enabled,
		client:  openai.NewClientWithConfig(clientConfig),
	}
}

func (o *OpenAIProvider) GetName() string {
	return o.name
}

func (o *OpenAIProvider) IsEnabled() bool {
	return o.enabled && o.apiKey != ""
}

func (o *OpenAIProvider) Chat(ctx context.Context, messages []models.Message, temperature float64) (*models.ChatResult, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("%s: %w", o.name, ErrNotConfigured)
	}

	oaMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		oaMsgs = append(oaMsgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    oaMsgs,
		Temperature: float32(temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("%s chat completion failed: %w", o.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s: %w", o.name, ErrMalformedResponse)
	}

	message := resp.Choices[0].Message
	if strings.TrimSpace(message.Content) == "" {
		return nil, fmt.Errorf("%s: %w", o.name, ErrEmptyResponse)
	}

	return &models.ChatResult{
		Content:   message.Content,
		Reasoning: message.ReasoningContent,
	}, nil
}
