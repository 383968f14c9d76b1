package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/openclaw/geo-monitor/internal/config"
	"github.com/openclaw/geo-monitor/internal/models"
	"github.com/sirupsen/logrus"
)

// HTTPProvider talks to any OpenAI-compatible chat completion endpoint
type HTTPProvider struct {
	name     string
	model    string
	apiKey   string
	endpoint string
	enabled  bool
	client   *resty.Client
}

type chatCompletionRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	Stream      bool             `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewHTTPProvider creates a provider backed by a plain HTTP client
func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		name:     cfg.Name,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		endpoint: ChatEndpoint(cfg.BaseURL),
		enabled:  cfg.Enabled,
		client: resty.New().
			SetTimeout(RequestTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "GEO-Monitor/1.0"),
	}
}

func (h *HTTPProvider) GetName() string {
	return h.name
}

func (h *HTTPProvider) IsEnabled() bool {
	return h.enabled && h.apiKey != "" && h.endpoint != ""
}

func (h *HTTPProvider) Chat(ctx context.Context, messages []models.Message, temperature float64) (*models.ChatResult, error) {
	if h.apiKey == "" || h.endpoint == "" {
		return nil, fmt.Errorf("%s: %w", h.name, ErrNotConfigured)
	}

	resp, err := h.client.R().
		SetContext(ctx).
		SetAuthToken(h.apiKey).
		SetBody(chatCompletionRequest{
			Model:       h.model,
			Messages:    messages,
			Temperature: temperature,
			Stream:      false,
		}).
		Post(h.endpoint)

	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", h.name, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%s API returned status %d: %s", h.name, resp.StatusCode(), truncate(string(resp.Body()), 300))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(resp.Body(), &completion); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", h.name, ErrMalformedResponse, err)
	}

	if len(completion.Choices) == 0 {
		logrus.Debugf("%s returned no choices: %s", h.name, truncate(string(resp.Body()), 300))
		return nil, fmt.Errorf("%s: %w", h.name, ErrMalformedResponse)
	}

	message := completion.Choices[0].Message
	if strings.TrimSpace(message.Content) == "" {
		return nil, fmt.Errorf("%s: %w", h.name, ErrEmptyResponse)
	}

	return &models.ChatResult{
		Content:   message.Content,
		Reasoning: message.ReasoningContent,
	}, nil
}

// ChatEndpoint appends the chat completion path unless the base URL already has it
func ChatEndpoint(baseURL string) string {
	if baseURL == "" {
		return ""
	}
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/chat/completions"
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
