package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/tlsutil"
	"github.com/fernvoice/fernando/llm"
	"github.com/fernvoice/fernando/types"
)

// Config holds the configuration for an OpenAI-compatible chat provider.
type Config struct {
	// ProviderName is the unique identifier for this provider
	// (e.g., "openai", "groq").
	ProviderName string

	// APIKey is the authentication key for the provider's API. May be
	// empty for local backends like Ollama.
	APIKey string

	// BaseURL is the base URL for the provider's API.
	BaseURL string

	// DefaultModel is used when the request carries no model.
	DefaultModel string

	// Timeout is the HTTP client timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the chat completions endpoint path.
	// Defaults to "/v1/chat/completions".
	EndpointPath string

	// BuildHeaders is an optional function to set custom headers on each
	// request. If nil, the default "Authorization: Bearer <apiKey>"
	// header is used.
	BuildHeaders func(req *http.Request, apiKey string)
}

// Provider is the shared implementation for all OpenAI-compatible chat
// backends.
type Provider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New creates a new OpenAI-compatible provider with the given config.
func New(cfg Config, logger *zap.Logger) *Provider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger,
	}
}

// NewOpenAI creates a provider for the OpenAI API.
func NewOpenAI(apiKey, model string, logger *zap.Logger) *Provider {
	return New(Config{
		ProviderName: "openai",
		APIKey:       apiKey,
		BaseURL:      "https://api.openai.com",
		DefaultModel: model,
	}, logger)
}

// NewGroq creates a provider for the Groq API.
func NewGroq(apiKey, model string, logger *zap.Logger) *Provider {
	return New(Config{
		ProviderName: "groq",
		APIKey:       apiKey,
		BaseURL:      "https://api.groq.com/openai",
		DefaultModel: model,
	}, logger)
}

// NewOpenRouter creates a provider for the OpenRouter API.
func NewOpenRouter(apiKey, model string, logger *zap.Logger) *Provider {
	return New(Config{
		ProviderName: "openrouter",
		APIKey:       apiKey,
		BaseURL:      "https://openrouter.ai/api",
		DefaultModel: model,
	}, logger)
}

// NewOllama creates a provider for a local Ollama server. Ollama exposes
// an OpenAI-compatible endpoint and needs no API key.
func NewOllama(baseURL, model string, logger *zap.Logger) *Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return New(Config{
		ProviderName: "ollama",
		BaseURL:      baseURL,
		DefaultModel: model,
		Timeout:      120 * time.Second,
	}, logger)
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.cfg.ProviderName }

func (p *Provider) buildHeaders(req *http.Request) {
	if p.cfg.BuildHeaders != nil {
		p.cfg.BuildHeaders(req, p.cfg.APIKey)
		return
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

func (p *Provider) endpoint() string {
	return strings.TrimRight(p.cfg.BaseURL, "/") + p.cfg.EndpointPath
}

type compatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type compatRequest struct {
	Model       string          `json:"model"`
	Messages    []compatMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type compatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Index        int           `json:"index"`
		FinishReason string        `json:"finish_reason"`
		Message      compatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.DefaultModel
	}

	body := compatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, compatMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	p.buildHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &types.Error{
			Code: types.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := ReadErrorMessage(resp.Body)
		return nil, MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var cResp compatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, &types.Error{
			Code: types.ErrUpstreamError, Message: err.Error(),
			HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name(),
		}
	}

	result := &llm.ChatResponse{
		ID:       cResp.ID,
		Provider: p.Name(),
		Model:    cResp.Model,
		Usage: llm.ChatUsage{
			PromptTokens:     cResp.Usage.PromptTokens,
			CompletionTokens: cResp.Usage.CompletionTokens,
			TotalTokens:      cResp.Usage.TotalTokens,
		},
	}
	if cResp.Created != 0 {
		result.CreatedAt = time.Unix(cResp.Created, 0)
	}
	for _, choice := range cResp.Choices {
		result.Choices = append(result.Choices, llm.ChatChoice{
			Index:        choice.Index,
			FinishReason: choice.FinishReason,
			Message:      types.NewMessage(types.Role(choice.Message.Role), choice.Message.Content),
		})
	}
	return result, nil
}
