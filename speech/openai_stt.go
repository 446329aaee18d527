package speech

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/tlsutil"
)

// OpenAISTT performs STT using the OpenAI transcription API.
// Honored options: model, language, prompt, temperature. Ignored:
// diarize, tag events.
type OpenAISTT struct {
	cfg    OpenAISTTConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

// NewOpenAISTT creates a new OpenAI STT provider.
func NewOpenAISTT(cfg OpenAISTTConfig, codec Codec, logger *zap.Logger) *OpenAISTT {
	def := DefaultOpenAISTTConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAISTT{cfg: cfg, codec: codec, logger: logger}
}

func (p *OpenAISTT) Name() string { return "openai" }

// Initialize builds the HTTP client. Safe to call more than once.
func (p *OpenAISTT) Initialize(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		p.logger.Warn("openai api key not configured")
	}
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}
	return nil
}

// Transcribe converts speech to text through the transcription endpoint.
func (p *OpenAISTT) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	language := req.Language
	if language == "" {
		language = p.cfg.Language
	}
	return transcribeOpenAICompat(ctx, p.client, p.cfg.BaseURL, p.cfg.APIKey, p.Name(), model, language, req, p.codec)
}
