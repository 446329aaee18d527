package speech

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/tlsutil"
)

// GroqSTT performs STT using Groq's OpenAI-compatible whisper endpoint.
// Honored options: model, language, prompt, temperature. Ignored:
// diarize, tag events.
type GroqSTT struct {
	cfg    GroqSTTConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

// NewGroqSTT creates a new Groq STT provider.
func NewGroqSTT(cfg GroqSTTConfig, codec Codec, logger *zap.Logger) *GroqSTT {
	def := DefaultGroqSTTConfig()
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
	return &GroqSTT{cfg: cfg, codec: codec, logger: logger}
}

func (p *GroqSTT) Name() string { return "groq" }

// Initialize builds the HTTP client. Safe to call more than once.
func (p *GroqSTT) Initialize(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		p.logger.Warn("groq api key not configured")
	}
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}
	return nil
}

// Transcribe converts speech to text through the whisper endpoint.
func (p *GroqSTT) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
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
