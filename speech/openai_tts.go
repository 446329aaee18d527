package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/tlsutil"
)

// OpenAITTS performs TTS using the OpenAI speech API.
// Honored options: voice, model. Ignored: language, speed.
type OpenAITTS struct {
	cfg    OpenAITTSConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

// NewOpenAITTS creates a new OpenAI TTS provider.
func NewOpenAITTS(cfg OpenAITTSConfig, codec Codec, logger *zap.Logger) *OpenAITTS {
	def := DefaultOpenAITTSConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAITTS{cfg: cfg, codec: codec, logger: logger}
}

func (p *OpenAITTS) Name() string { return "openai" }

// Initialize builds the HTTP client. Safe to call more than once.
func (p *OpenAITTS) Initialize(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		p.logger.Warn("openai api key not configured")
	}
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}
	return nil
}

type openAITTSRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize converts text to speech. The WAV response is decoded and
// delivered as a single chunk.
func (p *OpenAITTS) Synthesize(ctx context.Context, req *SynthesizeRequest) (<-chan AudioChunk, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}

	payload, _ := json.Marshal(openAITTSRequest{
		Model:          model,
		Input:          req.Text,
		Voice:          voice,
		ResponseFormat: "wav",
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/audio/speech",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openai tts error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio response: %w", err)
	}

	out := make(chan AudioChunk, 1)
	go func() {
		defer close(out)
		audio, decErr := p.codec.DecodeWAV(data)
		chunk := AudioChunk{Audio: audio}
		if decErr != nil {
			chunk = AudioChunk{Err: decErr}
		}
		select {
		case out <- chunk:
		case <-ctx.Done():
		}
	}()
	return out, nil
}
