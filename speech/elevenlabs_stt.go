package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/tlsutil"
)

// ElevenLabsSTT performs STT using the ElevenLabs scribe API.
// Honored options: model, language, diarize, tag events. Ignored:
// prompt, temperature.
type ElevenLabsSTT struct {
	cfg    ElevenLabsConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

// NewElevenLabsSTT creates a new ElevenLabs STT provider.
func NewElevenLabsSTT(cfg ElevenLabsConfig, codec Codec, logger *zap.Logger) *ElevenLabsSTT {
	def := DefaultElevenLabsConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.STTModel == "" {
		cfg.STTModel = def.STTModel
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
	return &ElevenLabsSTT{cfg: cfg, codec: codec, logger: logger}
}

func (p *ElevenLabsSTT) Name() string { return "elevenlabs" }

// Initialize builds the HTTP client. Safe to call more than once.
func (p *ElevenLabsSTT) Initialize(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		p.logger.Warn("elevenlabs api key not configured")
	}
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}
	return nil
}

type elevenLabsSTTResponse struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Transcribe converts speech to text using the scribe endpoint.
func (p *ElevenLabsSTT) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.STTModel
	}
	language := req.Language
	if language == "" {
		language = p.cfg.Language
	}

	wav, err := p.codec.EncodeWAV(req.Audio)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audio: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, fmt.Errorf("failed to write audio: %w", err)
	}
	_ = writer.WriteField("model_id", model)
	if language != "" {
		_ = writer.WriteField("language_code", language)
	}
	_ = writer.WriteField("diarize", strconv.FormatBool(req.Diarize))
	_ = writer.WriteField("tag_audio_events", strconv.FormatBool(req.TagEvents))
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/speech-to-text",
		&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs stt request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs stt error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var sResp elevenLabsSTTResponse
	if err := json.NewDecoder(resp.Body).Decode(&sResp); err != nil {
		return nil, fmt.Errorf("failed to decode stt response: %w", err)
	}

	return &TranscribeResponse{
		Provider:  p.Name(),
		Model:     model,
		Text:      strings.TrimSpace(sResp.Text),
		Language:  sResp.LanguageCode,
		CreatedAt: time.Now(),
	}, nil
}
