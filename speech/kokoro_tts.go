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

// kokoroFallbackVoices are tried in order when the configured voice is not
// installed on the inference server.
var kokoroFallbackVoices = []string{"im_marcello", "im_roberto", "im_matteo", "af_bella"}

// KokoroTTS performs TTS against a local Kokoro inference server.
// Honored options: voice, model, speed. Ignored: language (bound to the
// loaded voice), output format.
type KokoroTTS struct {
	cfg    KokoroConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
	voice  string
}

// NewKokoroTTS creates a new Kokoro TTS provider.
func NewKokoroTTS(cfg KokoroConfig, codec Codec, logger *zap.Logger) *KokoroTTS {
	def := DefaultKokoroConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Voice == "" {
		cfg.Voice = def.Voice
	}
	if cfg.Speed == 0 {
		cfg.Speed = def.Speed
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KokoroTTS{cfg: cfg, codec: codec, logger: logger}
}

func (p *KokoroTTS) Name() string { return "kokoro" }

type kokoroVoicesResponse struct {
	Voices []string `json:"voices"`
}

// Initialize verifies the inference server is reachable and resolves the
// active voice, walking the fallback list when the configured voice is
// missing. Safe to call more than once.
func (p *KokoroTTS) Initialize(ctx context.Context) error {
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/audio/voices", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("kokoro server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("kokoro voices error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var vResp kokoroVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&vResp); err != nil {
		return fmt.Errorf("failed to decode voices response: %w", err)
	}

	installed := make(map[string]bool, len(vResp.Voices))
	for _, v := range vResp.Voices {
		installed[v] = true
	}

	if installed[p.cfg.Voice] {
		p.voice = p.cfg.Voice
		return nil
	}

	p.logger.Warn("configured kokoro voice not installed, trying fallbacks",
		zap.String("voice", p.cfg.Voice))
	for _, fallback := range kokoroFallbackVoices {
		if installed[fallback] {
			p.logger.Info("using fallback kokoro voice", zap.String("voice", fallback))
			p.voice = fallback
			return nil
		}
	}
	return fmt.Errorf("no usable kokoro voice installed (wanted %q)", p.cfg.Voice)
}

type kokoroTTSRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed,omitempty"`
	ResponseFormat string  `json:"response_format"`
}

// Synthesize converts text to speech on the local server. The WAV response
// is decoded and delivered as a single chunk.
func (p *KokoroTTS) Synthesize(ctx context.Context, req *SynthesizeRequest) (<-chan AudioChunk, error) {
	voice := req.Voice
	if voice == "" {
		voice = p.voice
	}
	if voice == "" {
		voice = p.cfg.Voice
	}
	speed := req.Speed
	if speed == 0 {
		speed = p.cfg.Speed
	}

	payload, _ := json.Marshal(kokoroTTSRequest{
		Model:          "kokoro",
		Input:          req.Text,
		Voice:          voice,
		Speed:          speed,
		ResponseFormat: "wav",
	})

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/v1/audio/speech",
		bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("kokoro request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kokoro error: status=%d body=%s", resp.StatusCode, string(errBody))
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
