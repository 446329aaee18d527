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

// ElevenLabs streams raw PCM at this rate when pcm_24000 output is
// requested.
const elevenLabsPCMRate = 24000

// pcmStreamChunkBytes is the read granularity for streamed PCM bodies:
// half a second of 16-bit mono audio at 24 kHz.
const pcmStreamChunkBytes = elevenLabsPCMRate // 24000 bytes = 0.5s * 24000 Hz * 2 bytes

// ElevenLabsTTS performs TTS using the ElevenLabs API.
// Honored options: voice, model. Ignored: language (inferred by the
// multilingual model), speed.
type ElevenLabsTTS struct {
	cfg    ElevenLabsConfig
	codec  Codec
	client *http.Client
	logger *zap.Logger
}

// NewElevenLabsTTS creates a new ElevenLabs TTS provider.
func NewElevenLabsTTS(cfg ElevenLabsConfig, codec Codec, logger *zap.Logger) *ElevenLabsTTS {
	def := DefaultElevenLabsConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = def.TTSModel
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = def.VoiceID
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ElevenLabsTTS{cfg: cfg, codec: codec, logger: logger}
}

func (p *ElevenLabsTTS) Name() string { return "elevenlabs" }

// Initialize builds the HTTP client. Safe to call more than once.
func (p *ElevenLabsTTS) Initialize(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		p.logger.Warn("elevenlabs api key not configured")
	}
	if p.client == nil {
		p.client = tlsutil.SecureHTTPClient(p.cfg.Timeout)
	}
	return nil
}

type elevenLabsTTSRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to speech, streaming decoded PCM chunks as the
// response body arrives.
func (p *ElevenLabsTTS) Synthesize(ctx context.Context, req *SynthesizeRequest) (<-chan AudioChunk, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.TTSModel
	}
	voiceID := req.Voice
	if voiceID == "" {
		voiceID = p.cfg.VoiceID
	}

	payload, _ := json.Marshal(elevenLabsTTSRequest{Text: req.Text, ModelID: model})
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=pcm_24000",
		strings.TrimRight(p.cfg.BaseURL, "/"), voiceID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	out := make(chan AudioChunk, 4)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		buf := make([]byte, pcmStreamChunkBytes)
		for {
			n, readErr := io.ReadFull(resp.Body, buf)
			if n > 0 {
				audio, decErr := p.codec.DecodePCM16(buf[:n], elevenLabsPCMRate)
				if decErr != nil {
					p.sendChunk(ctx, out, AudioChunk{Err: decErr})
					return
				}
				if !p.sendChunk(ctx, out, AudioChunk{Audio: audio}) {
					return
				}
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				return
			}
			if readErr != nil {
				p.sendChunk(ctx, out, AudioChunk{Err: readErr})
				return
			}
		}
	}()
	return out, nil
}

// sendChunk delivers a chunk unless the turn has been cancelled.
func (p *ElevenLabsTTS) sendChunk(ctx context.Context, out chan<- AudioChunk, c AudioChunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
