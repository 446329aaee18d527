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
)

// whisperResponse is the JSON shape returned by OpenAI-compatible
// /audio/transcriptions endpoints (OpenAI, Groq).
type whisperResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// transcribeOpenAICompat uploads WAV audio to an OpenAI-compatible
// transcription endpoint and returns the decoded response. Shared by the
// OpenAI and Groq STT providers, which speak the same protocol.
func transcribeOpenAICompat(
	ctx context.Context,
	client *http.Client,
	baseURL, apiKey, providerName, model, language string,
	req *TranscribeRequest,
	codec Codec,
) (*TranscribeResponse, error) {
	wav, err := codec.EncodeWAV(req.Audio)
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

	_ = writer.WriteField("model", model)
	if language != "" {
		_ = writer.WriteField("language", language)
	}
	if req.Prompt != "" {
		_ = writer.WriteField("prompt", req.Prompt)
	}
	if req.Temperature > 0 {
		_ = writer.WriteField("temperature", strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/v1/audio/transcriptions",
		&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s transcription request failed: %w", providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s transcription error: status=%d body=%s", providerName, resp.StatusCode, string(errBody))
	}

	var wResp whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wResp); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	return &TranscribeResponse{
		Provider:  providerName,
		Model:     model,
		Text:      strings.TrimSpace(wResp.Text),
		Language:  wResp.Language,
		Duration:  time.Duration(wResp.Duration * float64(time.Second)),
		CreatedAt: time.Now(),
	}, nil
}
