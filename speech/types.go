// Package speech provides the pluggable STT and TTS provider contracts,
// the per-capability provider registries with lazy initialization, and the
// concrete hosted-API provider implementations.
package speech

import (
	"context"
	"time"
)

// Capability identifies which side of the speech pipeline a provider serves.
type Capability string

const (
	CapabilitySTT Capability = "stt"
	CapabilityTTS Capability = "tts"
)

// AudioBuffer is an opaque audio value passed through the pipeline.
// Samples is indexed [channel][sample]. The orchestration layer never
// inspects sample content beyond shape and rate.
type AudioBuffer struct {
	SampleRate int
	Samples    [][]float32
}

// Channels returns the number of channel rows in the buffer.
func (b AudioBuffer) Channels() int { return len(b.Samples) }

// SampleCount returns the number of samples in the first channel.
func (b AudioBuffer) SampleCount() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Valid reports whether the buffer carries exactly one channel with a
// positive sample count and a positive sample rate.
func (b AudioBuffer) Valid() bool {
	return b.SampleRate > 0 && b.Channels() == 1 && b.SampleCount() > 0
}

// AudioChunk is one element of a synthesized audio stream. A chunk carries
// either audio or a terminal error, never both.
type AudioChunk struct {
	Audio AudioBuffer
	Err   error
}

// Codec encodes and decodes audio containers on behalf of the providers.
// Container framing is owned by the surrounding application, not by this
// package; providers only shuttle encoded bytes to and from hosted APIs.
type Codec interface {
	// EncodeWAV frames a single-channel buffer as a PCM16 WAV payload.
	EncodeWAV(buf AudioBuffer) ([]byte, error)

	// DecodeWAV parses a PCM16 WAV payload into a single-channel buffer.
	DecodeWAV(data []byte) (AudioBuffer, error)

	// DecodePCM16 interprets raw little-endian PCM16 bytes at the given
	// sample rate.
	DecodePCM16(data []byte, sampleRate int) (AudioBuffer, error)
}

// TranscribeRequest carries per-call STT options. Each provider honors the
// options it supports and silently ignores the rest.
type TranscribeRequest struct {
	Audio       AudioBuffer
	Model       string
	Language    string
	Prompt      string  // whisper-style providers only
	Temperature float64 // whisper-style providers only
	Diarize     bool    // elevenlabs only
	TagEvents   bool    // elevenlabs only
}

// TranscribeResponse is the result of a transcription call.
type TranscribeResponse struct {
	Provider  string
	Model     string
	Text      string
	Language  string
	Duration  time.Duration
	CreatedAt time.Time
}

// SynthesizeRequest carries per-call TTS options. Each provider honors the
// options it supports and silently ignores the rest.
type SynthesizeRequest struct {
	Text         string
	Voice        string
	Model        string
	Language     string
	Speed        float64 // kokoro only
	OutputFormat string
}

// STTProvider is the capability contract implemented by each speech-to-text
// backend. Initialize must be safe to call more than once; the registry
// guarantees it runs at most once per successful initialization.
type STTProvider interface {
	Initialize(ctx context.Context) error
	Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error)
	Name() string
}

// TTSProvider is the capability contract implemented by each text-to-speech
// backend. Synthesize returns a finite, non-restartable stream of audio
// chunks; empty input text yields an empty stream, not an error.
type TTSProvider interface {
	Initialize(ctx context.Context) error
	Synthesize(ctx context.Context, req *SynthesizeRequest) (<-chan AudioChunk, error)
	Name() string
}
