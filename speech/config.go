package speech

import "time"

// ElevenLabsConfig configures the ElevenLabs STT and TTS providers.
type ElevenLabsConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	TTSModel string        `json:"tts_model,omitempty" yaml:"tts_model,omitempty"` // eleven_multilingual_v2
	STTModel string        `json:"stt_model,omitempty" yaml:"stt_model,omitempty"` // scribe_v1
	VoiceID  string        `json:"voice_id,omitempty" yaml:"voice_id,omitempty"`
	Language string        `json:"language,omitempty" yaml:"language,omitempty"` // ISO-639-3 for STT
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// GroqSTTConfig configures the Groq Whisper STT provider.
type GroqSTTConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // whisper-large-v3-turbo
	Language string        `json:"language,omitempty" yaml:"language,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenAISTTConfig configures the OpenAI transcription provider.
type OpenAISTTConfig struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"` // gpt-4o-transcribe, whisper-1
	Language string        `json:"language,omitempty" yaml:"language,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenAITTSConfig configures the OpenAI TTS provider.
type OpenAITTSConfig struct {
	APIKey  string        `json:"api_key" yaml:"api_key"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Model   string        `json:"model,omitempty" yaml:"model,omitempty"` // tts-1, tts-1-hd
	Voice   string        `json:"voice,omitempty" yaml:"voice,omitempty"` // alloy, echo, fable, onyx, nova, shimmer
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// KokoroConfig configures the Kokoro TTS provider, served by a local
// inference server.
type KokoroConfig struct {
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	Voice    string        `json:"voice,omitempty" yaml:"voice,omitempty"`
	Language string        `json:"language,omitempty" yaml:"language,omitempty"`
	Speed    float64       `json:"speed,omitempty" yaml:"speed,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultElevenLabsConfig returns the default ElevenLabs configuration.
func DefaultElevenLabsConfig() ElevenLabsConfig {
	return ElevenLabsConfig{
		BaseURL:  "https://api.elevenlabs.io",
		TTSModel: "eleven_multilingual_v2",
		STTModel: "scribe_v1",
		VoiceID:  "JBFqnCBsd6RMkjVDRZzb",
		Language: "ita",
		Timeout:  60 * time.Second,
	}
}

// DefaultGroqSTTConfig returns the default Groq STT configuration.
func DefaultGroqSTTConfig() GroqSTTConfig {
	return GroqSTTConfig{
		BaseURL:  "https://api.groq.com/openai",
		Model:    "whisper-large-v3-turbo",
		Language: "it",
		Timeout:  120 * time.Second,
	}
}

// DefaultOpenAISTTConfig returns the default OpenAI STT configuration.
func DefaultOpenAISTTConfig() OpenAISTTConfig {
	return OpenAISTTConfig{
		BaseURL:  "https://api.openai.com",
		Model:    "gpt-4o-transcribe",
		Language: "it",
		Timeout:  120 * time.Second,
	}
}

// DefaultOpenAITTSConfig returns the default OpenAI TTS configuration.
func DefaultOpenAITTSConfig() OpenAITTSConfig {
	return OpenAITTSConfig{
		BaseURL: "https://api.openai.com",
		Model:   "tts-1",
		Voice:   "alloy",
		Timeout: 60 * time.Second,
	}
}

// DefaultKokoroConfig returns the default Kokoro configuration.
func DefaultKokoroConfig() KokoroConfig {
	return KokoroConfig{
		BaseURL:  "http://localhost:8880",
		Voice:    "im_nicola",
		Language: "i",
		Speed:    1.0,
		Timeout:  120 * time.Second,
	}
}
