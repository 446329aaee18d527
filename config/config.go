// Package config loads the immutable configuration snapshot handed to the
// voice agent at construction time: provider selections, per-provider
// option defaults, the LLM fallback chain, and the history capacity.
// Precedence: defaults, then YAML file, then environment variables.
package config

import (
	"time"

	"github.com/fernvoice/fernando/speech"
)

// Config is the full configuration for one fernando process.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Agent  AgentConfig  `yaml:"agent"`
	LLM    LLMConfig    `yaml:"llm"`
	Speech SpeechConfig `yaml:"speech"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the websocket transport binary.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AgentConfig configures the per-session agent.
type AgentConfig struct {
	// SystemPromptKey selects a prompt from the prompts file.
	SystemPromptKey string `yaml:"system_prompt_key"`
	// PromptsPath is the YAML prompt-source file.
	PromptsPath string `yaml:"prompts_path"`
	// MaxHistoryPairs is the conversation capacity P.
	MaxHistoryPairs int `yaml:"max_history_pairs"`
}

// LLMConfig configures the model fallback chain and backends.
type LLMConfig struct {
	// Model is the primary model identifier, optionally provider-prefixed
	// (e.g. "gpt-4o-mini", "groq/llama-3.1-8b-instant").
	Model string `yaml:"model"`
	// Fallbacks are tried in order after the primary model.
	Fallbacks   []string `yaml:"fallbacks"`
	Temperature float32  `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	GroqAPIKey       string `yaml:"groq_api_key"`
	OpenRouterAPIKey string `yaml:"openrouter_api_key"`
	OllamaBaseURL    string `yaml:"ollama_base_url"`
}

// Chain returns the full ordered fallback chain, primary first.
func (c LLMConfig) Chain() []string {
	chain := make([]string, 0, len(c.Fallbacks)+1)
	if c.Model != "" {
		chain = append(chain, c.Model)
	}
	return append(chain, c.Fallbacks...)
}

// SpeechConfig configures the STT/TTS registries and providers.
type SpeechConfig struct {
	// STTProvider and TTSProvider name the active providers.
	STTProvider string `yaml:"stt_provider"`
	TTSProvider string `yaml:"tts_provider"`

	ElevenLabs speech.ElevenLabsConfig `yaml:"elevenlabs"`
	GroqSTT    speech.GroqSTTConfig    `yaml:"groq_stt"`
	OpenAISTT  speech.OpenAISTTConfig  `yaml:"openai_stt"`
	OpenAITTS  speech.OpenAITTSConfig  `yaml:"openai_tts"`
	Kokoro     speech.KokoroConfig     `yaml:"kokoro"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8090",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Agent: AgentConfig{
			SystemPromptKey: "chef_assistant",
			PromptsPath:     "config/prompts.yaml",
			MaxHistoryPairs: 5,
		},
		LLM: LLMConfig{
			Model:       "gpt-3.5-turbo",
			Temperature: 0.5,
		},
		Speech: SpeechConfig{
			STTProvider: speech.DefaultSTTProvider,
			TTSProvider: speech.DefaultTTSProvider,
			ElevenLabs:  speech.DefaultElevenLabsConfig(),
			GroqSTT:     speech.DefaultGroqSTTConfig(),
			OpenAISTT:   speech.DefaultOpenAISTTConfig(),
			OpenAITTS:   speech.DefaultOpenAITTSConfig(),
			Kokoro:      speech.DefaultKokoroConfig(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
