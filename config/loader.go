package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds a Config from defaults, an optional YAML file, and
// environment variables, in that precedence order. An empty path skips
// the file step; a missing file at an explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides config fields from the environment. Names follow the
// original deployment's .env contract.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "FERNANDO_ADDR")

	setString(&cfg.Agent.SystemPromptKey, "FERNANDO_SYSTEM_PROMPT_KEY")
	setString(&cfg.Agent.PromptsPath, "FERNANDO_PROMPTS_PATH")
	setInt(&cfg.Agent.MaxHistoryPairs, "MAX_HISTORY_MESSAGES")

	setString(&cfg.LLM.Model, "LLM_MODEL")
	if v := os.Getenv("LLM_FALLBACKS"); v != "" {
		cfg.LLM.Fallbacks = splitList(v)
	}
	setFloat32(&cfg.LLM.Temperature, "LLM_TEMPERATURE")
	setString(&cfg.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.LLM.OpenRouterAPIKey, "OPENROUTER_API_KEY")
	setString(&cfg.LLM.OllamaBaseURL, "OLLAMA_API_BASE")

	setString(&cfg.Speech.STTProvider, "STT_PROVIDER")
	setString(&cfg.Speech.TTSProvider, "TTS_PROVIDER")
	setString(&cfg.Speech.ElevenLabs.APIKey, "ELEVENLABS_API_KEY")
	setString(&cfg.Speech.ElevenLabs.VoiceID, "ELEVENLABS_VOICE_ID")
	setString(&cfg.Speech.ElevenLabs.TTSModel, "ELEVENLABS_TTS_MODEL")
	setString(&cfg.Speech.ElevenLabs.STTModel, "ELEVENLABS_STT_MODEL")
	setString(&cfg.Speech.ElevenLabs.Language, "ELEVENLABS_STT_LANGUAGE")
	setString(&cfg.Speech.GroqSTT.APIKey, "GROQ_API_KEY")
	setString(&cfg.Speech.GroqSTT.Model, "GROQ_STT_MODEL")
	setString(&cfg.Speech.GroqSTT.Language, "GROQ_STT_LANGUAGE")
	setString(&cfg.Speech.OpenAISTT.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Speech.OpenAISTT.Model, "OPENAI_STT_MODEL")
	setString(&cfg.Speech.OpenAISTT.Language, "OPENAI_STT_LANGUAGE")
	setString(&cfg.Speech.OpenAITTS.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Speech.Kokoro.BaseURL, "KOKORO_BASE_URL")
	setString(&cfg.Speech.Kokoro.Voice, "KOKORO_VOICE")
	setString(&cfg.Speech.Kokoro.Language, "KOKORO_LANGUAGE")
	setFloat64(&cfg.Speech.Kokoro.Speed, "KOKORO_SPEED")

	setString(&cfg.Log.Level, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat32(dst *float32, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			*dst = float32(f)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
