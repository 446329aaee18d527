// Package fernando wires the voice pipeline together: speech registries,
// LLM fallback chain, conversation history, and the per-session agent.
//
// Usage:
//
//	cfg, err := config.Load("config/config.yaml")
//	a, err := fernando.New(cfg, nil, logger)
//	stream, err := a.HandleTurn(ctx, audioIn)
//
// Every call to New builds an independent agent with its own history and
// registries, so concurrent sessions share nothing.
package fernando

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/agent"
	"github.com/fernvoice/fernando/config"
	"github.com/fernvoice/fernando/internal/metrics"
	"github.com/fernvoice/fernando/internal/wavpcm"
	"github.com/fernvoice/fernando/llm"
	"github.com/fernvoice/fernando/llm/providers"
	"github.com/fernvoice/fernando/speech"
)

// New builds a voice agent from the configuration snapshot. The collector
// may be nil; it is typically shared across sessions while everything
// else is per-agent.
func New(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) (*agent.Agent, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	systemPrompt, err := config.LoadPrompt(cfg.Agent.PromptsPath, cfg.Agent.SystemPromptKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load system prompt: %w", err)
	}

	registry := newLLMRegistry(cfg.LLM, logger)
	history := agent.NewHistory(systemPrompt, cfg.Agent.MaxHistoryPairs, logger)
	generator := agent.NewResponseGenerator(registry, history, agent.GeneratorConfig{
		Chain:       cfg.LLM.Chain(),
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, collector, logger)

	codec := wavpcm.New()
	stt, tts := newSpeechRegistries(cfg.Speech, codec, logger)

	return agent.New(stt, tts, generator, history, collector, logger), nil
}

// newLLMRegistry registers every configured chat backend. The default
// provider takes unprefixed model identifiers.
func newLLMRegistry(cfg config.LLMConfig, logger *zap.Logger) *llm.ProviderRegistry {
	registry := llm.NewProviderRegistry()

	if cfg.OpenAIAPIKey != "" {
		registry.Register("openai", providers.NewOpenAI(cfg.OpenAIAPIKey, cfg.Model, logger))
	}
	if cfg.GroqAPIKey != "" {
		registry.Register("groq", providers.NewGroq(cfg.GroqAPIKey, "", logger))
	}
	if cfg.OpenRouterAPIKey != "" {
		registry.Register("openrouter", providers.NewOpenRouter(cfg.OpenRouterAPIKey, "", logger))
	}
	registry.Register("ollama", providers.NewOllama(cfg.OllamaBaseURL, "", logger))

	for _, name := range []string{"openai", "groq", "openrouter", "ollama"} {
		if _, ok := registry.Get(name); ok {
			_ = registry.SetDefault(name)
			break
		}
	}
	return registry
}

// newSpeechRegistries registers every speech backend and activates the
// configured providers, falling back to the designated defaults when a
// configured name is unknown.
func newSpeechRegistries(cfg config.SpeechConfig, codec speech.Codec, logger *zap.Logger) (*speech.STTRegistry, *speech.TTSRegistry) {
	stt := speech.NewSTTRegistry(logger)
	stt.Register("elevenlabs", speech.NewElevenLabsSTT(cfg.ElevenLabs, codec, logger))
	stt.Register("groq", speech.NewGroqSTT(cfg.GroqSTT, codec, logger))
	stt.Register("openai", speech.NewOpenAISTT(cfg.OpenAISTT, codec, logger))
	stt.Activate(cfg.STTProvider, speech.DefaultSTTProvider)

	tts := speech.NewTTSRegistry(logger)
	tts.Register("elevenlabs", speech.NewElevenLabsTTS(cfg.ElevenLabs, codec, logger))
	tts.Register("openai", speech.NewOpenAITTS(cfg.OpenAITTS, codec, logger))
	tts.Register("kokoro", speech.NewKokoroTTS(cfg.Kokoro, codec, logger))
	tts.Activate(cfg.TTSProvider, speech.DefaultTTSProvider)

	return stt, tts
}
