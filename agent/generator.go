package agent

import (
	"context"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/metrics"
	"github.com/fernvoice/fernando/llm"
	"github.com/fernvoice/fernando/types"
)

// DefaultApology is spoken when every model in the fallback chain fails.
// A degraded spoken reply beats a silent turn on a live voice channel.
const DefaultApology = "Mi dispiace, ma ho un problema di connessione. Potresti ripetere la tua domanda?"

// DefaultTemperature is the fixed sampling temperature for every chain
// attempt.
const DefaultTemperature float32 = 0.5

// GeneratorConfig configures a ResponseGenerator.
type GeneratorConfig struct {
	// Chain is the ordered list of model identifiers to attempt:
	// [primary, fallback_1, ..., fallback_n]. Immutable at runtime.
	Chain []string

	// Temperature is the fixed sampling temperature. Defaults to
	// DefaultTemperature if zero.
	Temperature float32

	// MaxTokens caps each completion. Zero means provider default.
	MaxTokens int

	// Apology is returned when the whole chain fails. Defaults to
	// DefaultApology if empty.
	Apology string
}

// ResponseGenerator produces assistant text for a user turn, consulting
// the conversation history for context and walking the fallback chain for
// the underlying model call.
type ResponseGenerator struct {
	registry    *llm.ProviderRegistry
	history     *History
	chain       []string
	temperature float32
	maxTokens   int
	apology     string
	metrics     *metrics.Collector
	logger      *zap.Logger
}

// NewResponseGenerator creates a generator over the given provider
// registry and history.
func NewResponseGenerator(registry *llm.ProviderRegistry, history *History, cfg GeneratorConfig, collector *metrics.Collector, logger *zap.Logger) *ResponseGenerator {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Apology == "" {
		cfg.Apology = DefaultApology
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseGenerator{
		registry:    registry,
		history:     history,
		chain:       cfg.Chain,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		apology:     cfg.Apology,
		metrics:     collector,
		logger:      logger,
	}
}

// Chain returns the configured model identifiers in attempt order.
func (g *ResponseGenerator) Chain() []string {
	out := make([]string, len(g.chain))
	copy(out, g.chain)
	return out
}

// Apology returns the terminal-fallback reply.
func (g *ResponseGenerator) Apology() string { return g.apology }

// Generate produces assistant text for userText. The history snapshot
// plus the pending user message form the context for every attempt; each
// chain model is tried in order and each attempt is independent. When the
// whole chain fails the fixed apology is returned, so Generate never
// fails from its caller's point of view. The caller commits the exchange
// exactly once regardless of which branch produced the text.
func (g *ResponseGenerator) Generate(ctx context.Context, userText string) string {
	msgs := append(g.history.Snapshot(), types.NewUserMessage(userText))
	g.logger.Debug("generating response",
		zap.Int("context_messages", len(msgs)),
		zap.Int("chain_length", len(g.chain)),
	)

	for i, model := range g.chain {
		provider, bare, err := llm.Resolve(g.registry, model)
		if err != nil {
			g.logger.Warn("cannot route model, trying next in chain",
				zap.String("model", model),
				zap.Error(err),
			)
			g.metrics.LLMAttempt(model, "unroutable")
			continue
		}

		resp, err := provider.Completion(ctx, &llm.ChatRequest{
			Model:       bare,
			Messages:    msgs,
			Temperature: g.temperature,
			MaxTokens:   g.maxTokens,
		})
		if err != nil {
			g.logger.Error("model attempt failed",
				zap.String("model", model),
				zap.String("provider", provider.Name()),
				zap.Int("chain_position", i),
				zap.Error(err),
			)
			g.metrics.LLMAttempt(model, "error")
			continue
		}

		g.metrics.LLMAttempt(model, "success")
		if i > 0 {
			g.logger.Info("fallback model succeeded",
				zap.String("model", model),
				zap.Int("chain_position", i),
			)
		}
		return resp.Text()
	}

	g.logger.Error("all models in fallback chain failed, returning apology",
		zap.Strings("chain", g.chain),
	)
	return g.apology
}
