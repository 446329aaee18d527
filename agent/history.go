// Package agent composes the voice pipeline: bounded conversation
// history, fallback-chain response generation, and the per-session voice
// agent that turns an audio buffer into a reply audio stream.
package agent

import (
	"sync"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/types"
)

// DefaultMaxHistoryPairs bounds the conversation history when no capacity
// is configured.
const DefaultMaxHistoryPairs = 5

// History is the bounded, system-prompt-anchored conversation log.
// Element 0 is always the single system message; user/assistant exchanges
// are appended in pairs and evicted oldest-first when the pair capacity is
// exceeded. All methods are safe for concurrent use.
type History struct {
	mu           sync.Mutex
	systemPrompt string
	maxPairs     int
	messages     []types.Message
	logger       *zap.Logger
}

// NewHistory creates a history seeded with the system prompt, holding at
// most maxPairs user/assistant exchanges.
func NewHistory(systemPrompt string, maxPairs int, logger *zap.Logger) *History {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxHistoryPairs
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		systemPrompt: systemPrompt,
		maxPairs:     maxPairs,
		messages:     []types.Message{types.NewSystemMessage(systemPrompt)},
		logger:       logger,
	}
}

// ensureSystemMessage restores the system-message-at-index-0 invariant.
// Caller must hold h.mu.
func (h *History) ensureSystemMessage() {
	if len(h.messages) > 0 && h.messages[0].Role == types.RoleSystem {
		return
	}
	h.logger.Warn("system message missing from history, reinserting")
	h.messages = append([]types.Message{types.NewSystemMessage(h.systemPrompt)}, h.messages...)
}

// Snapshot returns a defensive copy of the current history, repairing the
// system-message invariant first if it was violated.
func (h *History) Snapshot() []types.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ensureSystemMessage()
	out := make([]types.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Commit appends a user/assistant exchange and evicts the oldest pairs
// beyond capacity. This is the only mutator; the assistant text passed in
// is final.
func (h *History) Commit(userText, assistantText string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ensureSystemMessage()
	h.messages = append(h.messages,
		types.NewUserMessage(userText),
		types.NewAssistantMessage(assistantText),
	)

	// +1 for the system message
	maxMessages := h.maxPairs*2 + 1
	if len(h.messages) > maxMessages {
		keep := h.messages[len(h.messages)-(maxMessages-1):]
		h.messages = append([]types.Message{h.messages[0]}, keep...)
	}

	h.logger.Debug("history updated", zap.Int("messages", len(h.messages)))
}

// Reset truncates the history to the single system message.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = []types.Message{types.NewSystemMessage(h.systemPrompt)}
	h.logger.Info("history cleared")
}

// Len returns the number of messages currently held, including the system
// message.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
