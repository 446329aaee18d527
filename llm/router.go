package llm

import (
	"fmt"
	"strings"
)

// Resolve maps a model identifier to a registered provider and the bare
// model name to send upstream.
//
// An identifier may carry a provider prefix separated by the first slash:
// "groq/llama-3.1-8b-instant" routes to the "groq" provider with model
// "llama-3.1-8b-instant", and "openrouter/qwen/qwq-32b:free" keeps the
// remainder intact. Identifiers without a registered prefix go to the
// default provider unchanged, so plain OpenAI model names like
// "gpt-4o-mini" need no prefix.
func Resolve(r *ProviderRegistry, model string) (Provider, string, error) {
	if strings.TrimSpace(model) == "" {
		return nil, "", fmt.Errorf("empty model identifier")
	}

	if prefix, rest, ok := strings.Cut(model, "/"); ok && rest != "" {
		if p, found := r.Get(prefix); found {
			return p, rest, nil
		}
	}

	p, err := r.Default()
	if err != nil {
		return nil, "", fmt.Errorf("cannot route model %q: %w", model, err)
	}
	return p, model, nil
}
