package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernvoice/fernando/speech"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, "chef_assistant", cfg.Agent.SystemPromptKey)
	assert.Equal(t, 5, cfg.Agent.MaxHistoryPairs)
	assert.Equal(t, speech.DefaultSTTProvider, cfg.Speech.STTProvider)
	assert.Equal(t, "im_nicola", cfg.Speech.Kokoro.Voice)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
agent:
  max_history_pairs: 3
llm:
  model: groq/llama-3.1-8b-instant
  fallbacks:
    - ollama/qwen2.5:3b
  temperature: 0.7
speech:
  stt_provider: groq
  kokoro:
    voice: im_marcello
log:
  level: debug
  development: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Agent.MaxHistoryPairs)
	assert.Equal(t, []string{"groq/llama-3.1-8b-instant", "ollama/qwen2.5:3b"}, cfg.LLM.Chain())
	assert.Equal(t, float32(0.7), cfg.LLM.Temperature)
	assert.Equal(t, "groq", cfg.Speech.STTProvider)
	assert.Equal(t, "im_marcello", cfg.Speech.Kokoro.Voice)
	assert.True(t, cfg.Log.Development)

	// Untouched fields keep their defaults.
	assert.Equal(t, ":8090", cfg.Server.Addr)
	assert.Equal(t, "scribe_v1", cfg.Speech.ElevenLabs.STTModel)
}

func TestLoad_EnvOverridesEverything(t *testing.T) {
	path := writeFile(t, "config.yaml", `
llm:
  model: gpt-4o-mini
speech:
  tts_provider: kokoro
`)

	t.Setenv("LLM_MODEL", "groq/llama-3.1-8b-instant")
	t.Setenv("LLM_FALLBACKS", "gpt-3.5-turbo, ollama/qwen2.5:3b , ")
	t.Setenv("MAX_HISTORY_MESSAGES", "7")
	t.Setenv("TTS_PROVIDER", "elevenlabs")
	t.Setenv("ELEVENLABS_API_KEY", "xi-secret")
	t.Setenv("GROQ_API_KEY", "gsk-secret")
	t.Setenv("KOKORO_SPEED", "1.25")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "groq/llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, []string{"gpt-3.5-turbo", "ollama/qwen2.5:3b"}, cfg.LLM.Fallbacks)
	assert.Equal(t, 7, cfg.Agent.MaxHistoryPairs)
	assert.Equal(t, "elevenlabs", cfg.Speech.TTSProvider)
	assert.Equal(t, "xi-secret", cfg.Speech.ElevenLabs.APIKey)
	assert.Equal(t, "gsk-secret", cfg.LLM.GroqAPIKey)
	assert.Equal(t, "gsk-secret", cfg.Speech.GroqSTT.APIKey)
	assert.Equal(t, 1.25, cfg.Speech.Kokoro.Speed)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := writeFile(t, "bad.yaml", "llm: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLLMConfig_Chain(t *testing.T) {
	t.Parallel()

	assert.Empty(t, LLMConfig{}.Chain())
	assert.Equal(t, []string{"a"}, LLMConfig{Model: "a"}.Chain())
	assert.Equal(t, []string{"a", "b", "c"}, LLMConfig{Model: "a", Fallbacks: []string{"b", "c"}}.Chain())
	assert.Equal(t, []string{"b"}, LLMConfig{Fallbacks: []string{"b"}}.Chain())
}

func TestLoadPrompt(t *testing.T) {
	path := writeFile(t, "prompts.yaml", `
system_prompts:
  chef_assistant: |
    Sei Fernando, uno chef italiano.
  minimal: ciao
`)

	prompt, err := LoadPrompt(path, "chef_assistant")
	require.NoError(t, err)
	assert.Equal(t, "Sei Fernando, uno chef italiano.\n", prompt)

	prompt, err = LoadPrompt(path, "minimal")
	require.NoError(t, err)
	assert.Equal(t, "ciao", prompt)

	_, err = LoadPrompt(path, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")

	_, err = LoadPrompt(filepath.Join(t.TempDir(), "nope.yaml"), "any")
	assert.Error(t, err)
}
