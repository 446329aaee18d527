package fernando

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fernvoice/fernando/config"
	"github.com/fernvoice/fernando/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"system_prompts:\n  chef_assistant: You are Fernando.\n"), 0o600))

	cfg := config.Default()
	cfg.Agent.PromptsPath = path
	return cfg
}

func TestNew_BuildsAgent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Speech.STTProvider = "groq"
	cfg.Speech.TTSProvider = "kokoro"

	a, err := New(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	msgs := a.History().Snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are Fernando.", msgs[0].Content)

	assert.Equal(t, "groq", a.STT().Active())
	assert.Equal(t, "kokoro", a.TTS().Active())
	assert.ElementsMatch(t, []string{"elevenlabs", "groq", "openai"}, a.STT().Names())
	assert.ElementsMatch(t, []string{"elevenlabs", "openai", "kokoro"}, a.TTS().Names())
}

func TestNew_UnknownSpeechProviderFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Speech.STTProvider = "whisperx"
	cfg.Speech.TTSProvider = "festival"

	a, err := New(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", a.STT().Active())
	assert.Equal(t, "elevenlabs", a.TTS().Active())
}

func TestNew_MissingPromptFileFails(t *testing.T) {
	cfg := config.Default()
	cfg.Agent.PromptsPath = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := New(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_SessionsShareNothing(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	b, err := New(cfg, nil, zap.NewNop())
	require.NoError(t, err)

	a.History().Commit("Ciao", "Buonasera!")
	assert.Equal(t, 3, a.History().Len())
	assert.Equal(t, 1, b.History().Len())

	require.NoError(t, a.STT().Select("openai"))
	assert.Equal(t, "openai", a.STT().Active())
	assert.Equal(t, "elevenlabs", b.STT().Active())
}
