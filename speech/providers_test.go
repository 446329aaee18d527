package speech_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/wavpcm"
	"github.com/fernvoice/fernando/speech"
)

func testAudio() speech.AudioBuffer {
	return speech.AudioBuffer{
		SampleRate: 16000,
		Samples:    [][]float32{make([]float32, 1600)},
	}
}

func TestGroqSTT_Transcribe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large-v3-turbo", r.FormValue("model"))
		assert.Equal(t, "it", r.FormValue("language"))
		assert.Equal(t, "json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "audio.wav", header.Filename)

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "  Che ore sono?  ",
			"language": "it",
			"duration": 0.1,
		})
	}))
	t.Cleanup(srv.Close)

	p := speech.NewGroqSTT(speech.GroqSTTConfig{
		APIKey:  "gsk-test",
		BaseURL: srv.URL,
	}, wavpcm.New(), zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	resp, err := p.Transcribe(context.Background(), &speech.TranscribeRequest{Audio: testAudio()})
	require.NoError(t, err)
	assert.Equal(t, "Che ore sono?", resp.Text, "transcript is trimmed")
	assert.Equal(t, "groq", resp.Provider)
	assert.Equal(t, "whisper-large-v3-turbo", resp.Model)
}

func TestOpenAISTT_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	p := speech.NewOpenAISTT(speech.OpenAISTTConfig{
		APIKey:  "sk-bad",
		BaseURL: srv.URL,
	}, wavpcm.New(), zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	_, err := p.Transcribe(context.Background(), &speech.TranscribeRequest{Audio: testAudio()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")
}

func TestElevenLabsSTT_Transcribe(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech-to-text", r.URL.Path)
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))
		assert.Equal(t, "ita", r.FormValue("language_code"))
		assert.Equal(t, "false", r.FormValue("diarize"))

		json.NewEncoder(w).Encode(map[string]string{
			"text":          "Buongiorno",
			"language_code": "ita",
		})
	}))
	t.Cleanup(srv.Close)

	p := speech.NewElevenLabsSTT(speech.ElevenLabsConfig{
		APIKey:  "xi-test",
		BaseURL: srv.URL,
	}, wavpcm.New(), zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	resp, err := p.Transcribe(context.Background(), &speech.TranscribeRequest{Audio: testAudio()})
	require.NoError(t, err)
	assert.Equal(t, "Buongiorno", resp.Text)
	assert.Equal(t, "ita", resp.Language)
}

func TestElevenLabsTTS_StreamsPCMChunks(t *testing.T) {
	t.Parallel()

	// One and a half stream chunks of raw PCM.
	pcm := make([]byte, 36000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/JBFqnCBsd6RMkjVDRZzb", r.URL.Path)
		assert.Equal(t, "pcm_24000", r.URL.Query().Get("output_format"))
		assert.Equal(t, "xi-test", r.Header.Get("xi-api-key"))

		var req struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Buonasera!", req.Text)
		assert.Equal(t, "eleven_multilingual_v2", req.ModelID)

		w.Write(pcm)
	}))
	t.Cleanup(srv.Close)

	p := speech.NewElevenLabsTTS(speech.ElevenLabsConfig{
		APIKey:  "xi-test",
		BaseURL: srv.URL,
	}, wavpcm.New(), zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	stream, err := p.Synthesize(context.Background(), &speech.SynthesizeRequest{Text: "Buonasera!"})
	require.NoError(t, err)

	var chunks []speech.AudioChunk
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		chunks = append(chunks, chunk)
	}
	require.Len(t, chunks, 2)
	assert.Equal(t, 24000, chunks[0].Audio.SampleRate)
	assert.Equal(t, 12000, chunks[0].Audio.SampleCount())
	assert.Equal(t, 6000, chunks[1].Audio.SampleCount())
}

func TestElevenLabsTTS_UpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"voice_not_found"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	p := speech.NewElevenLabsTTS(speech.ElevenLabsConfig{
		APIKey:  "xi-test",
		BaseURL: srv.URL,
	}, wavpcm.New(), zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	_, err := p.Synthesize(context.Background(), &speech.SynthesizeRequest{Text: "ciao"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestKokoroTTS_InitializeResolvesFallbackVoice(t *testing.T) {
	t.Parallel()

	codec := wavpcm.New()
	wav, err := codec.EncodeWAV(speech.AudioBuffer{
		SampleRate: 24000,
		Samples:    [][]float32{make([]float32, 240)},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/audio/voices":
			// Configured voice missing; second fallback installed.
			json.NewEncoder(w).Encode(map[string][]string{
				"voices": {"af_heart", "im_roberto"},
			})
		case "/v1/audio/speech":
			var req struct {
				Model string  `json:"model"`
				Input string  `json:"input"`
				Voice string  `json:"voice"`
				Speed float64 `json:"speed"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "kokoro", req.Model)
			assert.Equal(t, "im_roberto", req.Voice)
			assert.Equal(t, 1.0, req.Speed)
			w.Write(wav)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	p := speech.NewKokoroTTS(speech.KokoroConfig{BaseURL: srv.URL}, codec, zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	stream, err := p.Synthesize(context.Background(), &speech.SynthesizeRequest{Text: "ciao"})
	require.NoError(t, err)

	chunk, open := <-stream
	require.True(t, open)
	require.NoError(t, chunk.Err)
	assert.Equal(t, 24000, chunk.Audio.SampleRate)
	assert.Equal(t, 240, chunk.Audio.SampleCount())

	_, open = <-stream
	assert.False(t, open)
}

func TestKokoroTTS_InitializeFailsWithNoUsableVoice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string][]string{"voices": {"af_heart"}})
	}))
	t.Cleanup(srv.Close)

	p := speech.NewKokoroTTS(speech.KokoroConfig{BaseURL: srv.URL}, wavpcm.New(), zap.NewNop())
	err := p.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "im_nicola")
}

func TestOpenAITTS_SingleChunk(t *testing.T) {
	t.Parallel()

	codec := wavpcm.New()
	wav, err := codec.EncodeWAV(speech.AudioBuffer{
		SampleRate: 24000,
		Samples:    [][]float32{make([]float32, 480)},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/speech", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tts-1", req["model"])
		assert.Equal(t, "alloy", req["voice"])
		assert.Equal(t, "wav", req["response_format"])

		w.Write(wav)
	}))
	t.Cleanup(srv.Close)

	p := speech.NewOpenAITTS(speech.OpenAITTSConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
	}, codec, zap.NewNop())
	require.NoError(t, p.Initialize(context.Background()))

	stream, err := p.Synthesize(context.Background(), &speech.SynthesizeRequest{Text: "ciao"})
	require.NoError(t, err)

	chunk, open := <-stream
	require.True(t, open)
	require.NoError(t, chunk.Err)
	assert.Equal(t, 480, chunk.Audio.SampleCount())
}
