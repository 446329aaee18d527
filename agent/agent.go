package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/internal/metrics"
	"github.com/fernvoice/fernando/speech"
)

// Agent composes one full voice turn: audio in, transcript, generated
// reply, audio out. Each agent owns its own history and provider
// registries; concurrent sessions use separate agents and share nothing.
type Agent struct {
	stt       *speech.STTRegistry
	tts       *speech.TTSRegistry
	generator *ResponseGenerator
	history   *History
	metrics   *metrics.Collector
	logger    *zap.Logger

	// one active turn at a time
	turnMu sync.Mutex
}

// New creates an agent over pre-built registries, generator, and history.
func New(stt *speech.STTRegistry, tts *speech.TTSRegistry, generator *ResponseGenerator, history *History, collector *metrics.Collector, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		stt:       stt,
		tts:       tts,
		generator: generator,
		history:   history,
		metrics:   collector,
		logger:    logger,
	}
}

// STT returns the speech-to-text registry for runtime provider selection.
func (a *Agent) STT() *speech.STTRegistry { return a.stt }

// TTS returns the text-to-speech registry for runtime provider selection.
func (a *Agent) TTS() *speech.TTSRegistry { return a.tts }

// History returns the conversation history.
func (a *Agent) History() *History { return a.history }

// Reset clears the conversation history to the system message.
func (a *Agent) Reset() { a.history.Reset() }

// HandleTurn runs one request/response cycle and returns the synthesized
// reply as a finite audio stream.
//
// STT failures degrade to an empty transcript, which is still forwarded;
// generation never fails (the apology terminal fallback absorbs total
// backend failure); the exchange is committed exactly once before
// synthesis starts, so a TTS failure after commit keeps the text
// round-trip in history and surfaces a typed error with zero chunks.
// Cancellation before commit leaves the history untouched.
func (a *Agent) HandleTurn(ctx context.Context, in speech.AudioBuffer) (<-chan speech.AudioChunk, error) {
	a.turnMu.Lock()
	defer a.turnMu.Unlock()

	start := time.Now()
	a.logger.Info("received audio input",
		zap.Int("sample_rate", in.SampleRate),
		zap.Int("samples", in.SampleCount()),
	)

	transcript := ""
	sttResp, err := a.stt.Transcribe(ctx, &speech.TranscribeRequest{Audio: in})
	if err != nil {
		a.logger.Error("transcription stage failed, forwarding empty transcript", zap.Error(err))
		a.metrics.StageFailure("stt")
	} else {
		transcript = sttResp.Text
	}
	a.logger.Info("transcribed", zap.String("text", transcript))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply := a.generator.Generate(ctx, transcript)
	a.logger.Info("response", zap.String("text", reply))

	// Never commit an abandoned turn.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.history.Commit(transcript, reply)
	a.metrics.SetHistoryLength(a.history.Len())

	stream, err := a.tts.Synthesize(ctx, &speech.SynthesizeRequest{Text: reply})
	a.metrics.ObserveTurn(time.Since(start))
	if err != nil {
		a.logger.Error("synthesis stage failed", zap.Error(err))
		a.metrics.StageFailure("tts")
		empty := make(chan speech.AudioChunk)
		close(empty)
		return empty, err
	}
	return stream, nil
}
