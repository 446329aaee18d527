package speech

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/fernvoice/fernando/types"
)

// Default provider names used when a configured provider is not registered.
const (
	DefaultSTTProvider = "elevenlabs"
	DefaultTTSProvider = "elevenlabs"
)

// initializable is the part of both capability contracts the registry
// manages itself.
type initializable interface {
	Initialize(ctx context.Context) error
	Name() string
}

// descriptor tracks the lazy-initialization state of one registered
// provider. The mutex is held only for the duration of Initialize, never
// for the duration of a request.
type descriptor[P initializable] struct {
	provider P
	mu       sync.Mutex
	ready    atomic.Bool
}

// ensureReady initializes the provider at most once. Concurrent callers
// serialize on the descriptor mutex and observe ready == true on return.
// A failed initialization leaves the provider uninitialized so a later
// call may retry.
func (d *descriptor[P]) ensureReady(ctx context.Context, capability Capability, logger *zap.Logger) error {
	if d.ready.Load() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ready.Load() {
		return nil
	}

	logger.Info("initializing provider",
		zap.String("capability", string(capability)),
		zap.String("provider", d.provider.Name()),
	)
	if err := d.provider.Initialize(ctx); err != nil {
		return types.NewError(types.ErrInitFailed, "provider initialization failed").
			WithProvider(d.provider.Name()).
			WithCause(err)
	}
	d.ready.Store(true)
	return nil
}

// Registry owns the name -> provider mapping for one capability, tracks
// the active provider, and guarantees the active provider is initialized
// before any dispatch.
type Registry[P initializable] struct {
	capability Capability
	logger     *zap.Logger

	mu        sync.RWMutex
	providers map[string]*descriptor[P]
	active    string
}

// NewRegistry creates an empty registry for one capability.
func NewRegistry[P initializable](capability Capability, logger *zap.Logger) *Registry[P] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry[P]{
		capability: capability,
		logger:     logger,
		providers:  make(map[string]*descriptor[P]),
	}
}

// Register adds a provider under the given name. The first registered
// provider becomes active until a later Activate or Select call.
func (r *Registry[P]) Register(name string, p P) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[strings.ToLower(name)] = &descriptor[P]{provider: p}
	if r.active == "" {
		r.active = strings.ToLower(name)
	}
}

// Activate sets the active provider at construction time. If the requested
// name is not registered it falls back to the designated default instead of
// failing, matching the rest of the pipeline's degrade-don't-crash policy.
func (r *Registry[P]) Activate(name, fallback string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	if _, ok := r.providers[name]; ok {
		r.active = name
		return
	}
	r.logger.Warn("unknown provider, falling back to default",
		zap.String("capability", string(r.capability)),
		zap.String("requested", name),
		zap.String("fallback", fallback),
	)
	if _, ok := r.providers[fallback]; ok {
		r.active = fallback
	}
}

// Select changes the active provider at runtime. An unknown name is
// rejected with a warning and the previously active provider is retained.
func (r *Registry[P]) Select(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	if _, ok := r.providers[name]; !ok {
		r.logger.Warn("unknown provider, ignoring selection request",
			zap.String("capability", string(r.capability)),
			zap.String("requested", name),
			zap.String("active", r.active),
		)
		return types.NewError(types.ErrUnknownProvider, "provider not registered").
			WithProvider(name)
	}
	r.active = name
	r.logger.Debug("changed active provider",
		zap.String("capability", string(r.capability)),
		zap.String("provider", name),
	)
	return nil
}

// Active returns the name of the active provider.
func (r *Registry[P]) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Names returns the registered provider names.
func (r *Registry[P]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Initialized reports whether the named provider has completed
// initialization.
func (r *Registry[P]) Initialized(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.providers[strings.ToLower(name)]
	return ok && d.ready.Load()
}

// activeDescriptor resolves the active provider's descriptor.
func (r *Registry[P]) activeDescriptor() (*descriptor[P], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.providers[r.active]
	if !ok {
		return nil, types.NewError(types.ErrProviderUnavailable, "no active provider").
			WithProvider(r.active)
	}
	return d, nil
}

// EnsureReady initializes the active provider if it has not been
// initialized yet.
func (r *Registry[P]) EnsureReady(ctx context.Context) error {
	d, err := r.activeDescriptor()
	if err != nil {
		return err
	}
	return d.ensureReady(ctx, r.capability, r.logger)
}

// STTRegistry is the speech-to-text capability registry.
type STTRegistry struct {
	*Registry[STTProvider]
}

// NewSTTRegistry creates an empty STT registry.
func NewSTTRegistry(logger *zap.Logger) *STTRegistry {
	return &STTRegistry{Registry: NewRegistry[STTProvider](CapabilitySTT, logger)}
}

// Transcribe dispatches to the active provider after ensuring it is
// initialized. Empty or malformed audio degrades to an empty transcript
// with a logged warning; it is never an error.
func (r *STTRegistry) Transcribe(ctx context.Context, req *TranscribeRequest) (*TranscribeResponse, error) {
	if !req.Audio.Valid() {
		r.logger.Warn("invalid audio input, returning empty transcript",
			zap.Int("channels", req.Audio.Channels()),
			zap.Int("samples", req.Audio.SampleCount()),
			zap.Int("sample_rate", req.Audio.SampleRate),
		)
		return &TranscribeResponse{Provider: r.Active()}, nil
	}

	d, err := r.activeDescriptor()
	if err != nil {
		return nil, err
	}
	if err := d.ensureReady(ctx, r.capability, r.logger); err != nil {
		return nil, err
	}

	resp, err := d.provider.Transcribe(ctx, req)
	if err != nil {
		return nil, types.NewError(types.ErrTranscriptionFailed, "transcription failed").
			WithProvider(d.provider.Name()).
			WithCause(err)
	}
	return resp, nil
}

// TTSRegistry is the text-to-speech capability registry.
type TTSRegistry struct {
	*Registry[TTSProvider]
}

// NewTTSRegistry creates an empty TTS registry.
func NewTTSRegistry(logger *zap.Logger) *TTSRegistry {
	return &TTSRegistry{Registry: NewRegistry[TTSProvider](CapabilityTTS, logger)}
}

// Synthesize dispatches to the active provider after ensuring it is
// initialized. Empty text yields an immediately closed empty stream.
func (r *TTSRegistry) Synthesize(ctx context.Context, req *SynthesizeRequest) (<-chan AudioChunk, error) {
	if strings.TrimSpace(req.Text) == "" {
		r.logger.Warn("empty text, skipping synthesis")
		empty := make(chan AudioChunk)
		close(empty)
		return empty, nil
	}

	d, err := r.activeDescriptor()
	if err != nil {
		return nil, err
	}
	if err := d.ensureReady(ctx, r.capability, r.logger); err != nil {
		return nil, err
	}

	stream, err := d.provider.Synthesize(ctx, req)
	if err != nil {
		return nil, types.NewError(types.ErrSynthesisFailed, "synthesis failed").
			WithProvider(d.provider.Name()).
			WithCause(err)
	}
	return stream, nil
}
