package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fernvoice/fernando"
	"github.com/fernvoice/fernando/agent"
	"github.com/fernvoice/fernando/config"
	"github.com/fernvoice/fernando/internal/metrics"
	"github.com/fernvoice/fernando/internal/wavpcm"
)

type server struct {
	cfg       *config.Config
	collector *metrics.Collector
	registry  *prometheus.Registry
	logger    *zap.Logger
	codec     *wavpcm.Codec
	upgrader  websocket.Upgrader
}

func newServer(cfg *config.Config, collector *metrics.Collector, registry *prometheus.Registry, logger *zap.Logger) *server {
	return &server{
		cfg:       cfg,
		collector: collector,
		registry:  registry,
		logger:    logger,
		codec:     wavpcm.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 16,
		},
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleSession)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", s.cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// controlMessage is the JSON shape of text frames from the client.
type controlMessage struct {
	Type       string `json:"type"`                 // "reset" or "select"
	Capability string `json:"capability,omitempty"` // "stt" or "tts"
	Provider   string `json:"provider,omitempty"`
}

type eventMessage struct {
	Type      string `json:"type"` // "session", "error"
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// handleSession upgrades the connection and runs one agent per client.
// Binary frames carry WAV audio in; binary frames carry WAV audio out.
func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()
	logger := s.logger.With(zap.String("session_id", sessionID))

	a, err := fernando.New(s.cfg, s.collector, logger)
	if err != nil {
		logger.Error("failed to build agent", zap.Error(err))
		_ = conn.WriteJSON(eventMessage{Type: "error", Message: "agent construction failed"})
		return
	}
	logger.Info("session started")
	_ = conn.WriteJSON(eventMessage{Type: "session", SessionID: sessionID})

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			logger.Info("session closed", zap.Error(err))
			return
		}

		switch msgType {
		case websocket.TextMessage:
			s.handleControl(a, logger, data)
		case websocket.BinaryMessage:
			s.handleAudio(ctx, a, conn, logger, data)
		}
	}
}

func (s *server) handleControl(a *agent.Agent, logger *zap.Logger, data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn("malformed control message", zap.Error(err))
		return
	}
	switch msg.Type {
	case "reset":
		a.Reset()
	case "select":
		var err error
		switch msg.Capability {
		case "stt":
			err = a.STT().Select(msg.Provider)
		case "tts":
			err = a.TTS().Select(msg.Provider)
		}
		if err != nil {
			logger.Warn("provider selection rejected",
				zap.String("capability", msg.Capability),
				zap.String("provider", msg.Provider),
			)
		}
	}
}

func (s *server) handleAudio(ctx context.Context, a *agent.Agent, conn *websocket.Conn, logger *zap.Logger, data []byte) {
	in, err := s.codec.DecodeWAV(data)
	if err != nil {
		logger.Warn("undecodable audio frame", zap.Error(err))
		_ = conn.WriteJSON(eventMessage{Type: "error", Message: "undecodable audio"})
		return
	}

	stream, err := a.HandleTurn(ctx, in)
	if err != nil {
		_ = conn.WriteJSON(eventMessage{Type: "error", Message: err.Error()})
		if stream == nil {
			return
		}
	}

	for chunk := range stream {
		if chunk.Err != nil {
			logger.Error("synthesis stream error", zap.Error(chunk.Err))
			_ = conn.WriteJSON(eventMessage{Type: "error", Message: chunk.Err.Error()})
			return
		}
		wav, encErr := s.codec.EncodeWAV(chunk.Audio)
		if encErr != nil {
			logger.Error("failed to encode reply audio", zap.Error(encErr))
			return
		}
		if writeErr := conn.WriteMessage(websocket.BinaryMessage, wav); writeErr != nil {
			logger.Error("websocket write failed", zap.Error(writeErr))
			return
		}
	}
}
