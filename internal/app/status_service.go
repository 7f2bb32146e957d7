package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/headsetd/internal/config"
	"github.com/dokzlo13/headsetd/internal/settings"
)

// StatusSource provides the latest monitor state and accepts intents
type StatusSource interface {
	Status() Status
	Submit(in settings.Intent) bool
}

// StatusService provides the local HTTP status and control endpoints.
type StatusService struct {
	cfg    *config.Config
	source StatusSource
	server *http.Server
}

// NewStatusService creates a new StatusService.
func NewStatusService(cfg *config.Config, source StatusSource) *StatusService {
	return &StatusService{
		cfg:    cfg,
		source: source,
	}
}

// Start begins the status server if enabled.
func (s *StatusService) Start(ctx context.Context) {
	if !s.cfg.Status.Enabled {
		return
	}

	go s.run(ctx)
}

// Handler returns the HTTP routes
func (s *StatusService) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, s.source.Status())
	})

	mux.HandleFunc("/intents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var in settings.Intent
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid intent: %v", err)})
			return
		}
		// Validate against the current settings, the monitor applies it for real
		if _, err := s.source.Status().Settings.Apply(in); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if !s.source.Submit(in) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "intent queue full"})
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})

	return mux
}

func (s *StatusService) run(ctx context.Context) {
	addr := fmt.Sprintf("%s:%d", s.cfg.Status.GetHost(), s.cfg.Status.GetPort())

	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", addr).Msg("Starting status server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Status server shutdown error")
		}
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Status server error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}
