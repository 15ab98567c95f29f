// Package http exposes the City Explorer HTTP surface: health and metrics
// endpoints, the shared location state (snapshot and server-sent event
// stream), and the chat API backed by the assistant.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/city-explorer/internal/assistant"
	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/couchcryptid/city-explorer/internal/state"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ChatSession is the conversation surface the chat endpoints drive. Nil means
// the assistant is disabled and chat endpoints answer 503.
type ChatSession interface {
	Send(ctx context.Context, text string) <-chan assistant.Event
	Reset()
	Transcript() []domain.ChatMessage
}

// Server exposes the HTTP API.
type Server struct {
	httpServer *http.Server
	store      *state.Store
	session    ChatSession
	logger     *slog.Logger
}

// NewServer wires all routes. session may be nil when no assistant is
// configured.
func NewServer(addr string, store *state.Store, session ChatSession, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: the location and chat streams are long-lived.
			IdleTimeout: 60 * time.Second,
		},
		store:   store,
		session: session,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/location", s.handleLocation)
	mux.HandleFunc("GET /api/location/stream", s.handleLocationStream)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/new", s.handleChatNew)
	mux.HandleFunc("GET /api/chat/history", s.handleChatHistory)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleLocation returns the current shared location snapshot.
func (s *Server) handleLocation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleLocationStream pushes every location state change as a server-sent
// event, starting with the current snapshot.
func (s *Server) handleLocationStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	updates, cancel := s.store.Subscribe()
	defer cancel()

	sseHeaders(w)
	writeSSE(w, "location", s.store.Snapshot())
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			writeSSE(w, "location", snapshot)
			flusher.Flush()
		}
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChat submits one user message and streams the assistant's reply as
// server-sent events, one per assistant event.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "assistant not configured"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message must not be empty"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	events := s.session.Send(r.Context(), req.Message)

	sseHeaders(w)
	flusher.Flush()

	for ev := range events {
		writeSSE(w, string(ev.Kind), ev)
		flusher.Flush()
	}
}

// handleChatNew aborts any in-flight reply and starts a fresh conversation.
func (s *Server) handleChatNew(w http.ResponseWriter, _ *http.Request) {
	if s.session == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "assistant not configured"})
		return
	}
	s.session.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleChatHistory returns the user-visible transcript of the conversation.
func (s *Server) handleChatHistory(w http.ResponseWriter, _ *http.Request) {
	if s.session == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "assistant not configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.session.Transcript())
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

func writeSSE(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")) //nolint:errcheck // client gone is handled by the request context
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
