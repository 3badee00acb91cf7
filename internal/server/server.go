// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP front-end for codemate.
//
// Endpoints:
//   - GET  /            - Embedded chat page
//   - POST /api/chat    - Run one request/response cycle
//   - POST /api/reset   - Clear the conversation
//   - GET  /api/models  - List selectable models
//   - GET  /health      - Health check
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/morganforge/codemate/internal/chat"
	"github.com/morganforge/codemate/internal/engine"
	"github.com/morganforge/codemate/internal/ollama"
	"github.com/morganforge/codemate/internal/session"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address for the HTTP server.
	DefaultAddr = "127.0.0.1:7860"

	// MaxMessageLength is the maximum length for a chat message to prevent DoS.
	MaxMessageLength = 100000

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the server version.
	Version = "1.0.0"
)

//go:embed web/index.html
var indexHTML []byte

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP front-end serving the chat page and its JSON API.
type Server struct {
	addr   string
	router *http.ServeMux
	server *http.Server

	client       *ollama.Client
	factory      *engine.Factory
	session      *session.Session
	defaultModel string
}

// NewServer creates a Server bound to addr. If addr is empty, DefaultAddr
// is used.
func NewServer(addr string, client *ollama.Client, factory *engine.Factory, sess *session.Session, defaultModel string) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:         addr,
		router:       http.NewServeMux(),
		client:       client,
		factory:      factory,
		session:      sess,
		defaultModel: defaultModel,
	}

	s.setupRoutes()
	return s
}

// Addr returns the server listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Chat page
	s.router.HandleFunc("GET /{$}", s.handleIndex)

	// Conversation endpoints
	s.router.HandleFunc("POST /api/chat", s.handleChat)
	s.router.HandleFunc("POST /api/reset", s.handleReset)
	s.router.HandleFunc("GET /api/models", s.handleModels)

	// Health endpoint
	s.router.HandleFunc("GET /health", s.handleHealth)
}

// ============================================================================
// API TYPES
// ============================================================================

// APITurn is the wire representation of one transcript turn.
type APITurn struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// ChatResponse is the response for POST /api/chat and POST /api/reset.
// Input carries the value the page should place back into its input field.
type ChatResponse struct {
	Transcript []APITurn `json:"transcript"`
	Input      string    `json:"input"`
}

// ModelsResponse is the response for GET /api/models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	OllamaStatus string `json:"ollama_status"`
}

// toAPITurns converts a transcript to its wire representation.
func toAPITurns(t chat.Transcript) []APITurn {
	turns := make([]APITurn, len(t))
	for i, turn := range t {
		turns[i] = APITurn{
			ID:        turn.ID,
			Role:      turn.Role.String(),
			Content:   turn.Content,
			Timestamp: turn.Timestamp.Unix(),
		}
	}
	return turns
}

// ============================================================================
// HANDLERS
// ============================================================================

// handleIndex serves the embedded chat page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleChat handles POST /api/chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err.Error() == "http: request body too large" {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds maximum size of %d bytes", MaxRequestBodySize))
			return
		}
		// Log full details internally, return generic message to client
		log.Printf("CHAT_BAD_REQUEST | error=%v", err)
		s.writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if len(req.Message) > MaxMessageLength {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Message exceeds maximum length of %d", MaxMessageLength))
		return
	}

	model := req.Model
	if model == "" {
		model = s.defaultModel
	}

	transcript, input := s.session.Chat(r.Context(), req.Message, model, nil)
	s.writeJSON(w, http.StatusOK, ChatResponse{
		Transcript: toAPITurns(transcript),
		Input:      input,
	})
}

// handleReset handles POST /api/reset.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	input, transcript := s.session.Reset()
	s.writeJSON(w, http.StatusOK, ChatResponse{
		Transcript: toAPITurns(transcript),
		Input:      input,
	})
}

// handleModels handles GET /api/models.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ModelsResponse{
		Models:  s.factory.Models(),
		Default: s.defaultModel,
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:  "ok",
		Version: Version,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.client.CheckRunning(ctx); err == nil {
		health.OllamaStatus = "ok"
	} else {
		health.OllamaStatus = "unavailable"
		health.Status = "degraded"
	}

	s.writeJSON(w, http.StatusOK, health)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Handler returns the fully assembled handler with the middleware chain
// applied.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(DefaultRateLimiter()),
	)(s.router)
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("SERVER_START | addr=%s version=%s", s.addr, Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"code":    status,
		},
	})
}
