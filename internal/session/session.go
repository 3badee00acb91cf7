// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the conversation transcript and runs one
// request/response cycle per chat invocation.
package session

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/morganforge/codemate/internal/chat"
	"github.com/morganforge/codemate/internal/engine"
	"github.com/morganforge/codemate/internal/ollama"
	"github.com/morganforge/codemate/internal/prompt"
	"github.com/morganforge/codemate/internal/util"
)

// Fixed placeholder contents surfaced as assistant turns when a cycle fails.
// Recoverable failures never propagate to the UI shell as errors; the
// transcript stays well-formed and the session keeps serving later turns.
const (
	UnavailablePlaceholder = "⚠️ Model unavailable. Check the selected model and try again."
	ErrorPlaceholder       = "⚠️ Error: the model did not return a response."
)

// DefaultChatTimeout bounds a single inference round trip. The backend has
// no contracted timeout for inference, but an unbounded call could hang the
// session forever.
const DefaultChatTimeout = 120 * time.Second

// logInputPreview is how much of the user input makes it into log lines.
const logInputPreview = 80

// =============================================================================
// SESSION
// =============================================================================

// Session holds the mutable transcript for one conversation and applies one
// request/response cycle per Chat call. Transcript mutation is serialized:
// at most one in-flight cycle at a time, so the append-ordering invariant
// (each user turn immediately followed by one assistant turn) always holds.
type Session struct {
	mu          sync.Mutex
	factory     *engine.Factory
	transcript  chat.Transcript
	chatTimeout time.Duration
}

// New creates a session seeded with the initial greeting.
func New(factory *engine.Factory, chatTimeout time.Duration) *Session {
	if chatTimeout <= 0 {
		chatTimeout = DefaultChatTimeout
	}
	return &Session{
		factory:     factory,
		transcript:  chat.Seed(),
		chatTimeout: chatTimeout,
	}
}

// Snapshot returns a copy of the current transcript for rendering.
func (s *Session) Snapshot() chat.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Clone()
}

// =============================================================================
// CHAT CYCLE
// =============================================================================

// Chat applies one request/response cycle and returns the updated transcript
// plus the string to place back into the input field (always empty once a
// cycle ran). It never returns an error: engine construction and inference
// failures become fixed placeholder assistant turns.
//
// transcriptIn is the state echoed back by the UI shell; a nil transcript
// means "continue from the session's own state". Blank input is a no-op:
// the transcript comes back unchanged and no engine call is made.
func (s *Session) Chat(ctx context.Context, userText, modelID string, transcriptIn chat.Transcript) (chat.Transcript, string) {
	if strings.TrimSpace(userText) == "" {
		if transcriptIn != nil {
			return transcriptIn, ""
		}
		return s.Snapshot(), ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.transcript
	if transcriptIn != nil {
		working = transcriptIn.Clone()
	}

	log.Printf("CHAT_REQUEST | model=%s input=%q", modelID, util.TruncateRunes(userText, logInputPreview))

	// The prompt is assembled from the history as it stood before this
	// turn; userText rides separately so it is never duplicated.
	messages := prompt.Build(working, userText)
	working = working.Append(chat.NewUserTurn(userText))

	reply := s.generate(ctx, modelID, messages)
	working = working.Append(chat.NewAssistantTurn(reply))

	s.transcript = working
	return working, ""
}

// generate resolves the engine and runs one inference call, collapsing every
// failure into the matching placeholder string.
func (s *Session) generate(ctx context.Context, modelID string, messages []ollama.Message) string {
	eng, err := s.factory.Get(modelID)
	if err != nil {
		log.Printf("CHAT_ENGINE_UNAVAILABLE | model=%s error=%v", modelID, err)
		return UnavailablePlaceholder
	}

	callCtx, cancel := context.WithTimeout(ctx, s.chatTimeout)
	defer cancel()

	reply, err := eng.Generate(callCtx, messages)
	if err != nil {
		log.Printf("CHAT_INFERENCE_FAILED | model=%s error=%v", modelID, err)
		return ErrorPlaceholder
	}

	log.Printf("CHAT_RESPONSE | model=%s output=%q", modelID, util.TruncateRunes(reply, logInputPreview))
	return reply
}

// =============================================================================
// RESET
// =============================================================================

// Reset discards all turns and restores the one-element seed transcript.
// It has no error conditions and is idempotent.
func (s *Session) Reset() (string, chat.Transcript) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Printf("CHAT_RESET | turns_discarded=%d", len(s.transcript))
	s.transcript = chat.Seed()
	return "", s.transcript.Clone()
}
