// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/morganforge/codemate/internal/chat"
	"github.com/morganforge/codemate/internal/engine"
	"github.com/morganforge/codemate/internal/ollama"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const testModel = "deepseek-r1:7b"

// newTestSession wires a session to a fake backend that always answers with
// reply. The returned cleanup closes the backend.
func newTestSession(t *testing.T, reply string) (*Session, func()) {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollama.ChatResponse{
			Model:   testModel,
			Message: ollama.NewAssistantMessage(reply),
			Done:    true,
		})
	}))

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      ts.URL,
		Timeout:      5 * time.Second,
		ProbeTimeout: time.Second,
	})
	factory := engine.NewFactory(client, []string{testModel})

	return New(factory, 5*time.Second), ts.Close
}

// newFailingSession wires a session to a backend that always returns 500.
func newFailingSession(t *testing.T) (*Session, func()) {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      ts.URL,
		Timeout:      5 * time.Second,
		ProbeTimeout: time.Second,
	})
	factory := engine.NewFactory(client, []string{testModel})

	return New(factory, 5*time.Second), ts.Close
}

// =============================================================================
// CHAT CYCLE TESTS
// =============================================================================

func TestChat_AppendsUserAndAssistantTurns(t *testing.T) {
	sess, cleanup := newTestSession(t, "use a for loop")
	defer cleanup()

	before := sess.Snapshot()
	transcript, input := sess.Chat(context.Background(), "how do I iterate?", testModel, nil)

	if len(transcript) != len(before)+2 {
		t.Fatalf("transcript len = %d, want %d", len(transcript), len(before)+2)
	}
	if input != "" {
		t.Errorf("input = %q, want empty", input)
	}

	userTurn := transcript[len(transcript)-2]
	assistantTurn := transcript[len(transcript)-1]

	if userTurn.Role != chat.RoleUser || userTurn.Content != "how do I iterate?" {
		t.Errorf("user turn = %+v", userTurn)
	}
	if assistantTurn.Role != chat.RoleAssistant || assistantTurn.Content != "use a for loop" {
		t.Errorf("assistant turn = %+v", assistantTurn)
	}
}

func TestChat_BlankInputIsNoOp(t *testing.T) {
	sess, cleanup := newTestSession(t, "should never be called")
	defer cleanup()

	for _, input := range []string{"", "   ", "\t\n"} {
		transcript, cleared := sess.Chat(context.Background(), input, testModel, nil)
		if len(transcript) != 1 {
			t.Errorf("Chat(%q) transcript len = %d, want untouched seed", input, len(transcript))
		}
		if cleared != "" {
			t.Errorf("Chat(%q) input = %q, want empty", input, cleared)
		}
	}

	if sess.Snapshot().Len() != 1 {
		t.Errorf("session transcript len = %d, want untouched seed", sess.Snapshot().Len())
	}
}

func TestChat_TurnsAccumulate(t *testing.T) {
	sess, cleanup := newTestSession(t, "answer")
	defer cleanup()

	ctx := context.Background()
	sess.Chat(ctx, "first", testModel, nil)
	transcript, _ := sess.Chat(ctx, "second", testModel, nil)

	// seed + 2 cycles of 2 turns
	if len(transcript) != 5 {
		t.Fatalf("transcript len = %d, want 5", len(transcript))
	}
	if transcript[1].Content != "first" || transcript[3].Content != "second" {
		t.Errorf("turn order wrong: %q, %q", transcript[1].Content, transcript[3].Content)
	}
}

func TestChat_WithEchoedTranscript(t *testing.T) {
	sess, cleanup := newTestSession(t, "answer")
	defer cleanup()

	echoed := chat.Seed().
		Append(chat.NewUserTurn("q1")).
		Append(chat.NewAssistantTurn("a1"))

	transcript, _ := sess.Chat(context.Background(), "q2", testModel, echoed)

	if len(transcript) != len(echoed)+2 {
		t.Fatalf("transcript len = %d, want %d", len(transcript), len(echoed)+2)
	}
	if len(echoed) != 3 {
		t.Errorf("echoed transcript mutated: len = %d, want 3", len(echoed))
	}
}

// =============================================================================
// FAILURE PLACEHOLDER TESTS
// =============================================================================

func TestChat_UnknownModelPlaceholder(t *testing.T) {
	sess, cleanup := newTestSession(t, "should not be reached")
	defer cleanup()

	transcript, input := sess.Chat(context.Background(), "hello", "made-up-model", nil)

	if input != "" {
		t.Errorf("input = %q, want empty", input)
	}
	last := transcript[len(transcript)-1]
	if last.Role != chat.RoleAssistant {
		t.Errorf("last turn role = %q, want assistant", last.Role)
	}
	if last.Content != UnavailablePlaceholder {
		t.Errorf("last turn content = %q, want unavailable placeholder", last.Content)
	}

	// The user turn is still recorded before the placeholder
	userTurn := transcript[len(transcript)-2]
	if userTurn.Role != chat.RoleUser || userTurn.Content != "hello" {
		t.Errorf("user turn = %+v", userTurn)
	}
}

func TestChat_BackendErrorPlaceholder(t *testing.T) {
	sess, cleanup := newFailingSession(t)
	defer cleanup()

	transcript, _ := sess.Chat(context.Background(), "hello", testModel, nil)

	last := transcript[len(transcript)-1]
	if last.Content != ErrorPlaceholder {
		t.Errorf("last turn content = %q, want error placeholder", last.Content)
	}
	if len(transcript) != 3 {
		t.Errorf("transcript len = %d, want seed + user + placeholder", len(transcript))
	}
}

func TestChat_SessionSurvivesFailures(t *testing.T) {
	sess, cleanup := newFailingSession(t)
	defer cleanup()

	ctx := context.Background()
	sess.Chat(ctx, "first", testModel, nil)
	transcript, _ := sess.Chat(ctx, "second", testModel, nil)

	// Two failed cycles still produce well-formed pairs
	if len(transcript) != 5 {
		t.Fatalf("transcript len = %d, want 5", len(transcript))
	}
	for i := 1; i < len(transcript); i += 2 {
		if transcript[i].Role != chat.RoleUser {
			t.Errorf("turn %d role = %q, want user", i, transcript[i].Role)
		}
		if transcript[i+1].Role != chat.RoleAssistant {
			t.Errorf("turn %d role = %q, want assistant", i+1, transcript[i+1].Role)
		}
	}
}

// =============================================================================
// RESET TESTS
// =============================================================================

func TestReset(t *testing.T) {
	sess, cleanup := newTestSession(t, "answer")
	defer cleanup()

	sess.Chat(context.Background(), "question", testModel, nil)

	input, transcript := sess.Reset()
	if input != "" {
		t.Errorf("Reset() input = %q, want empty", input)
	}
	if len(transcript) != 1 {
		t.Fatalf("Reset() transcript len = %d, want 1", len(transcript))
	}
	if transcript[0].Content != chat.SeedGreeting {
		t.Errorf("Reset() seed content = %q", transcript[0].Content)
	}
}

func TestReset_Idempotent(t *testing.T) {
	sess, cleanup := newTestSession(t, "answer")
	defer cleanup()

	_, first := sess.Reset()
	_, second := sess.Reset()

	if len(first) != 1 || len(second) != 1 {
		t.Errorf("repeated Reset() lens = %d, %d, want 1, 1", len(first), len(second))
	}
	if first[0].Content != second[0].Content {
		t.Errorf("repeated Reset() contents differ: %q vs %q", first[0].Content, second[0].Content)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	sess, cleanup := newTestSession(t, "answer")
	defer cleanup()

	snap := sess.Snapshot()
	_ = snap.Append(chat.NewUserTurn("smuggled"))

	if sess.Snapshot().Len() != 1 {
		t.Errorf("session transcript len = %d, want 1 after snapshot append", sess.Snapshot().Len())
	}
}
