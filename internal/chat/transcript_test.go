// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"
)

// =============================================================================
// ROLE TESTS
// =============================================================================

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleAssistant, RoleSystem} {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}

	if Role("tool").Valid() {
		t.Error("Role(\"tool\").Valid() = true, want false")
	}
}

func TestRole_String(t *testing.T) {
	if RoleUser.String() != "user" {
		t.Errorf("RoleUser.String() = %q, want %q", RoleUser.String(), "user")
	}
	if RoleAssistant.String() != "assistant" {
		t.Errorf("RoleAssistant.String() = %q, want %q", RoleAssistant.String(), "assistant")
	}
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestNewTurn(t *testing.T) {
	turn := NewTurn(RoleUser, "hello")

	if turn.Role != RoleUser {
		t.Errorf("Role = %q, want %q", turn.Role, RoleUser)
	}
	if turn.Content != "hello" {
		t.Errorf("Content = %q, want %q", turn.Content, "hello")
	}
	if !strings.HasPrefix(turn.ID, "turn_") {
		t.Errorf("ID = %q, want turn_ prefix", turn.ID)
	}
	if turn.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewTurn_UniqueIDs(t *testing.T) {
	a := NewTurn(RoleUser, "a")
	b := NewTurn(RoleUser, "b")

	if a.ID == b.ID {
		t.Errorf("two turns share ID %q", a.ID)
	}
}

func TestTurn_Preview(t *testing.T) {
	turn := NewUserTurn("héllo wörld, this is a longer message")

	preview := turn.Preview(10)
	if len([]rune(preview)) > 10 {
		t.Errorf("Preview(10) = %q, longer than 10 runes", preview)
	}

	short := NewUserTurn("hi")
	if short.Preview(10) != "hi" {
		t.Errorf("Preview(10) = %q, want %q", short.Preview(10), "hi")
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestSeed(t *testing.T) {
	transcript := Seed()

	if len(transcript) != 1 {
		t.Fatalf("Seed() has %d turns, want 1", len(transcript))
	}
	if transcript[0].Role != RoleAssistant {
		t.Errorf("seed turn role = %q, want %q", transcript[0].Role, RoleAssistant)
	}
	if transcript[0].Content != SeedGreeting {
		t.Errorf("seed turn content = %q, want greeting", transcript[0].Content)
	}
}

func TestTranscript_Append(t *testing.T) {
	base := Seed()
	extended := base.Append(NewUserTurn("question"))

	if len(base) != 1 {
		t.Errorf("base transcript mutated: len = %d, want 1", len(base))
	}
	if len(extended) != 2 {
		t.Fatalf("extended transcript len = %d, want 2", len(extended))
	}
	if extended[1].Content != "question" {
		t.Errorf("appended content = %q, want %q", extended[1].Content, "question")
	}
}

func TestTranscript_AppendPreservesOrder(t *testing.T) {
	transcript := Seed().
		Append(NewUserTurn("first")).
		Append(NewAssistantTurn("second")).
		Append(NewUserTurn("third"))

	want := []string{SeedGreeting, "first", "second", "third"}
	for i, w := range want {
		if transcript[i].Content != w {
			t.Errorf("turn %d content = %q, want %q", i, transcript[i].Content, w)
		}
	}
}

func TestTranscript_Clone(t *testing.T) {
	original := Seed().Append(NewUserTurn("hello"))
	clone := original.Clone()

	if len(clone) != len(original) {
		t.Fatalf("clone len = %d, want %d", len(clone), len(original))
	}

	// Appending to the clone must not reach the original
	clone = clone.Append(NewAssistantTurn("reply"))
	if len(original) != 2 {
		t.Errorf("original len after clone append = %d, want 2", len(original))
	}
}

func TestTranscript_CloneNil(t *testing.T) {
	var transcript Transcript
	clone := transcript.Clone()
	if clone == nil {
		t.Error("Clone() of nil transcript should be non-nil empty")
	}
	if len(clone) != 0 {
		t.Errorf("clone len = %d, want 0", len(clone))
	}
}

func TestTranscript_Last(t *testing.T) {
	transcript := Seed().Append(NewUserTurn("latest"))

	last, ok := transcript.Last()
	if !ok {
		t.Fatal("Last() reported empty transcript")
	}
	if last.Content != "latest" {
		t.Errorf("Last().Content = %q, want %q", last.Content, "latest")
	}

	var empty Transcript
	if _, ok := empty.Last(); ok {
		t.Error("Last() on empty transcript reported a turn")
	}
}

func TestTranscript_LastAssistant(t *testing.T) {
	transcript := Seed().
		Append(NewUserTurn("q1")).
		Append(NewAssistantTurn("a1")).
		Append(NewUserTurn("q2"))

	last, ok := transcript.LastAssistant()
	if !ok {
		t.Fatal("LastAssistant() found nothing")
	}
	if last.Content != "a1" {
		t.Errorf("LastAssistant().Content = %q, want %q", last.Content, "a1")
	}
}
