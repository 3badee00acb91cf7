// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for conversation transcripts.
package chat

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// TURN TYPE
// =============================================================================

// SeedGreeting is the fixed assistant turn shown before any user interaction.
const SeedGreeting = "Hi! I'm DeepSeek. How can I help you code today? 💻"

// Turn represents a single utterance in a conversation.
// A Turn is immutable once appended to a Transcript.
type Turn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a new turn with a generated ID.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        "turn_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserTurn creates a new user turn.
func NewUserTurn(content string) Turn {
	return NewTurn(RoleUser, content)
}

// NewAssistantTurn creates a new assistant turn.
func NewAssistantTurn(content string) Turn {
	return NewTurn(RoleAssistant, content)
}

// Preview returns a truncated preview of the turn content.
// Uses rune-based truncation to handle Unicode correctly.
func (t Turn) Preview(maxLen int) string {
	runes := []rune(t.Content)
	if len(runes) <= maxLen {
		return t.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is an ordered sequence of turns, oldest first.
// A transcript is never empty after initialization: it always carries at
// least the seed greeting.
type Transcript []Turn

// Seed returns the initial one-element transcript holding the seed greeting.
func Seed() Transcript {
	return Transcript{NewAssistantTurn(SeedGreeting)}
}

// Append returns a new transcript with the turn added. The receiver is not
// mutated; callers hold the returned value.
func (tr Transcript) Append(turn Turn) Transcript {
	out := make(Transcript, 0, len(tr)+1)
	out = append(out, tr...)
	out = append(out, turn)
	return out
}

// Clone returns a copy of the transcript. Turns are value types, so the
// copy shares no mutable state with the original.
func (tr Transcript) Clone() Transcript {
	out := make(Transcript, len(tr))
	copy(out, tr)
	return out
}

// Last returns the most recent turn and true, or a zero Turn and false for
// an empty transcript.
func (tr Transcript) Last() (Turn, bool) {
	if len(tr) == 0 {
		return Turn{}, false
	}
	return tr[len(tr)-1], true
}

// LastAssistant returns the most recent assistant turn, or false if none.
func (tr Transcript) LastAssistant() (Turn, bool) {
	for i := len(tr) - 1; i >= 0; i-- {
		if tr[i].Role == RoleAssistant {
			return tr[i], true
		}
	}
	return Turn{}, false
}

// Len returns the number of turns.
func (tr Transcript) Len() int {
	return len(tr)
}
