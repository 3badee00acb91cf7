// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt assembles the message sequence sent to the model.
package prompt

import (
	"github.com/morganforge/codemate/internal/chat"
	"github.com/morganforge/codemate/internal/ollama"
)

// SystemInstruction is the fixed system prompt for every inference call.
// It is configuration, not user input: the UI has no way to change it.
const SystemInstruction = `You are an expert AI coding assistant. Provide concise, correct solutions
with strategic print statements for debugging. Always respond in English.`

// Build composes the exact message sequence for one inference call:
// the system instruction, every turn of history in original order, then the
// new user message. History excludes the user turn being sent; the caller
// passes it separately as userText so it is never duplicated.
//
// Build is a pure function: it never mutates history.
func Build(history chat.Transcript, userText string) []ollama.Message {
	messages := make([]ollama.Message, 0, len(history)+2)

	messages = append(messages, ollama.NewSystemMessage(SystemInstruction))

	for _, turn := range history {
		messages = append(messages, ollama.Message{
			Role:    turn.Role.String(),
			Content: turn.Content,
		})
	}

	messages = append(messages, ollama.NewUserMessage(userText))
	return messages
}
