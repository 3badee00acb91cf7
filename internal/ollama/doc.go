// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package implements a client for the Ollama local LLM server,
// supporting non-streaming chat completions, model listing, and the
// startup readiness gate that blocks the process until the backend is
// reachable.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - ChatRequest: Request structure for chat completions
//   - ChatResponse: Response structure with message and metrics
//   - ClientError: Typed error with an ErrorType category
//
// # Usage
//
// Create a client, gate startup on backend availability, then chat:
//
//	client := ollama.NewClient()
//	if err := client.WaitUntilReady(ctx, 3, 3*time.Second); err != nil {
//	    log.Fatal(err) // do not serve traffic without a backend
//	}
//	resp, err := client.Chat(ctx, "deepseek-r1:1.5b", messages, nil)
package ollama
