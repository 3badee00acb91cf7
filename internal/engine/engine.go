// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine constructs per-turn model handles bound to one model id.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/morganforge/codemate/internal/ollama"
)

// Temperature is the fixed generation temperature for every engine.
const Temperature = 0.3

// ErrUnknownModel is returned by Factory.Get for a model id outside the
// configured set. Callers must surface it to the user rather than failing
// the whole turn.
var ErrUnknownModel = errors.New("unknown model")

// ErrEmptyCompletion is returned when the backend answers but the completion
// text is empty.
var ErrEmptyCompletion = errors.New("model returned an empty response")

// =============================================================================
// ENGINE
// =============================================================================

// Engine is a handle bound to one model identifier and the fixed generation
// temperature. It holds no state beyond the binding and is safe to recreate
// on every turn.
type Engine struct {
	client *ollama.Client
	model  string
}

// Model returns the model identifier the engine is bound to.
func (e *Engine) Model() string {
	return e.model
}

// Generate performs one inference round trip with the given message
// sequence and returns the completion text.
func (e *Engine) Generate(ctx context.Context, messages []ollama.Message) (string, error) {
	resp, err := e.client.Chat(ctx, e.model, messages, &ollama.Options{Temperature: Temperature})
	if err != nil {
		return "", fmt.Errorf("inference call failed for %s: %w", e.model, err)
	}
	if resp.Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Message.Content, nil
}

// =============================================================================
// FACTORY
// =============================================================================

// Factory constructs engines for the set of models the UI offers. The set
// can be swapped at runtime when the configuration is reloaded.
type Factory struct {
	client *ollama.Client

	mu      sync.RWMutex
	models  []string
	allowed map[string]bool
}

// NewFactory creates a factory over the given client and allowed model ids.
func NewFactory(client *ollama.Client, models []string) *Factory {
	f := &Factory{client: client}
	f.SetModels(models)
	return f
}

// SetModels replaces the allowed model set, preserving order.
func (f *Factory) SetModels(models []string) {
	allowed := make(map[string]bool, len(models))
	for _, m := range models {
		allowed[m] = true
	}

	f.mu.Lock()
	f.models = append([]string(nil), models...)
	f.allowed = allowed
	f.mu.Unlock()
}

// Get returns an engine bound to modelID, or ErrUnknownModel when the id is
// not in the configured set. Failures are logged here; the caller decides
// how to surface them.
func (f *Factory) Get(modelID string) (*Engine, error) {
	f.mu.RLock()
	ok := f.allowed[modelID]
	f.mu.RUnlock()

	if modelID == "" || !ok {
		log.Printf("ENGINE_REJECTED | model=%q reason=not_in_configured_set", modelID)
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}

	log.Printf("ENGINE_INIT | model=%s temperature=%.1f", modelID, Temperature)
	return &Engine{client: f.client, model: modelID}, nil
}

// Models returns the allowed model ids in configured order.
func (f *Factory) Models() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.models...)
}
