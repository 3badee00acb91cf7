// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with the Ollama API.
package ollama

import (
	"context"
	"fmt"
	"log"
	"time"
)

// =============================================================================
// STARTUP AVAILABILITY GATE
// =============================================================================

// Gate defaults, used when the caller passes zero values.
const (
	DefaultProbeRetries = 3
	DefaultProbeDelay   = 3 * time.Second
)

// WaitUntilReady blocks until Ollama answers a readiness probe, or until
// retries are exhausted.
//
// It performs up to retries sequential probes of the /api/tags endpoint,
// each bounded by the client's ProbeTimeout, sleeping delay between failed
// attempts. The first healthy probe returns nil. If every attempt fails the
// returned error wraps the last probe error; callers gate process startup on
// it and must not serve traffic against an unreachable backend.
func (c *Client) WaitUntilReady(ctx context.Context, retries int, delay time.Duration) error {
	if retries <= 0 {
		retries = DefaultProbeRetries
	}
	if delay <= 0 {
		delay = DefaultProbeDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		err := c.CheckRunning(ctx)
		if err == nil {
			log.Printf("BACKEND_READY | url=%s attempt=%d/%d", c.config.BaseURL, attempt, retries)
			return nil
		}
		lastErr = err
		log.Printf("BACKEND_PROBE_FAILED | url=%s attempt=%d/%d error=%v", c.config.BaseURL, attempt, retries, err)

		// No sleep after the final attempt
		if attempt == retries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("readiness probe canceled: %w", ctx.Err())
		}
	}

	log.Printf("BACKEND_UNREACHABLE | url=%s attempts=%d", c.config.BaseURL, retries)
	return fmt.Errorf("ollama unreachable after %d attempts: %w", retries, lastErr)
}
