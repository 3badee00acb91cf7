// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the HTTP front-end for codemate.
//
// The server serves an embedded single-page chat UI and a small JSON API
// that drives it.
//
// # Endpoints
//
//   - GET  /            - Embedded chat page
//   - POST /api/chat    - Run one request/response cycle
//   - POST /api/reset   - Clear the conversation
//   - GET  /api/models  - List selectable models
//   - GET  /health      - Health check
//
// # Middleware
//
// All routes pass through a middleware chain providing panic recovery,
// security headers, request logging, and per-IP rate limiting.
//
// # Usage
//
//	srv := server.NewServer(cfg.ListenAddr(), client, factory, sess, cfg.Chat.DefaultModel)
//	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
//	    log.Fatal(err)
//	}
package server
