// codemate - A browser front-end for local LLM coding chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/morganforge/codemate/internal/config"
	"github.com/morganforge/codemate/internal/engine"
	"github.com/morganforge/codemate/internal/ollama"
	"github.com/morganforge/codemate/internal/server"
	"github.com/morganforge/codemate/internal/session"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// shutdownTimeout bounds how long graceful shutdown may take before the
// process exits anyway.
const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (default ~/.codemate/config.toml)")
		addr        = flag.String("addr", "", "listen address override (host:port)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("codemate %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if err := run(*configPath, *addr); err != nil {
		log.Printf("FATAL | error=%v", err)
		os.Exit(1)
	}
}

func run(configPath, addrOverride string) error {
	// Load configuration
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	addr := cfg.ListenAddr()
	if addrOverride != "" {
		addr = addrOverride
	}

	// Backend client
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.ChatTimeout(),
		ProbeTimeout: cfg.ProbeTimeout(),
	})

	// Availability gate: the server only comes up against a reachable
	// backend. A backend that never answers is a deployment problem, not
	// something to limp along with.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.WaitUntilReady(ctx, cfg.Ollama.ProbeRetries, cfg.ProbeDelay()); err != nil {
		return fmt.Errorf("ollama backend unavailable at %s: %w", client.BaseURL(), err)
	}

	// Conversation wiring
	factory := engine.NewFactory(client, cfg.Chat.Models)
	sess := session.New(factory, cfg.ChatTimeout())
	srv := server.NewServer(addr, client, factory, sess, cfg.Chat.DefaultModel)

	// Reload the offered model set when the config file changes on disk
	watchPath := configPath
	if watchPath == "" {
		if p, err := config.ConfigPath(); err == nil {
			watchPath = p
		}
	}
	if watchPath != "" {
		watcher, err := config.NewWatcher(watchPath, func(fresh *config.Config) {
			factory.SetModels(fresh.Chat.Models)
			log.Printf("MODELS_RELOADED | count=%d", len(fresh.Chat.Models))
		})
		if err != nil {
			log.Printf("CONFIG_WATCH_UNAVAILABLE | error=%v", err)
		} else if err := watcher.Watch(); err != nil {
			log.Printf("CONFIG_WATCH_UNAVAILABLE | error=%v", err)
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	// Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
