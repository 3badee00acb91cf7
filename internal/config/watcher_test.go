// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestConfig(t *testing.T, path, defaultModel string) {
	t.Helper()

	content := `
[chat]
models = ["deepseek-r1:7b", "deepseek-r1:14b"]
default_model = "` + defaultModel + `"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "deepseek-r1:7b")

	reloaded := make(chan *Config, 1)
	watcher, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer watcher.Close()

	if err := watcher.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeTestConfig(t, path, "deepseek-r1:14b")

	select {
	case cfg := <-reloaded:
		if cfg.Chat.DefaultModel != "deepseek-r1:14b" {
			t.Errorf("reloaded default model = %q, want deepseek-r1:14b", cfg.Chat.DefaultModel)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload within 3s of config change")
	}
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "deepseek-r1:7b")

	reloaded := make(chan *Config, 1)
	watcher, err := NewWatcher(path, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer watcher.Close()

	if err := watcher.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// A broken file must not reach the callback
	if err := os.WriteFile(path, []byte("default_model = [broken"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Errorf("invalid config was delivered: %+v", cfg)
	case <-time.After(time.Second):
	}
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeTestConfig(t, path, "deepseek-r1:7b")

	watcher, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := watcher.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
