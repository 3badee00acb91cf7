// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for codemate.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.codemate/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/morganforge/codemate/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete codemate configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`

	// HTTP server configuration
	Server ServerConfig `toml:"server"`

	// Local (Ollama) backend configuration
	Ollama OllamaConfig `toml:"ollama"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the interface to bind the HTTP server to
	Host string `toml:"host"`
	// Port is the TCP port for the HTTP server
	Port int `toml:"port"`
}

// OllamaConfig contains local Ollama backend configuration.
type OllamaConfig struct {
	// URL is the base URL of the Ollama server
	URL string `toml:"url"`
	// ProbeRetries is the number of availability probes at startup
	ProbeRetries int `toml:"probe_retries"`
	// ProbeDelaySecs is the fixed delay between probes in seconds
	ProbeDelaySecs int `toml:"probe_delay_secs"`
	// ProbeTimeoutSecs is the per-probe request timeout in seconds
	ProbeTimeoutSecs int `toml:"probe_timeout_secs"`
	// ChatTimeoutSecs bounds a single inference round trip in seconds
	ChatTimeoutSecs int `toml:"chat_timeout_secs"`
}

// ChatConfig contains conversation configuration.
type ChatConfig struct {
	// Models is the set of model identifiers offered in the UI
	Models []string `toml:"models"`
	// DefaultModel is the model preselected in the UI
	DefaultModel string `toml:"default_model"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7860,
		},

		Ollama: OllamaConfig{
			URL:              "http://127.0.0.1:11434",
			ProbeRetries:     3,
			ProbeDelaySecs:   3,
			ProbeTimeoutSecs: 5,
			ChatTimeoutSecs:  120,
		},

		Chat: ChatConfig{
			Models: []string{
				"deepseek-r1:1.5b",
				"deepseek-r1:7b",
				"deepseek-r1:14b",
			},
			DefaultModel: "deepseek-r1:7b",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the codemate configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".codemate"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Environment overrides are applied after the file.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Server
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}

	// Ollama
	if cfg.Ollama.URL == "" {
		cfg.Ollama.URL = defaults.Ollama.URL
	}
	if cfg.Ollama.ProbeRetries == 0 {
		cfg.Ollama.ProbeRetries = defaults.Ollama.ProbeRetries
	}
	if cfg.Ollama.ProbeDelaySecs == 0 {
		cfg.Ollama.ProbeDelaySecs = defaults.Ollama.ProbeDelaySecs
	}
	if cfg.Ollama.ProbeTimeoutSecs == 0 {
		cfg.Ollama.ProbeTimeoutSecs = defaults.Ollama.ProbeTimeoutSecs
	}
	if cfg.Ollama.ChatTimeoutSecs == 0 {
		cfg.Ollama.ChatTimeoutSecs = defaults.Ollama.ChatTimeoutSecs
	}

	// Chat
	if len(cfg.Chat.Models) == 0 {
		cfg.Chat.Models = append([]string(nil), defaults.Chat.Models...)
	}
	if cfg.Chat.DefaultModel == "" {
		cfg.Chat.DefaultModel = defaults.Chat.DefaultModel
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# codemate configuration file")
	fmt.Fprintln(&buf, "# Generated by codemate - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Server settings
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	// Ollama settings
	if c.Ollama.URL == "" {
		errs = append(errs, ValidationError{
			Field:   "ollama.url",
			Message: "must not be empty",
		})
	} else {
		u, err := url.Parse(c.Ollama.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Ollama.URL),
			})
		}
	}
	if c.Ollama.ProbeRetries < 1 {
		errs = append(errs, ValidationError{
			Field:   "ollama.probe_retries",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Ollama.ProbeRetries),
		})
	}
	if c.Ollama.ProbeDelaySecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "ollama.probe_delay_secs",
			Message: fmt.Sprintf("cannot be negative, got %d", c.Ollama.ProbeDelaySecs),
		})
	}
	if c.Ollama.ProbeTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "ollama.probe_timeout_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Ollama.ProbeTimeoutSecs),
		})
	}
	if c.Ollama.ChatTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "ollama.chat_timeout_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Ollama.ChatTimeoutSecs),
		})
	}

	// Chat settings
	if len(c.Chat.Models) == 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.models",
			Message: "must list at least one model",
		})
	}
	if c.Chat.DefaultModel != "" {
		found := false
		for _, m := range c.Chat.Models {
			if m == c.Chat.DefaultModel {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, ValidationError{
				Field:   "chat.default_model",
				Message: fmt.Sprintf("'%s' is not in chat.models", c.Chat.DefaultModel),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported variables:
//   - CODEMATE_OLLAMA_URL: overrides ollama.url
//   - CODEMATE_MODEL: overrides chat.default_model
//   - CODEMATE_HOST: overrides server.host
//   - CODEMATE_PORT: overrides server.port
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CODEMATE_OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("CODEMATE_MODEL"); v != "" {
		c.Chat.DefaultModel = v
		// A model forced via environment is always offered
		found := false
		for _, m := range c.Chat.Models {
			if m == v {
				found = true
				break
			}
		}
		if !found {
			c.Chat.Models = append(c.Chat.Models, v)
		}
	}
	if v := os.Getenv("CODEMATE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("CODEMATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			c.Server.Port = port
		}
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// ProbeDelay returns the probe delay as a time.Duration.
func (c *Config) ProbeDelay() time.Duration {
	return time.Duration(c.Ollama.ProbeDelaySecs) * time.Second
}

// ProbeTimeout returns the per-probe timeout as a time.Duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Ollama.ProbeTimeoutSecs) * time.Second
}

// ChatTimeout returns the inference timeout as a time.Duration.
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.Ollama.ChatTimeoutSecs) * time.Second
}

// ListenAddr returns the host:port address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
