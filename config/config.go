// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the ledger's line-based configuration file
// and builds the logger it describes.
//
// The file format is one "key = value" pair per line. Blank lines and lines
// starting with '#' are ignored, as are unknown keys.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitfsorg/libledger-go/selection"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
)

// Config holds ledger settings.
type Config struct {
	DataDir          string // directory for the store, keyring, and config file
	Backend          string // "memory", "bolt", or "sqlite"
	Selection        string // "largest", "oldest", or "interactive"
	MaxCommitRetries int    // extra commit attempts after a store conflict
	LogLevel         string
	LogFile          string // empty means stderr
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		DataDir:          DefaultDataDir(),
		Backend:          BackendBolt,
		Selection:        selection.NameLargestFirst,
		MaxCommitRetries: 3,
		LogLevel:         "info",
		LogFile:          "",
	}
}

// DefaultDataDir returns ~/.ledger, or .ledger in the working directory
// when the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ledger"
	}
	return filepath.Join(home, ".ledger")
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// KeyringPath returns the encrypted keyring location inside dataDir.
func KeyringPath(dataDir string) string {
	return filepath.Join(dataDir, "keyring.enc")
}

// LockPath returns the file an engine locks while it has dataDir open.
func LockPath(dataDir string) string {
	return filepath.Join(dataDir, "ledger.lock")
}

// StorePath returns the database file for cfg's backend, or "" for memory.
func (c Config) StorePath() string {
	switch c.Backend {
	case BackendBolt:
		return filepath.Join(c.DataDir, "ledger.db")
	case BackendSQLite:
		return filepath.Join(c.DataDir, "ledger.sqlite")
	default:
		return ""
	}
}

// LoadConfig reads the config file at path. Keys absent from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := parseKeyValue(line)
		if !ok {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := apply(&cfg, key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits on the first '='.
func parseKeyValue(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return strings.ToLower(key), strings.TrimSpace(value), true
}

func apply(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "backend":
		cfg.Backend = strings.ToLower(value)
	case "selection":
		cfg.Selection = strings.ToLower(value)
	case "maxretries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMaxRetries, value)
		}
		cfg.MaxCommitRetries = n
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	}
	return nil
}

// SaveConfig writes cfg to path, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Ledger Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "backend = %s\n", cfg.Backend)
	fmt.Fprintf(&b, "selection = %s\n", cfg.Selection)
	fmt.Fprintf(&b, "maxretries = %d\n", cfg.MaxCommitRetries)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
