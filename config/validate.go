// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/libledger-go/selection"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validBackends = map[string]bool{
	BackendMemory: true,
	BackendBolt:   true,
	BackendSQLite: true,
}

var validSelections = map[string]bool{
	selection.NameLargestFirst: true,
	selection.NameOldestFirst:  true,
	selection.NameInteractive:  true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" && cfg.Backend != BackendMemory {
		return ErrEmptyDataDir
	}

	if !validBackends[cfg.Backend] {
		return fmt.Errorf("%w: %q", ErrInvalidBackend, cfg.Backend)
	}

	if !validSelections[cfg.Selection] {
		return fmt.Errorf("%w: %q", ErrInvalidSelection, cfg.Selection)
	}

	if cfg.MaxCommitRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}
