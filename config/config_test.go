// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/bitfsorg/libledger-go/selection"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"Backend", cfg.Backend, "bolt"},
		{"Selection", cfg.Selection, "largest"},
		{"MaxCommitRetries", cfg.MaxCommitRetries, 3},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

func TestDefaultDataDir_EndsWithDotLedger(t *testing.T) {
	dir := DefaultDataDir()
	if !strings.HasSuffix(dir, ".ledger") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".ledger")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:          "/tmp/test-ledger",
		Backend:          "sqlite",
		Selection:        "oldest",
		MaxCommitRetries: 7,
		LogLevel:         "debug",
		LogFile:          "/tmp/ledger.log",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded != original {
		t.Errorf("LoadConfig = %+v, want %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestSaveConfig_OutputFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Ledger Configuration") {
		t.Error("saved config should start with header '# Ledger Configuration'")
	}
	for _, key := range []string{"datadir", "backend", "selection", "maxretries", "loglevel", "logfile"} {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// LoadConfig parser tests
// ---------------------------------------------------------------------------

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no_equals", "this-is-not-key-value\n"},
		{"empty_key", " = memory\n"},
		{"bad_retries", "maxretries = three\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.content))
			if !errors.Is(err, ErrInvalidConfigLine) {
				t.Errorf("LoadConfig: got %v, want ErrInvalidConfigLine", err)
			}
		})
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	path := writeConfig(t, `# This is a comment
backend = memory

# Another comment
loglevel = debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "memory" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "memory")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.Selection != "largest" {
		t.Errorf("Selection = %q, want default %q", cfg.Selection, "largest")
	}
	if cfg.MaxCommitRetries != 3 {
		t.Errorf("MaxCommitRetries = %d, want default 3", cfg.MaxCommitRetries)
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "futurekey = futurevalue\nselection = interactive\n"))
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.Selection != "interactive" {
		t.Errorf("Selection = %q, want %q", cfg.Selection, "interactive")
	}
}

func TestLoadConfig_MultipleEquals(t *testing.T) {
	// parseKeyValue should split on the first '=' only.
	cfg, err := LoadConfig(writeConfig(t, "logfile=/tmp/a=b.log\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
}

func TestLoadConfig_WhitespaceAndCase(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "  Backend = SQLite  \n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "sqlite")
	}
}

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	path := writeConfig(t, "backend=memory\n")
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_backend",
			modify:  func(c *Config) { c.Backend = "postgres" },
			wantErr: ErrInvalidBackend,
		},
		{
			name:    "bad_selection",
			modify:  func(c *Config) { c.Selection = "random" },
			wantErr: ErrInvalidSelection,
		},
		{
			name:    "negative_retries",
			modify:  func(c *Config) { c.MaxCommitRetries = -1 },
			wantErr: ErrInvalidMaxRetries,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfig_SelectionNames(t *testing.T) {
	for _, name := range []string{selection.NameLargestFirst, selection.NameOldestFirst, selection.NameInteractive} {
		cfg := DefaultConfig()
		cfg.Selection = name
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig(Selection=%q) = %v", name, err)
		}
		if _, err := selection.FromName(name, selection.PrompterFunc(nil)); err != nil {
			t.Errorf("FromName(%q) = %v", name, err)
		}
	}
}

func TestValidateConfig_MemoryNeedsNoDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendMemory
	cfg.DataDir = ""
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig memory without datadir: %v", err)
	}
}

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	for _, level := range []string{"INFO", "Debug", "WARN", "Error", "dEbUg"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Path helper tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.ledger")
	want := filepath.Join("/home/user/.ledger", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
	if got := ConfigPath("/foo/"); got != filepath.Join("/foo", "config") {
		t.Errorf("ConfigPath(%q) = %q", "/foo/", got)
	}
}

func TestStorePath(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{BackendBolt, filepath.Join("/d", "ledger.db")},
		{BackendSQLite, filepath.Join("/d", "ledger.sqlite")},
		{BackendMemory, ""},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			cfg := Config{DataDir: "/d", Backend: tc.backend}
			if got := cfg.StorePath(); got != tc.want {
				t.Errorf("StorePath = %q, want %q", got, tc.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// NewLogger tests
// ---------------------------------------------------------------------------

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"
	cfg.LogFile = path

	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(content, `"msg":"kept"`) {
		t.Errorf("log file missing warn entry: %s", content)
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "verbose"
	if _, err := NewLogger(cfg); !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("NewLogger: got %v, want ErrInvalidLogLevel", err)
	}
}
