package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/a3tai/voter-roll-reader/internal/discovery"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Root = t.TempDir()
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "batch" {
		t.Errorf("Expected default mode to be 'batch', got '%s'", cfg.Mode)
	}

	if !reflect.DeepEqual(cfg.Regions, []string{"JHENAIGATI", "SREEBARDI"}) {
		t.Errorf("Expected default regions, got %v", cfg.Regions)
	}

	if cfg.DSN != "sqlite:voters.db" {
		t.Errorf("Expected default dsn to be 'sqlite:voters.db', got '%s'", cfg.DSN)
	}

	if !cfg.Reset {
		t.Error("Expected reset to default to true")
	}

	if cfg.Decoder != "native" {
		t.Errorf("Expected default decoder to be 'native', got '%s'", cfg.Decoder)
	}

	if cfg.ServerName != "voter-roll-reader" {
		t.Errorf("Expected default server name to be 'voter-roll-reader', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.Root != currentDir {
		t.Errorf("Expected default root to be '%s', got '%s'", currentDir, cfg.Root)
	}

	// DefaultRegions must not be aliased
	cfg.Regions[0] = "CHANGED"
	if DefaultRegions[0] != "JHENAIGATI" {
		t.Error("DefaultConfig shares the DefaultRegions slice")
	}
}

func TestDefaultRegionsMatchDiscovery(t *testing.T) {
	if &DefaultRegions[0] != &discovery.DefaultRegions[0] {
		t.Error("config.DefaultRegions is a separate list from discovery.DefaultRegions")
	}
}

func TestConfigValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid batch", mutate: func(*Config) {}},
		{name: "valid stdio", mutate: func(c *Config) { c.Mode = ModeStdio }},
		{name: "valid postgres dsn", mutate: func(c *Config) { c.DSN = "postgres://u:p@localhost/voters" }},
		{name: "valid auto decoder", mutate: func(c *Config) { c.Decoder = DecoderAuto }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "server" }, wantErr: "mode must be"},
		{name: "empty root", mutate: func(c *Config) { c.Root = "" }, wantErr: "root cannot be empty"},
		{name: "missing root", mutate: func(c *Config) { c.Root = filepath.Join(c.Root, "nope") }, wantErr: "cannot access corpus root"},
		{name: "root is a file", mutate: func(c *Config) { c.Root = file }, wantErr: "not a directory"},
		{name: "no regions", mutate: func(c *Config) { c.Regions = nil }, wantErr: "at least one region"},
		{name: "region with separator", mutate: func(c *Config) { c.Regions = []string{"A/B"} }, wantErr: "invalid region"},
		{name: "empty dsn", mutate: func(c *Config) { c.DSN = " " }, wantErr: "dsn cannot be empty"},
		{name: "invalid decoder", mutate: func(c *Config) { c.Decoder = "ocr" }, wantErr: "invalid decoder"},
		{name: "zero max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "must be positive"},
		{name: "negative progress", mutate: func(c *Config) { c.Progress = -1 }, wantErr: "cannot be negative"},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig(t)
		cfg.LogLevel = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with log level %s: %v", level, err)
		}
	}
}

func TestConfigIsDebug(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsDebug() {
		t.Error("IsDebug() = true for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() = false for debug level")
	}
}

func TestConfigModes(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.IsBatchMode() || cfg.IsStdioMode() {
		t.Errorf("default mode flags wrong: batch=%t stdio=%t", cfg.IsBatchMode(), cfg.IsStdioMode())
	}
	cfg.Mode = ModeStdio
	if cfg.IsBatchMode() || !cfg.IsStdioMode() {
		t.Errorf("stdio mode flags wrong: batch=%t stdio=%t", cfg.IsBatchMode(), cfg.IsStdioMode())
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DSN = "postgres://voter:hunter2@db:5432/rolls"

	s := cfg.String()
	for _, want := range []string{"Mode: batch", "Decoder: native", "postgres://voter:***@db:5432/rolls"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, want it to contain %q", s, want)
		}
	}
	if strings.Contains(s, "hunter2") {
		t.Errorf("String() leaks the password: %s", s)
	}
}

func TestSplitRegions(t *testing.T) {
	got := splitRegions([]string{"A, B", "", "C"})
	if !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("splitRegions() = %v", got)
	}
}
