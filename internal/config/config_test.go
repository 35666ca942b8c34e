package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "server" {
		t.Errorf("Expected default mode to be 'server', got '%s'", cfg.Mode)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Expected default host to be '0.0.0.0', got '%s'", cfg.Host)
	}

	if cfg.Port != 8000 {
		t.Errorf("Expected default port to be 8000, got %d", cfg.Port)
	}

	if cfg.ServerName != "farm-analyzer" {
		t.Errorf("Expected default server name to be 'farm-analyzer', got '%s'", cfg.ServerName)
	}

	if cfg.OCRBackend != OCRBackendVision {
		t.Errorf("Expected default OCR backend to be 'vision', got '%s'", cfg.OCRBackend)
	}

	if cfg.RateLimit != 0 {
		t.Errorf("Expected rate limiting to be off by default, got %v", cfg.RateLimit)
	}

	if cfg.MaxFileSize != 20*1024*1024 {
		t.Errorf("Expected default max file size to be 20MB, got %d", cfg.MaxFileSize)
	}

	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://agri-boost.vercel.app" {
		t.Errorf("Expected default origins %v, got %v", DefaultOrigins, cfg.AllowedOrigins)
	}

	// Mutating the config must not leak into the package defaults
	cfg.AllowedOrigins[0] = "https://example.com"
	if DefaultOrigins[0] != "https://agri-boost.vercel.app" {
		t.Error("DefaultConfig() should copy DefaultOrigins")
	}

	currentDir, _ := os.Getwd()
	if cfg.ReportDirectory != currentDir {
		t.Errorf("Expected default report directory to be '%s', got '%s'", currentDir, cfg.ReportDirectory)
	}
}

func validServerConfig() *Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeServer
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid server config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid tesseract backend",
			mutate: func(c *Config) { c.OCRBackend = OCRBackendTesseract },
		},
		{
			name:   "rate limiting disabled",
			mutate: func(c *Config) { c.RateLimit = 0; c.RateLimitBurst = 0 },
		},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Mode = "invalid" },
			wantErr: "mode must be",
		},
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Port = 0 },
			wantErr: "port must be",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "port must be",
		},
		{
			name:    "no origins in server mode",
			mutate:  func(c *Config) { c.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
		{
			name:    "unknown OCR backend",
			mutate:  func(c *Config) { c.OCRBackend = "paddle" },
			wantErr: "invalid OCR backend",
		},
		{
			name:    "zero vision concurrency",
			mutate:  func(c *Config) { c.VisionConcurrency = 0 },
			wantErr: "vision concurrency",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.RateLimit = -1 },
			wantErr: "rate limit cannot be negative",
		},
		{
			name:    "rate limit without burst",
			mutate:  func(c *Config) { c.RateLimit = 5; c.RateLimitBurst = 0 },
			wantErr: "burst",
		},
		{
			name:    "zero max file size",
			mutate:  func(c *Config) { c.MaxFileSize = 0 },
			wantErr: "maximum file size",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validServerConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()
	reportDir := filepath.Join(tempDir, "reports", "nested")

	cfg := DefaultConfig()
	cfg.Mode = ModeStdio
	cfg.ReportDirectory = reportDir

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	info, err := os.Stat(reportDir)
	if err != nil {
		t.Fatalf("report directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("report directory path is not a directory")
	}
}

func TestConfigValidateStdioIgnoresServerSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeStdio
	cfg.ReportDirectory = t.TempDir()
	cfg.Port = 0
	cfg.AllowedOrigins = nil

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error in stdio mode = %v", err)
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 9000}
	if got := cfg.Address(); got != "127.0.0.1:9000" {
		t.Errorf("Address() = %v, want %v", got, "127.0.0.1:9000")
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantServer bool
		wantStdio  bool
	}{
		{mode: ModeServer, wantServer: true},
		{mode: ModeStdio, wantStdio: true},
		{mode: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if cfg.IsServerMode() != tt.wantServer {
				t.Errorf("IsServerMode() = %v, want %v", cfg.IsServerMode(), tt.wantServer)
			}
			if cfg.IsStdioMode() != tt.wantStdio {
				t.Errorf("IsStdioMode() = %v, want %v", cfg.IsStdioMode(), tt.wantStdio)
			}
		})
	}
}

func TestConfigIsDebug(t *testing.T) {
	for level, want := range map[string]bool{"debug": true, "info": false, "warn": false, "error": false} {
		cfg := &Config{LogLevel: level}
		if got := cfg.IsDebug(); got != want {
			t.Errorf("IsDebug() with level %s = %v, want %v", level, got, want)
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ShutdownTimeout = time.Second
	str := cfg.String()

	for _, want := range []string{"Mode: server", "Port: 8000", "OCRBackend: vision", "agri-boost.vercel.app"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %s, want it to contain %q", str, want)
		}
	}

	cfg.CredentialsFile = "/secrets/sa.json"
	if strings.Contains(cfg.String(), "/secrets/sa.json") {
		t.Error("String() should not include the credentials file")
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "already split", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "single comma string", in: []string{"a, b,c"}, want: []string{"a", "b", "c"}},
		{name: "blanks dropped", in: []string{"", " , a"}, want: []string{"a"}},
		{name: "nil", in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitList(%v) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("splitList(%v)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}
