package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:       8765,
			Address:    "0.0.0.0",
			STUNServer: "stun:stun.l.google.com:19302",
		},
		Session: SessionConfig{
			DisconnectGraceMs:      500,
			DrainGraceMs:           200,
			DisconnectTimeoutSec:   5,
			TaskWaitTimeoutSec:     10,
			ShutdownJoinTimeoutSec: 10,
		},
		Providers: ProvidersConfig{
			OpenAIAPIKey: "test-key",
			AutoSTT:      "deepgram",
			AutoLLM:      "openai",
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			TimeoutSec:  30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid server port",
			mutate:      func(c *Config) { c.Server.Port = 0 },
			expectError: true,
		},
		{
			name:        "empty bind address",
			mutate:      func(c *Config) { c.Server.Address = "" },
			expectError: true,
		},
		{
			name:        "empty stun server",
			mutate:      func(c *Config) { c.Server.STUNServer = "" },
			expectError: true,
		},
		{
			name:        "negative disconnect grace",
			mutate:      func(c *Config) { c.Session.DisconnectGraceMs = -1 },
			expectError: true,
		},
		{
			name:        "negative drain grace",
			mutate:      func(c *Config) { c.Session.DrainGraceMs = -100 },
			expectError: true,
		},
		{
			name:        "zero disconnect grace is allowed",
			mutate:      func(c *Config) { c.Session.DisconnectGraceMs = 0 },
			expectError: false,
		},
		{
			name:        "zero task wait timeout",
			mutate:      func(c *Config) { c.Session.TaskWaitTimeoutSec = 0 },
			expectError: true,
		},
		{
			name:        "unknown auto stt provider",
			mutate:      func(c *Config) { c.Providers.AutoSTT = "whisperx" },
			expectError: true,
		},
		{
			name:        "unknown auto llm provider",
			mutate:      func(c *Config) { c.Providers.AutoLLM = "llama-garage" },
			expectError: true,
		},
		{
			name:        "empty auto providers are allowed",
			mutate:      func(c *Config) { c.Providers.AutoSTT = ""; c.Providers.AutoLLM = "" },
			expectError: false,
		},
		{
			name:        "empty llm model",
			mutate:      func(c *Config) { c.LLM.Model = "" },
			expectError: true,
		},
		{
			name:        "temperature out of range",
			mutate:      func(c *Config) { c.LLM.Temperature = 2.5 },
			expectError: true,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  port: 8765
  address: "0.0.0.0"
session:
  disconnect_grace_ms: 500
  drain_grace_ms: 200
providers:
  openai_api_key: "test-key"
  auto_llm: "openai"
llm:
  model: "gpt-4o-mini"
  temperature: 0.2
logging:
  level: "debug"
  format: "json"
  output: "stdout"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8765 {
		t.Errorf("Expected port 8765, got %d", cfg.Server.Port)
	}

	if cfg.Session.GetDisconnectGrace() != 500*time.Millisecond {
		t.Errorf("Expected 500ms disconnect grace, got %v", cfg.Session.GetDisconnectGrace())
	}

	if cfg.Session.GetDrainGrace() != 200*time.Millisecond {
		t.Errorf("Expected 200ms drain grace, got %v", cfg.Session.GetDrainGrace())
	}

	// Defaults fill in the fields the file omits
	if cfg.Server.STUNServer != "stun:stun.l.google.com:19302" {
		t.Errorf("Expected default STUN server, got '%s'", cfg.Server.STUNServer)
	}

	if cfg.Session.GetShutdownJoinTimeout() != 10*time.Second {
		t.Errorf("Expected 10s shutdown join timeout default, got %v", cfg.Session.GetShutdownJoinTimeout())
	}

	if cfg.LLM.GetTimeout() != 30*time.Second {
		t.Errorf("Expected 30s llm timeout default, got %v", cfg.LLM.GetTimeout())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for missing config file, got nil")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Error("Expected parse error, got nil")
	}
}
