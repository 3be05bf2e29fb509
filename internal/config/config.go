package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Providers ProvidersConfig `yaml:"providers"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP signaling server configuration
type ServerConfig struct {
	Port       int    `yaml:"port"`
	Address    string `yaml:"address"`
	STUNServer string `yaml:"stun_server"`
}

// SessionConfig contains session lifecycle and teardown configuration.
// The grace periods are empirical settling times for network-level retry and
// keep-alive machinery; they are tunable and carry no hard timing guarantee.
type SessionConfig struct {
	DisconnectGraceMs      int `yaml:"disconnect_grace_ms"`
	DrainGraceMs           int `yaml:"drain_grace_ms"`
	DisconnectTimeoutSec   int `yaml:"disconnect_timeout"`    // seconds
	TaskWaitTimeoutSec     int `yaml:"task_wait_timeout"`     // seconds
	ShutdownJoinTimeoutSec int `yaml:"shutdown_join_timeout"` // seconds
}

// ProvidersConfig contains STT/LLM provider credentials and auto-provider selection
type ProvidersConfig struct {
	DeepgramAPIKey string `yaml:"deepgram_api_key"`
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	GroqAPIKey     string `yaml:"groq_api_key"`
	GoogleAPIKey   string `yaml:"google_api_key"`
	AutoSTT        string `yaml:"auto_stt"` // provider resolved when a client selects "auto"
	AutoLLM        string `yaml:"auto_llm"`
}

// LLMConfig contains transcript formatting model configuration
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	BaseURL     string  `yaml:"base_url"`
	TimeoutSec  int     `yaml:"timeout"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills zero-valued optional fields with their defaults
func (c *Config) ApplyDefaults() {
	if c.Server.STUNServer == "" {
		c.Server.STUNServer = "stun:stun.l.google.com:19302"
	}
	if c.Session.DisconnectGraceMs == 0 {
		c.Session.DisconnectGraceMs = 500
	}
	if c.Session.DrainGraceMs == 0 {
		c.Session.DrainGraceMs = 200
	}
	if c.Session.DisconnectTimeoutSec == 0 {
		c.Session.DisconnectTimeoutSec = 5
	}
	if c.Session.TaskWaitTimeoutSec == 0 {
		c.Session.TaskWaitTimeoutSec = 10
	}
	if c.Session.ShutdownJoinTimeoutSec == 0 {
		c.Session.ShutdownJoinTimeoutSec = 10
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.TimeoutSec == 0 {
		c.LLM.TimeoutSec = 30
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session config: %w", err)
	}

	if err := c.Providers.Validate(); err != nil {
		return fmt.Errorf("providers config: %w", err)
	}

	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if s.STUNServer == "" {
		return fmt.Errorf("stun_server cannot be empty")
	}

	return nil
}

// Validate validates session configuration
func (s *SessionConfig) Validate() error {
	if s.DisconnectGraceMs < 0 {
		return fmt.Errorf("disconnect_grace_ms cannot be negative, got %d", s.DisconnectGraceMs)
	}

	if s.DrainGraceMs < 0 {
		return fmt.Errorf("drain_grace_ms cannot be negative, got %d", s.DrainGraceMs)
	}

	if s.DisconnectTimeoutSec < 1 {
		return fmt.Errorf("disconnect_timeout must be at least 1 second, got %d", s.DisconnectTimeoutSec)
	}

	if s.TaskWaitTimeoutSec < 1 {
		return fmt.Errorf("task_wait_timeout must be at least 1 second, got %d", s.TaskWaitTimeoutSec)
	}

	if s.ShutdownJoinTimeoutSec < 1 {
		return fmt.Errorf("shutdown_join_timeout must be at least 1 second, got %d", s.ShutdownJoinTimeoutSec)
	}

	return nil
}

// Validate validates provider configuration
func (p *ProvidersConfig) Validate() error {
	validSTT := map[string]bool{"": true, "deepgram": true, "openai": true, "google": true}
	if !validSTT[p.AutoSTT] {
		return fmt.Errorf("auto_stt must be one of [deepgram, openai, google], got '%s'", p.AutoSTT)
	}

	validLLM := map[string]bool{"": true, "openai": true, "groq": true, "google": true}
	if !validLLM[p.AutoLLM] {
		return fmt.Errorf("auto_llm must be one of [openai, groq, google], got '%s'", p.AutoLLM)
	}

	return nil
}

// Validate validates LLM configuration
func (l *LLMConfig) Validate() error {
	if l.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %f", l.Temperature)
	}

	if l.TimeoutSec < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", l.TimeoutSec)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetDisconnectGrace returns the post-disconnect grace period as a time.Duration
func (s *SessionConfig) GetDisconnectGrace() time.Duration {
	return time.Duration(s.DisconnectGraceMs) * time.Millisecond
}

// GetDrainGrace returns the post-cancellation drain grace period as a time.Duration
func (s *SessionConfig) GetDrainGrace() time.Duration {
	return time.Duration(s.DrainGraceMs) * time.Millisecond
}

// GetDisconnectTimeout returns the transport disconnect timeout as a time.Duration
func (s *SessionConfig) GetDisconnectTimeout() time.Duration {
	return time.Duration(s.DisconnectTimeoutSec) * time.Second
}

// GetTaskWaitTimeout returns the pipeline task settle timeout as a time.Duration
func (s *SessionConfig) GetTaskWaitTimeout() time.Duration {
	return time.Duration(s.TaskWaitTimeoutSec) * time.Second
}

// GetShutdownJoinTimeout returns the shutdown reaper join timeout as a time.Duration
func (s *SessionConfig) GetShutdownJoinTimeout() time.Duration {
	return time.Duration(s.ShutdownJoinTimeoutSec) * time.Second
}

// GetTimeout returns the formatting request timeout as a time.Duration
func (l *LLMConfig) GetTimeout() time.Duration {
	return time.Duration(l.TimeoutSec) * time.Second
}
