// Package config provides configuration loading and validation for the dictation service.
// It handles YAML-based configuration with struct validation covering the HTTP signaling
// server, session teardown timing, provider credentials, and logging.
package config
