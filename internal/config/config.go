// Package config provides configuration loading for fixd.
//
// Configuration is read from an optional YAML file, overridden by FIXD_*
// environment variables, with hardcoded defaults underneath.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/logging"
)

// Config holds the complete fixd configuration.
type Config struct {
	Ollama  OllamaConfig   `koanf:"ollama"`
	Logging logging.Config `koanf:"logging"`
}

// OllamaConfig holds inference gateway settings.
type OllamaConfig struct {
	// Host is the Ollama server base URL.
	Host string `koanf:"host"`

	// Model is the default model used for enrichment and fix synthesis.
	Model string `koanf:"model"`

	// Temperature is the sampling temperature.
	Temperature float64 `koanf:"temperature"`

	// MaxTokens caps generated output tokens.
	MaxTokens int `koanf:"max_tokens"`

	// Timeout bounds a single gateway request.
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			Host:        "http://localhost:11434",
			Model:       "llama3.2",
			Temperature: 0.2,
			MaxTokens:   1024,
			Timeout:     120 * time.Second,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Ollama.Host == "" {
		return fmt.Errorf("ollama host is required")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("ollama model is required")
	}
	if c.Ollama.Temperature < 0 || c.Ollama.Temperature > 2 {
		return fmt.Errorf("ollama temperature %v out of range [0,2]", c.Ollama.Temperature)
	}
	if c.Ollama.MaxTokens < 0 {
		return fmt.Errorf("ollama max_tokens must not be negative")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
