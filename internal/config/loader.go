package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from a YAML file, then overrides with FIXD_*
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FIXD_OLLAMA_HOST, FIXD_LOGGING_LEVEL, ...)
//  2. YAML config file (~/.config/fixd/config.yaml by default)
//  3. Hardcoded defaults
//
// A missing config file is not an error; an unreadable or oversized one is.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "fixd", "config.yaml")
	}

	if info, err := os.Stat(configPath); err == nil {
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// FIXD_OLLAMA_MAX_TOKENS -> ollama.max_tokens: strip the prefix, split
	// on the first underscore into section.field, keep field underscores.
	if err := k.Load(env.Provider("FIXD_", ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, "FIXD_"))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// applyDefaults refills fields an explicit config file may have blanked.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Ollama.Host == "" {
		cfg.Ollama.Host = def.Ollama.Host
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = def.Ollama.Model
	}
	if cfg.Ollama.Temperature == 0 {
		cfg.Ollama.Temperature = def.Ollama.Temperature
	}
	if cfg.Ollama.MaxTokens == 0 {
		cfg.Ollama.MaxTokens = def.Ollama.MaxTokens
	}
	if cfg.Ollama.Timeout == 0 {
		cfg.Ollama.Timeout = def.Ollama.Timeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}
