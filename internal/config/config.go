// Package config loads intaked configuration from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/intaked/internal/convert"
	"github.com/fyrsmithlabs/intaked/internal/embeddings"
	"github.com/fyrsmithlabs/intaked/internal/extract"
	"github.com/fyrsmithlabs/intaked/internal/intake"
	"github.com/fyrsmithlabs/intaked/internal/logging"
	"github.com/fyrsmithlabs/intaked/internal/match"
	"github.com/fyrsmithlabs/intaked/internal/memory"
)

// envPrefix namespaces intaked environment variables:
// INTAKED_SERVER_PORT -> server.port.
const envPrefix = "INTAKED_"

// ErrInvalidConfig indicates the loaded configuration is unusable.
var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MatchConfig configures identity and option resolution.
type MatchConfig struct {
	Thresholds match.Thresholds `koanf:"thresholds"`

	// OptionThreshold is the 0-100 token-set score an option must
	// reach when no containment match exists.
	OptionThreshold int `koanf:"option_threshold"`
}

// Config is the full intaked configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Logging    logging.Config    `koanf:"logging"`
	Extraction extract.Config    `koanf:"extraction"`
	Embeddings embeddings.Config `koanf:"embeddings"`
	Memory     memory.Config     `koanf:"memory"`
	Rules      intake.Rules      `koanf:"rules"`
	Match      MatchConfig       `koanf:"match"`
	Convert    convert.Config    `koanf:"convert"`
}

// Default returns the stock configuration.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Rules: intake.DefaultRules(),
		Match: MatchConfig{
			Thresholds:      match.DefaultThresholds(),
			OptionThreshold: match.OptionThreshold,
		},
	}
	cfg.Logging.ApplyDefaults()
	cfg.Memory.ApplyDefaults()
	cfg.Convert.ApplyDefaults()
	return cfg
}

// Load reads configuration with precedence (highest first):
//
//  1. Environment variables (INTAKED_SERVER_PORT, INTAKED_MEMORY_THRESHOLD, ...)
//  2. YAML config file, when configPath names an existing file
//  3. Defaults
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w", configPath, err)
			}
		} else {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
			}
		}
	}

	// INTAKED_SERVER_PORT -> server.port. Split on the first
	// underscore only: the section name never contains one, field
	// names may.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Match.Thresholds.Base == 0 {
		cfg.Match.Thresholds = match.DefaultThresholds()
	}
	if cfg.Match.OptionThreshold == 0 {
		cfg.Match.OptionThreshold = match.OptionThreshold
	}
	if cfg.Rules.FallbackProvider == "" && len(cfg.Rules.CategoryProviders) == 0 {
		cfg.Rules = intake.DefaultRules()
	}
	cfg.Logging.ApplyDefaults()
	cfg.Memory.ApplyDefaults()
	cfg.Convert.ApplyDefaults()
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Memory.Threshold < 0 || c.Memory.Threshold > 1 {
		return fmt.Errorf("%w: memory threshold %v out of range", ErrInvalidConfig, c.Memory.Threshold)
	}
	if c.Match.OptionThreshold < 0 || c.Match.OptionThreshold > 100 {
		return fmt.Errorf("%w: option threshold %d out of range", ErrInvalidConfig, c.Match.OptionThreshold)
	}
	for _, th := range []float64{c.Match.Thresholds.Base, c.Match.Thresholds.Relaxed, c.Match.Thresholds.SurnamePartial} {
		if th < 0 || th > 1 {
			return fmt.Errorf("%w: match threshold %v out of range", ErrInvalidConfig, th)
		}
	}
	return nil
}
