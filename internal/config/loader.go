package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GIGMATCH_CONFIG is set
//  3. env (prefix GIGMATCH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GIGMATCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: GIGMATCH_ADDR, GIGMATCH_NOTIFY_BUFFER, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("GIGMATCH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "gigmatch_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.NotifyBuffer <= 0 || cfg.NotifyWorkers <= 0 {
		return nil, fmt.Errorf("%w: notify_buffer and notify_workers must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
