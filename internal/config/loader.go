package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (Default())
//  2. file (YAML) if TAPGAME_CONFIG is set
//  3. env (prefix TAPGAME_)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("TAPGAME_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: TAPGAME_PORT, TAPGAME_REDIS_URL, ...
	// Map env keys like TAPGAME_REDIS_URL -> redis_url (flat keys).
	// Underscores are preserved to match the koanf struct tags.
	envProvider := env.Provider("TAPGAME_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "tapgame_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	// Unmarshal over a copy of the defaults
	cfg := *Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	// Basic validation
	if cfg.Backend != "memory" && cfg.Backend != "redis" {
		return nil, errors.New("backend must be \"memory\" or \"redis\"")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("port must be positive")
	}
	return &cfg, nil
}
