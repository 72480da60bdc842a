package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// weightSumTolerance allows for float noise when validating that the
// four scoring weights sum to 1.0.
const weightSumTolerance = 1e-6

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if RECO_CONFIG is set
//  3. env (prefix RECO_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("RECO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: RECO_QUEUE_SIZE, RECO_MIN_RELEVANCE, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("RECO_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "reco_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.EventQueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if cfg.MinRelevance < 0 || cfg.MinRelevance > 10 {
		return fmt.Errorf("%w: min_relevance must be within [0,10]", ErrInvalidConfig)
	}
	if cfg.StretchRatio <= 0 || cfg.StretchRatio >= 1 {
		return fmt.Errorf("%w: stretch_ratio must be within (0,1)", ErrInvalidConfig)
	}
	sum := cfg.RelevanceWeight + cfg.SocialWeight + cfg.PriceWeight + cfg.EngagementWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: scoring weights must sum to 1.0, got %v", ErrInvalidConfig, sum)
	}
	return nil
}
