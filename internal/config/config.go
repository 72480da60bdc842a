// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// EventQueueSize bounds the in-memory interaction event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of behavior tracking workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the event deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Scoring weights for the four sub-scores. They should sum to 1.0.
	RelevanceWeight  float64 `koanf:"relevance_weight"`
	SocialWeight     float64 `koanf:"social_weight"`
	PriceWeight      float64 `koanf:"price_weight"`
	EngagementWeight float64 `koanf:"engagement_weight"`

	// MinRelevance is the cutoff below which bounties leave the feed.
	MinRelevance float64 `koanf:"min_relevance"`

	// StretchRatio is the fraction of the primary's final score a
	// stretch candidate must clear.
	StretchRatio float64 `koanf:"stretch_ratio"`

	// Simulation knobs for the demo runner.
	SimUsers    int   `koanf:"sim_users"`
	SimBounties int   `koanf:"sim_bounties"`
	SimEvents   int   `koanf:"sim_events"`
	SimSeed     int64 `koanf:"sim_seed"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		EventQueueSize:   100_000,
		WorkerCount:      runtime.NumCPU() * 2,
		DedupeSize:       500_000,
		RelevanceWeight:  0.55,
		SocialWeight:     0.15,
		PriceWeight:      0.20,
		EngagementWeight: 0.10,
		MinRelevance:     3.0,
		StretchRatio:     0.2,
		SimUsers:         25,
		SimBounties:      120,
		SimEvents:        2_000,
		SimSeed:          42,
	}
}
