// config.go: shared configuration for every cachebox policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package cachebox

import "time"

// Config holds the configuration parameters common to every policy. TTL
// and per-key TTL caches interpret TTL as documented on their own
// constructors (/§4.8); the other policies ignore it.
type Config struct {
	// MaxSize is the maximum number of entries the cache can hold.
	// 0 means unbounded ("Unbounded sentinel"). Default: 0.
	MaxSize int

	// TTL is the cache-wide time-to-live consumed by the TTL policy.
	// Must be > 0 for TTL caches; ignored elsewhere.
	TTL time.Duration

	// CleanupInterval is how often a background sweep removes expired
	// entries proactively, in addition to the lazy sweep every mutating
	// operation already performs. 0 disables the background sweep.
	// Only meaningful for TTL/VTTL. Default: TTL / 10, min 1s, when TTL > 0.
	CleanupInterval time.Duration

	// Logger is used for debugging and monitoring.
	// If nil, NoOpLogger is used. Default: NoOpLogger.
	Logger Logger

	// TimeProvider provides current time for TTL/VTTL calculations.
	// If nil, a go-timecache-backed implementation is used.
	TimeProvider TimeProvider

	// MetricsCollector is used for collecting operation metrics.
	// If nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector

	// OnEvict is called, outside the cache lock, when an entry is evicted
	// to make room for another. Must be fast and non-blocking.
	OnEvict func(key interface{}, value interface{})

	// OnExpire is called, outside the cache lock, when a TTL/VTTL entry
	// expires. Must be fast and non-blocking.
	OnExpire func(key interface{}, value interface{})
}

// Validate normalizes the configuration, filling in defaults. It never
// returns an error for MaxSize/TTL themselves (0 is a valid sentinel for
// both); callers that require TTL > 0 validate that at the call site
// (InvalidArgument for "ttl <= 0 where required").
func (c *Config) Validate() {
	if c.MaxSize < 0 {
		c.MaxSize = 0
	}

	if c.TTL > 0 && c.CleanupInterval <= 0 {
		c.CleanupInterval = c.TTL / 10
		if c.CleanupInterval < time.Second {
			c.CleanupInterval = time.Second
		}
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}

	if c.TimeProvider == nil {
		c.TimeProvider = systemTimeProvider{}
	}

	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
}

// DefaultConfig returns a configuration with sensible defaults and an
// unbounded MaxSize.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.Validate()
	return cfg
}
