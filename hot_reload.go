// hot_reload.go: dynamic TTL/CleanupInterval reload via Argus
//
// MaxSize changes still require reconstructing a cache, so only TTL and
// CleanupInterval are eligible for hot reload; HotConfig drives that
// through a caller-supplied Apply callback instead of coupling to one
// concrete cache type, since cachebox's seven policies are distinct
// generic types rather than implementations of one shared interface.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"sync"
	"time"

	"github.com/agilira/argus"
)

// HotConfig watches a configuration file and invokes Apply each time
// Argus delivers its contents, with cache.ttl / cache.cleanup_interval
// from the file layered onto the current Config. Apply is called even
// when neither value differs from the current one.
type HotConfig struct {
	watcher *argus.Watcher
	mu      sync.RWMutex
	config  Config
	apply   func(old, new Config)
	logger  Logger

	// OnReload is called, after Apply, with the old and new Config.
	OnReload func(old, new Config)
}

// HotConfigOptions configures hot reload behavior.
type HotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats (argus).
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// Base is the configuration to diff future reloads against.
	Base Config

	// Apply is called under no lock with the parsed new Config whenever
	// the watched file changes; it should push TTL/CleanupInterval into
	// the running cache (e.g. via an atomic field the cache reads from).
	// Required.
	Apply func(old, new Config)

	// OnReload is called after Apply, for caller-side notification.
	OnReload func(old, new Config)

	// Logger for hot reload operations. If nil, NoOpLogger is used.
	Logger Logger
}

// NewHotConfig creates a hot-reloadable TTL/CleanupInterval watcher and
// starts watching opts.ConfigPath immediately.
//
// Supported configuration keys:
//   - cache.ttl (duration string, e.g. "30s")
//   - cache.cleanup_interval (duration string)
func NewHotConfig(opts HotConfigOptions) (*HotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, NewErrInvalidArgument("config_path is required")
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = NoOpLogger{}
	}
	if opts.Apply == nil {
		return nil, NewErrInvalidArgument("apply callback is required")
	}

	hc := &HotConfig{
		config:   opts.Base,
		apply:    opts.Apply,
		OnReload: opts.OnReload,
		logger:   opts.Logger,
	}

	argusConfig := argus.Config{PollInterval: opts.PollInterval}
	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher
	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *HotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *HotConfig) Stop() error { return hc.watcher.Stop() }

// GetConfig returns the current configuration (thread-safe).
func (hc *HotConfig) GetConfig() Config {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.config
}

func (hc *HotConfig) handleConfigChange(configData map[string]interface{}) {
	hc.mu.Lock()
	old := hc.config
	next := hc.parseConfig(configData)
	hc.config = next
	hc.mu.Unlock()

	hc.apply(old, next)
	hc.logger.Info("cachebox config reloaded", "ttl", next.TTL, "cleanup_interval", next.CleanupInterval)

	if hc.OnReload != nil {
		hc.OnReload(old, next)
	}
}

// parseConfig extracts TTL/CleanupInterval overrides from Argus config
// data, layered on top of the current config. Argus nests file sections
// under their top-level key (data["cache"]), but also accepts the
// section's fields directly at the top level.
func (hc *HotConfig) parseConfig(data map[string]interface{}) Config {
	config := hc.config

	cacheSection, ok := data["cache"].(map[string]interface{})
	if !ok {
		if _, hasTTL := data["ttl"]; hasTTL {
			cacheSection = data
		} else {
			return config
		}
	}

	if d, ok := parseDuration(cacheSection["ttl"]); ok {
		config.TTL = d
	}
	if d, ok := parseDuration(cacheSection["cleanup_interval"]); ok {
		config.CleanupInterval = d
	}
	return config
}

// parseDuration extracts a time.Duration from a string configuration value.
func parseDuration(value interface{}) (time.Duration, bool) {
	str, ok := value.(string)
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, false
	}
	return d, true
}
