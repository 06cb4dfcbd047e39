// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package cachebox

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewHotConfigEmptyPath(t *testing.T) {
	_, err := NewHotConfig(HotConfigOptions{Apply: func(old, new Config) {}})
	if !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestNewHotConfigMissingApply(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"cache":{"ttl":"1m"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := NewHotConfig(HotConfigOptions{ConfigPath: configPath})
	if !IsInvalidArgument(err) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestHotConfigStartStop(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"cache":{"ttl":"5m"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	hc, err := NewHotConfig(HotConfigOptions{
		ConfigPath:   configPath,
		PollInterval: 100 * time.Millisecond,
		Apply:        func(old, new Config) {},
	})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer func() { _ = hc.Stop() }()

	if err := hc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := hc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestHotConfigReloadAppliesTTL(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")
	initial := `{"cache":{"ttl":"10m","cleanup_interval":"1m"}}`
	if err := os.WriteFile(configPath, []byte(initial), 0644); err != nil {
		t.Fatalf("write initial config: %v", err)
	}

	var mu sync.Mutex
	applyCh := make(chan Config, 2)

	hc, err := NewHotConfig(HotConfigOptions{
		ConfigPath:   configPath,
		PollInterval: 50 * time.Millisecond,
		Apply: func(old, new Config) {
			mu.Lock()
			defer mu.Unlock()
			select {
			case applyCh <- new:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer func() { _ = hc.Stop() }()

	if err := hc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case cfg := <-applyCh:
		if cfg.TTL != 10*time.Minute {
			t.Fatalf("initial TTL = %v, want 10m", cfg.TTL)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for initial config load")
	}

	time.Sleep(1200 * time.Millisecond) // clear mtime granularity on coarse filesystems
	updated := `{"cache":{"ttl":"20m","cleanup_interval":"2m"}}`
	tmp := configPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(updated), 0644); err != nil {
		t.Fatalf("write updated config: %v", err)
	}
	if err := os.Rename(tmp, configPath); err != nil {
		t.Fatalf("rename updated config: %v", err)
	}

	select {
	case cfg := <-applyCh:
		if cfg.TTL != 20*time.Minute {
			t.Fatalf("reloaded TTL = %v, want 20m", cfg.TTL)
		}
		if cfg.CleanupInterval != 2*time.Minute {
			t.Fatalf("reloaded CleanupInterval = %v, want 2m", cfg.CleanupInterval)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for config reload")
	}
}

func TestHotConfigGetConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{"cache":{"ttl":"3m"}}`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	hc, err := NewHotConfig(HotConfigOptions{
		ConfigPath:   configPath,
		PollInterval: 100 * time.Millisecond,
		Base:         Config{TTL: time.Minute},
		Apply:        func(old, new Config) {},
	})
	if err != nil {
		t.Fatalf("NewHotConfig: %v", err)
	}
	defer func() { _ = hc.Stop() }()

	if cfg := hc.GetConfig(); cfg.TTL != time.Minute {
		t.Fatalf("GetConfig before Start = %v, want base TTL 1m", cfg.TTL)
	}

	if err := hc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if cfg := hc.GetConfig(); cfg.TTL != 3*time.Minute {
		t.Fatalf("GetConfig after reload = %v, want 3m", cfg.TTL)
	}
}

func TestHotConfigParseConfig(t *testing.T) {
	hc := &HotConfig{config: Config{TTL: time.Minute, CleanupInterval: 30 * time.Second}}

	tests := []struct {
		name   string
		data   map[string]interface{}
		expect func(*testing.T, Config)
	}{
		{
			name: "nested cache section overrides ttl and cleanup interval",
			data: map[string]interface{}{
				"cache": map[string]interface{}{"ttl": "1h", "cleanup_interval": "5m"},
			},
			expect: func(t *testing.T, cfg Config) {
				if cfg.TTL != time.Hour || cfg.CleanupInterval != 5*time.Minute {
					t.Fatalf("got ttl=%v cleanup=%v", cfg.TTL, cfg.CleanupInterval)
				}
			},
		},
		{
			name: "flat section also accepted",
			data: map[string]interface{}{"ttl": "2h"},
			expect: func(t *testing.T, cfg Config) {
				if cfg.TTL != 2*time.Hour {
					t.Fatalf("got ttl=%v, want 2h", cfg.TTL)
				}
			},
		},
		{
			name: "missing cache section keeps current config",
			data: map[string]interface{}{"other": "value"},
			expect: func(t *testing.T, cfg Config) {
				if cfg.TTL != time.Minute {
					t.Fatalf("got ttl=%v, want unchanged 1m", cfg.TTL)
				}
			},
		},
		{
			name: "invalid ttl string ignored",
			data: map[string]interface{}{
				"cache": map[string]interface{}{"ttl": "not-a-duration"},
			},
			expect: func(t *testing.T, cfg Config) {
				if cfg.TTL != time.Minute {
					t.Fatalf("got ttl=%v, want unchanged 1m", cfg.TTL)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.expect(t, hc.parseConfig(tt.data))
		})
	}
}

func TestParseDurationRejectsNonString(t *testing.T) {
	if _, ok := parseDuration(42); ok {
		t.Fatal("expected non-string value to be rejected")
	}
	if _, ok := parseDuration("not-a-duration"); ok {
		t.Fatal("expected invalid duration string to be rejected")
	}
	d, ok := parseDuration("90s")
	if !ok || d != 90*time.Second {
		t.Fatalf("parseDuration(90s) = %v, %v", d, ok)
	}
}
