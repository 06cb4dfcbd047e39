// Package otel implements cachebox.MetricsCollector on top of
// OpenTelemetry, so a cache's hit/miss/eviction/expiration counters and
// operation latencies can be exported to any OTEL-compatible backend
// (Prometheus, Jaeger, DataDog, Grafana).
//
// Example:
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, _ := cacheboxotel.NewOTelMetricsCollector(provider)
//	cache := cachebox.NewLRU[string, string](cachebox.Config{
//	    MaxSize:          10000,
//	    MetricsCollector: collector,
//	})
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/cachebox"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements cachebox.MetricsCollector using
// OpenTelemetry instruments. Safe for concurrent use; the underlying
// OTEL instruments are themselves thread-safe.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	evictions     metric.Int64Counter
	expirations   metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the OpenTelemetry meter name. Default: "github.com/agilira/cachebox".
	MeterName string
}

// Option is a functional option for NewOTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple cache instances.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// NewOTelMetricsCollector creates the OTEL instruments backing a
// MetricsCollector: three latency histograms (get/set/delete) and four
// counters (hits, misses, evictions, expirations).
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/cachebox"}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &OTelMetricsCollector{}
	var err error

	if c.getLatency, err = meter.Int64Histogram("cachebox_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.setLatency, err = meter.Int64Histogram("cachebox_set_latency_ns",
		metric.WithDescription("Latency of Insert operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.deleteLatency, err = meter.Int64Histogram("cachebox_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.hits, err = meter.Int64Counter("cachebox_hits_total",
		metric.WithDescription("Total number of cache hits")); err != nil {
		return nil, err
	}
	if c.misses, err = meter.Int64Counter("cachebox_misses_total",
		metric.WithDescription("Total number of cache misses")); err != nil {
		return nil, err
	}
	if c.evictions, err = meter.Int64Counter("cachebox_evictions_total",
		metric.WithDescription("Total number of policy evictions")); err != nil {
		return nil, err
	}
	if c.expirations, err = meter.Int64Counter("cachebox_expirations_total",
		metric.WithDescription("Total number of TTL/VTTL expirations")); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Record(context.Background(), latencyNs)
}

func (c *OTelMetricsCollector) RecordEviction() {
	c.evictions.Add(context.Background(), 1)
}

func (c *OTelMetricsCollector) RecordExpiration() {
	c.expirations.Add(context.Background(), 1)
}

var _ cachebox.MetricsCollector = (*OTelMetricsCollector)(nil)
