// SPDX-License-Identifier: MPL-2.0

// Package metrics collects bootstrap telemetry: module lookups by outcome,
// archive reads and index cache activity, and loader cache activity.
// Collectors live on a private registry so that embedding programs keep
// control of the global one.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/swarmboot/swarmboot/internal/loader"
	"github.com/swarmboot/swarmboot/pkg/modulefinder"
	"github.com/swarmboot/swarmboot/pkg/nestedjar"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "swarmboot"

// Collector records bootstrap metrics. It implements the observer interfaces
// of the finder, the nested archive opener and the module loader.
type Collector struct {
	registry *prometheus.Registry

	findTotal    *prometheus.CounterVec
	findDuration *prometheus.HistogramVec

	archiveOpens *prometheus.CounterVec
	indexCache   *prometheus.CounterVec
	moduleCache  *prometheus.CounterVec
}

var (
	_ modulefinder.Observer = (*Collector)(nil)
	_ nestedjar.Observer    = (*Collector)(nil)
	_ loader.Observer       = (*Collector)(nil)
)

// NewCollector creates a collector whose metrics are prefixed with
// namespace, or DefaultNamespace when empty.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.findTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "finder",
			Name:      "lookups_total",
			Help:      "Module lookups by outcome",
		},
		[]string{"outcome"},
	)

	c.findDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "finder",
			Name:      "lookup_duration_seconds",
			Help:      "Time taken to locate and parse a module descriptor",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		},
		[]string{"outcome"},
	)

	c.archiveOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "nested_opens_total",
			Help:      "Nested archives entered, by access mode",
		},
		[]string{"mode"},
	)

	c.indexCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "index_cache_requests_total",
			Help:      "Central directory index cache lookups",
		},
		[]string{"result"},
	)

	c.moduleCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "module_cache_requests_total",
			Help:      "Loaded-module cache lookups",
		},
		[]string{"result"},
	)

	c.registry.MustRegister(
		c.findTotal,
		c.findDuration,
		c.archiveOpens,
		c.indexCache,
		c.moduleCache,
	)

	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ModuleFound records one finder lookup.
func (c *Collector) ModuleFound(outcome modulefinder.Outcome, elapsed time.Duration) {
	c.findTotal.WithLabelValues(string(outcome)).Inc()
	c.findDuration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// ArchiveOpened records entry into a nested archive.
func (c *Collector) ArchiveOpened(inflated bool) {
	mode := "stored"
	if inflated {
		mode = "inflated"
	}
	c.archiveOpens.WithLabelValues(mode).Inc()
}

// IndexCacheHit records an index cache hit.
func (c *Collector) IndexCacheHit() { c.indexCache.WithLabelValues("hit").Inc() }

// IndexCacheMiss records an index cache miss.
func (c *Collector) IndexCacheMiss() { c.indexCache.WithLabelValues("miss").Inc() }

// ModuleCacheHit records a loaded-module cache hit.
func (c *Collector) ModuleCacheHit() { c.moduleCache.WithLabelValues("hit").Inc() }

// ModuleCacheMiss records a loaded-module cache miss.
func (c *Collector) ModuleCacheMiss() { c.moduleCache.WithLabelValues("miss").Inc() }

// WriteText writes every gathered metric family in the Prometheus text
// exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Reset clears every recorded value.
func (c *Collector) Reset() {
	c.findTotal.Reset()
	c.findDuration.Reset()
	c.archiveOpens.Reset()
	c.indexCache.Reset()
	c.moduleCache.Reset()
}
