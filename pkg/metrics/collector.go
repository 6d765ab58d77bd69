/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/models"
)

const (
	DefaultNamespace = "warehouse"

	OutcomeUp          = "up"
	OutcomeDown        = "down"
	OutcomeUnreachable = "unreachable"
)

var latencyBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Collector owns a private Prometheus registry with every warehouse metric.
type Collector struct {
	registry *prometheus.Registry

	probeLatency    *prometheus.HistogramVec
	probeOutcomes   *prometheus.CounterVec
	serviceUp       *prometheus.GaugeVec
	cycleDuration   prometheus.Histogram
	snapshotSize    prometheus.Gauge
	mergeTotal      *prometheus.CounterVec
	mergeDuration   prometheus.Histogram
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var (
	_ CycleRecorder    = (*Collector)(nil)
	_ RequestRecorder  = (*Collector)(nil)
	_ archive.Observer = (*Collector)(nil)
)

// NewCollector creates and registers all metrics under namespace. Go runtime
// and process collectors are included.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		probeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_seconds",
			Help:      "Latency of probes that received a response.",
			Buckets:   latencyBuckets,
		}, []string{"service"}),
		probeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_total",
			Help:      "Probes by service and outcome.",
		}, []string{"service", "outcome"}),
		serviceUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "1 when the last probe classified the service as up.",
		}, []string{"service"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a polling cycle including the archive merge.",
			Buckets:   latencyBuckets,
		}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_services",
			Help:      "Services recorded in the last snapshot.",
		}),
		mergeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_merge_total",
			Help:      "Archive merges by result.",
		}, []string{"result"}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_merge_duration_seconds",
			Help:      "Time spent reading, merging and rewriting a day bucket.",
			Buckets:   prometheus.DefBuckets,
		}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Query requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Query request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.probeLatency,
		c.probeOutcomes,
		c.serviceUp,
		c.cycleDuration,
		c.snapshotSize,
		c.mergeTotal,
		c.mergeDuration,
		c.requestTotal,
		c.requestDuration,
	)

	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveProbe(serviceID string, status models.StatusName, latency time.Duration) {
	c.probeLatency.WithLabelValues(serviceID).Observe(latency.Seconds())

	outcome := OutcomeDown
	up := 0.0

	if status == models.StatusUp {
		outcome = OutcomeUp
		up = 1
	}

	c.probeOutcomes.WithLabelValues(serviceID, outcome).Inc()
	c.serviceUp.WithLabelValues(serviceID).Set(up)
}

func (c *Collector) ObserveUnreachable(serviceID string) {
	c.probeOutcomes.WithLabelValues(serviceID, OutcomeUnreachable).Inc()
	c.serviceUp.WithLabelValues(serviceID).Set(0)
}

func (c *Collector) ObserveCycle(duration time.Duration, services int) {
	c.cycleDuration.Observe(duration.Seconds())
	c.snapshotSize.Set(float64(services))
}

func (c *Collector) ObserveMerge(result string, duration time.Duration) {
	c.mergeTotal.WithLabelValues(result).Inc()
	c.mergeDuration.Observe(duration.Seconds())
}

func (c *Collector) ObserveRequest(method, route string, status int, duration time.Duration) {
	c.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
