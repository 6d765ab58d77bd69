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

package poller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carverauto/warehouse/pkg/checker"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/models"
)

// NewCycle builds a cycle driver for the services in cfg. cfg must already
// be validated.
func NewCycle(cfg *Config, deps Dependencies, log logger.Logger) (*Cycle, error) {
	if deps.Archive == nil {
		return nil, errArchiveRequired
	}

	if deps.Keyer == nil {
		return nil, errKeyerRequired
	}

	if deps.Clock == nil {
		deps.Clock = realClock{}
	}

	timeout := time.Duration(cfg.ProbeTimeout)

	if deps.Prober == nil {
		deps.Prober = checker.NewHTTPProber(timeout)
	}

	return &Cycle{
		services:        append([]models.ServiceDescriptor(nil), cfg.Services...),
		domain:          cfg.Domain,
		machineIDHeader: cfg.MachineIDHeader,
		probeTimeout:    timeout,
		prober:          deps.Prober,
		archive:         deps.Archive,
		keyer:           deps.Keyer,
		clock:           deps.Clock,
		metrics:         deps.Metrics,
		events:          deps.Events,
		logger:          log,
		states:          make(map[string]models.StatusName, len(cfg.Services)),
	}, nil
}

// Run probes all services concurrently, merges the resulting snapshot into
// the bucket of the current day and returns it. Unreachable services are
// logged and left out of the snapshot. A merge failure is returned along with
// the snapshot that could not be archived.
func (c *Cycle) Run(ctx context.Context) (models.Snapshot, error) {
	now := c.clock.Now()
	dayKey := c.keyer.Key(now)

	c.logger.Info().Int("services", len(c.services)).Str("day", dayKey).Msg("Starting polling cycle")

	snapshot := c.probeAll(ctx)

	err := c.archive.Merge(ctx, dayKey, now, snapshot)

	if c.metrics != nil {
		c.metrics.ObserveCycle(c.clock.Now().Sub(now), len(snapshot))
	}

	if err != nil {
		c.logger.Error().Err(err).Str("day", dayKey).Msg("Failed to archive snapshot")

		return snapshot, fmt.Errorf("archive snapshot for %s: %w", dayKey, err)
	}

	c.logger.Info().
		Int("recorded", len(snapshot)).
		Int("unreachable", len(c.services)-len(snapshot)).
		Msg("Polling cycle completed")

	c.publish(ctx, dayKey, now, snapshot)

	return snapshot, nil
}

func (c *Cycle) probeAll(ctx context.Context) models.Snapshot {
	var wg sync.WaitGroup

	results := make(chan probeOutcome, len(c.services))

	for i := range c.services {
		wg.Add(1)

		go func(svc *models.ServiceDescriptor) {
			defer wg.Done()

			results <- c.probe(ctx, svc)
		}(&c.services[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	snapshot := make(models.Snapshot, len(c.services))

	for res := range results {
		id := res.service.ID

		if res.err != nil {
			c.logger.Error().
				Err(res.err).
				Str("service_id", id).
				Str("url", res.service.ProbeURL(c.domain)).
				Msg("Service unreachable, omitted from snapshot")

			if c.metrics != nil {
				c.metrics.ObserveUnreachable(id)
			}

			continue
		}

		if c.metrics != nil {
			c.metrics.ObserveProbe(id, res.record.Classification.Name, res.latency)
		}

		c.logger.Debug().
			Str("service_id", id).
			Int("status_code", res.record.StatusCode).
			Int("latency_ms", res.record.LatencyMs).
			Str("status", string(res.record.Classification.Name)).
			Msg("Service probed")

		snapshot[id] = res.record
	}

	return snapshot
}

func (c *Cycle) probe(ctx context.Context, svc *models.ServiceDescriptor) probeOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	url := svc.ProbeURL(c.domain)

	start := time.Now()
	resp, probeErr := c.prober.Probe(ctx, url)
	elapsed := time.Since(start)

	defer func() { _ = checker.CloseResponse(resp) }()

	result, err := checker.Normalize(resp, elapsed, probeErr, c.machineIDHeader)
	if err != nil {
		return probeOutcome{service: svc, err: err}
	}

	return probeOutcome{
		service: svc,
		record:  checker.BuildRecord(svc, c.domain, result),
		latency: elapsed,
	}
}

// publish emits the archive summary and one event per classification change.
// Failures are logged only.
func (c *Cycle) publish(ctx context.Context, dayKey string, at time.Time, snapshot models.Snapshot) {
	changes := c.trackStates(at, snapshot)

	if c.events == nil {
		return
	}

	hash, err := c.archive.ContentHash(dayKey)
	if err != nil {
		c.logger.Warn().Err(err).Str("day", dayKey).Msg("Failed to hash archived bucket")
	}

	down := make([]string, 0)

	for id, rec := range snapshot {
		if rec.Classification.Name == models.StatusDown {
			down = append(down, id)
		}
	}

	sort.Strings(down)

	if err := c.events.PublishSnapshotArchived(ctx, models.SnapshotArchivedEventData{
		DayKey:    dayKey,
		Timestamp: models.Millis(at),
		Services:  len(snapshot),
		Down:      down,
		Hash:      hash,
		ArchiveAt: at,
	}); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to publish snapshot event")
	}

	for i := range changes {
		if err := c.events.PublishServiceState(ctx, changes[i]); err != nil {
			c.logger.Warn().Err(err).Str("service_id", changes[i].ServiceID).Msg("Failed to publish state event")
		}
	}
}

// trackStates records the classification of every recorded service and
// returns the changes, ordered by service id. A service seen for the first
// time changes from unknown.
func (c *Cycle) trackStates(at time.Time, snapshot models.Snapshot) []models.ServiceStateEventData {
	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	var changes []models.ServiceStateEventData

	for _, id := range ids {
		rec := snapshot[id]

		prev, ok := c.states[id]
		if !ok {
			prev = models.StatusUnknown
		}

		if prev != rec.Classification.Name {
			changes = append(changes, models.ServiceStateEventData{
				ServiceID:     id,
				PreviousState: prev,
				CurrentState:  rec.Classification.Name,
				Reason:        rec.Classification.Reason,
				StatusCode:    rec.StatusCode,
				LatencyMs:     rec.LatencyMs,
				Timestamp:     at,
			})
		}

		c.states[id] = rec.Classification.Name
	}

	return changes
}
