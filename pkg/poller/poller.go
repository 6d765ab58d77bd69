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
	"time"

	"github.com/carverauto/warehouse/pkg/logger"
)

// New creates a new poller instance. config must already be validated.
func New(config *Config, deps Dependencies, log logger.Logger) (*Poller, error) {
	if deps.Clock == nil {
		deps.Clock = realClock{}
	}

	cycle, err := NewCycle(config, deps, log)
	if err != nil {
		return nil, err
	}

	return &Poller{
		config:  *config,
		cycle:   cycle,
		archive: deps.Archive,
		clock:   deps.Clock,
		logger:  log,
		done:    make(chan struct{}),
	}, nil
}

// Start implements the lifecycle.Service interface. It polls once right away
// and then on every tick until ctx is cancelled or Stop is called. Cycles
// never overlap.
func (p *Poller) Start(ctx context.Context) error {
	p.wg.Add(1)
	defer p.wg.Done()

	interval := time.Duration(p.config.PollInterval)
	ticker := p.clock.Ticker(interval)

	defer ticker.Stop()

	p.logger.Info().Dur("interval", interval).Int("services", len(p.config.Services)).Msg("Starting poller")

	if err := p.poll(ctx); err != nil {
		p.logger.Error().Err(err).Msg("Error during initial poll")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.Chan():
			if err := p.poll(ctx); err != nil {
				p.logger.Error().Err(err).Msg("Error during poll")
			}
		}
	}
}

// Stop implements the lifecycle.Service interface. It waits for an in-flight
// cycle to finish or for ctx to expire.
func (p *Poller) Stop(ctx context.Context) error {
	p.closeOnce.Do(func() {
		close(p.done)
	})

	finished := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		p.logger.Info().Msg("Poller stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) poll(ctx context.Context) error {
	if p.PollFunc != nil {
		return p.PollFunc(ctx)
	}

	_, err := p.cycle.Run(ctx)

	if p.config.RetentionDays > 0 {
		if _, pruneErr := p.archive.Prune(p.clock.Now()); pruneErr != nil {
			p.logger.Warn().Err(pruneErr).Msg("Failed to prune archive")
		}
	}

	return err
}
