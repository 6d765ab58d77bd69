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
	"sync"
	"time"

	"github.com/carverauto/warehouse/pkg/archive"
	"github.com/carverauto/warehouse/pkg/checker"
	"github.com/carverauto/warehouse/pkg/logger"
	"github.com/carverauto/warehouse/pkg/metrics"
	"github.com/carverauto/warehouse/pkg/models"
)

// Dependencies are the collaborators injected into a Poller. Prober and
// Clock default to the real implementations; Metrics and Events are optional.
type Dependencies struct {
	Archive Archive
	Keyer   *archive.DayKeyer
	Prober  checker.Prober
	Clock   Clock
	Metrics metrics.CycleRecorder
	Events  EventSink
}

// Cycle probes every configured service once and archives the snapshot.
type Cycle struct {
	services        []models.ServiceDescriptor
	domain          string
	machineIDHeader string
	probeTimeout    time.Duration
	prober          checker.Prober
	archive         Archive
	keyer           *archive.DayKeyer
	clock           Clock
	metrics         metrics.CycleRecorder
	events          EventSink
	logger          logger.Logger

	// states holds the last classification per service for change events.
	states map[string]models.StatusName
}

// probeOutcome is the result of probing one service.
type probeOutcome struct {
	service *models.ServiceDescriptor
	record  models.StatusRecord
	latency time.Duration
	err     error
}

// Poller runs a Cycle immediately and then once per poll interval.
type Poller struct {
	config    Config
	cycle     *Cycle
	archive   Archive
	clock     Clock
	logger    logger.Logger
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	PollFunc  func(ctx context.Context) error // Optional override
}
