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
	"time"

	"github.com/carverauto/warehouse/pkg/models"
)

// CycleRecorder receives the outcome of polling cycles and individual probes.
type CycleRecorder interface {
	ObserveProbe(serviceID string, status models.StatusName, latency time.Duration)
	ObserveUnreachable(serviceID string)
	ObserveCycle(duration time.Duration, services int)
}

// RequestRecorder receives one observation per query request.
type RequestRecorder interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}
